// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for folio sessions.
//
// This package defines the repository interface that decouples persistence
// from the conversation logic, so a session survives process restarts without
// the conversation package knowing about BadgerDB.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return interface types:
//
//	repo, err := badger.NewSessionRepository(backend)  // returns storage.SessionRepository
//
// Internal constructors may return concrete types since they are only used
// within the implementation package.
//
// # Records
//
// A SessionRecord holds everything needed to resume a session: the
// conversation history, the derived chunks and full text, axioms, metadata
// and snippets. Raw document bytes are not part of it. Records are encoded
// as JSON.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	repo, err := badger.NewSessionRepository(backend)
//	defer repo.Close()
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer repo.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation.
package storage
