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


package conversation

import "errors"

var (
	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrGateRequired is returned when a rate gate is not provided.
	ErrGateRequired = errors.New("rate gate required")

	// ErrRegistryRequired is returned when a session registry is not provided.
	ErrRegistryRequired = errors.New("session registry required")

	// ErrDocumentRequired is returned when ExtractAxioms gets a nil document.
	ErrDocumentRequired = errors.New("document required")

	// ErrInvalidMaxAttempts is returned when RetryWithBackoff is called with maxAttempts <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrUnknownPolicy is returned by ParseFailedTurnPolicy for an unknown name.
	ErrUnknownPolicy = errors.New("unknown failed-turn policy")
)
