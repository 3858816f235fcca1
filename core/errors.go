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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidTurn indicates a Turn failed validation.
	ErrInvalidTurn = errors.New("invalid turn")

	// ErrInvalidRole indicates a Role value outside system, user, assistant.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidTurnStatus indicates an unknown TurnStatus value.
	ErrInvalidTurnStatus = errors.New("invalid turn status")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidLanguage indicates an unsupported language tag.
	ErrInvalidLanguage = errors.New("unsupported language")

	// ErrEmptyDocument indicates a document with no bytes.
	ErrEmptyDocument = errors.New("document cannot be empty")

	// ErrMalformedExtraction indicates the extraction response could not be
	// decoded into the expected structure. Nothing from such a response is used.
	ErrMalformedExtraction = errors.New("malformed extraction response")
)
