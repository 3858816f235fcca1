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


package search

import "errors"

var (
	// ErrInvalidTopK is returned when topK is less than 1.
	ErrInvalidTopK = errors.New("topK must be at least 1")

	// ErrInvalidWeight is returned when a score weight or threshold is negative.
	ErrInvalidWeight = errors.New("score weights must not be negative")

	// ErrInvalidTokenLength is returned when the token length floor is negative.
	ErrInvalidTokenLength = errors.New("token length floor must not be negative")
)
