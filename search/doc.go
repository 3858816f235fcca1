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


// Package search ranks manuscript chunks against a reader's question.
//
// The Retriever uses literal keyword containment:
//   - The query is split on whitespace and case-folded; tokens of three
//     characters or fewer are dropped.
//   - Each token found as a substring of a chunk adds a fixed number of points.
//     Repeated query tokens count every time they appear in the query.
//   - A question that asks about the author boosts the first chunk, which
//     usually carries the title page.
//
// Chunks under the score floor are discarded and the rest are returned in
// descending score order, ties keeping their original order.
package search
