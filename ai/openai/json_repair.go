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


package openai

// repairJSON fixes common formatting defects in model-generated JSON.
// It restores a missing opening quote before an object key (`, type":` becomes
// `, "type":`) and drops trailing commas before a closing brace or bracket.
// Text inside string literals is never altered.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	inString := false
	for i := 0; i < len(in); i++ {
		ch := in[i]

		if inString {
			out = append(out, ch)
			switch ch {
			case '\\':
				if i+1 < len(in) {
					i++
					out = append(out, in[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			out = append(out, ch)
		case ',':
			next := skipSpace(in, i+1)
			if next < len(in) && (in[next] == '}' || in[next] == ']') {
				continue
			}
			out = append(out, ch)
			i = repairKey(in, i+1, &out)
		case '{':
			out = append(out, ch)
			i = repairKey(in, i+1, &out)
		default:
			out = append(out, ch)
		}
	}

	return string(out)
}

// repairKey copies whitespace starting at pos and, when an unquoted key
// followed by `":` comes next, writes it with both quotes. It returns the
// index of the last rune consumed.
func repairKey(in []rune, pos int, out *[]rune) int {
	i := pos
	for i < len(in) && isSpace(in[i]) {
		*out = append(*out, in[i])
		i++
	}
	if i >= len(in) || !isLetter(in[i]) {
		return i - 1
	}

	end := i
	for end < len(in) && isKeyRune(in[end]) {
		end++
	}
	if end+1 < len(in) && in[end] == '"' && in[end+1] == ':' {
		*out = append(*out, '"')
		*out = append(*out, in[i:end]...)
		*out = append(*out, '"')
		return end
	}
	return i - 1
}

func skipSpace(in []rune, pos int) int {
	for pos < len(in) && isSpace(in[pos]) {
		pos++
	}
	return pos
}

func isKeyRune(r rune) bool {
	return isLetter(r) || r == '_' || (r >= '0' && r <= '9')
}
