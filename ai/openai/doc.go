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


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package implements the ai.AIProvider interface using the langchaingo
// library. The default target is Groq's OpenAI-compatible endpoint, but any
// service that accepts image_url content parts and JSON response mode works.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("https://api.groq.com/openai"),  // /v1 added automatically
//	    ai.WithAPIKeyEnv("GROQ_API_KEY"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)  // ai.ErrMissingCredential when no key is set
//	}
//	defer provider.Close()
//
//	extraction, report, err := provider.Extractor().Extract(ctx, ai.ExtractRequest{Document: pdf})
//	answer, err := provider.ChatStreamer().Stream(ctx, turns, func(s string) error {
//	    fmt.Print(s)
//	    return nil
//	})
//
// # Extraction
//
// The document travels as a data URL in an image_url part next to a text part
// holding the system instruction and the extraction instructions. The
// response is requested in JSON mode; code fences are stripped and common
// defects repaired before core.DecodeExtraction validates it.
package openai
