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


package ai

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultHost is Groq's OpenAI-compatible endpoint.
	DefaultHost = "https://api.groq.com/openai/v1"

	// DefaultModel is used for both extraction and chat.
	DefaultModel = "meta-llama/llama-4-maverick-17b-128e-instruct"

	// DefaultAPIKeyEnv names the environment variable holding the credential.
	DefaultAPIKeyEnv = "GROQ_API_KEY"
)

// ErrMissingCredential is returned when no usable API key is configured.
// It is raised before any request is attempted.
var ErrMissingCredential = errors.New("ai config: API key is missing")

// placeholderKey is what an unset variable turns into after naive string
// interpolation by some deployment tooling. It is treated as missing.
const placeholderKey = "undefined"

// Config holds configuration for the language-model provider.
type Config struct {
	// Host is the base URL of the OpenAI-compatible API.
	// Example: "https://api.groq.com/openai/v1"
	Host string

	// Model is the model identifier used for extraction and chat.
	Model string

	// APIKey is the credential. When empty it is read from APIKeyEnv.
	APIKey string

	// APIKeyEnv is the environment variable consulted when APIKey is empty.
	// Default: "GROQ_API_KEY"
	APIKeyEnv string

	// Temperature is the sampling temperature for both calls.
	// Default: 0.2
	Temperature float64

	// AxiomCount is how many axioms the extraction prompt asks for.
	// Default: 13
	AxiomCount int

	// SnippetCount is how many verbatim snippets the extraction prompt asks for.
	// Default: 10
	SnippetCount int

	// Timeout bounds a single HTTP request. Zero leaves the transport default.
	Timeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the API base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the credential directly.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithAPIKeyEnv sets the environment variable the credential is read from.
func WithAPIKeyEnv(name string) ConfigOption {
	return func(c *Config) {
		c.APIKeyEnv = name
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithAxiomCount sets the number of axioms requested at extraction.
func WithAxiomCount(n int) ConfigOption {
	return func(c *Config) {
		c.AxiomCount = n
	}
}

// WithSnippetCount sets the number of snippets requested at extraction.
func WithSnippetCount(n int) ConfigOption {
	return func(c *Config) {
		c.SnippetCount = n
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultConfig returns a Config targeting Groq with the manuscript model.
func DefaultConfig() *Config {
	return &Config{
		Host:         DefaultHost,
		Model:        DefaultModel,
		APIKeyEnv:    DefaultAPIKeyEnv,
		Temperature:  0.2,
		AxiomCount:   13,
		SnippetCount: 10,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithModel("llama3.2-vision"),
//       WithAPIKey("none"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which OpenAI-compatible
// APIs require.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// ResolveAPIKey returns the credential from APIKey or, failing that, from
// the APIKeyEnv environment variable. A missing key or the literal
// "undefined" yields ErrMissingCredential.
func (c *Config) ResolveAPIKey() (string, error) {
	key := strings.TrimSpace(c.APIKey)
	if key == "" && c.APIKeyEnv != "" {
		key = strings.TrimSpace(os.Getenv(c.APIKeyEnv))
	}
	if key == "" || key == placeholderKey {
		if c.APIKeyEnv != "" {
			return "", fmt.Errorf("%w: set %s", ErrMissingCredential, c.APIKeyEnv)
		}
		return "", ErrMissingCredential
	}
	return key, nil
}

// Validate checks that the configuration is valid and complete, including
// the credential. It normalizes the configuration first.
func (c *Config) Validate() error {
	// Normalize first to ensure the host is in correct format
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.AxiomCount < 1 {
		return errors.New("ai config: AxiomCount must be at least 1")
	}
	if c.SnippetCount < 0 {
		return errors.New("ai config: SnippetCount must not be negative")
	}
	if c.Timeout < 0 {
		return errors.New("ai config: Timeout must not be negative")
	}
	if _, err := c.ResolveAPIKey(); err != nil {
		return err
	}
	return nil
}
