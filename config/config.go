// Package config loads the folio application configuration from YAML.
//
// Every tunable constant of the pipeline lives here with its default, so the
// model, the retrieval weights and the pacing of outbound calls can change
// without a rebuild.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/chunker"
	"github.com/poiesic/folio/search"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "folio.yaml"

// Failed-turn policies for ChatConfig.FailedTurnPolicy.
const (
	// PolicyKeep leaves a failed user turn in history, marked failed.
	PolicyKeep = "keep"
	// PolicyRollback removes a failed user turn from history.
	PolicyRollback = "rollback"
)

// ProviderConfig selects the language model and how to reach it.
type ProviderConfig struct {
	// Host is the OpenAI-compatible base URL.
	Host string `yaml:"host"`
	// Model is used for both extraction and chat.
	Model string `yaml:"model"`
	// APIKeyEnv names the variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
	// Temperature applies to both calls. Lower is more literal.
	Temperature float64 `yaml:"temperature"`
	// AxiomCount is the number of axioms requested at ingestion.
	AxiomCount int `yaml:"axiom_count"`
	// SnippetCount is the number of verbatim snippets requested at ingestion.
	SnippetCount int `yaml:"snippet_count"`
	// TimeoutSecs bounds one HTTP request; 0 keeps the transport default.
	TimeoutSecs int `yaml:"timeout_secs"`
}

// ChunkerConfig sets the retrieval windows cut from the full text.
type ChunkerConfig struct {
	// Size is the window length in characters.
	Size int `yaml:"size"`
	// Overlap is how many characters consecutive windows share.
	Overlap int `yaml:"overlap"`
	// MinLength drops windows shorter than this after trimming.
	MinLength int `yaml:"min_length"`
}

// RetrievalConfig sets the keyword scorer.
type RetrievalConfig struct {
	// TopK caps how many chunks are embedded in a question.
	TopK int `yaml:"top_k"`
	// MinScore drops chunks scoring below it.
	MinScore int `yaml:"min_score"`
	// TokenMinLength keeps only query tokens longer than this.
	TokenMinLength int `yaml:"token_min_length"`
	// MatchPoints is added per query token found in a chunk.
	MatchPoints int `yaml:"match_points"`
	// AuthorBoost is added to the first chunk when the question asks about the author.
	AuthorBoost int `yaml:"author_boost"`
	// AuthorWords trigger the author boost.
	AuthorWords []string `yaml:"author_words"`
}

// GateConfig paces outbound model calls.
type GateConfig struct {
	// MinGapMS is the minimum time between two calls, release to release.
	MinGapMS int `yaml:"min_gap_ms"`
}

// SessionConfig sets conversation policies.
type SessionConfig struct {
	// MaxHistoryTurns caps the turns sent with each question; 0 sends all.
	MaxHistoryTurns int `yaml:"max_history_turns"`
	// FailedTurnPolicy is "keep" or "rollback".
	FailedTurnPolicy string `yaml:"failed_turn_policy"`
	// TextFallback chunks the local PDF text layer when the model returns no full text.
	TextFallback bool `yaml:"text_fallback"`
	// Workers sizes the background pool that persists sessions and publishes events.
	Workers int `yaml:"workers"`
}

// StorageConfig locates the session database.
type StorageConfig struct {
	// Path of the BadgerDB directory.
	Path string `yaml:"path"`
	// InMemory keeps sessions only for the life of the process.
	InMemory bool `yaml:"in_memory"`
}

// EventsConfig enables NATS event publication when NATSURL is set.
type EventsConfig struct {
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	// TokenEnv names the variable holding the NATS token.
	TokenEnv string `yaml:"token_env"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// MaxUploadMB bounds an uploaded document.
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	// Extensions of files that trigger ingestion.
	Extensions []string `yaml:"extensions"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Gate      GateConfig      `yaml:"gate"`
	Session   SessionConfig   `yaml:"session"`
	Storage   StorageConfig   `yaml:"storage"`
	Events    EventsConfig    `yaml:"events"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML and fills unset fields with defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./folio.yaml first, then ~/.config/folio/config.yaml.
// If neither exists, it writes defaults to ~/.config/folio/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	if _, err := os.Stat(FileName); err == nil {
		cfg, err := Load(FileName)
		return cfg, FileName, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath returns ~/.config/folio/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "folio", "config.yaml"), nil
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".folio", "db")
	}
	return filepath.Join(home, ".local", "share", "folio", "db")
}

// Default returns the built-in configuration with environment overrides applied.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	cfg.ApplyEnv()
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	aiDefaults := ai.DefaultConfig()
	p := &cfg.Provider
	if p.Host == "" {
		p.Host = aiDefaults.Host
	}
	if p.Model == "" {
		p.Model = aiDefaults.Model
	}
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = aiDefaults.APIKeyEnv
	}
	if p.Temperature == 0 {
		p.Temperature = aiDefaults.Temperature
	}
	if p.AxiomCount == 0 {
		p.AxiomCount = aiDefaults.AxiomCount
	}
	if p.SnippetCount == 0 {
		p.SnippetCount = aiDefaults.SnippetCount
	}

	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = chunker.DefaultSize
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = chunker.DefaultOverlap
	}
	if cfg.Chunker.MinLength == 0 {
		cfg.Chunker.MinLength = chunker.DefaultMinLength
	}

	r := &cfg.Retrieval
	if r.TopK == 0 {
		r.TopK = search.DefaultTopK
	}
	if r.MinScore == 0 {
		r.MinScore = search.DefaultMinScore
	}
	if r.TokenMinLength == 0 {
		r.TokenMinLength = search.DefaultTokenMinLength
	}
	if r.MatchPoints == 0 {
		r.MatchPoints = search.DefaultMatchPoints
	}
	if r.AuthorBoost == 0 {
		r.AuthorBoost = search.DefaultAuthorBoost
	}
	if len(r.AuthorWords) == 0 {
		r.AuthorWords = append([]string(nil), search.DefaultAuthorWords...)
	}

	if cfg.Gate.MinGapMS == 0 {
		cfg.Gate.MinGapMS = 3500
	}

	if cfg.Session.FailedTurnPolicy == "" {
		cfg.Session.FailedTurnPolicy = PolicyKeep
	}
	if cfg.Session.Workers == 0 {
		cfg.Session.Workers = 4
	}

	if cfg.Storage.Path == "" && !cfg.Storage.InMemory {
		cfg.Storage.Path = defaultDataPath()
	}

	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "folio"
	}
	if cfg.Events.TokenEnv == "" {
		cfg.Events.TokenEnv = "NATS_TOKEN"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}

	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = []string{".pdf"}
	}
}

// Environment variables that override file values.
const (
	EnvModel       = "FOLIO_MODEL"
	EnvHost        = "FOLIO_HOST"
	EnvStoragePath = "FOLIO_STORAGE_PATH"
	EnvNATSURL     = "FOLIO_NATS_URL"
	EnvServerAddr  = "FOLIO_ADDR"
)

// ApplyEnv overrides fields from FOLIO_* variables when they are set.
func (c *AppConfig) ApplyEnv() {
	if v := os.Getenv(EnvModel); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		c.Provider.Host = v
	}
	if v := os.Getenv(EnvStoragePath); v != "" {
		c.Storage.Path = v
		c.Storage.InMemory = false
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.Events.NATSURL = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks values that defaults cannot repair.
func (c *AppConfig) Validate() error {
	if c.Chunker.Size <= c.Chunker.Overlap || c.Chunker.Overlap < 0 {
		return fmt.Errorf("chunker: size (%d) must be greater than overlap (%d) and overlap must not be negative",
			c.Chunker.Size, c.Chunker.Overlap)
	}
	if c.Retrieval.TopK < 0 {
		return errors.New("retrieval: top_k must not be negative")
	}
	if c.Gate.MinGapMS < 0 {
		return errors.New("gate: min_gap_ms must not be negative")
	}
	if c.Session.MaxHistoryTurns < 0 {
		return errors.New("session: max_history_turns must not be negative")
	}
	switch c.Session.FailedTurnPolicy {
	case PolicyKeep, PolicyRollback:
	default:
		return fmt.Errorf("session: unknown failed_turn_policy %q", c.Session.FailedTurnPolicy)
	}
	if c.Provider.TimeoutSecs < 0 {
		return errors.New("provider: timeout_secs must not be negative")
	}
	return nil
}

// AIConfig converts the provider section.
func (c *AppConfig) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.Provider.Host),
		ai.WithModel(c.Provider.Model),
		ai.WithAPIKeyEnv(c.Provider.APIKeyEnv),
		ai.WithTemperature(c.Provider.Temperature),
		ai.WithAxiomCount(c.Provider.AxiomCount),
		ai.WithSnippetCount(c.Provider.SnippetCount),
		ai.WithTimeout(time.Duration(c.Provider.TimeoutSecs)*time.Second),
	)
}

// ChunkerOptions converts the chunker section.
func (c *AppConfig) ChunkerOptions() []chunker.Option {
	return []chunker.Option{
		chunker.WithSize(c.Chunker.Size),
		chunker.WithOverlap(c.Chunker.Overlap),
		chunker.WithMinLength(c.Chunker.MinLength),
	}
}

// RetrieverOptions converts the retrieval section.
func (c *AppConfig) RetrieverOptions() []search.Option {
	return []search.Option{
		search.WithTopK(c.Retrieval.TopK),
		search.WithMinScore(c.Retrieval.MinScore),
		search.WithTokenMinLength(c.Retrieval.TokenMinLength),
		search.WithMatchPoints(c.Retrieval.MatchPoints),
		search.WithAuthorBoost(c.Retrieval.AuthorBoost),
		search.WithAuthorWords(c.Retrieval.AuthorWords...),
	}
}

// MinGap returns the gate interval.
func (c *AppConfig) MinGap() time.Duration {
	return time.Duration(c.Gate.MinGapMS) * time.Millisecond
}

// NATSToken reads the token from the configured variable.
func (c *AppConfig) NATSToken() string {
	if c.Events.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Events.TokenEnv)
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}
