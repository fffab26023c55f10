package model

import "time"

// Config is the complete claimstream configuration.
// Hierarchy (highest to lowest priority): CLI flags, CLAIMSTREAM_* env
// vars, ~/.claimstream/config.yaml, defaults.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	EventLog    EventLogConfig    `yaml:"event_log"`
	Store       StoreConfig       `yaml:"store"`
	HTTP        HTTPConfig        `yaml:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	LLM         LLMConfig         `yaml:"llm"`
	Output      OutputConfig      `yaml:"output"`
}

// ServerConfig controls the HTTP relay server.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	MaxInputBytes int64         `yaml:"max_input_bytes"` // cap on submitted content size
}

// EventLogConfig controls the TTL-bounded event log and the relay's
// poll cadence.
type EventLogConfig struct {
	TTL             time.Duration `yaml:"ttl"`              // log retention per run
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // expired-entry sweep cadence
	PollInterval    time.Duration `yaml:"poll_interval"`    // relay poll fallback
}

// StoreConfig controls the durable result store.
type StoreConfig struct {
	Path string `yaml:"path"` // SQLite database file
}

// HTTPConfig controls outbound requests made while checking verdict
// sources.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// ConcurrencyConfig bounds pipeline-side parallelism.
type ConcurrencyConfig struct {
	VerifyWorkers int     `yaml:"verify_workers"` // concurrent claim verifications per run
	SourceRPS     float64 `yaml:"source_rps"`     // per-domain source check rate
	SourceBurst   int     `yaml:"source_burst"`   // per-domain burst
	RobotsRespect bool    `yaml:"robots_respect"` // honor robots.txt on source checks
}

// LLMConfig configures the claim verifier provider. An empty Provider
// disables LLM verification; the pipeline falls back to heuristics.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai" or ""
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // from env only, never persisted
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// OutputConfig controls CLI output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8787",
			ReadTimeout:   15 * time.Second,
			IdleTimeout:   60 * time.Second,
			MaxInputBytes: 32_000,
		},
		EventLog: EventLogConfig{
			TTL:             24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
			PollInterval:    time.Second,
		},
		Store: StoreConfig{
			Path: "claimstream.db",
		},
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "Claimstream/0.1 (+https://github.com/ppiankov/claimstream)",
			MaxBodyBytes: 2_000_000,
		},
		Concurrency: ConcurrencyConfig{
			VerifyWorkers: 4,
			SourceRPS:     1,
			SourceBurst:   3,
			RobotsRespect: true,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "",
			Timeout:   30,
			MaxTokens: 600,
		},
		Output: OutputConfig{},
	}
}
