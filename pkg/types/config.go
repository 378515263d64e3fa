// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourcesConfig holds settings for the platform adapters.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Limit is the number of records requested from each adapter (default 8).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// FetchTimeout is the independent budget for each source fetch (default 15s).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout" mapstructure:"fetch_timeout"`

	EnableGitHub      bool `json:"enable_github" yaml:"enable_github" mapstructure:"enable_github"`
	EnableHuggingFace bool `json:"enable_huggingface" yaml:"enable_huggingface" mapstructure:"enable_huggingface"`
	EnableReddit      bool `json:"enable_reddit" yaml:"enable_reddit" mapstructure:"enable_reddit"`

	// GitHubToken raises the GitHub search rate limit when set.
	GitHubToken string `json:"github_token,omitempty" yaml:"github_token,omitempty" mapstructure:"github_token"`

	// RedditCommentThreads is how many top discussion threads get their
	// comments fetched for sentiment and top_comments (default 3, 0 disables).
	RedditCommentThreads int `json:"reddit_comment_threads" yaml:"reddit_comment_threads" mapstructure:"reddit_comment_threads"`

	// RequestsPerMinute caps outbound requests per adapter (default 30).
	RequestsPerMinute float64 `json:"requests_per_minute" yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// ProviderKind selects an AI provider implementation.
type ProviderKind string

const (
	ProviderGroq   ProviderKind = "groq"
	ProviderOpenAI ProviderKind = "openai"
	ProviderOllama ProviderKind = "ollama"
	ProviderGemini ProviderKind = "gemini"
	ProviderClaude ProviderKind = "claude"
)

// ProviderConfig configures one AI provider in the failover chain.
type ProviderConfig struct {
	// Name labels the provider in logs and error lists (defaults to Kind).
	Name string       `json:"name" yaml:"name" mapstructure:"name"`
	Kind ProviderKind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Model is the provider model identifier (e.g. "llama-3.1-8b-instant").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key. Ollama ignores it.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Timeout bounds a single call to the provider (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// AIConfig holds settings for query generation and synthesis.
type AIConfig struct {
	// Providers is the ordered failover chain: primary first, then backups.
	// The rule-based tier is always appended and is not configured here.
	Providers []ProviderConfig `json:"providers" yaml:"providers" mapstructure:"providers"`

	// MaxGeneratedQueryLength caps each generated per-source query (default 256).
	MaxGeneratedQueryLength int `json:"max_generated_query_length" yaml:"max_generated_query_length" mapstructure:"max_generated_query_length"`

	// SynthesisTopN is the number of top-ranked entries sent for synthesis (default 5).
	SynthesisTopN int `json:"synthesis_top_n" yaml:"synthesis_top_n" mapstructure:"synthesis_top_n"`
}

// CacheBackend identifies the cache storage implementation.
type CacheBackend string

const (
	CacheNone   CacheBackend = "none"
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
	CacheSQLite CacheBackend = "sqlite"
)

// CacheConfig holds settings for the response cache.
type CacheConfig struct {
	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// TTL is the lifetime of cached query results (default 600s).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// TrendingTTL is the lifetime of the cached trending view (default 1800s).
	TrendingTTL time.Duration `json:"trending_ttl" yaml:"trending_ttl" mapstructure:"trending_ttl"`

	// KeyPrefix namespaces keys in shared backends (default "threadseeker:").
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`

	RedisAddr     string `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// EngineConfig holds settings for the search orchestrator.
type EngineConfig struct {
	// MaxQueryLength is the longest accepted trimmed query (default 1000).
	MaxQueryLength int `json:"max_query_length" yaml:"max_query_length" mapstructure:"max_query_length"`

	// TrendingPerSource caps each source list in the trending view (default 6).
	TrendingPerSource int `json:"trending_per_source" yaml:"trending_per_source" mapstructure:"trending_per_source"`

	// PolicyFile optionally points to a YAML ranking policy.
	PolicyFile string `json:"policy_file,omitempty" yaml:"policy_file,omitempty" mapstructure:"policy_file"`

	// IntentWeights overrides the per-intent source weight table.
	IntentWeights map[Intent]map[Source]float64 `json:"intent_weights,omitempty" yaml:"intent_weights,omitempty" mapstructure:"intent_weights"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Mode is the gin mode: debug, release, or test.
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// AllowedOrigins lists browser origins allowed by CORS. "*" allows any.
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty" mapstructure:"allowed_origins"`
}

// Config groups all component configurations.
type Config struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine" mapstructure:"engine"`
	Sources SourcesConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
	AI      AIConfig      `json:"ai" yaml:"ai" mapstructure:"ai"`
	Cache   CacheConfig   `json:"cache" yaml:"cache" mapstructure:"cache"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns the configuration used when no file or flag overrides a value.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			MaxQueryLength:    1000,
			TrendingPerSource: 6,
		},
		Sources: SourcesConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   15 * time.Second,
				UserAgent: "threadseeker/0.1",
			},
			Limit:             8,
			FetchTimeout:      15 * time.Second,
			EnableGitHub:      true,
			EnableHuggingFace: true,
			EnableReddit:      true,
			RequestsPerMinute: 30,

			RedditCommentThreads: 3,
		},
		AI: AIConfig{
			MaxGeneratedQueryLength: 256,
			SynthesisTopN:           5,
		},
		Cache: CacheConfig{
			Backend:     CacheMemory,
			TTL:         600 * time.Second,
			TrendingTTL: 1800 * time.Second,
			KeyPrefix:   "threadseeker:",
			RedisAddr:   "localhost:6379",
			SQLitePath:  "threadseeker-cache.db",
		},
		Server: ServerConfig{
			Addr:           ":8000",
			Mode:           "release",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}
