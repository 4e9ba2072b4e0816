package types

import "time"

// LogConfig holds logger construction settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// OutputPaths lists zap sinks, e.g. "stderr" or a file path.
	OutputPaths []string `json:"output_paths" yaml:"output_paths" mapstructure:"output_paths"`
}

// SynonymBackend selects where synonym lookups are answered.
type SynonymBackend string

const (
	BackendMemory   SynonymBackend = "memory"
	BackendSQLite   SynonymBackend = "sqlite"
	BackendPostgres SynonymBackend = "postgres"
	BackendRPC      SynonymBackend = "rpc"
)

// CacheConfig configures the optional Redis cache in front of the matcher.
type CacheConfig struct {
	// RedisAddr enables the cache when non-empty (host:port).
	RedisAddr     string        `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	TTL           time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// SynonymConfig holds settings for synonym expansion.
type SynonymConfig struct {
	Backend SynonymBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// MinSimilarity is the trigram threshold below which matches are dropped (default 0.3).
	MinSimilarity float64 `json:"min_similarity" yaml:"min_similarity" mapstructure:"min_similarity"`

	// Limit is the maximum number of matches kept per surface (default 5).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// Concurrency bounds parallel per-surface lookups (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	PostgresDSN string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty" mapstructure:"postgres_dsn"`

	// RPCURL is the base URL of the dictionary RPC service.
	RPCURL      string        `json:"rpc_url,omitempty" yaml:"rpc_url,omitempty" mapstructure:"rpc_url"`
	RPCFunction string        `json:"rpc_function,omitempty" yaml:"rpc_function,omitempty" mapstructure:"rpc_function"`
	RPCKey      string        `json:"rpc_key,omitempty" yaml:"rpc_key,omitempty" mapstructure:"rpc_key"`
	RPCTimeout  time.Duration `json:"rpc_timeout" yaml:"rpc_timeout" mapstructure:"rpc_timeout"`

	Cache CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`
}

// StoreConfig locates the local SQLite database.
type StoreConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// RiskConfig holds Risk Evaluator tuning.
type RiskConfig struct {
	// LowConfidenceThreshold is the quality confidence below which an
	// otherwise clean label is reported as medium (default 0.7).
	LowConfidenceThreshold float64 `json:"low_confidence_threshold" yaml:"low_confidence_threshold" mapstructure:"low_confidence_threshold"`

	// RulesFile optionally replaces the built-in diet/intolerance tables.
	RulesFile string `json:"rules_file,omitempty" yaml:"rules_file,omitempty" mapstructure:"rules_file"`
}

// ModelPricing is the USD price per million tokens for one model.
type ModelPricing struct {
	InputPerMTok  float64 `json:"input_per_mtok" yaml:"input_per_mtok" mapstructure:"input_per_mtok"`
	OutputPerMTok float64 `json:"output_per_mtok" yaml:"output_per_mtok" mapstructure:"output_per_mtok"`
}

// CostConfig overrides or extends the built-in pricing table.
type CostConfig struct {
	Pricing map[string]ModelPricing `json:"pricing" yaml:"pricing" mapstructure:"pricing"`
}

// Config groups all settings for the CLI.
type Config struct {
	Log      LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
	Synonyms SynonymConfig `json:"synonyms" yaml:"synonyms" mapstructure:"synonyms"`
	Store    StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Risk     RiskConfig    `json:"risk" yaml:"risk" mapstructure:"risk"`
	Cost     CostConfig    `json:"cost" yaml:"cost" mapstructure:"cost"`
}
