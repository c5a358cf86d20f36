package model

import "time"

// Solid type index predicates discovered by default
const (
	SolidPublicTypeIndex  = "http://www.w3.org/ns/solid/terms#publicTypeIndex"
	SolidPrivateTypeIndex = "http://www.w3.org/ns/solid/terms#privateTypeIndex"
)

// FanOut selects how discovered type index documents are dereferenced
type FanOut string

const (
	FanOutSequential FanOut = "sequential" // One at a time, first failure aborts
	FanOutConcurrent FanOut = "concurrent" // Bounded parallel, first failure cancels the rest
)

// Config is the complete tool configuration
type Config struct {
	Extractor    ExtractorConfig    `yaml:"extractor" mapstructure:"extractor"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// ExtractorConfig configures the type index link extractor
type ExtractorConfig struct {
	TypeIndexPredicates []string `yaml:"type_index_predicates" mapstructure:"type_index_predicates"`
	OnlyMatchingTypes   bool     `yaml:"only_matching_types" mapstructure:"only_matching_types"`
	FanOut              FanOut   `yaml:"fan_out" mapstructure:"fan_out"`
}

// HTTPConfig configures document dereferencing
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// RateLimitingConfig configures per-domain request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64            `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int                `yaml:"burst_size" mapstructure:"burst_size"`
	Domains           []DomainRateConfig `yaml:"domains,omitempty" mapstructure:"domains"` // Overrides for specific pod providers
}

// DomainRateConfig paces one registrable domain differently from the default
type DomainRateConfig struct {
	Domain            string  `yaml:"domain" mapstructure:"domain"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig configures the dereference cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures worker counts
type ConcurrencyConfig struct {
	Workers          int `yaml:"workers" mapstructure:"workers"`                     // Seeds processed in parallel by batch
	DereferenceLimit int `yaml:"dereference_limit" mapstructure:"dereference_limit"` // Type index fetches in flight per run (concurrent fan-out)
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// OutputConfig configures CLI output
type OutputConfig struct {
	Verbose     bool   `yaml:"verbose" mapstructure:"verbose"`
	JSON        bool   `yaml:"json" mapstructure:"json"`
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Extractor: ExtractorConfig{
			TypeIndexPredicates: []string{SolidPublicTypeIndex, SolidPrivateTypeIndex},
			OnlyMatchingTypes:   true,
			FanOut:              FanOutSequential,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "typeindex/0.1 (+https://github.com/ppiankov/typeindex)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".typeindex-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:          4,
			DereferenceLimit: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks a configuration for values the tool cannot run with
func (c *Config) Validate() error {
	if len(c.Extractor.TypeIndexPredicates) == 0 {
		return ErrNoPredicates
	}
	switch c.Extractor.FanOut {
	case FanOutSequential, FanOutConcurrent, "":
	default:
		return &ConfigError{Field: "extractor.fan_out", Value: string(c.Extractor.FanOut)}
	}
	for _, d := range c.RateLimiting.Domains {
		if d.Domain == "" || d.RequestsPerSecond <= 0 {
			return &ConfigError{Field: "rate_limiting.domains", Value: d.Domain}
		}
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return &ConfigError{Field: "http.max_body_bytes", Value: "non-positive"}
	}
	return nil
}
