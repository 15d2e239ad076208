package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/weiawesome/wes-io-live/discovery-service/pkg/config"
)

type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	Search        SearchConfig
	Elasticsearch ElasticsearchConfig
	AI            AIConfig
	Cache         CacheConfig
	History       HistoryConfig
	Categories    []string
	Log           LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// StorageConfig selects the persistent key-value medium.
type StorageConfig struct {
	Backend string       `mapstructure:"backend"` // memory | file | sqlite | redis
	Memory  MemoryConfig `mapstructure:"memory"`
	File    FileConfig   `mapstructure:"file"`
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
	Redis   RedisConfig  `mapstructure:"redis"`
}

type MemoryConfig struct {
	// Capacity bounds the total stored bytes; 0 is unbounded.
	Capacity int `mapstructure:"capacity"`
}

type FileConfig struct {
	BasePath string `mapstructure:"base_path"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type SearchConfig struct {
	Backend string        `mapstructure:"backend"` // http | elasticsearch
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	IndexPrefix string   `mapstructure:"index_prefix"`
}

type AIConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	RecommendTTL time.Duration `mapstructure:"recommend_ttl"`
	// MaxEntries caps each keyed store; 0 keeps every entry.
	MaxEntries int `mapstructure:"max_entries"`
}

type HistoryConfig struct {
	Limit int `mapstructure:"limit"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8095)
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.memory.capacity", 5*1024*1024)
	v.SetDefault("storage.file.base_path", "./data/kv")
	v.SetDefault("storage.sqlite.path", "./data/discovery.db")
	v.SetDefault("storage.redis.address", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "discovery")
	v.SetDefault("search.backend", "http")
	v.SetDefault("search.base_url", "http://localhost:5000")
	v.SetDefault("search.timeout", "10s")
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.index_prefix", "discovery-")
	v.SetDefault("ai.endpoint", "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.timeout", "20s")
	v.SetDefault("cache.session_ttl", "5m")
	v.SetDefault("cache.recommend_ttl", "24h")
	v.SetDefault("cache.max_entries", 0)
	v.SetDefault("history.limit", 5)
	v.SetDefault("categories", []string{"jobs", "products", "universities"})
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("storage.backend", "STORAGE_BACKEND")
	v.BindEnv("storage.redis.address", "REDIS_ADDRESS")
	v.BindEnv("storage.redis.password", "REDIS_PASSWORD")
	v.BindEnv("search.base_url", "SEARCH_BASE_URL")
	v.BindEnv("elasticsearch.addresses", "ES_ADDRESSES")
	v.BindEnv("ai.api_key", "GEMINI_API_KEY")
	v.BindEnv("ai.endpoint", "GEMINI_ENDPOINT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "file", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q (valid: memory, file, sqlite, redis)", c.Storage.Backend)
	}
	switch c.Search.Backend {
	case "http", "elasticsearch":
	default:
		return fmt.Errorf("unknown search backend %q (valid: http, elasticsearch)", c.Search.Backend)
	}
	if c.Cache.SessionTTL <= 0 || c.Cache.RecommendTTL <= 0 {
		return fmt.Errorf("cache ttls must be positive")
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("history.limit must be positive")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	return nil
}
