package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the tutoring backend.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	LLM       LLMConfig       `mapstructure:"llm"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// StorageConfig groups the persistence backends.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a Postgres connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// VectorConfig describes the Qdrant collection holding the textbook index.
type VectorConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Collection string        `mapstructure:"collection"`
	Book       string        `mapstructure:"book"`
	Dimension  int           `mapstructure:"dimension"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig configures the Gemini embedding API client.
type EmbeddingConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	BatchSize     int           `mapstructure:"batch_size"`
	QueryTimeout  time.Duration `mapstructure:"query_timeout"`
	IngestTimeout time.Duration `mapstructure:"ingest_timeout"`
}

// IngestConfig controls the chapter ingestion pipeline.
type IngestConfig struct {
	DocsDir      string `mapstructure:"docs_dir"`
	Pattern      string `mapstructure:"pattern"`
	BaseURL      string `mapstructure:"base_url"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
}

// LLMConfig configures the chat completion provider used by the tutor.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads config from file with TUTORBOOK_* env overrides.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8000")
	// Empty defaults register the keys so AutomaticEnv overrides reach
	// Unmarshal; viper only maps env vars for keys it already knows.
	viper.SetDefault("server.jwt_secret", "")
	viper.SetDefault("storage.postgres.url", "")
	viper.SetDefault("storage.postgres.host", "")
	viper.SetDefault("storage.postgres.user", "")
	viper.SetDefault("storage.postgres.password", "")
	viper.SetDefault("storage.postgres.dbname", "")
	viper.SetDefault("storage.redis.host", "")
	viper.SetDefault("vector.api_key", "")
	viper.SetDefault("embedding.api_key", "")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("server.access_token_ttl", 24*time.Hour)
	viper.SetDefault("server.refresh_token_ttl", 30*24*time.Hour)
	viper.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	})
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("vector.url", "http://localhost:6333")
	viper.SetDefault("vector.collection", "physical_ai_textbook")
	viper.SetDefault("vector.book", "physical_ai_humanoid_robotics")
	viper.SetDefault("vector.dimension", 768)
	viper.SetDefault("vector.timeout", 20*time.Second)
	viper.SetDefault("embedding.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("embedding.model", "models/text-embedding-004")
	viper.SetDefault("embedding.batch_size", 50)
	viper.SetDefault("embedding.query_timeout", 30*time.Second)
	viper.SetDefault("embedding.ingest_timeout", 120*time.Second)
	viper.SetDefault("ingest.docs_dir", "book/docs")
	viper.SetDefault("ingest.base_url", "http://localhost:3000")
	viper.SetDefault("ingest.pattern", "chapter-*.mdx")
	viper.SetDefault("ingest.chunk_size", 5000)
	viper.SetDefault("ingest.chunk_overlap", 200)
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 1200)
	viper.SetDefault("llm.timeout", 60*time.Second)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("TUTORBOOK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match (TUTORBOOK_*)

	// A missing config file is fine; env vars and defaults carry the rest.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return &config
}
