package config

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	Listen   string `mapstructure:"listen"`
}

// PostgresConfig holds the connection string for the article store.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds redis connection settings. Redis is optional; when no
// address is configured the ingestion run-lock is disabled and overlapping
// runs simply do redundant work.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FeedConfig describes a single RSS/Atom source.
type FeedConfig struct {
	URL  string `mapstructure:"url"`
	Type string `mapstructure:"type"` // news, blogpost, regulatory
}

// CellarConfig controls the CJEU judgment scraper.
type CellarConfig struct {
	Endpoint      string `mapstructure:"endpoint"`       // SPARQL endpoint
	EURLexBaseURL string `mapstructure:"eurlex_base_url"`
	DaysBack      int    `mapstructure:"days_back"`
	FetchInterval string `mapstructure:"fetch_interval"` // duration string, e.g., "6h"
}

// DataSources groups the configured collectors.
type DataSources struct {
	Feeds         []FeedConfig `mapstructure:"feeds"`
	Cellar        CellarConfig `mapstructure:"cellar"`
	FetchInterval string       `mapstructure:"fetch_interval"` // feed cycle, e.g., "15m"
}

// OpenAIConfig holds classification/summarization API settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// EnrichConfig bounds the classification and summarization batches.
type EnrichConfig struct {
	ClassifyBatch  int    `mapstructure:"classify_batch"`
	SummarizeBatch int    `mapstructure:"summarize_batch"`
	ScoreInterval  string `mapstructure:"score_interval"` // relevance refresh, e.g., "1h"
}

// LearnWorldsConfig holds identity-provider credentials.
type LearnWorldsConfig struct {
	SchoolURL    string `mapstructure:"school_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// AuthConfig controls session token issuance.
type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	SessionTTL string `mapstructure:"session_ttl"` // duration string, e.g., "168h"
}

// Config is the top-level configuration structure.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Sources     DataSources       `mapstructure:"sources"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Enrich      EnrichConfig      `mapstructure:"enrich"`
	LearnWorlds LearnWorldsConfig `mapstructure:"learnworlds"`
	Auth        AuthConfig        `mapstructure:"auth"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Listen == "" {
		c.App.Listen = ":3001"
	}
	if c.Sources.FetchInterval == "" {
		c.Sources.FetchInterval = "15m"
	}
	if c.Sources.Cellar.Endpoint == "" {
		c.Sources.Cellar.Endpoint = "https://publications.europa.eu/webapi/rdf/sparql"
	}
	if c.Sources.Cellar.EURLexBaseURL == "" {
		c.Sources.Cellar.EURLexBaseURL = "https://eur-lex.europa.eu"
	}
	if c.Sources.Cellar.DaysBack == 0 {
		c.Sources.Cellar.DaysBack = 7
	}
	if c.Sources.Cellar.FetchInterval == "" {
		c.Sources.Cellar.FetchInterval = "6h"
	}
	if c.Enrich.ClassifyBatch == 0 {
		c.Enrich.ClassifyBatch = 20
	}
	if c.Enrich.SummarizeBatch == 0 {
		c.Enrich.SummarizeBatch = 10
	}
	if c.Enrich.ScoreInterval == "" {
		c.Enrich.ScoreInterval = "1h"
	}
	if c.LearnWorlds.SchoolURL == "" {
		c.LearnWorlds.SchoolURL = "https://academy.lexstream.io"
	}
	if c.Auth.SessionTTL == "" {
		c.Auth.SessionTTL = "168h"
	}
}
