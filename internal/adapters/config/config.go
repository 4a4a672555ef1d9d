package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Server      ServerConfig      `envconfig:"SERVER"`
	Database    DatabaseConfig    `envconfig:"DATABASE"`
	AI          AIConfig          `envconfig:"AI"`
	Transcripts TranscriptsConfig `envconfig:"TRANSCRIPTS"`
	Podcasts    PodcastsConfig    `envconfig:"PODCASTS"`
	News        NewsConfig        `envconfig:"NEWS"`
	Telegram    TelegramConfig    `envconfig:"TELEGRAM"`
	Logging     LoggingConfig     `envconfig:"LOGGING"`
}

// ServerConfig represents HTTP server parameters
type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	CORSOrigins  []string      `envconfig:"SERVER_CORS_ORIGINS" default:"*"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	Name           string `envconfig:"DB_NAME" default:"borsradar"`
	User           string `envconfig:"DB_USER" required:"false"`
	Password       string `envconfig:"DB_PASSWORD" required:"false"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"./migrations"`
}

// GetDSN builds the postgres connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// AIConfig represents the text analysis service configuration
type AIConfig struct {
	APIKey     string        `envconfig:"AI_API_KEY" required:"false"`
	BaseURL    string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	Model      string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	Timeout    time.Duration `envconfig:"AI_TIMEOUT" default:"90s"`
	MaxTextLen int           `envconfig:"AI_MAX_TEXT_LEN" default:"15000"`
	MaxRetries int           `envconfig:"AI_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `envconfig:"AI_RETRY_DELAY" default:"10s"`
}

// Enabled reports whether the analysis capability is configured
func (c *AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// TranscriptsConfig represents transcript retrieval parameters
type TranscriptsConfig struct {
	DataDir      string        `envconfig:"TRANSCRIPTS_DATA_DIR" default:"podcast_data"`
	SiteURL      string        `envconfig:"TRANSCRIPTS_SITE_URL" default:"https://youtubetotranscript.com"`
	MinLength    int           `envconfig:"TRANSCRIPTS_MIN_LENGTH" default:"100"`
	FetchTimeout time.Duration `envconfig:"TRANSCRIPTS_FETCH_TIMEOUT" default:"30s"`
}

// PodcastsConfig represents podcast catalog parameters. Feeds maps a
// show name to an RSS feed URL for shows discovered outside the
// catalog API ("Show:https://feed" pairs).
type PodcastsConfig struct {
	ClientID     string            `envconfig:"SPOTIFY_CLIENT_ID" required:"false"`
	ClientSecret string            `envconfig:"SPOTIFY_CLIENT_SECRET" required:"false"`
	Market       string            `envconfig:"PODCASTS_MARKET" default:"SE"`
	Shows        []string          `envconfig:"PODCASTS_SHOWS" default:"Börspodden,Nordnet Sparpodden,Affärsvärlden Analys,Investerarens Podcast"`
	Feeds        map[string]string `envconfig:"PODCASTS_FEEDS"`
	MaxEpisodes  int               `envconfig:"PODCASTS_MAX_EPISODES" default:"5"`
	ScanInterval time.Duration     `envconfig:"PODCASTS_SCAN_INTERVAL" default:"1h"`
}

// CatalogEnabled reports whether the show catalog capability is configured
func (c *PodcastsConfig) CatalogEnabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// NewsConfig represents news scraping parameters
type NewsConfig struct {
	Enabled      bool          `envconfig:"NEWS_ENABLED" default:"true"`
	ListURL      string        `envconfig:"NEWS_LIST_URL" default:"https://www.di.se/bors/nyheter/"`
	SourceName   string        `envconfig:"NEWS_SOURCE_NAME" default:"Dagens Industri"`
	Limit        int           `envconfig:"NEWS_LIMIT" default:"20"`
	ScanInterval time.Duration `envconfig:"NEWS_SCAN_INTERVAL" default:"1h"`
	CacheTTL     time.Duration `envconfig:"NEWS_CACHE_TTL" default:"10m"`
	FetchTimeout time.Duration `envconfig:"NEWS_FETCH_TIMEOUT" default:"20s"`
}

// TelegramConfig represents Telegram alert configuration
type TelegramConfig struct {
	BotToken         string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID           int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
	AlertOnMentions  bool   `envconfig:"TELEGRAM_ALERT_ON_MENTIONS" default:"true"`
}

// Enabled reports whether telegram alerts are configured
func (c *TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:""`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid. Missing optional
// capabilities (AI key, Spotify credentials, Telegram token) are not
// errors; the corresponding features are disabled at wiring time.
func (c *Config) Validate() error {
	if c.AI.MaxRetries < 1 {
		return fmt.Errorf("AI_MAX_RETRIES must be at least 1")
	}

	if c.Transcripts.MinLength <= 0 {
		return fmt.Errorf("TRANSCRIPTS_MIN_LENGTH must be positive")
	}

	return nil
}
