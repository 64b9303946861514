package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Workshop  WorkshopConfig
	Market    MarketConfig
	Scheduler SchedulerConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	WhatsApp  WhatsAppConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// WorkshopConfig identifies whose workshop this process serves.
type WorkshopConfig struct {
	OwnerID string
}

// MarketConfig holds the market API credentials.
type MarketConfig struct {
	APIKey  string
	BaseURL string
}

// SchedulerConfig holds the cron expressions of the background jobs.
type SchedulerConfig struct {
	PriceRefreshSchedule string
	TimerPollSchedule    string
	Timezone             string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to export history to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether every key needed by the export is present.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// WhatsAppConfig contains credentials for the completion notifier.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	NotifyTo      string
}

// Enabled reports whether the notifier can send messages.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != "" && w.NotifyTo != "" &&
		w.BaseURL != "" && w.APIVersion != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment is populated directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Workshop: WorkshopConfig{
			OwnerID: getenvWithDefault("OWNER_ID", "local"),
		},
		Market: MarketConfig{
			APIKey:  os.Getenv("LOSTARK_API_KEY"),
			BaseURL: getenvWithDefault("LOSTARK_BASE_URL", "https://developer-lostark.game.onstove.com"),
		},
		Scheduler: SchedulerConfig{
			PriceRefreshSchedule: getenvWithDefault("PRICE_REFRESH_SCHEDULE", "* * * * *"),
			TimerPollSchedule:    getenvWithDefault("TIMER_POLL_SCHEDULE", "@every 1s"),
			Timezone:             getenvWithDefault("TIMEZONE", "Asia/Seoul"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "fusioncalc"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			NotifyTo:      os.Getenv("WHATSAPP_NOTIFY_TO"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case c.Server.Port == "":
		return errors.New("APP_PORT must be provided")
	case c.Workshop.OwnerID == "":
		return errors.New("OWNER_ID must not be empty")
	case c.Market.BaseURL == "":
		return errors.New("LOSTARK_BASE_URL must not be empty")
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	case c.Scheduler.PriceRefreshSchedule == "":
		return errors.New("PRICE_REFRESH_SCHEDULE must be provided")
	case c.Scheduler.TimerPollSchedule == "":
		return errors.New("TIMER_POLL_SCHEDULE must be provided")
	}

	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "UTC"
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
