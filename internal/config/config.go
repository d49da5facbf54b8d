package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration for the Autoblog service and CLI.
type Config struct {
	DBPath     string
	ServerPort int
	LogLevel   string

	LLMEndpoint string
	LLMAPIKey   string
	LLMModels   []string

	ImageEndpoint string
	ImageAPIKey   string
	ImageModel    string

	CMSURL   string
	CMSToken string

	SiteURL            string
	RevalidationSecret string

	CronSecret string

	TelegramBotToken      string
	TelegramWebhookSecret string
	TelegramAllowedUsers  []int64

	SentryDSN     string
	Environment   string
	ShutdownGrace time.Duration
}

const (
	defaultDBPath        = "./data/autoblog.db"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultEnvironment   = "development"
	defaultImageModel    = "dall-e-3"
	defaultShutdownGrace = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:                getEnv("DB_PATH", defaultDBPath),
		LogLevel:              getEnv("LOG_LEVEL", defaultLogLevel),
		LLMEndpoint:           os.Getenv("LLM_ENDPOINT"),
		LLMAPIKey:             os.Getenv("LLM_API_KEY"),
		ImageEndpoint:         os.Getenv("IMAGE_ENDPOINT"),
		ImageAPIKey:           os.Getenv("IMAGE_API_KEY"),
		ImageModel:            getEnv("IMAGE_MODEL", defaultImageModel),
		CMSURL:                strings.TrimRight(os.Getenv("CMS_URL"), "/"),
		CMSToken:              os.Getenv("CMS_API_TOKEN"),
		SiteURL:               strings.TrimRight(os.Getenv("SITE_URL"), "/"),
		RevalidationSecret:    os.Getenv("REVALIDATION_SECRET"),
		CronSecret:            os.Getenv("CRON_SECRET"),
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
		SentryDSN:             os.Getenv("SENTRY_DSN"),
		Environment:           getEnv("ENV", defaultEnvironment),
		ShutdownGrace:         defaultShutdownGrace,
	}

	if modelsJSON := os.Getenv("LLM_MODELS"); modelsJSON != "" {
		models, err := parseModels(modelsJSON)
		if err != nil {
			return nil, eris.Wrap(err, "parsing LLM_MODELS")
		}
		cfg.LLMModels = models
	}

	if users := os.Getenv("TELEGRAM_ALLOWED_USERS"); users != "" {
		parsed, err := parseUserIDs(users)
		if err != nil {
			return nil, eris.Wrap(err, "parsing TELEGRAM_ALLOWED_USERS")
		}
		cfg.TelegramAllowedUsers = parsed
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	return cfg, nil
}

// Validate checks that the credentials every pipeline run depends on are present.
// It runs before any network call so misconfiguration fails the process immediately.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.LLMAPIKey) == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if strings.TrimSpace(c.CMSURL) == "" {
		missing = append(missing, "CMS_URL")
	}
	if strings.TrimSpace(c.CMSToken) == "" {
		missing = append(missing, "CMS_API_TOKEN")
	}
	if len(missing) > 0 {
		return eris.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ArticleModel returns the model used for article generation.
func (c *Config) ArticleModel() string {
	if len(c.LLMModels) > 0 {
		return c.LLMModels[0]
	}
	return ""
}

// UtilityModel returns the model used for image prompts and URL analysis,
// falling back to the article model when only one model is configured.
func (c *Config) UtilityModel() string {
	if len(c.LLMModels) > 1 {
		return c.LLMModels[1]
	}
	return c.ArticleModel()
}

// ImagesEnabled reports whether the hero-image stage can run at all.
func (c *Config) ImagesEnabled() bool {
	return strings.TrimSpace(c.ImageAPIKey) != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseModels(raw string) ([]string, error) {
	// Accept either a JSON array of strings or an object with a `models` field.
	var arrayInput []string
	if err := json.Unmarshal([]byte(raw), &arrayInput); err == nil {
		return arrayInput, nil
	}

	var objectInput struct {
		Models []string `json:"models"`
	}
	if err := json.Unmarshal([]byte(raw), &objectInput); err != nil {
		return nil, eris.Wrap(err, "decoding JSON")
	}

	if len(objectInput.Models) == 0 {
		return nil, eris.New("models list is empty")
	}

	return objectInput.Models, nil
}

func parseUserIDs(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid user id: %s", trimmed)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
