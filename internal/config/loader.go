package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var defaults = map[string]any{
	"server.addr":              ":8080",
	"server.max_upload_bytes":  int64(20 << 20),
	"log.level":                "info",
	"log.format":               "json",
	"aws.region":               "",
	"openai.base_url":          "https://api.openai.com/v1",
	"openai.api_key":           "",
	"openai.param_prefix":      "/renovation-quote",
	"openai.chat_model":        "gpt-4o",
	"openai.vision_model":      "gpt-4o",
	"openai.vision_max_tokens": 300,
	"openai.timeout":           60 * time.Second,
	"chat.temperature":         0.7,
	"chat.max_message_length":  4000,
	"leads.backend":            BackendBolt,
	"leads.bolt_path":          "data/leads.db",
	"leads.table":              "",
	"projects.database_url":    "",
	"projects.max_connections": 10,
	"projects.max_idle":        5,
	"images.backend":           BackendLocal,
	"images.local_dir":         "public/uploads",
	"images.public_base_url":   "/uploads",
	"images.bucket":            "renovation-images",
	"notify.topic_arn":         "",
}

// Load reads .env (if present), an optional config.yaml and the environment,
// in that order of increasing precedence. OPENAI_API_KEY overrides
// openai.api_key, LEADS_BACKEND overrides leads.backend and so on.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	normalize(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

func normalize(cfg *Config) {
	cfg.Leads.Backend = strings.ToLower(strings.TrimSpace(cfg.Leads.Backend))
	cfg.Images.Backend = strings.ToLower(strings.TrimSpace(cfg.Images.Backend))
	cfg.OpenAI.APIKey = strings.TrimSpace(cfg.OpenAI.APIKey)
	cfg.OpenAI.ParamPrefix = strings.TrimRight(strings.TrimSpace(cfg.OpenAI.ParamPrefix), "/")
	cfg.Images.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Images.PublicBaseURL), "/")
	cfg.Images.Bucket = strings.TrimSpace(cfg.Images.Bucket)
	cfg.Leads.Table = strings.TrimSpace(cfg.Leads.Table)
	cfg.Projects.DatabaseURL = strings.TrimSpace(cfg.Projects.DatabaseURL)
}

func validate(cfg *Config) error {
	switch cfg.Leads.Backend {
	case BackendBolt:
		if cfg.Leads.BoltPath == "" {
			return errors.New("leads.bolt_path is required for the bolt backend")
		}
	case BackendDynamoDB:
		if cfg.Leads.Table == "" {
			return errors.New("leads.table is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown leads.backend %q", cfg.Leads.Backend)
	}

	switch cfg.Images.Backend {
	case BackendLocal:
		if cfg.Images.LocalDir == "" {
			return errors.New("images.local_dir is required for the local backend")
		}
	case BackendS3:
		if cfg.Images.Bucket == "" {
			return errors.New("images.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown images.backend %q", cfg.Images.Backend)
	}

	if cfg.Projects.DatabaseURL == "" {
		return errors.New("projects.database_url is required")
	}
	if cfg.OpenAI.APIKey == "" && cfg.OpenAI.ParamPrefix == "" {
		return errors.New("either openai.api_key or openai.param_prefix must be set")
	}
	if cfg.OpenAI.ChatModel == "" || cfg.OpenAI.VisionModel == "" {
		return errors.New("openai.chat_model and openai.vision_model must not be empty")
	}
	return nil
}
