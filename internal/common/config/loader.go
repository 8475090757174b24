package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like TRANSPORT_CONSUMER_GROUP or PROVIDERS_GENAI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "artisan-workers"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Transport.StreamPrefix == "" {
		cfg.Transport.StreamPrefix = "events:"
	}
	if cfg.Transport.ConsumerGroup == "" {
		cfg.Transport.ConsumerGroup = "artisan-workers"
	}
	if cfg.Transport.ConsumerName == "" {
		host, _ := os.Hostname()
		if host == "" {
			host = "worker"
		}
		cfg.Transport.ConsumerName = host
	}
	if cfg.Transport.MaxInFlight <= 0 {
		cfg.Transport.MaxInFlight = 16
	}
	if cfg.Transport.BlockMillis <= 0 {
		cfg.Transport.BlockMillis = 5000
	}
	if cfg.Transport.ClaimIdleSecs <= 0 {
		cfg.Transport.ClaimIdleSecs = 60
	}

	if cfg.Topics.ContentRequested == "" {
		cfg.Topics.ContentRequested = "content.requested"
	}
	if cfg.Topics.ContentGenerated == "" {
		cfg.Topics.ContentGenerated = "content.generated"
	}
	if cfg.Topics.MarketingRequested == "" {
		cfg.Topics.MarketingRequested = "marketing.asset.requested"
	}
	if cfg.Topics.MarketingCreated == "" {
		cfg.Topics.MarketingCreated = "marketing.asset.created"
	}

	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}

	if cfg.Storage.Backend == "" {
		if cfg.Storage.Bucket != "" {
			cfg.Storage.Backend = "s3"
		} else {
			cfg.Storage.Backend = "memory"
		}
	}

	if cfg.Providers.GenAI.Model == "" {
		cfg.Providers.GenAI.Model = "gemini-2.5-pro"
	}
	if cfg.Providers.GenAI.BaseURL == "" {
		cfg.Providers.GenAI.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Providers.GenAI.TimeoutSeconds <= 0 {
		cfg.Providers.GenAI.TimeoutSeconds = 30
	}
	if cfg.Providers.Vertex.Location == "" {
		cfg.Providers.Vertex.Location = "us-central1"
	}
	if cfg.Providers.Vertex.Model == "" {
		cfg.Providers.Vertex.Model = cfg.Providers.GenAI.Model
	}
	if cfg.Providers.Vertex.TimeoutSeconds <= 0 {
		cfg.Providers.Vertex.TimeoutSeconds = 30
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for _, name := range []string{"story-generate", "asset-generate"} {
		wc, ok := cfg.Workers[name]
		if !ok {
			wc = WorkerConfig{Enabled: true}
		}
		if wc.Timeout <= 0 {
			wc.Timeout = 120000
		}
		if wc.MaxInFlight <= 0 {
			wc.MaxInFlight = cfg.Transport.MaxInFlight
		}
		cfg.Workers[name] = wc
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Transport.StreamPrefix == "" {
		return fmt.Errorf("transport.stream_prefix must not be empty")
	}
	if cfg.Storage.Backend == "s3" && cfg.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for the s3 backend")
	}
	if cfg.Notifications.AlertsEnabled {
		if cfg.Notifications.AlertFrom == "" || cfg.Notifications.AlertTo == "" {
			return fmt.Errorf("notifications.alert_from and alert_to are required when alerts are enabled")
		}
	}
	return nil
}
