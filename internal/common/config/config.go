package config

import "fmt"

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Transport     TransportConfig         `mapstructure:"transport"`
	Topics        TopicsConfig            `mapstructure:"topics"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Providers     ProvidersConfig         `mapstructure:"providers"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// TransportConfig describes the Redis Streams message transport. Redelivery
// bounds (max delivery attempts, dead-lettering) belong to the transport
// configuration, not to consumer code.
type TransportConfig struct {
	StreamPrefix  string `mapstructure:"stream_prefix"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	ConsumerName  string `mapstructure:"consumer_name"`
	MaxInFlight   int    `mapstructure:"max_in_flight"`
	BlockMillis   int    `mapstructure:"block_millis"`
	ClaimIdleSecs int    `mapstructure:"claim_idle_secs"`
}

type TopicsConfig struct {
	ContentRequested   string `mapstructure:"content_requested"`
	ContentGenerated   string `mapstructure:"content_generated"`
	MarketingRequested string `mapstructure:"marketing_requested"`
	MarketingCreated   string `mapstructure:"marketing_created"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig selects the object-store backend. Backend "memory" keeps
// generated bodies in process and is only meant for local runs and tests.
type StorageConfig struct {
	Backend       string `mapstructure:"backend"` // "s3" or "memory"
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"` // optional, for MinIO-style deployments
	PublicURLBase string `mapstructure:"public_url_base"`
}

type ProvidersConfig struct {
	GenAI  GenAIConfig  `mapstructure:"genai"`
	Vertex VertexConfig `mapstructure:"vertex"`
}

// GenAIConfig configures the API-key based primary provider. The provider
// is only registered when APIKey is non-empty.
type GenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// VertexConfig configures the service-identity based secondary provider.
// The provider is only registered when Project is non-empty; credentials
// come from the ambient service identity (ADC).
type VertexConfig struct {
	Project        string `mapstructure:"project"`
	Location       string `mapstructure:"location"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type WorkerConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MaxInFlight int  `mapstructure:"max_in_flight"`
	Timeout     int  `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NotificationConfig struct {
	AWSRegion     string `mapstructure:"aws_region"`
	SNSTopicARN   string `mapstructure:"sns_topic_arn"`
	AlertsEnabled bool   `mapstructure:"alerts_enabled"`
	AlertFrom     string `mapstructure:"alert_from"`
	AlertTo       string `mapstructure:"alert_to"`
}
