package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Store     StoreConfig     `mapstructure:"store"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Messaging MessagingConfig `mapstructure:"messaging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout  int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
	MaxUploadMB  int64    `mapstructure:"max_upload_mb"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

// StoreConfig selects the record store backend: "postgres" or "memory".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// StorageConfig selects where employee photos live: "filesystem" or "minio".
type StorageConfig struct {
	Driver     string           `mapstructure:"driver"`
	Filesystem FilesystemConfig `mapstructure:"filesystem"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
}

type FilesystemConfig struct {
	BasePath string `mapstructure:"base_path"`
	MediaURL string `mapstructure:"media_url"`
}

type MinIOConfig struct {
	Endpoint             string `mapstructure:"endpoint"`
	AccessKey            string `mapstructure:"access_key"`
	SecretKey            string `mapstructure:"secret_key"`
	UseSSL               bool   `mapstructure:"use_ssl"`
	Bucket               string `mapstructure:"bucket"`
	PresignExpirySeconds int    `mapstructure:"presign_expiry_seconds"`
}

// MessagingConfig selects the event publisher: "", "nats" or "kafka".
// An empty driver disables event publishing.
type MessagingConfig struct {
	Driver string      `mapstructure:"driver"`
	NATS   NATSConfig  `mapstructure:"nats"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// TelemetryConfig selects the metrics exporter: "", "otlp" or "prometheus".
type TelemetryConfig struct {
	Exporter     string `mapstructure:"exporter"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

var defaultPaths = []string{
	"/configs",   // Kubernetes mount
	"./configs",  // repo root
	"../configs", // IDE from cmd/
	"../../configs",
}

func Load() (*Config, error) {
	return LoadFrom(defaultPaths...)
}

// LoadFrom reads config.<ENV>.yaml from the first matching path and applies
// environment overrides on top.
func LoadFrom(paths ...string) (*Config, error) {
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Config file is optional - continue with ENV variables
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("storage.minio.access_key", "MINIO_ACCESS_KEY")
	_ = v.BindEnv("storage.minio.secret_key", "MINIO_SECRET_KEY")
	_ = v.BindEnv("admin.password_hash", "ADMIN_PASSWORD_HASH")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Env = env

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.max_upload_mb", 10)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "employees")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime_seconds", 300)
	v.SetDefault("database.conn_max_idle_time_seconds", 60)

	v.SetDefault("store.driver", "postgres")

	v.SetDefault("storage.driver", "filesystem")
	v.SetDefault("storage.filesystem.base_path", "./media")
	v.SetDefault("storage.filesystem.media_url", "/media/")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.bucket", "employees")
	v.SetDefault("storage.minio.presign_expiry_seconds", 3600)

	v.SetDefault("messaging.driver", "")
	v.SetDefault("messaging.nats.url", "nats://localhost:4222")
	v.SetDefault("messaging.nats.subject", "employees.events")
	v.SetDefault("messaging.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("messaging.kafka.topic", "employees.events")

	v.SetDefault("telemetry.exporter", "")
	v.SetDefault("telemetry.otlp_endpoint", "otel-collector.infra.svc.cluster.local:4317")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password_hash", "")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 20.0)
	v.SetDefault("rate_limit.burst", 40)
}
