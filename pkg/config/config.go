package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env             string
	Port            int
	APIPrefix       string
	ShutdownTimeout time.Duration

	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	CORS        CORSConfig
	Log         LogConfig
	Export      ExportConfig
	ObjectStore ObjectStoreConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig describes how session tokens issued by the hosted auth provider are verified.
type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	Audience   string
	CookieName string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportConfig tunes the ZIP export pipeline.
type ExportConfig struct {
	FetchTimeout         time.Duration
	MaxConcurrentFetches int
	MaxPhotoBytes        int64
	UserAgent            string
	StreamDay            bool
	IncludeManifest      bool
	HierarchyCache       bool
	HierarchyCacheTTL    time.Duration
}

// ObjectStoreConfig configures the S3-compatible store used for s3:// photo addresses.
type ObjectStoreConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 15*time.Second)

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		JWTSecret:  v.GetString("AUTH_JWT_SECRET"),
		Issuer:     v.GetString("AUTH_JWT_ISSUER"),
		Audience:   v.GetString("AUTH_JWT_AUDIENCE"),
		CookieName: v.GetString("AUTH_COOKIE_NAME"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxPhoto := v.GetInt64("EXPORT_MAX_PHOTO_BYTES")
	if maxPhoto < 0 {
		maxPhoto = 0
	}
	cfg.Export = ExportConfig{
		FetchTimeout:         parseDuration(v.GetString("EXPORT_FETCH_TIMEOUT"), 0),
		MaxConcurrentFetches: v.GetInt("EXPORT_MAX_CONCURRENT_FETCHES"),
		MaxPhotoBytes:        maxPhoto,
		UserAgent:            v.GetString("EXPORT_USER_AGENT"),
		StreamDay:            v.GetBool("EXPORT_STREAM_DAY"),
		IncludeManifest:      v.GetBool("EXPORT_INCLUDE_MANIFEST"),
		HierarchyCache:       v.GetBool("ENABLE_HIERARCHY_CACHE"),
		HierarchyCacheTTL:    parseDuration(v.GetString("EXPORT_HIERARCHY_CACHE_TTL"), time.Minute),
	}

	cfg.ObjectStore = ObjectStoreConfig{
		Enabled:   v.GetBool("OBJECT_STORE_ENABLED"),
		Endpoint:  v.GetString("OBJECT_STORE_ENDPOINT"),
		AccessKey: v.GetString("OBJECT_STORE_ACCESS_KEY"),
		SecretKey: v.GetString("OBJECT_STORE_SECRET_KEY"),
		Region:    v.GetString("OBJECT_STORE_REGION"),
		UseSSL:    v.GetBool("OBJECT_STORE_USE_SSL"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSL_MODE", "require")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_JWT_SECRET", "dev_secret")
	v.SetDefault("AUTH_JWT_ISSUER", "")
	v.SetDefault("AUTH_JWT_AUDIENCE", "authenticated")
	v.SetDefault("AUTH_COOKIE_NAME", "sb-access-token")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EXPORT_FETCH_TIMEOUT", "")
	v.SetDefault("EXPORT_MAX_CONCURRENT_FETCHES", 32)
	v.SetDefault("EXPORT_MAX_PHOTO_BYTES", 50*1024*1024)
	v.SetDefault("EXPORT_USER_AGENT", "fieldops-export/1.0")
	v.SetDefault("EXPORT_STREAM_DAY", true)
	v.SetDefault("EXPORT_INCLUDE_MANIFEST", false)
	v.SetDefault("ENABLE_HIERARCHY_CACHE", false)
	v.SetDefault("EXPORT_HIERARCHY_CACHE_TTL", "1m")

	v.SetDefault("OBJECT_STORE_ENABLED", false)
	v.SetDefault("OBJECT_STORE_ENDPOINT", "")
	v.SetDefault("OBJECT_STORE_ACCESS_KEY", "")
	v.SetDefault("OBJECT_STORE_SECRET_KEY", "")
	v.SetDefault("OBJECT_STORE_REGION", "us-east-1")
	v.SetDefault("OBJECT_STORE_USE_SSL", true)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
