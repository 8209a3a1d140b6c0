package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	AvatarLocal = "local"
	AvatarS3    = "s3"
)

type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	RedisURL  string        `mapstructure:"REDIS_URL"`
	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogToFile bool   `mapstructure:"LOG_TO_FILE"`

	AvatarDriver  string `mapstructure:"AVATAR_DRIVER"`
	AvatarDir     string `mapstructure:"AVATAR_DIR"`
	AvatarBaseURL string `mapstructure:"AVATAR_BASE_URL"`

	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`

	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]any{
	"SERVER_PORT":     "8080",
	"STORE_DRIVER":    StorePostgres,
	"DB_HOST":         "localhost",
	"DB_PORT":         "5432",
	"DB_USER":         "concorde",
	"DB_PASSWORD":     "concorde_dev_password",
	"DB_NAME":         "concorde",
	"DB_SSLMODE":      "disable",
	"SQLITE_PATH":     "concorde.db",
	"REDIS_URL":       "",
	"JWT_SECRET":      "dev-secret-change-me",
	"TOKEN_TTL":       24 * time.Hour,
	"LOG_LEVEL":       "info",
	"LOG_TO_FILE":     false,
	"AVATAR_DRIVER":   AvatarLocal,
	"AVATAR_DIR":      "./public/avatars",
	"AVATAR_BASE_URL": "/cdn/avatars",
	"S3_ENDPOINT":     "",
	"S3_REGION":       "us-east-1",
	"S3_BUCKET":       "avatars",
	"S3_ACCESS_KEY":   "",
	"S3_SECRET_KEY":   "",
	"CORS_ORIGINS":    "*",
}

// Load reads configuration from defaults, an optional .env file in dir and
// the environment, in increasing order of precedence.
func Load(dir string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.AvatarDriver {
	case AvatarLocal:
	case AvatarS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			return errors.New("S3_ENDPOINT and S3_BUCKET are required for the s3 avatar driver")
		}
	default:
		return fmt.Errorf("unknown AVATAR_DRIVER %q", c.AvatarDriver)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

// PostgresDSN builds the connection string for the postgres store.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
