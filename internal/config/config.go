package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Token formats
const (
	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"
)

// Blob store drivers
const (
	BlobLocal = "local"
	BlobS3    = "s3"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	Storage   StorageConfig
	S3        S3Config
}

type ServerConfig struct {
	Port string `env:"SERVER_PORT" envDefault:"8080" validate:"required,numeric"`
	Env  string `env:"APP_ENV" envDefault:"dev" validate:"oneof=dev prod"`
	// ReadTimeout and RequestTimeout both cover the request body, so they must leave
	// room for an upload of UPLOAD_MAX_BYTES over a slow link. Store calls are bounded
	// separately (MONGO_OP_TIMEOUT, the postgres ping).
	ReadTimeout       time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5m"`
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	RequestTimeout    time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"5m" validate:"gt=0"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	TrustedOrigins    []string      `env:"TRUSTED_ORIGINS" envDefault:"*"` // CORS allowed origins
}

type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"mongo" validate:"oneof=mongo postgres memory"`
}

type MongoConfig struct {
	URI       string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017" validate:"required_if=Enabled true"`
	Database  string        `env:"MONGO_DATABASE" envDefault:"cars" validate:"required_if=Enabled true"`
	OpTimeout time.Duration `env:"MONGO_OP_TIMEOUT" envDefault:"10s"`
	Enabled   bool
}

type PostgresConfig struct {
	Host           string `env:"DB_HOST" envDefault:"localhost"`
	Port           string `env:"DB_PORT" envDefault:"5432"`
	User           string `env:"DB_USER" envDefault:"postgres"`
	Password       string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName         string `env:"DB_NAME" envDefault:"cars"`
	SSLMode        string `env:"DB_SSLMODE" envDefault:"disable"`
	ChannelBinding string `env:"DB_CHANNEL_BINDING"` // "require" for Neon DB, empty for local
	MaxOpenConns   int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns   int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type RateLimitConfig struct {
	Requests int64         `env:"RATE_LIMIT_REQUESTS" envDefault:"20" validate:"gt=0"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m" validate:"gt=0"`
}

type AuthConfig struct {
	TokenFormat string        `env:"TOKEN_FORMAT" envDefault:"jwt" validate:"oneof=jwt paseto"`
	JWTSecret   string        `env:"JWT_SECRET"`
	PasetoKey   string        `env:"PASETO_KEY"` // must be 32 bytes for v4.local
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h" validate:"gt=0"`
}

type StorageConfig struct {
	Driver         string `env:"STORAGE_DRIVER" envDefault:"local" validate:"oneof=local s3"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads" validate:"required"`
	PublicPrefix   string `env:"UPLOAD_PUBLIC_PREFIX" envDefault:"uploads" validate:"required,alphanum"`
	MaxFiles       int    `env:"UPLOAD_MAX_FILES" envDefault:"10" validate:"gt=0"`
	MaxUploadBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"52428800" validate:"gt=0"` // see ServerConfig.ReadTimeout
}

type S3Config struct {
	Bucket    string `env:"S3_BUCKET" validate:"required_if=Enabled true"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"S3_ENDPOINT"` // MinIO or other S3 compatible endpoint
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Enabled   bool
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Mongo.Enabled = cfg.Database.Driver == DriverMongo
	cfg.S3.Enabled = cfg.Storage.Driver == BlobS3

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and the signing key for the selected token format.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Auth.TokenFormat {
	case TokenFormatJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when TOKEN_FORMAT=%s", TokenFormatJWT)
		}
	case TokenFormatPaseto:
		if len(c.Auth.PasetoKey) != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.Auth.PasetoKey))
		}
	}

	return nil
}

func (c *PostgresConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}
