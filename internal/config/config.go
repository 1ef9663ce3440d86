package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dfryer1193/blogwrite/shared/db/postgres"
	"github.com/dfryer1193/blogwrite/shared/db/sqlite"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	StorageLocal = "local"
	StorageMinio = "minio"
)

type Config struct {
	// Application
	AppEnv    string
	Port      int
	PublicURL string
	LogLevel  string

	// Documents
	DBDriver     string
	SQLite       *sqlite.SQLiteConfig
	Postgres     *postgres.PostgresConfig
	DatabaseID   string
	CollectionID string

	// Files
	BucketID                    string
	StorageDriver               string
	StoragePath                 string
	Minio                       MinioConfig
	ImageTransformationsEnabled bool
	MaxUploadBytes              int64
	PlaceholderImageURL         string

	// Form
	RedirectDelay time.Duration

	// Security
	JWTSecret string
}

type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PresignExpiry time.Duration
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds the config from environment variables only.
func FromEnv() (*Config, error) {
	required := &requiredVars{}

	cfg := &Config{
		AppEnv:    envString("APP_ENV", "development"),
		Port:      envInt("PORT", 8080),
		PublicURL: strings.TrimSuffix(envString("PUBLIC_URL", "http://localhost:8080"), "/"),
		LogLevel:  envString("LOG_LEVEL", "info"),

		DBDriver:     envString("DB_DRIVER", DriverSQLite),
		SQLite:       sqlite.NewSQLiteConfig(),
		Postgres:     postgres.NewPostgresConfig(),
		DatabaseID:   envString("DATABASE_ID", "blog"),
		CollectionID: envString("COLLECTION_ID", "posts"),

		BucketID:      envString("BUCKET_ID", "featured-images"),
		StorageDriver: envString("STORAGE_DRIVER", StorageLocal),
		StoragePath:   envString("STORAGE_PATH", "./data/files"),
		Minio: MinioConfig{
			Endpoint:      envString("MINIO_ENDPOINT", ""),
			AccessKey:     envString("MINIO_ACCESS_KEY", ""),
			SecretKey:     envString("MINIO_SECRET_KEY", ""),
			UseSSL:        envBool("MINIO_USE_SSL", false),
			PresignExpiry: envDuration("PRESIGN_EXPIRY", time.Hour),
		},
		ImageTransformationsEnabled: envBool("IMAGE_TRANSFORMATIONS_ENABLED", false),
		MaxUploadBytes:              int64(envInt("MAX_UPLOAD_BYTES", 5<<20)),
		PlaceholderImageURL:         envString("PLACEHOLDER_IMAGE_URL", "/assets/previewImage.png"),

		RedirectDelay: envDuration("REDIRECT_DELAY", time.Second),

		JWTSecret: required.envRequired("JWT_SECRET"),
	}

	if err := required.err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.PublicURL, validation.Required),
		validation.Field(&c.DBDriver, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.DatabaseID, validation.Required),
		validation.Field(&c.CollectionID, validation.Required),
		validation.Field(&c.BucketID, validation.Required),
		validation.Field(&c.StorageDriver, validation.In(StorageLocal, StorageMinio)),
		validation.Field(&c.StoragePath, validation.When(c.StorageDriver == StorageLocal, validation.Required)),
		validation.Field(&c.MaxUploadBytes, validation.Min(int64(1))),
		validation.Field(&c.Minio, validation.When(c.StorageDriver == StorageMinio, validation.By(func(any) error {
			return c.Minio.validate()
		}))),
		validation.Field(&c.Postgres, validation.When(c.DBDriver == DriverPostgres, validation.By(func(any) error {
			if c.Postgres == nil || c.Postgres.URL == "" {
				return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
			}
			return nil
		}))),
	)
}

func (m MinioConfig) validate() error {
	var missing []string
	if m.Endpoint == "" {
		missing = append(missing, "MINIO_ENDPOINT")
	}
	if m.AccessKey == "" {
		missing = append(missing, "MINIO_ACCESS_KEY")
	}
	if m.SecretKey == "" {
		missing = append(missing, "MINIO_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required for the %s storage driver", strings.Join(missing, ", "), StorageMinio)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type requiredVars struct {
	missing []string
}

func (r *requiredVars) envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	r.missing = append(r.missing, key)
	return ""
}

func (r *requiredVars) err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return fmt.Errorf("required environment variables missing: %s", strings.Join(r.missing, ", "))
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("Config invalid int, using default")
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Bool("default", def).Msg("Config invalid bool, using default")
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Dur("default", def).Msg("Config invalid duration, using default")
		return def
	}
	return d
}
