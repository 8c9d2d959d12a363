// backend-go/internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Economics EconomicsConfig
	Planning  PlanningConfig
	Storage   StorageConfig
	Drive     DriveConfig
	LogLevel  string
	LogJSON   bool
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN is the keyword/value connection string accepted by both lib/pq and pgx.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	PlanTTLSeconds int
}

type EconomicsConfig struct {
	ExchangeRate float64 // CNY per USD
}

type PlanningConfig struct {
	BaseTargetDays int
	SmartLifecycle bool
	HorizonDays    int
	Timezone       string
}

// Location resolves Timezone, defaulting to UTC.
func (c PlanningConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Configured reports whether exports can be published.
func (c StorageConfig) Configured() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()
		viper.AutomaticEnv()

		instance = build()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "restock")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_PLAN_TTL_SECONDS", 300)
	viper.SetDefault("ECONOMICS_EXCHANGE_RATE", 7.2)
	viper.SetDefault("PLAN_BASE_TARGET_DAYS", 60)
	viper.SetDefault("PLAN_SMART_LIFECYCLE", true)
	viper.SetDefault("FORECAST_HORIZON_DAYS", 90)
	viper.SetDefault("APP_TIMEZONE", "UTC")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_JSON", false)
}

func build() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:   viper.GetString("STORE_DRIVER"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:        viper.GetBool("CACHE_ENABLED"),
			RedisURL:       viper.GetString("REDIS_URL"),
			RedisHost:      viper.GetString("REDIS_HOST"),
			RedisPort:      viper.GetString("REDIS_PORT"),
			RedisPassword:  viper.GetString("REDIS_PASSWORD"),
			RedisDB:        viper.GetInt("REDIS_DB"),
			PlanTTLSeconds: viper.GetInt("CACHE_PLAN_TTL_SECONDS"),
		},
		Economics: EconomicsConfig{
			ExchangeRate: viper.GetFloat64("ECONOMICS_EXCHANGE_RATE"),
		},
		Planning: PlanningConfig{
			BaseTargetDays: viper.GetInt("PLAN_BASE_TARGET_DAYS"),
			SmartLifecycle: viper.GetBool("PLAN_SMART_LIFECYCLE"),
			HorizonDays:    viper.GetInt("FORECAST_HORIZON_DAYS"),
			Timezone:       viper.GetString("APP_TIMEZONE"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsJSON: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderID:        viper.GetString("GOOGLE_DRIVE_FOLDER_ID"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
		LogJSON:  viper.GetBool("LOG_JSON"),
	}
}

// Validate rejects settings the planner and metrics engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Economics.ExchangeRate <= 0 {
		errs = append(errs, fmt.Errorf("ECONOMICS_EXCHANGE_RATE must be positive, got %v", c.Economics.ExchangeRate))
	}
	if c.Planning.BaseTargetDays < 0 {
		errs = append(errs, fmt.Errorf("PLAN_BASE_TARGET_DAYS must not be negative, got %d", c.Planning.BaseTargetDays))
	}
	if c.Planning.HorizonDays < 0 {
		errs = append(errs, fmt.Errorf("FORECAST_HORIZON_DAYS must not be negative, got %d", c.Planning.HorizonDays))
	}
	switch c.Database.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.Database.Driver))
	}
	if _, err := c.Planning.Location(); err != nil {
		errs = append(errs, fmt.Errorf("APP_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}
