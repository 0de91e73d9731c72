package config

import (
	"os"
	"strconv"
	"time"
)

// ストアバックエンドの種別
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Config はアプリケーション設定を表す
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Migration MigrationConfig
	Worker    WorkerConfig
	Metrics   MetricsConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig は使用するストレージバックエンドの設定
type StoreConfig struct {
	// Backend は "postgres" または "mongo"
	Backend string
}

// DatabaseConfig はPostgreSQL設定
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// MongoConfig はMongoDB設定
type MongoConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// MigrationConfig はリレーショナルストアからドキュメントストアへの移行設定
type MigrationConfig struct {
	Enabled   bool
	BatchSize int
}

// WorkerConfig はバックグラウンドワーカー設定
type WorkerConfig struct {
	AvailabilityRefreshInterval time.Duration
	AvailabilityCacheTTL        time.Duration
}

// MetricsConfig はメトリクスエンドポイント設定
type MetricsConfig struct {
	Username string
	Password string
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", StorePostgres),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "ticket_booking"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},
		Mongo: MongoConfig{
			Host:     getEnv("MONGO_HOST", "localhost"),
			Port:     getEnv("MONGO_PORT", "27017"),
			User:     getEnv("MONGO_USER", ""),
			Password: getEnv("MONGO_PASSWORD", ""),
			DBName:   getEnv("MONGO_DB_NAME", "ticket_booking"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Migration: MigrationConfig{
			Enabled:   getBoolEnv("MIGRATION_ENABLED", false),
			BatchSize: getIntEnv("MIGRATION_BATCH_SIZE", 500),
		},
		Worker: WorkerConfig{
			AvailabilityRefreshInterval: getDurationEnv("AVAILABILITY_REFRESH_INTERVAL", time.Minute),
			AvailabilityCacheTTL:        getDurationEnv("AVAILABILITY_CACHE_TTL", 5*time.Minute),
		},
		Metrics: MetricsConfig{
			Username: getEnv("METRICS_USERNAME", ""),
			Password: getEnv("METRICS_PASSWORD", ""),
		},
	}
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// URI はMongoDB接続URIを返す
func (c *MongoConfig) URI() string {
	if c.User != "" {
		return "mongodb://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port
	}
	return "mongodb://" + c.Host + ":" + c.Port
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
