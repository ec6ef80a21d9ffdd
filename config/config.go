package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Booking  BookingConfig
	Queue    QueueConfig
}

type ServerConfig struct {
	Port            string
	Mode            string // gin mode: debug, release, test
	LogLevel        string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxConns     int32
	QueryTimeout time.Duration
	// 啟動時連線重試次數
	ConnectAttempts int
}

type RedisConfig struct {
	Host            string
	Port            string
	Password        string
	DB              int
	AvailabilityTTL time.Duration
	ConnectAttempts int
}

type AuthConfig struct {
	JWTSecret string
}

type BookingConfig struct {
	CancellationWindow   time.Duration
	DefaultRefundPolicy  string
	MaxTicketsPerBooking int
}

type QueueConfig struct {
	Driver     string // redis 或 memory
	BufferSize int
	ConsumerID string
}

func LoadConfig() *Config {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	return &Config{
		Server:   GetServerConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Auth:     AuthConfig{JWTSecret: mustEnv("JWT_SECRET")},
		Booking:  GetBookingConfig(),
		Queue:    GetQueueConfig(),
	}
}

func LoadTestConfig() *Config {
	testConfig := DatabaseConfig{
		Host:         getEnv("TEST_DB_HOST", "localhost"),
		Port:         getEnv("TEST_DB_PORT", "5433"), // 測試 DB 用 5433 port
		User:         getEnv("TEST_DB_USER", "postgres"),
		Password:     getEnv("TEST_DB_PASSWORD", "postgres"),
		DBName:       getEnv("TEST_DB_NAME", "test_db"),
		SSLMode:      "disable",
		MaxConns:     50,
		QueryTimeout: 10 * time.Second,
		// 測試環境沒有 DB 時直接 skip，不重試
		ConnectAttempts: 1,
	}

	testRedisConfig := RedisConfig{
		Host:            getEnv("TEST_REDIS_HOST", "localhost"),
		Port:            getEnv("TEST_REDIS_PORT", "6380"), // 測試 Redis 用 6380 port
		Password:        "",
		DB:              1,
		AvailabilityTTL: time.Minute,
		ConnectAttempts: 1,
	}

	return &Config{
		Server:   ServerConfig{Port: "0", Mode: "test", LogLevel: "error", ShutdownTimeout: time.Second},
		Database: testConfig,
		Redis:    testRedisConfig,
		Auth:     AuthConfig{JWTSecret: "test-secret"},
		Booking: BookingConfig{
			CancellationWindow:   24 * time.Hour,
			DefaultRefundPolicy:  "moderate",
			MaxTicketsPerBooking: 10,
		},
		Queue: QueueConfig{Driver: "memory", BufferSize: 100},
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "8080"),
		Mode:            getEnv("GIN_MODE", "release"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnv("DB_PORT", "5432"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "postgres"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 25)),
		QueryTimeout:    getEnvDuration("DB_QUERY_TIMEOUT", 5*time.Second),
		ConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),
	}
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Host:            getEnv("REDIS_HOST", "localhost"),
		Port:            getEnv("REDIS_PORT", "6379"),
		Password:        getEnv("REDIS_PASSWORD", ""),
		DB:              getEnvInt("REDIS_DB", 0),
		AvailabilityTTL: getEnvDuration("REDIS_AVAILABILITY_TTL", 5*time.Minute),
		ConnectAttempts: getEnvInt("REDIS_CONNECT_ATTEMPTS", 5),
	}
}

func GetBookingConfig() BookingConfig {
	return BookingConfig{
		CancellationWindow:   getEnvDuration("BOOKING_CANCELLATION_WINDOW", 24*time.Hour),
		DefaultRefundPolicy:  getEnv("BOOKING_DEFAULT_REFUND_POLICY", "moderate"),
		MaxTicketsPerBooking: getEnvInt("BOOKING_MAX_TICKETS", 10),
	}
}

func GetQueueConfig() QueueConfig {
	return QueueConfig{
		Driver:     getEnv("QUEUE_DRIVER", "redis"),
		BufferSize: getEnvInt("QUEUE_BUFFER_SIZE", 1000),
		ConsumerID: getEnv("QUEUE_CONSUMER_ID", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// mustEnv 沒有安全預設值的設定，缺少時直接中止啟動
func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("config: %s is required", key))
	}
	return value
}

// getEnvList 逗號分隔，空白項目略過
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}
	return d
}
