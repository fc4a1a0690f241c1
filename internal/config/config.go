package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string // development | production
	Port        string
	Storage     string // memory | postgres
	JWTSecret   string
	TokenTTL    time.Duration
	CSRFTTL     time.Duration
	CSRFCleanup time.Duration
	DB          DBConfig
	HTTP        HTTPConfig
}

// HTTPConfig - защита HTTP-слоя: CORS, лимит запросов, таймаут обработки
type HTTPConfig struct {
	CORSOrigins    []string // пусто - CORS выключен
	RateLimit      float64  // запросов в секунду с одного адреса, 0 - без лимита
	RateBurst      int
	RequestTimeout time.Duration
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found")
	}
}

// Load читает .env и окружение. Обязательные для postgres параметры
// проверяются только при выборе этого хранилища.
func Load() (Config, error) {
	LoadEnv()

	cfg := Config{
		Env:       envOr("APP_ENV", "development"),
		Port:      envOr("PORT", "8080"),
		Storage:   envOr("STORAGE", "memory"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		DB: DBConfig{
			Host:     envOr("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     envOr("DB_PORT", "5432"),
			SSLMode:  envOr("DB_SSLMODE", "disable"),
		},
	}

	var err error
	if cfg.TokenTTL, err = durationOr("TOKEN_TTL", 72*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CSRFTTL, err = durationOr("CSRF_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CSRFCleanup, err = durationOr("CSRF_CLEANUP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.HTTP, err = loadHTTP(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadHTTP() (HTTPConfig, error) {
	h := HTTPConfig{CORSOrigins: listOr("CORS_ORIGINS")}
	var err error
	if h.RateLimit, err = floatOr("RATE_LIMIT", 20); err != nil {
		return HTTPConfig{}, err
	}
	if h.RateBurst, err = intOr("RATE_BURST", 40); err != nil {
		return HTTPConfig{}, err
	}
	if h.RequestTimeout, err = durationOr("REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return HTTPConfig{}, err
	}
	return h, nil
}

// Validate проверяет параметры, без которых сервер не стартует
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("environment variable JWT_SECRET is not set")
	}
	switch c.Storage {
	case "memory":
	case "postgres":
		if c.DB.User == "" || c.DB.Name == "" {
			return fmt.Errorf("DB_USER and DB_NAME are required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Port, err)
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_BURST must not be negative")
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func floatOr(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func intOr(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// listOr разбирает список через запятую, пустые элементы отбрасываются
func listOr(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
