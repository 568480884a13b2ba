package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DatabaseURL string

	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// RefreshCookieDays is configured independently from RefreshTTL.
	// Deployments must keep the two in sync or the cookie can outlive
	// the token it carries (or the other way around).
	RefreshTokenName  string
	RefreshCookieDays int
	ServerDomain      string

	ServerURL string
	ClientURL string

	YandexClientID     string
	YandexClientSecret string
	VKClientID         string
	VKClientSecret     string

	RedisAddr    string
	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string

	LogLevel string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env not found, using system environment: %v", err)
	}

	return Config{
		Env:  EnvDefault("ENV", "development"),
		Port: EnvIntDefault("PORT", 8050),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:  []byte(os.Getenv("JWT_SECRET")),
		AccessTTL:  EnvDurationDefault("AT_EXP", time.Hour),
		RefreshTTL: EnvDurationDefault("RT_EXP", 7*24*time.Hour),

		RefreshTokenName:  EnvDefault("REFRESH_TOKEN_NAME", "refreshToken"),
		RefreshCookieDays: EnvIntDefault("REFRESH_COOKIE_DAYS", 7),
		ServerDomain:      os.Getenv("SERVER_DOMAIN"),

		ServerURL: os.Getenv("SERVER_URL"),
		ClientURL: os.Getenv("CLIENT_URL"),

		YandexClientID:     os.Getenv("YANDEX_CLIENT_ID"),
		YandexClientSecret: os.Getenv("YANDEX_CLIENT_SECRET"),
		VKClientID:         os.Getenv("VK_CLIENT_ID"),
		VKClientSecret:     os.Getenv("VK_CLIENT_SECRET"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
