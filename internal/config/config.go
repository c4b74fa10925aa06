// internal/config/config.go
//
// Process configuration read from the environment.
// Responsibilities:
//   - Load .env (if present) and read every setting into Config.
//   - Apply defaults for unset values.
//   - Warn and fall back when an int or duration does not parse.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultGeminiURL is the Gemini API base URL. The SDK appends the API
// version and model path.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com"

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string // "json" or "console"
	DBPath    string

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	Production     bool

	DailySalt  string
	SessionTTL time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	GeminiAPIKey  string
	GeminiModel   string
	GeminiURL     string
	GeminiTimeout time.Duration

	PaletteFile string
}

// Load reads .env (a missing file is fine) and then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Port:      getEnv("PORT", "5175"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		DBPath:    getEnv("DB_PATH", "./data/mindmatch.db"),

		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "mindmatch_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:     os.Getenv("NODE_ENV") == "production",

		DailySalt:  getEnv("DAILY_SALT", "local_dev_salt"),
		SessionTTL: getEnvDuration("SESSION_TTL", 2*time.Hour),

		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 1),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 3),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiURL:     strings.TrimRight(getEnv("GEMINI_URL", DefaultGeminiURL), "/"),
		GeminiTimeout: getEnvDuration("GEMINI_TIMEOUT", 90*time.Second),

		PaletteFile: os.Getenv("PALETTE_FILE"),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Warn().Err(err).Str("key", k).Int("default", def).Msg("invalid int, using default")
		return def
	}
	return n
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		log.Warn().Err(err).Str("key", k).Dur("default", def).Msg("invalid duration, using default")
		return def
	}
	return d
}
