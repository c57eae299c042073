package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Quiz    QuizConfig
	Session SessionConfig
	Log     LogConfig
}

type ServerConfig struct {
	HTTPPort     string
	TemplatesDir string
	StaticDir    string
}

type QuizConfig struct {
	// BankPath points at a markdown question bank; empty uses the embedded one
	BankPath string
}

type SessionConfig struct {
	Secret          string
	CookieName      string
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

type LogConfig struct {
	Level slog.Level
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:     getEnv("HTTP_PORT", "8080"),
			TemplatesDir: getEnv("TEMPLATES_DIR", "web/templates"),
			StaticDir:    getEnv("STATIC_DIR", "web/static"),
		},
		Quiz: QuizConfig{
			BankPath: getEnv("QUIZ_BANK_PATH", ""),
		},
		Session: SessionConfig{
			Secret:          getEnv("SESSION_SECRET", "quizlevels-dev-secret"),
			CookieName:      getEnv("SESSION_COOKIE", "quiz-session"),
			IdleTTL:         getEnvAsDuration("SESSION_IDLE_TTL", 24*time.Hour),
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", time.Hour),
		},
		Log: LogConfig{
			Level: getEnvAsLogLevel("LOG_LEVEL", slog.LevelInfo),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90m") or a plain number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	if seconds := getEnvAsInt(key, 0); seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvAsLogLevel(key string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(getEnv(key, "")))); err != nil {
		return defaultValue
	}
	return level
}
