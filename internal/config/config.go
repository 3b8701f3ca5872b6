package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, populated from environment variables.
type Config struct {
	Port            string
	StoragePath     string
	DBPath          string
	ExtractTimeout  time.Duration
	DownloadTimeout time.Duration
	TaskTTL         time.Duration
	MaxConcurrent   int
	TelegramToken   string
	TelegramChatID  int64
}

// Load reads configuration from the environment, falling back to defaults.
func Load() *Config {
	storagePath := getEnv("STORAGE_PATH", "./downloads")

	return &Config{
		Port:            getEnv("PORT", "8080"),
		StoragePath:     storagePath,
		DBPath:          getEnv("DB_PATH", storagePath+"/history.db"),
		ExtractTimeout:  time.Duration(getEnvAsInt("EXTRACT_TIMEOUT_SECONDS", 30)) * time.Second,
		DownloadTimeout: time.Duration(getEnvAsInt("DOWNLOAD_TIMEOUT_MINUTES", 15)) * time.Minute,
		TaskTTL:         time.Duration(getEnvAsInt("TASK_TTL_MINUTES", 60)) * time.Minute,
		MaxConcurrent:   getEnvAsInt("MAX_CONCURRENT", 4),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:  getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
