package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Storage   StorageConfig
	Answering AnsweringConfig
	Upload    UploadConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type StorageConfig struct {
	Driver   string // "file" or "redis"
	DataDir  string
	RedisURL string
}

type AnsweringConfig struct {
	Provider     string // "gemini", "remote" or "mock"
	GeminiAPIKey string
	RemoteAskURL string
}

type UploadConfig struct {
	MaxFileSize    int64
	MaxContentLen  int
	TickMillis     int
	FailureRate    float64
	ToastTTLMillis int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "file"),
			DataDir:  getEnv("STORAGE_DATA_DIR", "data"),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Answering: AnsweringConfig{
			Provider:     getEnv("ANSWERING_PROVIDER", "mock"),
			GeminiAPIKey: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			RemoteAskURL: getEnv("REMOTE_ASK_URL", "http://localhost:4000/api/ask"),
		},
		Upload: UploadConfig{
			MaxFileSize:    getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 2*1024*1024),
			MaxContentLen:  getEnvAsInt("UPLOAD_MAX_CONTENT_LEN", 800000),
			TickMillis:     getEnvAsInt("UPLOAD_TICK_MILLIS", 180),
			FailureRate:    getEnvAsFloat("UPLOAD_FAILURE_RATE", 0.03),
			ToastTTLMillis: getEnvAsInt("NOTIFICATION_TTL_MILLIS", 3000),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
