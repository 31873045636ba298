package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	DBDriver   string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBPath     string

	OllamaBaseURL      string
	OllamaDefaultModel string

	WhisperPath      string
	WhisperModelPath string
	FFmpegPath       string
	TempDir          string

	UploadDir      string
	MaxUploadBytes int64
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	CORSOrigin    string
	APIPrefix     string
	JWTSecret     string
	LogLevel      string
	LogDir        string
	FunctionsFile string
}

func LoadConfig() Config {
	// a missing .env is fine, the process environment wins anyway
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "3001"),
		Env:  getEnv("APP_ENV", getEnv("NODE_ENV", "development")),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "ollachat"),
		DBPath:     getEnv("DB_PATH", "ollachat.db"),

		OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaDefaultModel: getEnv("OLLAMA_DEFAULT_MODEL", "gemma3n:latest"),

		WhisperPath:      getEnv("WHISPER_PATH", "whisper"),
		WhisperModelPath: getEnv("WHISPER_MODEL_PATH", "./models/ggml-base.bin"),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		TempDir:          getEnv("TEMP_DIR", "./temp"),

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "ollachat-files"),
		MinIOUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",

		CORSOrigin:    getEnv("CORS_ORIGIN", "http://localhost:5173"),
		APIPrefix:     getEnv("API_PREFIX", "/api"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogDir:        getEnv("LOG_DIR", "./logs"),
		FunctionsFile: getEnv("FUNCTIONS_FILE", ""),
	}
}

// DSN is the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
	)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
