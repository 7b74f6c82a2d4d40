package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIAPIKey string
	ChatModel    string
	DatabaseURL  string
	HTTPPort     string
	LogLevel     string
	SearchURL    string
	SearchAPIKey string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		ChatModel:    getEnv("CHAT_MODEL", "gpt-5"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		SearchURL:    getEnv("SEARCH_URL", ""),
		SearchAPIKey: getEnv("SEARCH_API_KEY", ""),
	}

	if AppConfig.OpenAIAPIKey == "" {
		log.Println("WARNING: OPENAI_API_KEY environment variable is not set. Chat completions will fail until it is configured.")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
