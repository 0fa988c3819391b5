package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs. It is built once at startup
// and passed into constructors; nothing mutates it afterwards.
type Config struct {
	HTTPPort    string
	DatabaseURL string
	LogLevel    string
	JWTSecret   string

	VapiBaseURL  string
	VapiAPIToken string
	VapiTimeout  time.Duration

	OCRServiceURL string
	OCRAPIKey     string
	OCRRecognizer string
	OCRTimeout    time.Duration

	// Phone number linked to new accounts during signup, if set.
	DefaultPhoneID string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, relying on environment variables")
	}

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "opsmind.db"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		VapiBaseURL:  getEnv("VAPI_BASE_URL", "https://api.vapi.ai"),
		VapiAPIToken: getEnv("VAPI_API_TOKEN", ""),
		VapiTimeout:  60 * time.Second,

		OCRServiceURL: getEnv("OCR_SERVICE_URL", "https://ocr.asprise.com/api/v1/receipt"),
		OCRAPIKey:     getEnv("OCR_API_KEY", "TEST"),
		OCRRecognizer: getEnv("OCR_RECOGNIZER", "auto"),
		OCRTimeout:    60 * time.Second,

		DefaultPhoneID: getEnv("TEL_TEST_ID", ""),
	}

	if cfg.VapiAPIToken == "" {
		return nil, fmt.Errorf("VAPI_API_TOKEN environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
