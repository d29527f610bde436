package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the reconciliation service.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string `validate:"required,numeric"`
	DatabasePath string `validate:"required"`
	LogLevel     string

	// InputRoot is the directory under which every reconciliation input directory must live.
	InputRoot string `validate:"required"`

	// Engine settings
	RegistryCacheTTL time.Duration `validate:"gt=0"`
	HeaderScanRows   int           `validate:"min=1,max=1000"`

	// HTTP trigger settings
	MaxRequestBytes int64         `validate:"min=64"`
	RateLimitEvery  time.Duration `validate:"gt=0"`
	RateLimitBurst  int           `validate:"min=1"`
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	Cfg = FromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, InputRoot=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.InputRoot)
}

var validate = validator.New()

// Validate reports every field whose value breaks its rule, as "Field (rule)".
func (c *AppConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	problems := make([]string, 0, len(validationErrors))
	for _, ve := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s (%s)", ve.Field(), ve.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
}

// FromEnv builds an AppConfig from the current process environment without touching .env files.
func FromEnv() *AppConfig {
	return &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./database_riconciliazioni.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		InputRoot: getEnv("INPUT_ROOT", "./uploads"),

		RegistryCacheTTL: getEnvAsDuration("REGISTRY_CACHE_TTL", 10*time.Minute),
		HeaderScanRows:   getEnvAsInt("HEADER_SCAN_ROWS", 30),

		MaxRequestBytes: getEnvAsInt64("MAX_REQUEST_BYTES", 64*1024),
		RateLimitEvery:  getEnvAsDuration("RATE_LIMIT_EVERY", 100*time.Millisecond),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 30),
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
