package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// OpenAI
	OpenAIAPIKey string
	Model        string
	// Dispatcher
	MaxConcurrentCalls int
	// Square scheduling provider
	SquareAccessToken string
	SquareLocationID  string
	// Business configuration
	BusinessConfigDir string
	DefaultBusinessID string
	PromptSpecPath    string
	// Optional Postgres booking log
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:               getEnvDefault("PORT", "4000"),
		AllowedOrigin:      getEnvDefault("ALLOWED_ORIGIN", "*"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		Model:              getEnvDefault("OPENAI_MODEL", "gpt-4o"),
		MaxConcurrentCalls: getEnvIntDefault("OPENAI_MAX_CONCURRENT", 2),
		SquareAccessToken:  os.Getenv("SQUARE_ACCESS_TOKEN"),
		SquareLocationID:   os.Getenv("SQUARE_LOCATION_ID"),
		BusinessConfigDir:  getEnvDefault("BUSINESS_CONFIG_DIR", "configs/businesses"),
		DefaultBusinessID:  getEnvDefault("DEFAULT_BUSINESS_ID", "bangkok-fortune"),
		PromptSpecPath:     getEnvDefault("PROMPT_SPEC_PATH", "prompts/receptionist.yaml"),
		DatabaseURL:        os.Getenv("DB_URL"),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; model calls will fail until provided")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
