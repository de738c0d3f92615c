package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	RedisURL    string

	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURI  string
	FrontendURL        string
	CORSOrigins        []string

	// LLM provider selection: "openrouter" (default) or "gemini".
	LLMProvider       string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	GeminiAPIKey      string
	LLMMaxConcurrent  int

	QuizModel   string
	TopicModel  string
	ReviewModel string

	// Prompt and normalization knobs.
	OutputLanguage        string
	DiffMaxPatchChars     int
	MaxFilesPerCommit     int
	MaxOptionsPerQuestion int
	PassingScore          float64

	WorkerCount int
}

func Load() *Config {
	// .env is optional; real deployments use process env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),

		JWTSecret:          mustGetEnv("JWT_SECRET"),
		GitHubClientID:     mustGetEnv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: mustGetEnv("GITHUB_CLIENT_SECRET"),
		GitHubRedirectURI:  getEnvOrDefault("GITHUB_REDIRECT_URI", "http://localhost:5173/auth/callback"),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		CORSOrigins:        splitAndTrim(getEnvOrDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),

		LLMProvider:       getEnvOrDefault("LLM_PROVIDER", "openrouter"),
		OpenRouterAPIKey:  getEnvOrDefault("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		GeminiAPIKey:      getEnvOrDefault("GEMINI_API_KEY", ""),
		LLMMaxConcurrent:  getEnvAsIntOrDefault("LLM_MAX_CONCURRENT", 4),

		QuizModel:   getEnvOrDefault("LLM_QUIZ_MODEL", "tngtech/deepseek-r1t2-chimera:free"),
		TopicModel:  getEnvOrDefault("LLM_TOPIC_MODEL", "openai/gpt-oss-20b:free"),
		ReviewModel: getEnvOrDefault("LLM_REVIEW_MODEL", "tngtech/deepseek-r1t2-chimera:free"),

		OutputLanguage:        getEnvOrDefault("OUTPUT_LANGUAGE", "ko"),
		DiffMaxPatchChars:     getEnvAsIntOrDefault("DIFF_MAX_PATCH_CHARS", 1000),
		MaxFilesPerCommit:     getEnvAsIntOrDefault("MAX_FILES_PER_COMMIT", 5),
		MaxOptionsPerQuestion: getEnvAsIntOrDefault("MAX_OPTIONS_PER_QUESTION", 4),
		PassingScore:          getEnvAsFloatOrDefault("PASSING_SCORE", 60),

		WorkerCount: getEnvAsIntOrDefault("WORKER_COUNT", 3),
	}

	switch cfg.LLMProvider {
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			log.Fatal("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		log.Fatalf("Unknown LLM_PROVIDER %q (want openrouter or gemini)", cfg.LLMProvider)
	}

	return cfg
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Required environment variable %s is not set", key)
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s, using default %g", key, defaultValue)
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
