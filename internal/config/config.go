package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// OpenAI
	OpenAIAPIKey string
	ClientModel  string
	AuroraModel  string
	LLMTimeout   time.Duration

	// Booking policy: when the operating-hours lookup fails, treat the
	// business as open instead of blocking the booking.
	HoursFailOpen bool

	// Aurora
	OwnerHistoryTTL      time.Duration
	InactiveContactDays  int
	LowAgendaThreshold   int
	DailySummaryMinimums int

	// HTTP surface
	CORSAllowedOrigins []string
	MessageRateLimit   float64
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		ClientModel:  getEnv("CLIENT_AI_MODEL", "gpt-4o-mini"),
		AuroraModel:  getEnv("AURORA_MODEL", "gpt-4o-mini"),
		LLMTimeout:   getEnvAsDuration("LLM_TIMEOUT", 25*time.Second),

		HoursFailOpen: getEnvAsBool("HOURS_FAIL_OPEN", true),

		OwnerHistoryTTL:      getEnvAsDuration("OWNER_HISTORY_TTL", 24*time.Hour),
		InactiveContactDays:  getEnvAsInt("INACTIVE_CONTACT_DAYS", 30),
		LowAgendaThreshold:   getEnvAsInt("LOW_AGENDA_THRESHOLD", 10),
		DailySummaryMinimums: getEnvAsInt("DAILY_SUMMARY_MIN_BOOKINGS", 5),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
		MessageRateLimit:   getEnvAsFloat("MESSAGE_RATE_LIMIT", 0),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, dropping blanks
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
