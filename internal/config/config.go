package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	WorkerCount    int
	UseMemoryQueue bool

	// AWS / LocalStack
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// DynamoDB tables
	AppointmentsTable string
	SummariesTable    string

	// Queue for conversation-summary flushes
	SummaryQueueURL string

	// Redis (embedding cache)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Embeddings
	OpenAIAPIKey   string
	EmbeddingModel string

	// Symptom matching
	IndexNeighbors        int
	DefaultTopN           int
	SuggestedSymptomCap   int
	IndexRetryMaxAttempts int
	IndexRetryBaseDelay   time.Duration
	MatchTimeout          time.Duration

	// Scheduling
	ClinicTimezone      string
	AppointmentDuration time.Duration
	ConflictBuffer      time.Duration
	BookingTimeout      time.Duration

	// Catalog import. When CatalogS3Bucket is set the catalog is fetched
	// from S3 at boot; otherwise CatalogPath is read from disk.
	CatalogPath     string
	CatalogS3Bucket string
	CatalogS3Key    string

	// HTTP surface
	CORSAllowedOrigins []string
	PortalLoginRate    float64
	PortalLoginBurst   int

	// SendGrid email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		AppointmentsTable: getEnv("APPOINTMENTS_TABLE", "appointments"),
		SummariesTable:    getEnv("SUMMARIES_TABLE", "conversation_summaries"),

		SummaryQueueURL: getEnv("SUMMARY_QUEUE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		IndexNeighbors:        getEnvAsInt("INDEX_NEIGHBORS", 100),
		DefaultTopN:           getEnvAsInt("MATCH_TOP_N", 3),
		SuggestedSymptomCap:   getEnvAsInt("SUGGESTED_SYMPTOM_CAP", 3),
		IndexRetryMaxAttempts: getEnvAsInt("INDEX_RETRY_MAX_ATTEMPTS", 3),
		IndexRetryBaseDelay:   getEnvAsDuration("INDEX_RETRY_BASE_DELAY", 200*time.Millisecond),
		MatchTimeout:          getEnvAsDuration("MATCH_TIMEOUT", 10*time.Second),

		ClinicTimezone:      getEnv("CLINIC_TIMEZONE", "US/Pacific"),
		AppointmentDuration: getEnvAsDuration("APPOINTMENT_DURATION", 60*time.Minute),
		ConflictBuffer:      getEnvAsDuration("CONFLICT_BUFFER", 55*time.Minute),
		BookingTimeout:      getEnvAsDuration("BOOKING_TIMEOUT", 10*time.Second),

		CatalogPath:     getEnv("CATALOG_PATH", "healthcare_data.csv"),
		CatalogS3Bucket: getEnv("CATALOG_S3_BUCKET", ""),
		CatalogS3Key:    getEnv("CATALOG_S3_KEY", "healthcare_data.csv"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		PortalLoginRate:    getEnvAsFloat("PORTAL_LOGIN_RATE", 5),
		PortalLoginBurst:   getEnvAsInt("PORTAL_LOGIN_BURST", 10),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Brightline Health"),
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

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
