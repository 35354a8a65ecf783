package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	VectorBackendSQLite = "sqlite"
	VectorBackendQdrant = "qdrant"
)

type Config struct {
	HTTPPort    string
	DatabaseURL string
	LogLevel    string
	CORSOrigins []string

	GeminiAPIKey       string
	LLMModel           string
	LLMTemperature     float32
	EmbeddingModel     string
	EmbeddingDimension int

	VectorBackend    string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	ChunkSize    int
	ChunkOverlap int
	TopK         int
	MaxUploadMB  int64

	FreeChatLimit     int
	FreeDocumentLimit int

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	PremiumPriceINR   int64

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	SweepEnabled  bool
	SweepSchedule string
}

// LoadConfig reads .env (when present) and the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8000"),
		DatabaseURL: getEnv("DATABASE_URL", "legaleagle.db"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "gemini-1.5-flash-latest"),
		LLMTemperature:     getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),

		VectorBackend:    strings.ToLower(getEnv("VECTOR_BACKEND", VectorBackendSQLite)),
		QdrantURL:        getEnv("QDRANT_URL", ""),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "legaleagle"),

		ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),
		TopK:         getEnvAsInt("TOP_K", 5),
		MaxUploadMB:  getEnvAsInt64("MAX_UPLOAD_MB", 50),

		FreeChatLimit:     getEnvAsInt("FREE_CHAT_LIMIT", 2),
		FreeDocumentLimit: getEnvAsInt("FREE_DOCUMENT_LIMIT", 2),

		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayBaseURL:   getEnv("RAZORPAY_BASE_URL", ""),
		PremiumPriceINR:   getEnvAsInt64("PREMIUM_PRICE_INR", 49900),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		SweepEnabled:  getEnvAsBool("SWEEP_ENABLED", true),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@every 1h"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY environment variable is required"))
	}
	if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET environment variables are required"))
	}
	switch c.VectorBackend {
	case VectorBackendSQLite:
	case VectorBackendQdrant:
		if c.QdrantURL == "" {
			errs = append(errs, errors.New("QDRANT_URL is required when VECTOR_BACKEND=qdrant"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VECTOR_BACKEND %q", c.VectorBackend))
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("invalid chunking: CHUNK_SIZE=%d CHUNK_OVERLAP=%d", c.ChunkSize, c.ChunkOverlap))
	}
	if c.EmbeddingDimension <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSION must be positive"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if c.FreeChatLimit < 0 || c.FreeDocumentLimit < 0 {
		errs = append(errs, errors.New("free tier limits must not be negative"))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is MAX_UPLOAD_MB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
