package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM provider selection.
const (
	ProviderGoogle = "googleai"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds every tunable of the pipeline. Components receive the
// values they need at construction; nothing reads the environment after
// Load returns.
type Config struct {
	// Google Places / Geocoding
	PlacesAPIKey         string
	PlacesLanguage       string
	PlacesTimeout        time.Duration
	PageTokenDelay       time.Duration
	FoodRadius           int
	FoodMaxResults       int
	AttractionRadius     int
	AttractionMaxResults int
	MarketRadius         int
	MarketMaxResults     int

	// Generative AI
	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	OllamaHost  string

	SummaryMaxLength           int
	FoodSummaryMaxLength       int
	AttractionSummaryMaxLength int
	EventSearchDaysAhead       int

	// Images
	ImageMaxWidth        int
	AttractionImageCount int
	MaxImageUploads      int

	// Object storage (S3-compatible)
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3UseSSL        bool
	S3PublicBaseURL string
	ImagePrefix     string
	JobResultPrefix string
	ImageExpiryDays int
	JobExpiryDays   int

	// Job dispatch
	KafkaBroker  string
	KafkaTopic   string
	KafkaGroupID string

	// HTTP API
	HTTPAddr       string
	ResultTTL      int
	PollRetryAfter int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from the environment, after attempting to
// load a .env file for local development.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	return Config{
		PlacesAPIKey:   os.Getenv("GOOGLE_PLACES_API_KEY"),
		PlacesLanguage: getEnv("PLACES_API_LANGUAGE", "zh-CN"),
		PlacesTimeout:  getDuration("PLACES_API_TIMEOUT", 10*time.Second),
		PageTokenDelay: getDuration("PLACES_PAGE_TOKEN_DELAY", 2*time.Second),

		FoodRadius:           getInt("FOOD_SEARCH_RADIUS", 500),
		FoodMaxResults:       getInt("FOOD_MAX_RESULTS", 5),
		AttractionRadius:     getInt("ATTRACTION_SEARCH_RADIUS", 5000),
		AttractionMaxResults: getInt("ATTRACTION_MAX_RESULTS", 5),
		MarketRadius:         getInt("MARKET_SEARCH_RADIUS", 5000),
		MarketMaxResults:     getInt("MARKET_MAX_RESULTS", 5),

		LLMProvider: getEnv("LLM_PROVIDER", ProviderGoogle),
		LLMModel:    getEnv("LLM_MODEL", "gemini-2.5-flash"),
		LLMAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OllamaHost:  getEnv("OLLAMA_HOST", "http://localhost:11434"),

		SummaryMaxLength:           getInt("SUMMARY_MAX_LENGTH", 150),
		FoodSummaryMaxLength:       getInt("FOOD_SUMMARY_MAX_LENGTH", 100),
		AttractionSummaryMaxLength: getInt("ATTRACTION_SUMMARY_MAX_LENGTH", 200),
		EventSearchDaysAhead:       getInt("EVENT_SEARCH_DAYS_AHEAD", 30),

		ImageMaxWidth:        getInt("IMAGE_MAX_WIDTH", 800),
		AttractionImageCount: getInt("ATTRACTION_IMAGE_COUNT", 3),
		MaxImageUploads:      getInt("MAX_CONCURRENT_IMAGE_UPLOADS", 5),

		S3Endpoint:      getEnv("S3_ENDPOINT", "s3.amazonaws.com"),
		S3Region:        os.Getenv("S3_REGION"),
		S3Bucket:        os.Getenv("S3_BUCKET_NAME"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3UseSSL:        getEnv("S3_USE_SSL", "true") == "true",
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		ImagePrefix:     getEnv("S3_IMAGE_PREFIX", "poi-images/"),
		JobResultPrefix: getEnv("S3_JOB_RESULT_PREFIX", "rcmnd_job/"),
		ImageExpiryDays: getInt("S3_IMAGE_EXPIRY_DAYS", 1),
		JobExpiryDays:   getInt("S3_JOB_EXPIRY_DAYS", 2),

		KafkaBroker:  getEnv("KAFKA_BROKER", "localhost:9092"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "rcmnd-jobs"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "rcmnd-executor"),

		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		ResultTTL:      getInt("RESULT_TTL_SECONDS", 300),
		PollRetryAfter: getInt("POLL_RETRY_AFTER_SECONDS", 5),

		LogFile:  getEnv("LOG_FILE", ""),
		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "INFO")),
	}
}

// Validate checks that the credentials every job needs are present.
func (c Config) Validate() error {
	var missing []string
	if c.PlacesAPIKey == "" {
		missing = append(missing, "GOOGLE_PLACES_API_KEY")
	}
	if c.LLMAPIKey == "" && c.LLMProvider != ProviderOllama {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	// Accept bare seconds as well as Go duration syntax.
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
