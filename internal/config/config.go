// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds every setting of the leadflow process.
type Config struct {
	Port        string
	LogLevel    string
	FlowPath    string
	CORSOrigins []string

	Store         string
	StoreDir      string
	SQLitePath    string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	RedisLock     bool
	// RedisTTL expires lead keys after this much inactivity. It is an
	// archival policy: an expired lead starts the flow over. Zero keeps leads.
	RedisTTL time.Duration

	EncryptionKey          string
	EncryptionFallbackKeys []string
	PIIMasking             bool
	PIIPatterns            []string

	ActionTimeout   time.Duration
	MaxStepVisits   int
	FallbackMessage string

	PresenterName  string
	PresenterYears int
	PresenterBio   string

	Vertical           string
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	PromptTemplatePath string

	ArtifactDir         string
	ArtifactBaseURL     string
	ArtifactBucket      string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// LoadDotEnv reads a .env file into the environment. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FlowPath:    getEnv("FLOW_PATH", "examples/health-plans/flow.yaml"),
		CORSOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		Store:         getEnv("STORE", StoreMemory),
		StoreDir:      getEnv("STORE_DIR", ".leadflow/leads"),
		SQLitePath:    getEnv("SQLITE_PATH", ".leadflow/leadflow.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "leadflow:lead:"),
		RedisLock:     getEnvAsBool("REDIS_LOCK", false),
		RedisTTL:      getEnvAsDuration("REDIS_TTL", 0),

		EncryptionKey:          getEnv("LEAD_ENCRYPTION_KEY", ""),
		EncryptionFallbackKeys: getEnvAsList("LEAD_ENCRYPTION_FALLBACK_KEYS"),
		PIIMasking:             getEnvAsBool("PII_MASKING", false),
		PIIPatterns:            getEnvAsList("PII_PATTERNS"),

		ActionTimeout:   getEnvAsDuration("ACTION_TIMEOUT", 30*time.Second),
		MaxStepVisits:   getEnvAsInt("MAX_STEP_VISITS", 1),
		FallbackMessage: getEnv("FALLBACK_MESSAGE", "{{presenter.name}} entrará em contato em breve!"),

		PresenterName:  getEnv("PRESENTER_NAME", "Joana"),
		PresenterYears: getEnvAsInt("PRESENTER_YEARS", 0),
		PresenterBio:   getEnv("PRESENTER_BIO", ""),

		Vertical:           getEnv("VERTICAL", "saude"),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.groq.com/openai/v1"),
		OpenAIModel:        getEnv("OPENAI_MODEL", ""),
		PromptTemplatePath: getEnv("PROMPT_TEMPLATE_PATH", ""),

		ArtifactDir:         getEnv("ARTIFACT_DIR", ".leadflow/artifacts"),
		ArtifactBaseURL:     getEnv("ARTIFACT_BASE_URL", "/artifacts"),
		ArtifactBucket:      getEnv("ARTIFACT_BUCKET", ""),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("store %q requires DATABASE_URL", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, file, redis, sqlite or postgres)", c.Store)
	}
	if len(c.EncryptionFallbackKeys) > 0 && c.EncryptionKey == "" {
		return fmt.Errorf("LEAD_ENCRYPTION_FALLBACK_KEYS requires LEAD_ENCRYPTION_KEY")
	}
	if c.ActionTimeout <= 0 {
		return fmt.Errorf("ACTION_TIMEOUT must be positive, got %s", c.ActionTimeout)
	}
	if c.MaxStepVisits < 1 {
		return fmt.Errorf("MAX_STEP_VISITS must be at least 1, got %d", c.MaxStepVisits)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
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
