package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	GigaChat  GigaChatConfig
	OCR       OCRConfig
	Analysis  AnalysisConfig
	Catalog   CatalogConfig
	Telemetry TelemetryConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

// StoreConfig selects the persistence backend: memory, postgres or redis.
type StoreConfig struct {
	Driver       string
	HistoryLimit int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type OCRConfig struct {
	Enabled        bool
	Language       string
	TessdataPrefix string
	RasterDPI      float64
}

// AnalysisConfig controls which scorer runs and how the pipeline is bounded.
type AnalysisConfig struct {
	Strategy      string
	Advisor       string
	BackendURL    string
	StubDelay     time.Duration
	Timeout       time.Duration
	MaxTextLength int
	MaxConcurrent int64
}

type CatalogConfig struct {
	TopK int
}

type TelemetryConfig struct {
	ServiceName string
	Enabled     bool
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same way.
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvSeconds("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvSeconds("SERVER_WRITE_TIMEOUT", 30),
			BodyLimit:    getEnvInt("SERVER_BODY_LIMIT_MB", 20) * 1024 * 1024,
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(getEnv("STORE_DRIVER", "memory")),
			HistoryLimit: getEnvInt("HISTORY_LIMIT", 15),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "finhealth"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Address:   getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "finhealth:"),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: getEnvBool("GIGACHAT_INSECURE_SKIP_VERIFY", true),
		},
		OCR: OCRConfig{
			Enabled:        getEnvBool("OCR_ENABLED", true),
			Language:       getEnv("OCR_LANGUAGE", "eng"),
			TessdataPrefix: getEnv("OCR_TESSDATA_PREFIX", ""),
			RasterDPI:      getEnvFloat("OCR_RASTER_DPI", 144),
		},
		Analysis: AnalysisConfig{
			Strategy:      strings.ToLower(getEnv("ANALYSIS_STRATEGY", "heuristic")),
			Advisor:       strings.ToLower(getEnv("ANALYSIS_ADVISOR", "none")),
			BackendURL:    getEnv("ANALYSIS_BACKEND_URL", "http://localhost:5000"),
			StubDelay:     getEnvDuration("ANALYSIS_STUB_DELAY", 500*time.Millisecond),
			Timeout:       getEnvDuration("ANALYSIS_TIMEOUT", 60*time.Second),
			MaxTextLength: getEnvInt("ANALYSIS_MAX_TEXT_LENGTH", 20000),
			MaxConcurrent: int64(getEnvInt("ANALYSIS_MAX_CONCURRENT", 1)),
		},
		Catalog: CatalogConfig{
			TopK: getEnvInt("RECOMMENDATION_TOP_K", 3),
		},
		Telemetry: TelemetryConfig{
			ServiceName: getEnv("OTEL_SERVICE_NAME", "finhealth"),
			Enabled:     !getEnvBool("OTEL_SDK_DISABLED", true),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

// getEnvDuration accepts Go duration strings ("750ms", "2m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
