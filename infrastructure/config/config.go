package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// ConfigFileEnv names the optional YAML file applied before the environment
const ConfigFileEnv = "NEUROMAP_CONFIG"

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Lambda configuration
	IsLambda bool `yaml:"-"`

	// Storage configuration
	StorageBackend string `yaml:"storage_backend"`
	DataDir        string `yaml:"data_dir"`
	SQLitePath     string `yaml:"sqlite_path"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table"`

	// Canvas behaviour
	AutoSaveDelay   time.Duration `yaml:"autosave_delay"`
	ConfirmationTTL time.Duration `yaml:"confirmation_ttl"`
	CanvasWidth     float64       `yaml:"canvas_width"`
	CanvasHeight    float64       `yaml:"canvas_height"`

	// Export configuration
	ExportDir    string `yaml:"export_dir"`
	ExportWidth  int    `yaml:"export_width"`
	ExportHeight int    `yaml:"export_height"`

	// Storage circuit breaker
	BreakerEnabled          bool          `yaml:"breaker_enabled"`
	BreakerTimeout          time.Duration `yaml:"breaker_timeout"`
	BreakerFailureThreshold float64       `yaml:"breaker_failure_threshold"`
	BreakerMinRequests      uint32        `yaml:"breaker_min_requests"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableCORS    bool `yaml:"enable_cors"`

	// RateLimitPerMinute caps mutating requests per client; 0 disables it
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// ConfigFile is the YAML file the configuration was read from, if any
	ConfigFile string `yaml:"-"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerAddress:           ":8080",
		Environment:             "development",
		StorageBackend:          BackendFile,
		DataDir:                 "data",
		SQLitePath:              "data/neuromap.db",
		AWSRegion:               "us-west-2",
		DynamoDBTable:           "neuromap",
		AutoSaveDelay:           time.Second,
		ConfirmationTTL:         5 * time.Minute,
		CanvasWidth:             1280,
		CanvasHeight:            800,
		ExportDir:               ".",
		ExportWidth:             1280,
		ExportHeight:            800,
		BreakerEnabled:          true,
		BreakerTimeout:          15 * time.Second,
		BreakerFailureThreshold: 0.6,
		BreakerMinRequests:      3,
		LogLevel:                "info",
		EnableMetrics:           true,
		EnableCORS:              true,
		RateLimitPerMinute:      600,
	}
}

// LoadConfig loads configuration from defaults, then the YAML file named by
// NEUROMAP_CONFIG, then environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.IsLambda = getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != ""

	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))

	c.AutoSaveDelay = getEnvDuration("AUTOSAVE_DELAY", c.AutoSaveDelay)
	c.ConfirmationTTL = getEnvDuration("CONFIRMATION_TTL", c.ConfirmationTTL)
	c.CanvasWidth = getEnvFloat("CANVAS_WIDTH", c.CanvasWidth)
	c.CanvasHeight = getEnvFloat("CANVAS_HEIGHT", c.CanvasHeight)

	c.ExportDir = getEnv("EXPORT_DIR", c.ExportDir)
	c.ExportWidth = getEnvInt("EXPORT_WIDTH", c.ExportWidth)
	c.ExportHeight = getEnvInt("EXPORT_HEIGHT", c.ExportHeight)

	c.BreakerEnabled = getEnvBool("BREAKER_ENABLED", c.BreakerEnabled)
	c.BreakerTimeout = getEnvDuration("BREAKER_TIMEOUT", c.BreakerTimeout)
	c.BreakerFailureThreshold = getEnvFloat("BREAKER_FAILURE_THRESHOLD", c.BreakerFailureThreshold)
	c.BreakerMinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(c.BreakerMinRequests)))

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
}

// Validate checks if the configuration is consistent
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
		}
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.IsProduction() && c.StorageBackend == BackendMemory {
		return fmt.Errorf("the memory backend cannot be used in production")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE cannot be negative")
	}
	if c.AutoSaveDelay <= 0 {
		return fmt.Errorf("AUTOSAVE_DELAY must be positive")
	}
	if c.ConfirmationTTL <= 0 {
		return fmt.Errorf("CONFIRMATION_TTL must be positive")
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("CANVAS_WIDTH and CANVAS_HEIGHT must be positive")
	}
	if c.ExportWidth <= 0 || c.ExportHeight <= 0 {
		return fmt.Errorf("EXPORT_WIDTH and EXPORT_HEIGHT must be positive")
	}
	if c.BreakerEnabled && (c.BreakerFailureThreshold <= 0 || c.BreakerFailureThreshold > 1) {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be in (0, 1]")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value.
// Plain integers are read as milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
