package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	AppName       string `yaml:"app_name"`
	AppVersion    string `yaml:"app_version"`

	// AWS configuration
	AWSRegion         string `yaml:"aws_region"`
	DynamoDBEndpoint  string `yaml:"dynamodb_endpoint"`
	ProjectsTable     string `yaml:"projects_table"`
	UserProjectsIndex string `yaml:"user_projects_index"`
	RateLimitTable    string `yaml:"rate_limit_table"`
	EventBusName      string `yaml:"event_bus_name"`

	// Authentication
	JWTSecret                string `yaml:"jwt_secret"`
	JWTIssuer                string `yaml:"jwt_issuer"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes"`

	// HTTP
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	CORSOrigins        []string `yaml:"cors_origins"`

	// Logging and feature flags
	LogLevel      string `yaml:"log_level"`
	EnableMetrics bool   `yaml:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing"`

	// Lambda
	IsLambda bool `yaml:"-"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		ServerAddress:            ":8080",
		Environment:              "development",
		AppName:                  "AgentDev Platform API",
		AppVersion:               "1.0.0",
		AWSRegion:                "us-east-1",
		ProjectsTable:            "agentdev-dev-projects",
		UserProjectsIndex:        "user-projects-index",
		JWTIssuer:                "agentdev-backend",
		AccessTokenExpireMinutes: 30,
		RateLimitPerMinute:       100,
		CORSOrigins:              []string{"http://localhost:3000", "https://localhost:3000"},
		LogLevel:                 "info",
		EnableMetrics:            true,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE and then environment variables. Environment wins.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AppName = getEnv("APP_NAME", c.AppName)
	c.AppVersion = getEnv("APP_VERSION", c.AppVersion)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.ProjectsTable = getEnv("PROJECTS_TABLE", c.ProjectsTable)
	c.UserProjectsIndex = getEnv("USER_PROJECTS_INDEX", c.UserProjectsIndex)
	c.RateLimitTable = getEnv("RATE_LIMIT_TABLE", c.RateLimitTable)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.AccessTokenExpireMinutes = getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", c.AccessTokenExpireMinutes)

	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)

	c.IsLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.ProjectsTable == "" {
		return fmt.Errorf("PROJECTS_TABLE is required")
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Secret returns the JWT signing secret. Outside production an unset secret
// falls back to a fixed development value.
func (c *Config) Secret() string {
	if c.JWTSecret == "" && !c.IsProduction() {
		return "dev-secret-change-me"
	}
	return c.JWTSecret
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

// getEnvList reads a comma separated list
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
