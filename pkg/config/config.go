package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Port            string `mapstructure:"PORT"`
	Env             string `mapstructure:"ENV"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	DataPath        string `mapstructure:"DATA_PATH"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	APIMasterSecret string `mapstructure:"API_MASTER_SECRET"`
	AdminUsername   string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword   string `mapstructure:"ADMIN_PASSWORD"`
	BcryptCost      int    `mapstructure:"BCRYPT_COST"`

	DefaultPolicy    string `mapstructure:"DEFAULT_POLICY"`
	DefaultCapacity  int    `mapstructure:"DEFAULT_CAPACITY"`
	SolveParallelism int    `mapstructure:"SOLVE_PARALLELISM"`

	RateLimitPerMin int    `mapstructure:"RATE_LIMIT_PER_MIN"`
	CORSOrigins     string `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]any{
	"PORT":               "8000",
	"ENV":                "development",
	"LOG_LEVEL":          "info",
	"DATABASE_URL":       "",
	"DATA_PATH":          "scheduler.db",
	"JWT_SECRET":         "",
	"API_MASTER_SECRET":  "",
	"ADMIN_USERNAME":     "admin",
	"ADMIN_PASSWORD":     "admin123",
	"BCRYPT_COST":        14,
	"DEFAULT_POLICY":     "least_loaded",
	"DEFAULT_CAPACITY":   3,
	"SOLVE_PARALLELISM":  7,
	"RATE_LIMIT_PER_MIN": 120,
	"CORS_ORIGINS":       "*",
}

// LoadEnvFiles loads the first .env found in the working directory or its parents
func LoadEnvFiles() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}
}

// Load reads .env files, environment variables and an optional config.yaml
func Load() (*Config, error) {
	LoadEnvFiles()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowedOrigins splits CORS_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
