package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	LLMBaseURL     string   `mapstructure:"LLM_BASE_URL"`
	SummaryModel   string   `mapstructure:"SUMMARY_MODEL"`
	ValidatorModel string   `mapstructure:"VALIDATOR_MODEL"`
	AudioAPIURL    string   `mapstructure:"AUDIO_API_URL"`
	AudioAPIKey    string   `mapstructure:"AUDIO_API_KEY"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	JWTExpiryHours int      `mapstructure:"JWT_EXPIRY_HOURS"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPM   int      `mapstructure:"RATE_LIMIT_RPM"`
	DemoMode       bool     `mapstructure:"DEMO_MODE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("LLM_BASE_URL", "http://localhost:11434")
	v.SetDefault("SUMMARY_MODEL", "gemma3n:e4b")
	v.SetDefault("VALIDATOR_MODEL", "gemma3n:e4b")
	v.SetDefault("JWT_EXPIRY_HOURS", 8)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPM", 25)
	v.SetDefault("DEMO_MODE", false)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("LLM_BASE_URL")
	v.BindEnv("SUMMARY_MODEL")
	v.BindEnv("VALIDATOR_MODEL")
	v.BindEnv("AUDIO_API_URL")
	v.BindEnv("AUDIO_API_KEY")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_EXPIRY_HOURS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPM")
	v.BindEnv("DEMO_MODE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.DemoMode {
		log.Println("WARNING: DEMO_MODE is enabled. Create, update, and delete")
		log.Println("WARNING: operations are rejected for all clinical records.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Production requires
// a real JWT secret; the audio API key must accompany the audio API URL so a
// half-configured transcription service fails at startup instead of at the
// first upload.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.AudioAPIURL != "" && c.AudioAPIKey == "" {
		return fmt.Errorf("AUDIO_API_KEY is required when AUDIO_API_URL is set")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive, got %d", c.RateLimitRPM)
	}
	if c.JWTExpiryHours <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive, got %d", c.JWTExpiryHours)
	}
	return nil
}
