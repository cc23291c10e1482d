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
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	JWTTTLMinutes  int      `mapstructure:"JWT_TTL_MINUTES"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	AuthRateRPS    float64  `mapstructure:"AUTH_RATE_RPS"`
	AuthRateBurst  int      `mapstructure:"AUTH_RATE_BURST"`
	GeminiAPIKey   string   `mapstructure:"GEMINI_API_KEY"`
	GeminiModel    string   `mapstructure:"GEMINI_MODEL"`
	TwilioSID      string   `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioToken    string   `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFrom     string   `mapstructure:"TWILIO_FROM_NUMBER"`
	JobsEnabled    bool     `mapstructure:"JOBS_ENABLED"`
	WeeklyCron     string   `mapstructure:"WEEKLY_SUMMARY_CRON"`
	ReminderCron   string   `mapstructure:"DOSE_REMINDER_CRON"`
	AutoTuneCron   string   `mapstructure:"ALERT_AUTOTUNE_CRON"`
	MatchRadiusKm  float64  `mapstructure:"MATCH_RADIUS_KM"`
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
	v.SetDefault("JWT_TTL_MINUTES", 60)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("AUTH_RATE_RPS", 0.4)
	v.SetDefault("AUTH_RATE_BURST", 5)
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("JOBS_ENABLED", true)
	v.SetDefault("WEEKLY_SUMMARY_CRON", "0 8 * * MON")
	v.SetDefault("DOSE_REMINDER_CRON", "*/15 * * * *")
	v.SetDefault("ALERT_AUTOTUNE_CRON", "30 2 * * *")
	v.SetDefault("MATCH_RADIUS_KM", 50)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "JWT_TTL_MINUTES", "CORS_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "AUTH_RATE_RPS", "AUTH_RATE_BURST",
		"GEMINI_API_KEY", "GEMINI_MODEL",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER",
		"JOBS_ENABLED", "WEEKLY_SUMMARY_CRON", "DOSE_REMINDER_CRON",
		"ALERT_AUTOTUNE_CRON", "MATCH_RADIUS_KM",
	} {
		v.BindEnv(key)
	}

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

	if cfg.IsDev() && cfg.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET not set; using an insecure development secret.")
		cfg.JWTSecret = "carelink-dev-secret-do-not-use-in-production"
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

// Validate checks that the configuration is safe to run. In production a real
// JWT secret is mandatory, and SMS credentials must be complete if any of
// them are set.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWTSecret == "" || strings.Contains(c.JWTSecret, "dev-secret") {
			return fmt.Errorf("JWT_SECRET must be set to a real secret in production")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
		}
	}

	smsSet := 0
	for _, s := range []string{c.TwilioSID, c.TwilioToken, c.TwilioFrom} {
		if s != "" {
			smsSet++
		}
	}
	if smsSet != 0 && smsSet != 3 {
		return fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER must be set together")
	}

	if c.MatchRadiusKm <= 0 {
		return fmt.Errorf("MATCH_RADIUS_KM must be positive, got %v", c.MatchRadiusKm)
	}

	return nil
}
