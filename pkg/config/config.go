package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/pendampingan/assistance-backend/pkg/fees"
)

// Config holds service configuration, loaded once at startup.
type Config struct {
	Port   string `envconfig:"PORT" default:"3000"`
	AppEnv string `envconfig:"APP_ENV" default:"dev"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	// Platform fee schedule: "fixed" (flat rupiah amount) or "percentage"
	// (percent of the agreed price).
	FeeType   string `envconfig:"PLATFORM_FEE_TYPE" default:"percentage"`
	FeeAmount int64  `envconfig:"PLATFORM_FEE_AMOUNT" default:"5"`

	SupabaseURL        string `envconfig:"SUPABASE_URL"`
	SupabaseServiceKey string `envconfig:"SUPABASE_SERVICE_KEY"`
	SupabaseBucket     string `envconfig:"SUPABASE_BUCKET"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	switch fees.Type(cfg.FeeType) {
	case fees.Fixed, fees.Percentage:
	default:
		return nil, fmt.Errorf("invalid PLATFORM_FEE_TYPE %q", cfg.FeeType)
	}
	return &cfg, nil
}

// FeeSchedule builds the fee schedule injected into the assistance service.
func (c *Config) FeeSchedule() fees.Schedule {
	return fees.Schedule{Type: fees.Type(c.FeeType), Amount: c.FeeAmount}
}
