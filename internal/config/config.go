package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/rnltlabs/runicorn/internal/route"
	"github.com/rnltlabs/runicorn/internal/simplify"
)

// Config is read from environment variables. The routing defaults are policy
// constants calibrated against the GraphHopper free tier; they are exposed
// here but existing exported tracks depend on the default values.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	AppEnv     string `mapstructure:"APP_ENV"`

	GraphHopperAPIKey string `mapstructure:"GRAPHHOPPER_API_KEY"`
	GraphHopperURL    string `mapstructure:"GRAPHHOPPER_URL"`
	RouteProfile      string `mapstructure:"ROUTE_PROFILE"`
	RouteLocale       string `mapstructure:"ROUTE_LOCALE"`

	SimplifyTolerance  float64 `mapstructure:"SIMPLIFY_TOLERANCE"`
	RouteBatchSize     int     `mapstructure:"ROUTE_BATCH_SIZE"`
	RouteMaxAttempts   int     `mapstructure:"ROUTE_MAX_ATTEMPTS"`
	RouteBackoffBaseMS int     `mapstructure:"ROUTE_BACKOFF_BASE_MS"`
	RouteBatchDelayMS  int     `mapstructure:"ROUTE_BATCH_DELAY_MS"`
}

func Load() Config {
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("GRAPHHOPPER_API_KEY", "")
	viper.SetDefault("GRAPHHOPPER_URL", route.DefaultBaseURL)
	viper.SetDefault("ROUTE_PROFILE", "foot")
	viper.SetDefault("ROUTE_LOCALE", "de")
	viper.SetDefault("SIMPLIFY_TOLERANCE", simplify.DefaultTolerance)
	viper.SetDefault("ROUTE_BATCH_SIZE", 5)
	viper.SetDefault("ROUTE_MAX_ATTEMPTS", 3)
	viper.SetDefault("ROUTE_BACKOFF_BASE_MS", 2000)
	viper.SetDefault("ROUTE_BATCH_DELAY_MS", 1500)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}

// PipelineOptions converts the configured knobs into routing options.
func (c Config) PipelineOptions() route.Options {
	return route.Options{
		Tolerance:   c.SimplifyTolerance,
		BatchSize:   c.RouteBatchSize,
		MaxAttempts: c.RouteMaxAttempts,
		BackoffBase: time.Duration(c.RouteBackoffBaseMS) * time.Millisecond,
		BatchDelay:  time.Duration(c.RouteBatchDelayMS) * time.Millisecond,
	}
}
