// Package config carries the environment-driven defaults of the library:
// where the HYDAT archive lives and how the datamart is reached.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultDatamartBaseURL is the public ECCC datamart root for hydrometric CSV.
const DefaultDatamartBaseURL = "https://dd.weather.gc.ca/hydrometric"

type (
	Config struct {
		Database
		Datamart
		Poll
	}

	Database struct {
		Path string // Path to the local HYDAT SQLite file
	}
	Datamart struct {
		BaseURL string
		Timeout time.Duration
	}
	Poll struct {
		Schedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("hydat_path", "")
	v.SetDefault("datamart_base_url", DefaultDatamartBaseURL)
	v.SetDefault("datamart_timeout", "30s")
	v.SetDefault("poll_schedule", "*/15 * * * *")

	return &Config{
		Database: Database{
			Path: v.GetString("HYDAT_PATH"),
		},
		Datamart: Datamart{
			BaseURL: v.GetString("DATAMART_BASE_URL"),
			Timeout: v.GetDuration("DATAMART_TIMEOUT"),
		},
		Poll: Poll{
			Schedule: v.GetString("POLL_SCHEDULE"),
		},
	}
}
