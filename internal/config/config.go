// Package config loads the client's runtime settings from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Config holds everything the portal client needs from the environment.
type Config struct {
	AppName        string        `env:"APP_NAME" envDefault:"Portal Client"`
	BaseURL        string        `env:"PORTAL_BASE_URL" envDefault:"http://localhost:9000/api"`
	DataDir        string        `env:"PORTAL_DATA_DIR" envDefault:"./data"`
	RequestTimeout time.Duration `env:"PORTAL_REQUEST_TIMEOUT" envDefault:"10s"`
	CSRFCookieName string        `env:"PORTAL_CSRF_COOKIE" envDefault:"csrftoken"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

// New parses the configuration from environment variables.
func New() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "[config.New] env.Parse")
	}
	return cfg, nil
}
