// Package config loads the gateway's process configuration from the
// environment, 12-Factor style, with a .env file as a local-development
// convenience layered underneath real environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var ipv4Pattern = regexp.MustCompile(`^((25[0-5]|(2[0-4]|1\d|[1-9]|)\d)\.?\b){4}$`)

// Config is the root configuration structure. DatabaseURL and ConfigFile
// drive the Store and the config reconcile loop; API describes the
// gateway's inbound HTTP listener.
type Config struct {
	ConfigFile  string    `env:"CONFIG_FILE" envDefault:"/etc/fusion/fusion.yaml"`
	DatabaseURL string    `env:"DATABASE_URL,required"`
	API         APIConfig `envPrefix:"API_"`
}

// APIConfig describes the gateway's inbound HTTP listener: the address
// and port it binds, and the path prefix dispatched requests are
// mounted under.
type APIConfig struct {
	BindAddress string `env:"BIND_ADDRESS" envDefault:"0.0.0.0"`
	BindPort    uint16 `env:"BIND_PORT" envDefault:"7600"`
	BindPath    string `env:"BIND_PATH" envDefault:"/"`
}

// Load reads a .env file if present (a missing file is not an error;
// production deployments inject real environment variables directly),
// then parses the process environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment variables: %w", err)
	}

	if !ipv4Pattern.MatchString(cfg.API.BindAddress) {
		return nil, errors.New("API_BIND_ADDRESS must be a dotted-quad IPv4 address")
	}

	return &cfg, nil
}

// Addr returns the gateway's HTTP listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.BindAddress, c.API.BindPort)
}
