package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/arena/go/clients/arena_client"
)

// MaxGames is the largest series the match server accepts.
const MaxGames = 10

const (
	DefaultAPIURL         = arena_client.DefaultBaseURL
	DefaultRequestTimeout = 5 * time.Minute
)

type Config struct {
	API struct {
		URL string `yaml:"url"`
		// Timeout bounds a single request; agents may think for minutes.
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Games int `yaml:"games"`

	Agents struct {
		A string `yaml:"a"`
		B string `yaml:"b"`
	} `yaml:"agents"`

	Gateway struct {
		Addr string `yaml:"addr"` // empty disables the gateway
	} `yaml:"gateway"`

	NATS struct {
		URL string `yaml:"url"` // empty disables publishing
	} `yaml:"nats"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{Games: 1}
	cfg.API.URL = DefaultAPIURL
	cfg.API.Timeout = DefaultRequestTimeout
	cfg.Agents.A = arena_client.WinnerLabelGPT
	cfg.Agents.B = arena_client.WinnerLabelClaude
	cfg.Log.Level = "info"
	return cfg
}

// Load builds the configuration from defaults, the optional YAML file at path and
// then ARENA_* environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.API.URL = getEnv("ARENA_API_URL", c.API.URL)
	c.Agents.A = getEnv("ARENA_AGENT_A_NAME", c.Agents.A)
	c.Agents.B = getEnv("ARENA_AGENT_B_NAME", c.Agents.B)
	c.Gateway.Addr = getEnv("ARENA_GATEWAY_ADDR", c.Gateway.Addr)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.Log.Level = getEnv("ARENA_LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("ARENA_GAMES"); v != "" {
		games, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ARENA_GAMES %q: %w", v, err)
		}
		c.Games = games
	}
	if v := os.Getenv("ARENA_REQUEST_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ARENA_REQUEST_TIMEOUT %q: %w", v, err)
		}
		c.API.Timeout = timeout
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Games < 1 || c.Games > MaxGames {
		errs = append(errs, fmt.Errorf("games must be between 1 and %d, got %d", MaxGames, c.Games))
	}
	if u, err := url.Parse(c.API.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid api url %q", c.API.URL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api timeout must be positive, got %s", c.API.Timeout))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses the configured zerolog level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
