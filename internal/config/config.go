package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	AuditWorkers  int           `yaml:"audit_workers"`
}

func LoadConfig(path string) (*Config, error) {
	apiTimeout := 15 * time.Second
	tokenDuration := 1 * time.Hour

	cfg := &Config{
		Addr:          getEnv("CREWBOARD_ADDR", ":8080"),
		JWTSecret:     getEnv("CREWBOARD_JWT_SECRET", "supersecretkey"),
		APITimeout:    apiTimeout,
		DatabasePath:  getEnv("CREWBOARD_DATABASE_PATH", "crewboard.db"),
		TokenDuration: tokenDuration,
		AuditWorkers:  getEnvInt("CREWBOARD_AUDIT_WORKERS", 2),
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.AuditWorkers < 1 {
		cfg.AuditWorkers = 2
	}

	return cfg, nil
}

// Validate rejects configurations that must not reach production. The
// default JWT secret is tolerated only when CREWBOARD_ENV is development.
func (c *Config) Validate() error {
	if c.JWTSecret == "supersecretkey" && os.Getenv("CREWBOARD_ENV") != "development" {
		return fmt.Errorf("jwt_secret must be overridden outside development")
	}
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive")
	}
	if c.AuditWorkers < 1 {
		return fmt.Errorf("audit_workers must be positive")
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}
