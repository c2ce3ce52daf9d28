// Package config loads the service configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds all runtime configuration values.
type Config struct {
	Port       string        `env:"PORT"      envDefault:"8080"`
	DBUser     string        `env:"DBUSER,required"`
	DBPassword string        `env:"DBPWD,required"`
	DBHost     string        `env:"DBHOST"    envDefault:"localhost:3306"`
	DBName     string        `env:"DBNAME"    envDefault:"contacts"`
	JWTSecret  string        `env:"JWT_SECRET,required"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is merged in first if present; it never overrides
// variables that are already set.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	return cfg, nil
}

// DSN returns the MySQL data source name for the configured database.
// parseTime makes the driver scan DATE and TIMESTAMP columns into time.Time.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		c.DBUser, c.DBPassword, c.DBHost, c.DBName)
}
