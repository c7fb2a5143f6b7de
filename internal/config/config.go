package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"
	StoragePostgres StorageDriver = "postgres"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"BudgetNest"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Storage struct {
		Driver StorageDriver `envconfig:"STORAGE_DRIVER" default:"memory"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"budgetnest"`
	}

	Auth struct {
		Secret    string        `envconfig:"AUTH_SECRET" default:"budgetnest-dev-secret"`
		TokenTTL  time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
		UserFile  string        `envconfig:"AUTH_USER_FILE" default:".budgetnest/user.json"`
		MockDelay time.Duration `envconfig:"AUTH_MOCK_DELAY" default:"0s"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Events struct {
		Brokers []string `envconfig:"EVENTS_BROKERS"`
		Topic   string   `envconfig:"EVENTS_TOPIC" default:"budgetnest.events"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// EventsEnabled reports whether change events should be published.
func (c *Config) EventsEnabled() bool {
	return len(c.Events.Brokers) > 0
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	return &cfg, nil
}
