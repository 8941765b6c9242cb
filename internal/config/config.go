package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	DriverCosmos = "cosmos"
	DriverMongo  = "mongo"
	DriverFile   = "file"
	DriverMemory = "memory"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port               string        `env:"PORT" envDefault:"31415"`
		CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
		RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
		ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	}

	Store struct {
		Driver  string `env:"STORE_DRIVER" envDefault:"cosmos"`
		DataDir string `env:"DATA_DIR" envDefault:"./data"`
	}

	Cosmos struct {
		Endpoint         string `env:"COSMOS_ENDPOINT"`
		Key              string `env:"COSMOS_KEY"`
		UsersDatabaseID  string `env:"COSMOS_DATABASE_ID_USERS"`
		UsersContainerID string `env:"COSMOS_CONTAINER_ID_USERS"`
		SpawnDatabaseID  string `env:"COSMOS_DATABASE_ID_DWEEBE"`
		SpawnContainerID string `env:"COSMOS_CONTAINER_ID_DWEEBE"`
	}

	Mongo struct {
		URI             string `env:"MONGO_URI"`
		TLS             bool   `env:"MONGO_TLS" envDefault:"true"`
		UsersDatabase   string `env:"MONGO_DB_USERS" envDefault:"dweebe"`
		UsersCollection string `env:"MONGO_COLLECTION_USERS" envDefault:"users"`
		SpawnDatabase   string `env:"MONGO_DB_DWEEBE" envDefault:"dweebe"`
		SpawnCollection string `env:"MONGO_COLLECTION_DWEEBE" envDefault:"dweebe"`
	}

	AMQP struct {
		URL        string `env:"AMQP_URL"`
		Exchange   string `env:"AMQP_EXCHANGE" envDefault:"dweebe.events"`
		RoutingKey string `env:"AMQP_ROUTING_KEY" envDefault:"dweebe.spawn"`
	}
}

// Load reads the environment, after applying any .env files found in the
// working directory or its parent.
func Load() (*Config, error) {
	for _, f := range []string{".env", "../.env"} {
		// Missing files are fine: production sets variables directly.
		_ = godotenv.Load(f)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected store driver has what it needs.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverCosmos:
		missing := missingVars(map[string]string{
			"COSMOS_ENDPOINT":            c.Cosmos.Endpoint,
			"COSMOS_KEY":                 c.Cosmos.Key,
			"COSMOS_DATABASE_ID_USERS":   c.Cosmos.UsersDatabaseID,
			"COSMOS_CONTAINER_ID_USERS":  c.Cosmos.UsersContainerID,
			"COSMOS_DATABASE_ID_DWEEBE":  c.Cosmos.SpawnDatabaseID,
			"COSMOS_CONTAINER_ID_DWEEBE": c.Cosmos.SpawnContainerID,
		})
		if len(missing) > 0 {
			return fmt.Errorf("cosmos store: missing %s", strings.Join(missing, ", "))
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo store: missing MONGO_URI")
		}
	case DriverFile:
		if c.Store.DataDir == "" {
			return fmt.Errorf("file store: missing DATA_DIR")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func missingVars(vars map[string]string) []string {
	var out []string
	for name, v := range vars {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
