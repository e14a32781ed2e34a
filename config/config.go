/*
config.go - Application configuration

PURPOSE:
  Loads engine configuration from, in increasing precedence:
    1. Built-in defaults
    2. An optional config file (yaml, toml or json)
    3. A .env file in the working directory, if present
    4. PROTRACK_* environment variables
    5. Command-line flags that were explicitly set (LoadWithFlags)

ENVIRONMENT:
  Nested keys map to upper-case names joined by underscores:
    server.port          -> PROTRACK_SERVER_PORT
    store.driver         -> PROTRACK_STORE_DRIVER
    store.postgres.host  -> PROTRACK_STORE_POSTGRES_HOST
    log.level            -> PROTRACK_LOG_LEVEL

SEE ALSO:
  - cmd/server/main.go: Flag overrides on top of this
*/
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/protrack/production-engine/logging"
)

// EnvPrefix prefixes every environment variable the engine reads.
const EnvPrefix = "PROTRACK"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	Store  StoreConfig    `mapstructure:"store"`
	Log    logging.Config `mapstructure:"log"`
	Engine EngineConfig   `mapstructure:"engine"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Driver   string         `mapstructure:"driver"`
	Path     string         `mapstructure:"path"` // sqlite file or badger directory
	DSN      string         `mapstructure:"dsn"`  // postgres; overrides Postgres when set
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds discrete PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// EngineConfig tunes engine behavior
type EngineConfig struct {
	RequireShipping bool `mapstructure:"require_shipping"`
	TrendSize       int  `mapstructure:"trend_size"`
}

// GetDSN returns the database connection string
func (s StoreConfig) GetDSN() string {
	if s.DSN != "" {
		return s.DSN
	}
	p := s.Postgres
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %q", c.Store.Driver)
		}
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Engine.TrendSize <= 0 {
		return errors.New("engine.trend_size must be positive")
	}
	return nil
}

// FlagKeys maps command-line flag names onto configuration keys.
var FlagKeys = map[string]string{
	"port":      "server.port",
	"driver":    "store.driver",
	"db":        "store.path",
	"dsn":       "store.dsn",
	"log-level": "log.level",
}

// Load reads configuration. An empty path skips the config file.
func Load(path string) (*Config, error) {
	return LoadWithFlags(path, nil)
}

// LoadWithFlags is Load with flag overrides. Only flags listed in FlagKeys
// and present in the set are bound; unset flags never shadow env or file.
func LoadWithFlags(path string, flags *pflag.FlagSet) (*Config, error) {
	// It's okay if .env doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Server.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.path", "production.db")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", "5432")
	v.SetDefault("store.postgres.user", "postgres")
	v.SetDefault("store.postgres.password", "")
	v.SetDefault("store.postgres.dbname", "production")
	v.SetDefault("store.postgres.sslmode", "disable")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")
	v.SetDefault("log.development", false)

	v.SetDefault("engine.require_shipping", false)
	v.SetDefault("engine.trend_size", 7)
}

// splitOrigins accepts both a list and a single comma-separated env value.
func splitOrigins(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
