// Package config loads server and client settings with viper.
//
// Both loaders use their own viper instance, so tests (and the two binaries)
// never share global state. Every key gets a default, which is also what
// lets viper's AutomaticEnv pick it up during Unmarshal.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig configures cmd/server. Keys map one-to-one onto environment
// variables: port → PORT, db_driver → DB_DRIVER, and so on.
type ServerConfig struct {
	Port               string `mapstructure:"port"`
	DBDriver           string `mapstructure:"db_driver"`
	DBPath             string `mapstructure:"db_path"`
	DatabaseURL        string `mapstructure:"database_url"`
	JWTSecret          string `mapstructure:"jwt_secret"`
	GitHubClientID     string `mapstructure:"github_client_id"`
	GitHubClientSecret string `mapstructure:"github_client_secret"`
	GitHubCallbackURL  string `mapstructure:"github_callback_url"`
	LogLevel           string `mapstructure:"log_level"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MinJWTSecretLength matches what auth.NewTokenService accepts. An empty
// secret is allowed and disables sessions.
const MinJWTSecretLength = 16

func serverDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("db_path", "data/issues.db")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("github_client_id", "")
	v.SetDefault("github_client_secret", "")
	v.SetDefault("github_callback_url", "http://localhost:8080/auth/github/callback")
	v.SetDefault("log_level", "info")
}

// LoadServer reads the server configuration from the environment.
func LoadServer() (*ServerConfig, error) {
	v := viper.New()
	serverDefaults(v)
	v.AutomaticEnv()

	cfg := &ServerConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding server config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late, at first use.
func (c *ServerConfig) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("config: DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q (want %s or %s)", c.DBDriver, DriverSQLite, DriverPostgres)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("config: JWT_SECRET must be at least %d characters", MinJWTSecretLength)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address for http.Server.
func (c *ServerConfig) Addr() string {
	return ":" + c.Port
}

// GitHubEnabled reports whether the OAuth app credentials are set.
func (c *ServerConfig) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// SlogLevel parses LOG_LEVEL (debug, info, warn, error).
func (c *ServerConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}

// ClientConfig configures issuectl. Environment variables use the ISSUES_
// prefix (ISSUES_SERVER, ISSUES_TOKEN, ISSUES_TIMEOUT); a YAML file may set
// the same keys without it.
type ClientConfig struct {
	Server  string        `mapstructure:"server"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadClient reads the client configuration. configFile is optional; when
// set it must exist and parse.
func LoadClient(configFile string) (*ClientConfig, error) {
	v := viper.New()
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("token", "")
	v.SetDefault("timeout", 10*time.Second)

	v.SetEnvPrefix("ISSUES")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	}

	cfg := &ClientConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding client config: %w", err)
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	if cfg.Server == "" {
		return nil, fmt.Errorf("config: ISSUES_SERVER must not be empty")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("config: ISSUES_TIMEOUT must be positive")
	}
	return cfg, nil
}
