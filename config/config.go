package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMongoDB   = "mongodb"
	StorePostgres  = "postgres"
	StoreCassandra = "cassandra"
	StoreMemory    = "memory"
)

const minSecretLength = 16

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustProxy      bool          `mapstructure:"trust_proxy"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, s.Port)
}

type DatabaseConfig struct {
	Type     string        `mapstructure:"type"`
	URI      string        `mapstructure:"uri"`
	Name     string        `mapstructure:"name"`
	Hosts    []string      `mapstructure:"hosts"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// Zero keeps the bcrypt package default.
	BcryptCost int `mapstructure:"bcrypt_cost"`
	// When false any authenticated user may edit or delete any post or comment.
	EnforceOwnership bool `mapstructure:"enforce_ownership"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("database.type", StoreMongoDB)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "blogging_platform")
	v.SetDefault("database.hosts", []string{"127.0.0.1"})
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.timeout", 10*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.enforce_ownership", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads config.yaml (from path, or from the working directory and
// /etc/blogging-platform when path is empty) and applies BLOG_* environment
// overrides, e.g. BLOG_AUTH_JWT_SECRET. A missing file is only an error when
// path was given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/blogging-platform")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minSecretLength)
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must not be negative")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	switch c.Database.Type {
	case StoreMongoDB, StorePostgres:
		if c.Database.URI == "" {
			return fmt.Errorf("database.uri is required for %s", c.Database.Type)
		}
	case StoreCassandra:
		if len(c.Database.Hosts) == 0 {
			return fmt.Errorf("database.hosts is required for cassandra")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if c.Database.Timeout <= 0 {
		return fmt.Errorf("database.timeout must be positive")
	}
	return nil
}
