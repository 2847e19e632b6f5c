package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Environment selects which layered config file is loaded.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// EnvironmentFromString maps the ENV variable onto a known environment,
// defaulting to development for anything unrecognised.
func EnvironmentFromString(s string) Environment {
	switch strings.ToLower(s) {
	case "prod", "production":
		return Production
	default:
		return Development
	}
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the host:port bind address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type SSLConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertPath string `mapstructure:"cert_path"`
	KeyPath  string `mapstructure:"key_path"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// GoogleConfig holds the OAuth2 relying-party credentials and provider
// endpoints. AuthURL/TokenURL/UserInfoURL default to Google's published
// endpoints and only need overriding when pointing at a stub provider.
type GoogleConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURL  string        `mapstructure:"redirect_url"`
	AuthURL      string        `mapstructure:"auth_url"`
	TokenURL     string        `mapstructure:"token_url"`
	UserInfoURL  string        `mapstructure:"user_info_url"`
	Issuer       string        `mapstructure:"issuer"`
	Scopes       []string      `mapstructure:"scopes"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
}

// SessionsConfig selects the session store driver and its TTLs.
// PendingTTL bounds the window between login initiation and the provider
// callback; AuthenticatedTTL is the lifetime of a logged-in session.
type SessionsConfig struct {
	Driver           string        `mapstructure:"driver"` // postgres, redis or memory
	PendingTTL       time.Duration `mapstructure:"pending_ttl"`
	AuthenticatedTTL time.Duration `mapstructure:"authenticated_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type Config struct {
	Env      Environment
	AppName  string         `mapstructure:"app_name"`
	Server   ServerConfig   `mapstructure:"server"`
	SSL      SSLConfig      `mapstructure:"ssl"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Google   GoogleConfig   `mapstructure:"google"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Load reads config.<env>.yaml from the working directory (or
// /etc/google-login-server) and merges environment variable overrides
// with the GLS_ prefix, e.g. GLS_GOOGLE_CLIENT_SECRET.
func Load(env Environment) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("GLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config." + env.String())
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/google-login-server")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is acceptable when everything comes from the
		// environment; any other read failure is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "[config.Load] reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "[config.Load] unmarshalling config")
	}
	cfg.Env = env

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "Google Login")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("google.auth_url", "https://accounts.google.com/o/oauth2/v2/auth")
	v.SetDefault("google.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("google.user_info_url", "https://www.googleapis.com/oauth2/v2/userinfo")
	v.SetDefault("google.scopes", []string{"email", "profile"})
	v.SetDefault("google.http_timeout", "10s")
	v.SetDefault("sessions.driver", "postgres")
	v.SetDefault("sessions.pending_ttl", "1h")
	v.SetDefault("sessions.authenticated_ttl", "720h") // 30 days
	v.SetDefault("logging.level", "debug")
	v.SetDefault("logging.format", "console")
}

func (c *Config) validate() error {
	if c.Google.ClientID == "" {
		return errors.New("[config.validate] google.client_id is required")
	}
	if c.Google.ClientSecret == "" {
		return errors.New("[config.validate] google.client_secret is required")
	}
	if c.Google.RedirectURL == "" {
		return errors.New("[config.validate] google.redirect_url is required")
	}
	switch c.Sessions.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("[config.validate] database.url is required for the postgres session driver")
		}
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("[config.validate] redis.url is required for the redis session driver")
		}
	case "memory":
	default:
		return errors.Errorf("[config.validate] unknown sessions.driver %q", c.Sessions.Driver)
	}
	if c.SSL.Enabled && (c.SSL.CertPath == "" || c.SSL.KeyPath == "") {
		return errors.New("[config.validate] ssl.cert_path and ssl.key_path are required when ssl is enabled")
	}
	return nil
}
