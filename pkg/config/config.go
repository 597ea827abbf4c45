// Package config loads the translateapi server configuration from flags,
// environment variables and an optional config file via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key,
// e.g. TRANSLATEAPI_PORT.
const EnvPrefix = "TRANSLATEAPI"

// Defaults applied by SetDefaults and used as flag defaults.
const (
	// DefaultHost listens on every interface.
	DefaultHost = "0.0.0.0"
	// DefaultPort is the HTTP listen port.
	DefaultPort = 8080
	// DefaultEngine is the credential-free public Google endpoint.
	DefaultEngine = "google"
	// DefaultProviderTimeout bounds a single provider call.
	DefaultProviderTimeout = 30 * time.Second
	// DefaultMaxBodyBytes caps a /translate request body at 1 MiB.
	DefaultMaxBodyBytes = 1 << 20
	// DefaultLogLevel is a logrus level name.
	DefaultLogLevel = "info"
	// DefaultLogFormat is "text" or "json".
	DefaultLogFormat = "text"
	// DefaultHealthInterval is the gap between gRPC health probes.
	DefaultHealthInterval = 30 * time.Second
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 15 * time.Second
)

// Config holds the full server configuration.
type Config struct {
	// Host and Port form the HTTP listen address.
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Engine selects the translation provider adapter.
	Engine string `mapstructure:"engine"`
	// EngineURL overrides the provider base URL (libretranslate, mymemory).
	EngineURL string `mapstructure:"engine_url"`
	// APIKey is sent to providers that accept one (libretranslate).
	APIKey string `mapstructure:"api_key"`
	// Credentials is a service account file for googlecloud.
	Credentials string `mapstructure:"credentials"`
	ProjectID   string `mapstructure:"project_id"`
	// Email raises the MyMemory daily quota when set.
	Email string `mapstructure:"email"`

	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// GRPCPort enables the gRPC health listener when greater than zero.
	GRPCPort       int           `mapstructure:"grpc_port"`
	HealthInterval time.Duration `mapstructure:"health_interval"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("engine", DefaultEngine)
	v.SetDefault("engine_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("credentials", "")
	v.SetDefault("project_id", "")
	v.SetDefault("email", "")
	v.SetDefault("provider_timeout", DefaultProviderTimeout)
	v.SetDefault("max_body_bytes", DefaultMaxBodyBytes)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("grpc_port", 0)
	v.SetDefault("health_interval", DefaultHealthInterval)
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)
}

// RegisterFlags defines the command-line flags for every key. Flag names use
// dashes; BindFlags maps them onto the underscore keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file (yaml, json, toml)")
	fs.String("host", DefaultHost, "HTTP listen host")
	fs.Int("port", DefaultPort, "HTTP listen port")
	fs.String("engine", DefaultEngine, "Translation engine: google, googlecloud, libretranslate, mymemory")
	fs.String("engine-url", "", "Base URL for the translation engine API")
	fs.String("api-key", "", "API key for the translation engine")
	fs.String("credentials", "", "Path to Google Cloud service account credentials")
	fs.String("project-id", "", "Google Cloud project ID")
	fs.String("email", "", "Contact e-mail for MyMemory")
	fs.Duration("provider-timeout", DefaultProviderTimeout, "Timeout for a single provider call")
	fs.Int64("max-body-bytes", DefaultMaxBodyBytes, "Maximum accepted request body size")
	fs.String("log-level", DefaultLogLevel, "Log level: debug, info, warn, error")
	fs.String("log-format", DefaultLogFormat, "Log format: text or json")
	fs.Int("grpc-port", 0, "gRPC health server port (0 disables it)")
	fs.Duration("health-interval", DefaultHealthInterval, "Interval between provider health probes")
	fs.Duration("shutdown-timeout", DefaultShutdownTimeout, "Graceful shutdown timeout")
}

// BindFlags binds every registered flag except --config to its viper key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file, unmarshals v into a Config and
// validates it.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges. Engine names are checked by the translate
// factory.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port %d", c.GRPCPort)
	}
	if c.GRPCPort != 0 && c.GRPCPort == c.Port {
		return fmt.Errorf("grpc port %d collides with http port", c.GRPCPort)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.ProviderTimeout)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if c.GRPCPort > 0 && c.HealthInterval <= 0 {
		return fmt.Errorf("health interval must be positive, got %s", c.HealthInterval)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (supported: text, json)", c.LogFormat)
	}
	return nil
}

// NewLogger builds the process logger. An invalid level falls back to info
// with a warning.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
