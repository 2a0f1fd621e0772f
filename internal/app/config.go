// Package app provides the application initialization and wiring.
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/acoshift/neppage/internal/adapters/out/telemetry"
	"github.com/acoshift/neppage/internal/domain"
	"github.com/acoshift/neppage/internal/logging"
)

// Config holds the application configuration.
type Config struct {
	Server struct {
		Port      int      `mapstructure:"port"`
		PagesDir  string   `mapstructure:"pages_dir"`
		Hostnames []string `mapstructure:"hostnames"` // names that count as local access
	} `mapstructure:"server"`

	// Store is the config store holding page and file records.
	Store EndpointConfig `mapstructure:"store"`

	// Route is the route table service plus this server's identity in it.
	Route struct {
		EndpointConfig `mapstructure:",squash"`
		Priority       int    `mapstructure:"priority"`
		Host           string `mapstructure:"host"`
		Port           int    `mapstructure:"port"`
	} `mapstructure:"route"`

	Sync struct {
		PageInterval time.Duration `mapstructure:"page_interval"`
		FileInterval time.Duration `mapstructure:"file_interval"`
		PageDebounce time.Duration `mapstructure:"page_debounce"`
		FileDebounce time.Duration `mapstructure:"file_debounce"`
	} `mapstructure:"sync"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   struct {
			Enabled    bool   `mapstructure:"enabled"`
			Path       string `mapstructure:"path"`
			MaxSize    int    `mapstructure:"max_size"`
			MaxBackups int    `mapstructure:"max_backups"`
			MaxAge     int    `mapstructure:"max_age"`
		} `mapstructure:"file"`
	} `mapstructure:"logging"`

	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

// EndpointConfig addresses one query-protocol endpoint.
type EndpointConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"` // base64 encoded bearer token
	Timeout time.Duration `mapstructure:"timeout"`
}

// Identity returns the route identity of this server.
func (c Config) Identity() domain.ServerIdentity {
	return domain.ServerIdentity{
		Priority: c.Route.Priority,
		Host:     c.Route.Host,
		Port:     c.Route.Port,
	}
}

// LogConfig converts the logging section.
func (c Config) LogConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File: logging.FileConfig{
			Enabled:    c.Logging.File.Enabled,
			Path:       c.Logging.File.Path,
			MaxSize:    c.Logging.File.MaxSize,
			MaxBackups: c.Logging.File.MaxBackups,
			MaxAge:     c.Logging.File.MaxAge,
			Compress:   true,
		},
	}
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	var errs []error
	if c.Store.URL == "" {
		errs = append(errs, errors.New("store.url is required"))
	}
	if c.Route.URL == "" {
		errs = append(errs, errors.New("route.url is required"))
	}
	if c.Server.PagesDir == "" {
		errs = append(errs, errors.New("server.pages_dir is required"))
	}
	if c.Sync.PageInterval <= 0 || c.Sync.FileInterval <= 0 {
		errs = append(errs, errors.New("sync intervals must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads configuration from configPath, or from the default
// search paths when it is empty. Environment variables prefixed with
// NEPPAGE_ override file values.
func LoadConfig(configPath string) (Config, error) {
	v := viper.New()
	if err := loadConfig(v, configPath); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ConfigureViper sets up viper with standard config file search paths.
// Config file: neppage.toml
// Search paths (in order): /etc/neppage, ~/.config/neppage, current directory
func ConfigureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.SetConfigName("neppage")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc/neppage")
	v.AddConfigPath("$HOME/.config/neppage")
	v.AddConfigPath(".")
}

func loadConfig(v *viper.Viper, configPath string) error {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.pages_dir", "pages")
	v.SetDefault("server.hostnames", []string{"localhost"})
	v.SetDefault("store.url", "")
	v.SetDefault("store.token", "")
	v.SetDefault("store.timeout", 10*time.Second)
	v.SetDefault("route.url", "")
	v.SetDefault("route.token", "")
	v.SetDefault("route.timeout", 10*time.Second)
	v.SetDefault("route.priority", 0)
	v.SetDefault("route.host", "127.0.0.1")
	v.SetDefault("route.port", 8080)
	v.SetDefault("sync.page_interval", 10*time.Second)
	v.SetDefault("sync.file_interval", 5*time.Second)
	v.SetDefault("sync.page_debounce", 500*time.Millisecond)
	v.SetDefault("sync.file_debounce", 500*time.Millisecond)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.auth_token", "")
	v.SetDefault("telemetry.interval", 30*time.Second)

	ConfigureViper(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("NEPPAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return nil
}
