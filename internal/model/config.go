package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig points at the learning platform deployment.
type ServerConfig struct {
	// BaseURL is the REST API root (e.g., https://lms.example.com/api).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// SocketURL is the WebSocket endpoint for push notifications.
	// Derived from BaseURL when empty.
	SocketURL string `mapstructure:"socket_url" yaml:"socket_url"`

	// RequestTimeout bounds each REST call.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// PollInterval re-pulls list and stats periodically as a safety net
	// next to the socket. Zero disables it.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// SocketConfig tunes the connection manager.
type SocketConfig struct {
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`

	// StableAfter is how long a connection must stay up before a drop
	// gets a fresh retry budget. Zero means ten reconnect delays.
	StableAfter time.Duration `mapstructure:"stable_after" yaml:"stable_after"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme           string        `mapstructure:"theme" yaml:"theme"`
	ToastDuration   time.Duration `mapstructure:"toast_duration" yaml:"toast_duration"`
	MaxToasts       int           `mapstructure:"max_toasts" yaml:"max_toasts"`
	RefreshDebounce time.Duration `mapstructure:"refresh_debounce" yaml:"refresh_debounce"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// CacheConfig controls the local sqlite notification cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Socket  SocketConfig  `mapstructure:"socket" yaml:"socket"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
}

// ConfigDir returns ~/.config/learnbell, or the working directory when
// the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "learnbell")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/learnbell/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:        "http://localhost:5000/api",
			RequestTimeout: 30 * time.Second,
		},
		Socket: SocketConfig{
			ConnectTimeout:       10 * time.Second,
			ReconnectDelay:       time.Second,
			MaxReconnectAttempts: 5,
		},
		Display: DisplayConfig{
			Theme:           "default",
			ToastDuration:   5 * time.Second,
			MaxToasts:       3,
			RefreshDebounce: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "learnbell.log"),
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(ConfigDir(), "cache.db"),
		},
	}
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.socket_url", "")
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.poll_interval", d.Server.PollInterval)

	v.SetDefault("socket.connect_timeout", d.Socket.ConnectTimeout)
	v.SetDefault("socket.reconnect_delay", d.Socket.ReconnectDelay)
	v.SetDefault("socket.max_reconnect_attempts", d.Socket.MaxReconnectAttempts)
	v.SetDefault("socket.stable_after", d.Socket.StableAfter)

	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.toast_duration", d.Display.ToastDuration)
	v.SetDefault("display.max_toasts", d.Display.MaxToasts)
	v.SetDefault("display.refresh_debounce", d.Display.RefreshDebounce)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// LEARNBELL_* environment variables override file values
// (e.g. LEARNBELL_SERVER_BASE_URL).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("learnbell")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Server.SocketURL == "" {
		cfg.Server.SocketURL = DeriveSocketURL(cfg.Server.BaseURL)
	}
	if cfg.Socket.MaxReconnectAttempts < 0 {
		cfg.Socket.MaxReconnectAttempts = 0
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("socket", cfg.Socket)
	v.Set("display", cfg.Display)
	v.Set("logging", cfg.Logging)
	v.Set("cache", cfg.Cache)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// DeriveSocketURL maps the REST base URL onto the same host's socket
// endpoint: http(s)://host/api -> ws(s)://host/ws.
func DeriveSocketURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	u = strings.TrimSuffix(u, "/api")
	return u + "/ws"
}
