package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Library LibraryConfig `mapstructure:"library"`
	Store   StoreConfig   `mapstructure:"store"`
	Lyrics  LyricsConfig  `mapstructure:"lyrics"`
	Sleep   SleepConfig   `mapstructure:"sleep"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LibraryConfig points at the music folder to index
type LibraryConfig struct {
	Dir string `mapstructure:"dir"`
}

// StoreConfig holds persistence settings. An empty Dir keeps all state in
// memory.
type StoreConfig struct {
	Dir string `mapstructure:"dir"`
}

// LyricsConfig holds lyrics settings
type LyricsConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Cache        bool          `mapstructure:"cache"`
}

// SleepConfig holds the sleep timer defaults offered by the UI
type SleepConfig struct {
	DefaultMinutes     int  `mapstructure:"default_minutes"`
	FinishCurrentTrack bool `mapstructure:"finish_current_track"`
}

// QueueConfig tunes queue gestures
type QueueConfig struct {
	SwipeThreshold float64       `mapstructure:"swipe_threshold"` // columns a row must travel to arm removal
	SwipeGrace     time.Duration `mapstructure:"swipe_grace"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Dir: defaultLibraryPath(),
		},
		Store: StoreConfig{
			Dir: defaultDataPath(),
		},
		Lyrics: LyricsConfig{
			PollInterval: 200 * time.Millisecond,
			Cache:        true,
		},
		Sleep: SleepConfig{
			DefaultMinutes:     30,
			FinishCurrentTrack: true,
		},
		Queue: QueueConfig{
			SwipeThreshold: 12,
			SwipeGrace:     time.Second,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "cadence.log"),
			Level: "INFO",
		},
	}
}

func defaultLibraryPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Music")
}

// defaultDataPath returns the directory for the database and log file
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cadence")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cadence")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cadence")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "cadence")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New(), defaultConfigPath(), ".")
}

func loadConfig(v *viper.Viper, paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// CADENCE_LYRICS_POLL_INTERVAL overrides lyrics.poll_interval
	v.SetEnvPrefix("CADENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Library.Dir = expandHome(cfg.Library.Dir)
	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can see it during
// Unmarshal
func bindDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range settings(cfg) {
		v.SetDefault(key, value)
	}
}

// settings flattens cfg into snake_case viper keys
func settings(cfg *Config) map[string]any {
	return map[string]any{
		"library.dir":                cfg.Library.Dir,
		"store.dir":                  cfg.Store.Dir,
		"lyrics.poll_interval":       cfg.Lyrics.PollInterval,
		"lyrics.cache":               cfg.Lyrics.Cache,
		"sleep.default_minutes":      cfg.Sleep.DefaultMinutes,
		"sleep.finish_current_track": cfg.Sleep.FinishCurrentTrack,
		"queue.swipe_threshold":      cfg.Queue.SwipeThreshold,
		"queue.swipe_grace":          cfg.Queue.SwipeGrace,
		"logging.file":               cfg.Logging.File,
		"logging.level":              cfg.Logging.Level,
	}
}

// SaveConfig writes cfg to the default config directory
func SaveConfig(cfg *Config) error {
	return saveConfig(viper.New(), cfg, defaultConfigPath())
}

func saveConfig(v *viper.Viper, cfg *Config, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	for key, value := range settings(cfg) {
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		v.Set(key, value)
	}

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
