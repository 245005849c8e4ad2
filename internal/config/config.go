package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultConfigPath is consulted when no environment override is set.
	DefaultConfigPath = "/etc/tmpbin.toml"
	DefaultDataDir    = "/var/lib/tmpbin"
	DefaultListenAddr = ":8000"
	DefaultLogLevel   = "info"

	configEnvKey     = "TMPBIN_CONFIG"
	configFileEnvKey = "TMPBIN_CONFIG_FILE"

	dbFileName  = "db.sqlite"
	blobDirName = "data"
)

// Duration is a time.Duration that decodes from TOML either as a Go
// duration string ("336h") or as a bare integer number of seconds.
type Duration time.Duration

// UnmarshalTOML implements toml.Unmarshaler.
func (d *Duration) UnmarshalTOML(v any) error {
	switch value := v.(type) {
	case int64:
		*d = Duration(time.Duration(value) * time.Second)
		return nil
	case string:
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration value %v (want string or seconds)", v)
	}
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config defines runtime configuration for tmpbin.
type Config struct {
	URL             string   `toml:"url"`
	DataDir         string   `toml:"data_dir"`
	ImageTTL        Duration `toml:"image_ttl"`
	PasteTTL        Duration `toml:"paste_ttl"`
	CleanupInterval Duration `toml:"cleanup_interval"`
	ListenAddr      string   `toml:"listen_addr"`
	LogLevel        string   `toml:"log_level"`
}

// Default returns default configuration values. TTLs and the cleanup
// interval have no defaults; the operator must choose them.
func Default() *Config {
	return &Config{
		DataDir:    DefaultDataDir,
		ListenAddr: DefaultListenAddr,
		LogLevel:   DefaultLogLevel,
	}
}

// Load resolves and parses the configuration. The TMPBIN_CONFIG
// environment variable holds raw TOML text; otherwise TMPBIN_CONFIG_FILE
// names a file path, defaulting to DefaultConfigPath. A missing or
// unparseable configuration is an error, fatal at startup.
func Load() (*Config, error) {
	raw, source, err := rawConfig()
	if err != nil {
		return nil, err
	}
	return Parse(raw, source)
}

// Parse decodes raw TOML text into a validated Config. The source name
// is only used in error messages.
func Parse(raw, source string) (*Config, error) {
	cfg := Default()
	meta, err := toml.Decode(raw, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config from %s: %w", source, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", source, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config from %s: %w", source, err)
	}
	return cfg, nil
}

func rawConfig() (string, string, error) {
	if raw := os.Getenv(configEnvKey); strings.TrimSpace(raw) != "" {
		return raw, configEnvKey, nil
	}
	path := strings.TrimSpace(os.Getenv(configFileEnvKey))
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read config %s: %w", path, err)
	}
	return string(data), path, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("url is required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.ImageTTL <= 0 {
		return fmt.Errorf("image_ttl must be a positive duration")
	}
	if c.PasteTTL <= 0 {
		return fmt.Errorf("paste_ttl must be a positive duration")
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be a positive duration")
	}
	c.URL = strings.TrimRight(c.URL, "/")
	return nil
}

// DBPath returns the location of the SQLite metadata store.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFileName)
}

// BlobDir returns the root of the blob filesystem.
func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, blobDirName)
}
