// Package config builds the immutable process configuration from
// defaults, an optional YAML file and environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vitalvas/apkit/actor"
	"github.com/vitalvas/apkit/keystore"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when the configuration cannot be used.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the process configuration. It is built once at startup and
// passed by value.
type Config struct {
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
	Keystore   Keystore   `yaml:"keystore"`
	Actors     Actors     `yaml:"actors"`
	Signature  Signature  `yaml:"signature"`
	Federation Federation `yaml:"federation"`
}

// Server configures the HTTP listener and public addressing.
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Protocol        string        `yaml:"protocol"`
	Domain          string        `yaml:"domain"`
	BaseURL         string        `yaml:"base_url"`
	StaticDir       string        `yaml:"static_dir"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Keystore configures where actor keys are read from.
type Keystore struct {
	Driver    string        `yaml:"driver"`
	Path      string        `yaml:"path"`
	Layout    string        `yaml:"layout"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// Actors configures actor resolution.
type Actors struct {
	Strict bool   `yaml:"strict"`
	Type   string `yaml:"type"`
}

// Signature configures inbound signature verification.
type Signature struct {
	MaxSkew         time.Duration `yaml:"max_skew"`
	RequiredHeaders []string      `yaml:"required_headers"`
}

// Federation configures outbound requests.
type Federation struct {
	UserAgent             string        `yaml:"user_agent"`
	Timeout               time.Duration `yaml:"timeout"`
	KeyCacheSize          int           `yaml:"key_cache_size"`
	KeyCacheTTL           time.Duration `yaml:"key_cache_ttl"`
	KeyRefreshInterval    time.Duration `yaml:"key_refresh_interval"`
	AllowPrivateAddresses bool          `yaml:"allow_private_addresses"`
}

// Keystore drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Default key store paths per driver.
const (
	DefaultFilePath   = "."
	DefaultSQLitePath = "apkit.db"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Default returns the configuration used when nothing is overridden.
// Domain and BaseURL are left empty and derived by Load.
func Default() Config {
	return Config{
		Server: Server{
			Host:            "127.0.0.1",
			Port:            8080,
			Protocol:        "https",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: FormatText,
		},
		Keystore: Keystore{
			Driver:    DriverFile,
			Layout:    string(keystore.LayoutShared),
			CacheSize: 1024,
			CacheTTL:  5 * time.Minute,
		},
		Signature: Signature{
			MaxSkew: 12 * time.Hour,
		},
		Federation: Federation{
			UserAgent:          "apkit",
			Timeout:            10 * time.Second,
			KeyCacheSize:       1024,
			KeyCacheTTL:        time.Hour,
			KeyRefreshInterval: time.Minute,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides, then derived
// fields. The result is validated.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	cfg.derive()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HOST":            &cfg.Server.Host,
		"PROTOCOL":        &cfg.Server.Protocol,
		"DOMAIN":          &cfg.Server.Domain,
		"BASE_URL":        &cfg.Server.BaseURL,
		"LOG_LEVEL":       &cfg.Log.Level,
		"LOG_FORMAT":      &cfg.Log.Format,
		"KEYSTORE_DRIVER": &cfg.Keystore.Driver,
		"KEYSTORE_PATH":   &cfg.Keystore.Path,
	}

	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT %q is not a number", ErrInvalidConfig, v)
		}

		cfg.Server.Port = port
	}

	return nil
}

// derive fills Domain, BaseURL and the key store path when they were not
// set explicitly.
func (c *Config) derive() {
	if c.Keystore.Path == "" {
		switch c.Keystore.Driver {
		case DriverFile:
			c.Keystore.Path = DefaultFilePath
		case DriverSQLite:
			c.Keystore.Path = DefaultSQLitePath
		}
	}

	if c.Server.Domain == "" {
		c.Server.Domain = c.Server.Host
		if !isDefaultPort(c.Server.Protocol, c.Server.Port) {
			c.Server.Domain = net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
		}
	}

	if c.Server.BaseURL == "" {
		c.Server.BaseURL = c.Server.Protocol + "://" + c.Server.Domain
	}
}

func isDefaultPort(protocol string, port int) bool {
	return (protocol == "http" && port == 80) || (protocol == "https" && port == 443)
}

// Validate reports the first problem that makes c unusable.
func (c Config) Validate() error {
	if c.Server.Protocol != "http" && c.Server.Protocol != "https" {
		return fmt.Errorf("%w: protocol %q", ErrInvalidConfig, c.Server.Protocol)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	if c.Server.Domain == "" {
		return fmt.Errorf("%w: empty domain", ErrInvalidConfig)
	}

	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: base url %q is not absolute", ErrInvalidConfig, c.Server.BaseURL)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}

	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}

	switch c.Keystore.Driver {
	case DriverFile:
		switch keystore.Layout(c.Keystore.Layout) {
		case keystore.LayoutShared, keystore.LayoutPerActor:
		default:
			return fmt.Errorf("%w: keystore layout %q", ErrInvalidConfig, c.Keystore.Layout)
		}
	case DriverSQLite:
		if c.Keystore.Path == "" {
			return fmt.Errorf("%w: sqlite keystore needs a path", ErrInvalidConfig)
		}

		if info, err := os.Stat(c.Keystore.Path); err == nil && info.IsDir() {
			return fmt.Errorf("%w: sqlite keystore path %q is a directory", ErrInvalidConfig, c.Keystore.Path)
		}
	default:
		return fmt.Errorf("%w: keystore driver %q", ErrInvalidConfig, c.Keystore.Driver)
	}

	switch c.Actors.Type {
	case "", actor.TypePerson, actor.TypeApplication:
	default:
		return fmt.Errorf("%w: actor type %q", ErrInvalidConfig, c.Actors.Type)
	}

	if c.Signature.MaxSkew < 0 {
		return fmt.Errorf("%w: negative signature max skew", ErrInvalidConfig)
	}

	return nil
}

// Addr returns the listen address host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
