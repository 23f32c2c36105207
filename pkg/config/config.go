// Package config loads nmcanvas settings.
//
// Settings are layered, later sources overriding earlier ones:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file: the explicit path, else ./nmcanvas.toml, else
//     $XDG_CONFIG_HOME/nmcanvas/config.toml (~/.config/nmcanvas/config.toml)
//  3. A .env file in the working directory, if present
//  4. NMCANVAS_* environment variables
//
// A minimal file:
//
//	model = "model/graph.json"
//	strict = true
//
//	[snapshots]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

const (
	appName  = "nmcanvas"
	fileName = "nmcanvas.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "NMCANVAS_"
)

// Snapshot backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config holds every setting the CLI and server read.
type Config struct {
	Model  string `toml:"model"`  // path of the persisted canonical graph
	Schema string `toml:"schema"` // optional schema override; empty uses the embedded one

	Strict          bool `toml:"strict"`
	CheckReferences bool `toml:"check_refs"`
	ValidateOnSave  bool `toml:"validate_on_save"`

	LogLevel string `toml:"log_level"`

	Snapshots SnapshotConfig `toml:"snapshots"`
	Server    ServerConfig   `toml:"server"`

	// Source is the config file that was read, empty when none was found.
	Source string `toml:"-"`
}

// SnapshotConfig selects and configures the snapshot history backend.
type SnapshotConfig struct {
	Backend     string `toml:"backend"`
	Dir         string `toml:"dir"`
	RedisURL    string `toml:"redis_url"`
	RedisPrefix string `toml:"redis_prefix"`
	MongoURI    string `toml:"mongo_uri"`
	MongoDB     string `toml:"mongo_database"`
}

// ServerConfig configures `nmcanvas serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model:          filepath.Join("model", "graph.json"),
		ValidateOnSave: true,
		LogLevel:       "info",
		Snapshots: SnapshotConfig{
			Backend:     BackendFile,
			RedisPrefix: appName + ":",
			MongoDB:     appName,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load builds the configuration from all sources. path may be empty, in
// which case the default locations are searched and a missing file is not an
// error. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := locate(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		if _, err := toml.DecodeFile(file, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", file)
		}
		cfg.Source = file
	}

	if err := godotenv.Load(); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read .env")
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func locate(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return path, nil
	}
	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func searchPaths() []string {
	paths := []string{fileName}
	if dir, err := configDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "config.toml"))
	}
	return paths
}

// configDir returns the XDG config directory (~/.config/nmcanvas/).
func configDir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// CacheDir returns the XDG cache directory (~/.cache/nmcanvas/), the default
// location of file snapshots.
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// SnapshotDir returns the configured snapshot directory, falling back to
// <CacheDir>/snapshots.
func (c *Config) SnapshotDir() (string, error) {
	if c.Snapshots.Dir != "" {
		return c.Snapshots.Dir, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snapshots"), nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"MODEL":          &c.Model,
		"SCHEMA":         &c.Schema,
		"LOG_LEVEL":      &c.LogLevel,
		"SNAPSHOTS":      &c.Snapshots.Backend,
		"SNAPSHOT_DIR":   &c.Snapshots.Dir,
		"REDIS_URL":      &c.Snapshots.RedisURL,
		"REDIS_PREFIX":   &c.Snapshots.RedisPrefix,
		"MONGO_URI":      &c.Snapshots.MongoURI,
		"MONGO_DATABASE": &c.Snapshots.MongoDB,
		"ADDR":           &c.Server.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"STRICT":           &c.Strict,
		"CHECK_REFS":       &c.CheckReferences,
		"VALIDATE_ON_SAVE": &c.ValidateOnSave,
	}
	for key, dst := range bools {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s", EnvPrefix, key)
		}
		*dst = b
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "model path is required")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown log level %q", c.LogLevel)
	}

	switch c.Snapshots.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if err := errors.ValidateURL(c.Snapshots.RedisURL, "redis", "rediss"); err != nil {
			return err
		}
	case BackendMongo:
		if err := errors.ValidateURL(c.Snapshots.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return err
		}
		if c.Snapshots.MongoDB == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "mongo_database is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown snapshot backend %q (want file, redis, mongo or none)", c.Snapshots.Backend)
	}

	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server address is required")
	}
	return nil
}

// Level returns the parsed log level. Validate guarantees it parses.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
