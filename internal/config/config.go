// Package config loads tripsim settings from defaults, an optional YAML file,
// a .env file and TRIPSIM_* environment variables, lowest precedence first.
package config

import (
	"strings"
	"time"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TRIPSIM_SERVER_ADDR.
const EnvPrefix = "TRIPSIM"

type Config struct {
	Ontology  OntologyConfig  `mapstructure:"ontology"`
	Catalogue CatalogueConfig `mapstructure:"catalogue"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Matcher   MatcherConfig   `mapstructure:"matcher"`
	Grader    GraderConfig    `mapstructure:"grader"`
}

type OntologyConfig struct {
	// Path to the ontology JSON. Empty disables ontology-aware comparison.
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"`
}

type CatalogueConfig struct {
	// File is the default catalogue, in text or YAML form.
	File    string `mapstructure:"file"`
	Dir     string `mapstructure:"dir"`
	MaxOpen int    `mapstructure:"max_open"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

type MatcherConfig struct {
	Workers int `mapstructure:"workers"`
}

type GraderConfig struct {
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ontology.path", "")
	v.SetDefault("ontology.cache_size", 4096)

	v.SetDefault("catalogue.file", "")
	v.SetDefault("catalogue.dir", "./data")
	v.SetDefault("catalogue.max_open", 8)

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("matcher.workers", 1)

	v.SetDefault("grader.cache_size", 256)
	v.SetDefault("grader.cache_ttl", 10*time.Minute)
}

// New returns a viper instance with defaults and environment binding but no
// file loaded.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads .env from the working directory when present, then the YAML
// file at path when path is non-empty.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "read config %s: %v", path, err)
		}
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates a prepared viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Matcher.Workers < 1:
		return errors.Wrapf(errors.ErrInvalidInput, "matcher.workers must be at least 1, got %d", c.Matcher.Workers)
	case c.Ontology.CacheSize < 0:
		return errors.Wrapf(errors.ErrInvalidInput, "ontology.cache_size is negative")
	case c.Grader.CacheSize < 0:
		return errors.Wrapf(errors.ErrInvalidInput, "grader.cache_size is negative")
	case c.Grader.CacheTTL < 0:
		return errors.Wrapf(errors.ErrInvalidInput, "grader.cache_ttl is negative")
	case c.Catalogue.MaxOpen < 1:
		return errors.Wrapf(errors.ErrInvalidInput, "catalogue.max_open must be at least 1")
	}
	return nil
}
