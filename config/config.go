// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yumyai/roaryviz/pkg/model"
)

const EnvPrefix = "ROARYVIZ"

var ErrInvalid = errors.New("invalid configuration")

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
	// defaults to <dir>/uploads
	UploadDir string `mapstructure:"upload_dir"`
	// ggtable sqlite database, defaults to <dir>/db/gene_table.db
	GeneTableDB string `mapstructure:"genetable_db"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type AnalysisConfig struct {
	model.Thresholds `mapstructure:",squash"`

	Permutations    int           `mapstructure:"permutations"`
	MaxPermutations int           `mapstructure:"max_permutations"`
	MaxGenesDisplay int           `mapstructure:"max_genes_display"`
	Workers         int           `mapstructure:"workers"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type UploadConfig struct {
	MaxSize int64 `mapstructure:"max_size"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

type SessionConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	MaxDatasets int           `mapstructure:"max_datasets"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the root-level settings struct, a mix of defaults, environment,
// an optional config file and command line flags.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	Log      LogConfig      `mapstructure:"log"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Session  SessionConfig  `mapstructure:"session"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SetDefaults registers every key so environment variables can override them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.upload_dir", "")
	v.SetDefault("data.genetable_db", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)

	v.SetDefault("analysis.core_threshold", model.DefaultCoreThreshold)
	v.SetDefault("analysis.softcore_threshold", model.DefaultSoftcoreThreshold)
	v.SetDefault("analysis.shell_threshold", model.DefaultShellThreshold)
	v.SetDefault("analysis.permutations", model.DefaultPermutations)
	v.SetDefault("analysis.max_permutations", 1000)
	v.SetDefault("analysis.max_genes_display", 5000)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.timeout", 30*time.Second)

	v.SetDefault("upload.max_size", 100<<20)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 300*time.Second)
	v.SetDefault("cache.max_size", 128)

	v.SetDefault("session.ttl", time.Hour)
	v.SetDefault("session.max_datasets", 32)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// New returns a viper instance with defaults and ROARYVIZ_ environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (if any) into v and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if c.Data.UploadDir == "" {
		c.Data.UploadDir = filepath.Join(c.Data.Dir, "uploads")
	}
	if c.Data.GeneTableDB == "" {
		c.Data.GeneTableDB = filepath.Join(c.Data.Dir, "db", "gene_table.db")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {

	var errs []error
	if err := c.Analysis.Thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.Permutations <= 0 {
		errs = append(errs, fmt.Errorf("analysis.permutations must be positive, got %d", c.Analysis.Permutations))
	}
	if c.Analysis.MaxPermutations < c.Analysis.Permutations {
		errs = append(errs, fmt.Errorf("analysis.max_permutations (%d) is below analysis.permutations (%d)",
			c.Analysis.MaxPermutations, c.Analysis.Permutations))
	}
	if c.Analysis.MaxGenesDisplay <= 0 {
		errs = append(errs, fmt.Errorf("analysis.max_genes_display must be positive"))
	}
	if c.Analysis.Workers <= 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must be positive"))
	}
	if c.Upload.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_size must be positive"))
	}
	if c.Session.MaxDatasets <= 0 {
		errs = append(errs, fmt.Errorf("session.max_datasets must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
