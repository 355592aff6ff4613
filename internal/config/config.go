// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/localvantage/gridscan/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig  `yaml:"store" mapstructure:"store"`
	SERP    SERPConfig   `yaml:"serp" mapstructure:"serp"`
	Scan    ScanConfig   `yaml:"scan" mapstructure:"scan"`
	Notion  NotionConfig `yaml:"notion" mapstructure:"notion"`
	Pricing cost.Rates   `yaml:"pricing" mapstructure:"pricing"`
	Batch   BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Server  ServerConfig `yaml:"server" mapstructure:"server"`
	Log     LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// SERPConfig holds ranking provider API settings.
type SERPConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Retries   int     `yaml:"retries" mapstructure:"retries"`
}

// ScanConfig configures scan behavior.
type ScanConfig struct {
	Zoom  int `yaml:"zoom" mapstructure:"zoom"`
	Depth int `yaml:"depth" mapstructure:"depth"`
}

// NotionConfig holds Notion API credentials and the reports database ID.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReportDB string `yaml:"report_db" mapstructure:"report_db"`
}

// BatchConfig configures concurrent batch scanning.
type BatchConfig struct {
	MaxConcurrentScans int `yaml:"max_concurrent_scans" mapstructure:"max_concurrent_scans"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GRIDSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "gridscan.db")
	v.SetDefault("serp.rate_limit", 2.0)
	v.SetDefault("serp.retries", 3)
	v.SetDefault("scan.zoom", 14)
	v.SetDefault("scan.depth", 20)
	v.SetDefault("batch.max_concurrent_scans", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pricing.serp.per_query", 0.005)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
