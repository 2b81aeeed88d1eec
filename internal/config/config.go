package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Overrides OverridesConfig `yaml:"overrides" mapstructure:"overrides"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the decision record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OverridesConfig points at local override record files. Empty paths mean
// the embedded catalogs run as shipped.
type OverridesConfig struct {
	AgencyPath string `yaml:"agency_path" mapstructure:"agency_path"`
	NonQMPath  string `yaml:"nonqm_path" mapstructure:"nonqm_path"`
}

// MatchConfig configures engine presentation behavior.
type MatchConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// BatchConfig configures batch scenario evaluation.
type BatchConfig struct {
	MaxConcurrentScenarios int `yaml:"max_concurrent_scenarios" mapstructure:"max_concurrent_scenarios"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port              int `yaml:"port" mapstructure:"port"`
	RequestsPerSecond int `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int `yaml:"burst" mapstructure:"burst"`
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
	v.SetEnvPrefix("LENDERMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lendermatch.db")
	v.SetDefault("match.mode", "SEPARATE_SECTIONS")
	v.SetDefault("batch.max_concurrent_scenarios", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.requests_per_second", 20)
	v.SetDefault("server.burst", 40)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
