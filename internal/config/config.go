package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full daemon configuration.
type Config struct {
	Paths    PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Store    StoreConfig   `yaml:"store" mapstructure:"store"`
	Vision   ModelConfig   `yaml:"vision" mapstructure:"vision"`
	Clinical ModelConfig   `yaml:"clinical" mapstructure:"clinical"`
	Planner  PlannerConfig `yaml:"planner" mapstructure:"planner"`
	Watch    WatchConfig   `yaml:"watch" mapstructure:"watch"`
	Rounds   RoundsConfig  `yaml:"rounds" mapstructure:"rounds"`
	Server   ServerConfig  `yaml:"server" mapstructure:"server"`
	Log      LogConfig     `yaml:"log" mapstructure:"log"`
}

// PathsConfig configures the on-disk roots. Empty subdirectory fields are
// resolved under Root.
type PathsConfig struct {
	Root    string `yaml:"root" mapstructure:"root"`
	Imports string `yaml:"imports" mapstructure:"imports"`
	Archive string `yaml:"archive" mapstructure:"archive"`
	Exports string `yaml:"exports" mapstructure:"exports"`
	Logs    string `yaml:"logs" mapstructure:"logs"`
	Layouts string `yaml:"layouts" mapstructure:"layouts"`
}

// StoreConfig configures the state store backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// ModelConfig configures one model endpoint (vision or clinical). Mode
// "fixture" swaps the remote client for the fixture-backed one.
type ModelConfig struct {
	Mode        string  `yaml:"mode" mapstructure:"mode"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	FixturesDir string  `yaml:"fixtures_dir" mapstructure:"fixtures_dir"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// PlannerConfig configures the apply/pending gates.
type PlannerConfig struct {
	MinOverallConfidence float64  `yaml:"min_overall_confidence" mapstructure:"min_overall_confidence"`
	MinRegionConfidence  float64  `yaml:"min_region_confidence" mapstructure:"min_region_confidence"`
	CriticalRegions      []string `yaml:"critical_regions" mapstructure:"critical_regions"`
}

// WatchConfig configures the import polling loop.
type WatchConfig struct {
	IntervalSecs int  `yaml:"interval_secs" mapstructure:"interval_secs"`
	Notify       bool `yaml:"notify" mapstructure:"notify"`
}

// RoundsConfig configures patient defaults.
type RoundsConfig struct {
	DefaultWard string `yaml:"default_ward" mapstructure:"default_ward"`
}

// ServerConfig configures the local HTTP surface.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("WARDROUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.root", "./wardround")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("vision.mode", "remote")
	v.SetDefault("vision.base_url", "http://localhost:1234/v1")
	v.SetDefault("vision.model", "local-card-reader")
	v.SetDefault("vision.rate_per_sec", 1)
	v.SetDefault("vision.timeout_secs", 120)
	v.SetDefault("vision.max_attempts", 3)
	v.SetDefault("clinical.mode", "remote")
	v.SetDefault("clinical.base_url", "http://localhost:1234/v1")
	v.SetDefault("clinical.model", "local-ward-planner")
	v.SetDefault("clinical.rate_per_sec", 1)
	v.SetDefault("clinical.timeout_secs", 120)
	v.SetDefault("clinical.max_attempts", 3)
	v.SetDefault("planner.min_overall_confidence", 0.75)
	v.SetDefault("planner.min_region_confidence", 0.6)
	v.SetDefault("planner.critical_regions", []string{"patient_header", "issues", "tasks"})
	v.SetDefault("watch.interval_secs", 15)
	v.SetDefault("watch.notify", true)
	v.SetDefault("rounds.default_ward", "General")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5858)
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
