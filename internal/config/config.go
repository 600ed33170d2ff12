package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Gateway GatewayConfig `yaml:"gateway" mapstructure:"gateway"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// BrowserConfig points at the running Chrome instance.
type BrowserConfig struct {
	CDPURL string `yaml:"cdp_url" mapstructure:"cdp_url"`
}

// StoreConfig locates the monitor store file.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// HistoryConfig locates the price history database.
type HistoryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SearchConfig tunes query execution.
type SearchConfig struct {
	TimeoutSecs  int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	SettleMillis int `yaml:"settle_millis" mapstructure:"settle_millis"`
}

// GatewayConfig configures the chat gateway used for price alerts. Alerts
// are disabled while ChatID is empty.
type GatewayConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	Channel string `yaml:"channel" mapstructure:"channel"`
	ChatID  string `yaml:"chat_id" mapstructure:"chat_id"`
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
	v.AddConfigPath(dataDir())

	// Environment
	v.SetEnvPrefix("FAREWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("browser.cdp_url", "http://127.0.0.1:9222")
	v.SetDefault("store.path", filepath.Join(dataDir(), "monitors.json"))
	v.SetDefault("history.path", filepath.Join(dataDir(), "history.db"))
	v.SetDefault("search.timeout_secs", 45)
	v.SetDefault("search.settle_millis", 900)
	v.SetDefault("gateway.url", "ws://127.0.0.1:18790")
	v.SetDefault("gateway.channel", "telegram")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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

// dataDir is where state lives when paths are not configured explicitly.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".farewatch")
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
