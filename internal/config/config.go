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
	Sitemap SitemapConfig `yaml:"sitemap" mapstructure:"sitemap"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SitemapConfig locates the store-location sitemap.
type SitemapConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ScrapeConfig configures the batch scrape.
type ScrapeConfig struct {
	Workers     int    `yaml:"workers" mapstructure:"workers"`
	Sequential  bool   `yaml:"sequential" mapstructure:"sequential"`
	DelayMS     int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// CacheConfig configures the fetched-page cache. An empty path disables it.
type CacheConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// ServerConfig configures the serve command.
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
	v.SetEnvPrefix("STORES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sitemap.path", "kmart.com.au-sitemap-au-storelocation-sitemap.xml.xml")
	v.SetDefault("scrape.workers", 10)
	v.SetDefault("scrape.sequential", false)
	v.SetDefault("scrape.delay_ms", 500)
	v.SetDefault("scrape.timeout_secs", 10)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.user_agent", "stores-kmart/1.0")
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("server.port", 8080)
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Scrape.Workers < 1 {
		return eris.Errorf("config: scrape.workers must be >= 1, got %d", c.Scrape.Workers)
	}
	if c.Scrape.TimeoutSecs < 1 {
		return eris.Errorf("config: scrape.timeout_secs must be >= 1, got %d", c.Scrape.TimeoutSecs)
	}
	if c.Scrape.DelayMS < 0 {
		return eris.Errorf("config: scrape.delay_ms must not be negative, got %d", c.Scrape.DelayMS)
	}
	return nil
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

	// Diagnostics stay off stdout; the JSON result stream owns it.
	zapCfg.OutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
