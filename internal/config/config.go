package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GeocodeConfig holds OpenRouteService settings and enrichment defaults.
type GeocodeConfig struct {
	APIKey      string   `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitMS int      `yaml:"rate_limit_ms" mapstructure:"rate_limit_ms"`
	CountryBias string   `yaml:"country_bias" mapstructure:"country_bias"`
	Fields      []string `yaml:"fields" mapstructure:"fields"`
}

// CacheConfig selects the persistent tier behind the geocode cache.
type CacheConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory is loaded first; variables already set win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CRMGEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("geocode.api_key", "CRMGEO_GEOCODE_API_KEY", "ORS_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	// Defaults
	v.SetDefault("geocode.api_key", "")
	v.SetDefault("geocode.base_url", "https://api.openrouteservice.org")
	v.SetDefault("geocode.timeout_secs", 15)
	v.SetDefault("geocode.rate_limit_ms", 300)
	v.SetDefault("geocode.country_bias", "")
	v.SetDefault("geocode.fields", []string{"Location", "Customer"})
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
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

// Validate checks settings every command depends on. A missing API key is
// not an error here; enrichment reports it when a run starts.
func (c *Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.Cache.Driver) {
	case "", "memory", "sqlite":
	case "postgres":
		if c.Cache.DatabaseURL == "" {
			problems = append(problems, "cache.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "cache.driver must be one of memory, sqlite, postgres")
	}
	if c.Geocode.RateLimitMS < 0 {
		problems = append(problems, "geocode.rate_limit_ms must not be negative")
	}
	if c.Geocode.TimeoutSecs <= 0 {
		problems = append(problems, "geocode.timeout_secs must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(problems, "; "))
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

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
