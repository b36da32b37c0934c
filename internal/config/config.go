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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Capacity   CapacityConfig   `yaml:"capacity" mapstructure:"capacity"`
	Rules      RulesConfig      `yaml:"rules" mapstructure:"rules"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// CapacityConfig holds the scalar capacity limits applied during a pass.
// Customer and prospect books carry independent target/max bands; the
// variance percentage widens the target band. Both the widened target
// and the absolute max must hold for an assignment to be accepted.
type CapacityConfig struct {
	CustomerTargetARR   float64 `yaml:"customer_target_arr" mapstructure:"customer_target_arr"`
	CustomerMaxARR      float64 `yaml:"customer_max_arr" mapstructure:"customer_max_arr"`
	ProspectTargetARR   float64 `yaml:"prospect_target_arr" mapstructure:"prospect_target_arr"`
	ProspectMaxARR      float64 `yaml:"prospect_max_arr" mapstructure:"prospect_max_arr"`
	CapacityVariancePct float64 `yaml:"capacity_variance_pct" mapstructure:"capacity_variance_pct"`
	MaxCREPerRep        int     `yaml:"max_cre_per_rep" mapstructure:"max_cre_per_rep"`
	MaxTier1PerRep      int     `yaml:"max_tier1_per_rep" mapstructure:"max_tier1_per_rep"`
	MaxTier2PerRep      int     `yaml:"max_tier2_per_rep" mapstructure:"max_tier2_per_rep"`
}

// RulesConfig locates the assignment rule and territory mapping files.
type RulesConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	TerritoryPath string `yaml:"territory_path" mapstructure:"territory_path"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	Username     string  `yaml:"username" mapstructure:"username"`
	KeyPath      string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL     string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("TERRITORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "territory.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("capacity.customer_target_arr", 4_000_000)
	v.SetDefault("capacity.customer_max_arr", 5_000_000)
	v.SetDefault("capacity.prospect_target_arr", 2_000_000)
	v.SetDefault("capacity.prospect_max_arr", 3_000_000)
	v.SetDefault("capacity.capacity_variance_pct", 10)
	v.SetDefault("capacity.max_cre_per_rep", 3)
	v.SetDefault("capacity.max_tier1_per_rep", 8)
	v.SetDefault("capacity.max_tier2_per_rep", 15)
	v.SetDefault("rules.path", "rules.yaml")
	v.SetDefault("rules.territory_path", "territories.yaml")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit_rps", 5)

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
