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
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	Keywords    KeywordsConfig    `yaml:"keywords" mapstructure:"keywords"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Automation  AutomationConfig  `yaml:"automation" mapstructure:"automation"`
	Integration IntegrationConfig `yaml:"integration" mapstructure:"integration"`
	Notify      NotifyConfig      `yaml:"notify" mapstructure:"notify"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the user-edit key-value store backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// DataConfig locates the prospect corpus document.
type DataConfig struct {
	CorpusPath string `yaml:"corpus_path" mapstructure:"corpus_path"`
	CorpusURL  string `yaml:"corpus_url" mapstructure:"corpus_url"`
}

// KeywordsConfig carries the email classification word lists.
type KeywordsConfig struct {
	Business          []string `yaml:"business" mapstructure:"business"`
	ExclusionPatterns []string `yaml:"exclusion_patterns" mapstructure:"exclusion_patterns"`
	IndustrialTerms   []string `yaml:"industrial_terms" mapstructure:"industrial_terms"`
}

// ScoringConfig selects the strategy used by ranking surfaces (the
// score command). Stored-score refreshes always use the Weighted
// formula.
type ScoringConfig struct {
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
}

// AutomationConfig configures the rule engine.
type AutomationConfig struct {
	// NullFromMatchesAny controls how a status_change rule with no "from"
	// condition matches: true means any prior status qualifies.
	NullFromMatchesAny bool `yaml:"null_from_matches_any" mapstructure:"null_from_matches_any"`
}

// IntegrationConfig configures the outbound reminder sink.
type IntegrationConfig struct {
	EnableAutomation bool   `yaml:"enable_automation" mapstructure:"enable_automation"`
	CronEndpoint     string `yaml:"cron_endpoint" mapstructure:"cron_endpoint"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// NotifyConfig configures the notification sink.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	Retention  int    `yaml:"retention" mapstructure:"retention"`
}

// ServerConfig configures the dashboard API server.
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
	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "crm-data.db")
	v.SetDefault("data.corpus_path", "crm-data.json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("scoring.strategy", "weighted")
	v.SetDefault("automation.null_from_matches_any", true)
	v.SetDefault("integration.enable_automation", true)
	v.SetDefault("integration.timeout_secs", 10)
	v.SetDefault("notify.retention", 50)
	v.SetDefault("keywords.business", []string{
		"flooring", "concrete", "epoxy", "construction", "bid", "quote",
		"facility", "industrial", "project", "specification", "proposal",
		"coating", "floor", "surface", "installation", "renovation",
		"food processing", "manufacturing", "warehouse", "production",
		"safety", "hygiene", "chemical resistance", "durability",
	})
	v.SetDefault("keywords.exclusion_patterns", []string{
		"newsletter", "promotion", "marketing", "unsubscribe", "promo",
		"bass pro", "google", "notification", "noreply", "no-reply",
		"automated", "system message", "do not reply", "marketing@",
		"news@", "info@", "support@", "help@",
	})
	v.SetDefault("keywords.industrial_terms", []string{
		"food processing", "manufacturing", "industrial", "warehouse", "production",
	})

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
