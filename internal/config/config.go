// Package config loads application configuration from file and environment
// and installs the global logger.
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
	Relations RelationsConfig `yaml:"relations" mapstructure:"relations"`
	Combine   CombineConfig   `yaml:"combine" mapstructure:"combine"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// RelationsConfig configures the pairwise relations pass. Block size and
// shard count are the only memory/layout knobs; everything else is a path.
type RelationsConfig struct {
	Shapefile  string `yaml:"shapefile" mapstructure:"shapefile"`
	OutDir     string `yaml:"out_dir" mapstructure:"out_dir"`
	BlockSize  int    `yaml:"block_size" mapstructure:"block_size"`
	Shards     int    `yaml:"shards" mapstructure:"shards"`
	Workers    int    `yaml:"workers" mapstructure:"workers"`
	CodeField  string `yaml:"code_field" mapstructure:"code_field"`
	NameField  string `yaml:"name_field" mapstructure:"name_field"`
	StateField string `yaml:"state_field" mapstructure:"state_field"`
}

// CombineConfig configures the wiki comparison join.
type CombineConfig struct {
	WikiTable   string `yaml:"wiki_table" mapstructure:"wiki_table"`
	NameMapping string `yaml:"name_mapping" mapstructure:"name_mapping"`
	Shapefile   string `yaml:"shapefile" mapstructure:"shapefile"`
	Output      string `yaml:"output" mapstructure:"output"`
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
	v.SetEnvPrefix("GEODIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("relations.out_dir", "data")
	v.SetDefault("relations.block_size", 64)
	v.SetDefault("relations.shards", 20)
	v.SetDefault("relations.workers", 1)
	v.SetDefault("relations.code_field", "SAL_CODE21")
	v.SetDefault("relations.name_field", "SAL_NAME21")
	v.SetDefault("relations.state_field", "STE_CODE21")
	v.SetDefault("combine.output", "data/directional_relations_wiki_vs_calculated.csv")

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
