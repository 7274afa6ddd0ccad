package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"gomend/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`
	Cleaning CleaningConfig `mapstructure:"cleaning" yaml:"cleaning"`
	Outliers OutlierConfig  `mapstructure:"outliers" yaml:"outliers"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// CleaningConfig holds missing-value handling defaults
type CleaningConfig struct {
	MissingTokens   []string `mapstructure:"missing_tokens" yaml:"missing_tokens"`
	DefaultStrategy string   `mapstructure:"default_strategy" yaml:"default_strategy"`
	DefaultDetector string   `mapstructure:"default_detector" yaml:"default_detector"`
}

// OutlierConfig holds detector parameters
type OutlierConfig struct {
	IQRThreshold       float64 `mapstructure:"iqr_threshold" yaml:"iqr_threshold"`
	ZScoreThreshold    float64 `mapstructure:"zscore_threshold" yaml:"zscore_threshold"`
	FrequencyThreshold float64 `mapstructure:"frequency_threshold" yaml:"frequency_threshold"`
	Contamination      float64 `mapstructure:"contamination" yaml:"contamination"`
	DBSCANEps          float64 `mapstructure:"dbscan_eps" yaml:"dbscan_eps"`
	DBSCANMinSamples   int     `mapstructure:"dbscan_min_samples" yaml:"dbscan_min_samples"`
	LOFNeighbors       int     `mapstructure:"lof_neighbors" yaml:"lof_neighbors"`
	Seed               int64   `mapstructure:"seed" yaml:"seed"`
	NormalityAlpha     float64 `mapstructure:"normality_alpha" yaml:"normality_alpha"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

// PostgresConfig holds the optional source database
type PostgresConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "INFO",
		Cleaning: CleaningConfig{
			MissingTokens:   []string{"", "NA", "N/A", "null", "?"},
			DefaultStrategy: "mean",
			DefaultDetector: "iqr",
		},
		Outliers: OutlierConfig{
			IQRThreshold:       1.5,
			ZScoreThreshold:    3,
			FrequencyThreshold: 0.05,
			Contamination:      0.1,
			DBSCANEps:          0.5,
			DBSCANMinSamples:   5,
			LOFNeighbors:       20,
			Seed:               42,
			NormalityAlpha:     0.05,
		},
		Server: ServerConfig{Port: "8080"},
	}
}

// Load reads configuration from .env, environment (GOMEND_ prefix) and an
// optional yaml file, then validates it.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GOMEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to read config file %s", cfgFile)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to decode configuration")
	}
	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("cleaning.missing_tokens", d.Cleaning.MissingTokens)
	v.SetDefault("cleaning.default_strategy", d.Cleaning.DefaultStrategy)
	v.SetDefault("cleaning.default_detector", d.Cleaning.DefaultDetector)
	v.SetDefault("outliers.iqr_threshold", d.Outliers.IQRThreshold)
	v.SetDefault("outliers.zscore_threshold", d.Outliers.ZScoreThreshold)
	v.SetDefault("outliers.frequency_threshold", d.Outliers.FrequencyThreshold)
	v.SetDefault("outliers.contamination", d.Outliers.Contamination)
	v.SetDefault("outliers.dbscan_eps", d.Outliers.DBSCANEps)
	v.SetDefault("outliers.dbscan_min_samples", d.Outliers.DBSCANMinSamples)
	v.SetDefault("outliers.lof_neighbors", d.Outliers.LOFNeighbors)
	v.SetDefault("outliers.seed", d.Outliers.Seed)
	v.SetDefault("outliers.normality_alpha", d.Outliers.NormalityAlpha)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("postgres.url", d.Postgres.URL)
}

// Validate checks parameter ranges
func Validate(c *Config) error {
	o := c.Outliers
	switch {
	case o.IQRThreshold <= 0:
		return errors.ConfigInvalid("outliers.iqr_threshold must be positive")
	case o.ZScoreThreshold <= 0:
		return errors.ConfigInvalid("outliers.zscore_threshold must be positive")
	case o.FrequencyThreshold <= 0 || o.FrequencyThreshold >= 1:
		return errors.ConfigInvalid("outliers.frequency_threshold must be in (0, 1)")
	case o.Contamination <= 0 || o.Contamination > 0.5:
		return errors.ConfigInvalid("outliers.contamination must be in (0, 0.5]")
	case o.DBSCANEps <= 0:
		return errors.ConfigInvalid("outliers.dbscan_eps must be positive")
	case o.DBSCANMinSamples < 1:
		return errors.ConfigInvalid("outliers.dbscan_min_samples must be at least 1")
	case o.LOFNeighbors < 1:
		return errors.ConfigInvalid("outliers.lof_neighbors must be at least 1")
	case o.NormalityAlpha <= 0 || o.NormalityAlpha >= 1:
		return errors.ConfigInvalid("outliers.normality_alpha must be in (0, 1)")
	case c.Server.Port == "":
		return errors.ConfigInvalid("server.port is required")
	}
	return nil
}
