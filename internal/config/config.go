package config

import (
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every setting, e.g. KMLDEDUP_ENV.
const envPrefix = "KMLDEDUP"

// Config holds the configuration settings for the deduplicator.
// Command line flags take precedence over these values.
//
// Fields:
// - Env: The current environment (local, development, production); selects the logger.
// - PreserveFolders: Keep surviving placemarks in their folders instead of flattening.
// - MetricsFile: Where to write Prometheus metrics after a run; empty disables it.
type Config struct {
	Env             string `mapstructure:"env"`              // Env is the current environment: local, dev, prod.
	PreserveFolders bool   `mapstructure:"preserve_folders"` // Keep nesting of surviving placemarks.
	MetricsFile     string `mapstructure:"metrics_file"`     // Textfile collector output path.
}

// MustLoad loads the configuration from the environment (and an optional .env
// file in the working directory) and returns a Config struct.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("preserve_folders", "false")
	v.SetDefault("metrics_file", "")

	preserve, err := strconv.ParseBool(v.GetString("preserve_folders"))
	if err != nil {
		panic("failed to parse preserve_folders from configuration, must be a boolean")
	}

	return &Config{
		Env:             v.GetString("env"),
		PreserveFolders: preserve,
		MetricsFile:     v.GetString("metrics_file"),
	}
}
