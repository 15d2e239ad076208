package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Options controls where configuration is read from.
type Options struct {
	// Path is the directory containing the config file.
	Path string
	// Name is the config file name without extension.
	Name string
	// EnvPrefix, when set, is prepended to every environment variable name.
	EnvPrefix string
	// Defaults are applied before the file and environment are read.
	Defaults map[string]any
}

// Load reads configuration from file and environment variables.
// configPath is the directory containing config files.
// configName is the name of the config file (without extension).
func Load(configPath, configName string) (*viper.Viper, error) {
	return LoadWith(Options{Path: configPath, Name: configName})
}

// LoadWith is Load with explicit options. A missing config file is not an
// error; the result then relies on defaults and environment only.
func LoadWith(opts Options) (*viper.Viper, error) {
	v := viper.New()

	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(opts.Name)
	v.SetConfigType("yaml")
	if opts.Path != "" {
		v.AddConfigPath(opts.Path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}
