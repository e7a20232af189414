package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/crosscast/crosscast/errors"
	"github.com/spf13/viper"
)

var (
	globalConfig *Config
	globalMu     sync.Mutex
)

// Load reads the Crosscast configuration using Viper.
// Subsequent calls return the cached configuration.
func Load() (*Config, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	globalConfig = &cfg
	return globalConfig, nil
}

// LoadFromFile loads configuration from a specific file path,
// bypassing the cached global configuration.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// ConfigPath returns the path of the config file in use, or "" if none was found
func ConfigPath() string {
	return initViper().ConfigFileUsed()
}

func initViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("crosscast")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "crosscast"))
	}

	v.SetEnvPrefix("CROSSCAST")
	v.AutomaticEnv()

	SetDefaults(v)

	// Missing config file is fine - defaults and environment cover everything
	_ = v.ReadInConfig()

	return v
}
