// Package config handles the app configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	defaultMaxNumBins = 1000
	defaultEpsilon    = 1e-3
)

// Config holds the scoring parameters.
type Config struct {
	// CaseSensitive disables lowercasing when counting word frequencies.
	CaseSensitive bool `yaml:"caseSensitive"`
	// MaxNumBins caps the streaming histograms used by CDF scores.
	MaxNumBins int `yaml:"maxNumBins"`
	// Epsilon replaces zero frequencies for out-of-vocabulary words.
	Epsilon float64 `yaml:"epsilon"`
}

func getDefaultConfig() *Config {
	return &Config{
		CaseSensitive: false,
		MaxNumBins:    defaultMaxNumBins,
		Epsilon:       defaultEpsilon,
	}
}

// Save writes the config into dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", configFileName)
	}
	return nil
}

// ReadOrCreate reads the app config from dirPath, writing the defaults there
// first if no config file exists yet.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}
	if err := os.MkdirAll(dirPath, dirMode); err != nil {
		return nil, errors.Wrapf(err, "failed to create config dir: %s", dirPath)
	}

	path := filepath.Join(dirPath, configFileName)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debugf("no config at %s, creating default", path)
		c := getDefaultConfig()
		if err := Save(dirPath, c); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}

	c := getDefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file: %s", path)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.MaxNumBins < 1 {
		return errors.Errorf("maxNumBins must be positive, got %d", c.MaxNumBins)
	}
	if c.Epsilon <= 0 {
		return errors.Errorf("epsilon must be positive, got %g", c.Epsilon)
	}
	return nil
}
