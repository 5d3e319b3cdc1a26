package util

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	NGroups int    `yaml:"nGroups" validate:"min=1"`
	Method  string `yaml:"method" validate:"oneof=pearson spearman"`
	Workers int    `yaml:"workers" validate:"min=1"`
	DataDir string `yaml:"dataDir"`
	Api     struct {
		Port int `yaml:"port" validate:"min=1,max=65535"`
	} `yaml:"api"`
}

func DefaultConfig() Config {
	c := Config{
		NGroups: 5,
		Method:  "pearson",
		Workers: runtime.NumCPU(),
	}
	c.Api.Port = 3009
	return c
}

// ConfigPath picks the config file for the current FACTORLENS_ENV.
func ConfigPath() string {
	switch strings.ToLower(os.Getenv("FACTORLENS_ENV")) {
	case "dev":
		return "config-dev.yaml"
	case "test":
		return "config-test.yaml"
	}
	return "/go/src/app/config.yaml"
}

// LoadConfig reads path over the defaults. An empty path resolves via
// ConfigPath; a missing file at the resolved path leaves the defaults
// in place, a missing explicit path is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}

	f, err := os.ReadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("could not open %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(f, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
