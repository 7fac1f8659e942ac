package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration is the runtime settings bundle assembled by the CLI from an
// optional YAML file plus flag overrides.
type Configuration struct {
	Version  string `yaml:"-"`
	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"`
	DumpAST  bool   `yaml:"dumpAst"`
	// MaxTasks caps concurrently running tasks; 0 means no limit.
	MaxTasks int `yaml:"maxTasks"`
}

func Default() Configuration {
	return Configuration{LogLevel: "error"}
}

// LoadFile merges the YAML file at path over base.
func LoadFile(path string, base Configuration) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
