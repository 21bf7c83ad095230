package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Language string       `yaml:"language"`
	LLM      LLMConfig    `yaml:"llm"`
	Runner   RunnerConfig `yaml:"runner"`
	Paths    PathsConfig  `yaml:"paths"`
}

type LLMConfig struct {
	Model       string `yaml:"model"`
	Endpoint    string `yaml:"endpoint"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type RunnerConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
}

// Default is the configuration used when no config.yaml exists.
func Default() *Config {
	return &Config{
		Language: "es",
		LLM: LLMConfig{
			Model:       "llama-3.3-70b-versatile",
			TimeoutSec:  120,
			MaxAttempts: 3,
		},
		Runner: RunnerConfig{MaxConcurrent: 4},
		Paths:  PathsConfig{Output: "output"},
	}
}

// Load reads a YAML config file, filling unset fields from Default. A
// missing file is not an error — defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Language == "" {
		cfg.Language = "es"
	}
	if cfg.LLM.TimeoutSec <= 0 {
		cfg.LLM.TimeoutSec = 120
	}
	if cfg.LLM.MaxAttempts <= 0 {
		cfg.LLM.MaxAttempts = 3
	}
	if cfg.Runner.MaxConcurrent <= 0 {
		cfg.Runner.MaxConcurrent = 4
	}
	if cfg.Paths.Output == "" {
		cfg.Paths.Output = "output"
	}
	return cfg, nil
}

// Timeout returns the configured completion timeout.
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
