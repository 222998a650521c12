package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Logger Logger `yaml:"logger"`
	Scan   Scan   `yaml:"scan"`
	Report Report `yaml:"report"`
	Watch  Watch  `yaml:"watch"`
}

type Logger struct {
	Level string `yaml:"level"`
}

type Scan struct {
	Workers   int      `yaml:"workers"`
	Detectors []string `yaml:"detectors"`
}

type Report struct {
	Format string `yaml:"format"` // empty picks the format from the output extension
}

type Watch struct {
	Debounce time.Duration `yaml:"debounce"`
}

func Default() *Config {
	return &Config{
		Scan:  Scan{Workers: runtime.NumCPU()},
		Watch: Watch{Debounce: 500 * time.Millisecond},
	}
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	d.SetStrict(true)
	if err := d.Decode(data); err != nil {
		return fmt.Errorf("failed to decode %s: %w", configPath, err)
	}
	return nil
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := LoadYAML(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Scan.Workers < 1 {
		cfg.Scan.Workers = runtime.NumCPU()
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = Default().Watch.Debounce
	}
	return cfg, nil
}
