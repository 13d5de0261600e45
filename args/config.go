package args

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"pdash/ping"
	"pdash/utils"
)

// FileConfig is the optional YAML config file. Flags given on the command
// line win over anything set here.
//
//	timeout: 250ms
//	rate: 0
//	ping: auto
//	all: false
//	speed: fast
//	speeds: {fast: 1000, medium: 100, slow: 10}
//	services: {8081: my-api}
type FileConfig struct {
	Timeout  time.Duration     `yaml:"timeout"`
	Rate     float64           `yaml:"rate"`
	Ping     string            `yaml:"ping"`
	All      bool              `yaml:"all"`
	Speed    string            `yaml:"speed"`
	Speeds   map[string]int    `yaml:"speeds"`
	Services map[uint16]string `yaml:"services"`
}

func LoadConfig(path string) (FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := ParseConfig(f)
	if err != nil {
		return FileConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func ParseConfig(r io.Reader) (FileConfig, error) {
	var cfg FileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (c FileConfig) validate() error {
	if c.Timeout < 0 {
		return &ValidationError{Field: "timeout", Value: c.Timeout.String(), Reason: "must not be negative"}
	}
	if c.Rate < 0 {
		return &ValidationError{Field: "rate", Value: strconv.FormatFloat(c.Rate, 'f', -1, 64), Reason: "must not be negative"}
	}
	if c.Ping != "" && !utils.Contains(ping.Methods, c.Ping) {
		return &ValidationError{Field: "ping method", Value: c.Ping, Reason: "unknown method"}
	}
	if c.Speed != "" {
		if _, err := ParseSpeed(c.Speed); err != nil {
			return err
		}
	}
	for name, n := range c.Speeds {
		if _, err := ParseSpeed(name); err != nil {
			return err
		}
		if n <= 0 {
			return &ValidationError{Field: "speeds." + name, Value: strconv.Itoa(n), Reason: "worker count must be positive"}
		}
	}
	for port, name := range c.Services {
		if port == 0 {
			return &ValidationError{Field: "services", Value: "0", Reason: "port must be between 1 and 65535"}
		}
		if name == "" {
			return &ValidationError{Field: "services", Value: strconv.Itoa(int(port)), Reason: "service name cannot be empty"}
		}
	}
	return nil
}
