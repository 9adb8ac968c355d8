// Package config holds this node's process-wide, immutable-after-startup
// settings: network selection, logging, and the P2P tuning knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustybit-go/rustybit/config/netmode"
)

// Config is the top-level, YAML-decodable node configuration.
type Config struct {
	Network netmode.Magic `yaml:"Network"`
	P2P     P2P           `yaml:"P2P"`
	Logger  Logger        `yaml:"Logger"`
}

// P2P holds the peer engine's tunables.
type P2P struct {
	SeedAddresses []string      `yaml:"SeedAddresses"`
	UserAgent     string        `yaml:"UserAgent"`
	Services      uint64        `yaml:"Services"`
	MinPeers      int           `yaml:"MinPeers"`
	MaxPeers      int           `yaml:"MaxPeers"`
	DialTimeout   time.Duration `yaml:"DialTimeout"`
}

// Logger contains node logger configuration.
type Logger struct {
	LogEncoding string `yaml:"LogEncoding"`
	LogLevel    string `yaml:"LogLevel"`
	LogPath     string `yaml:"LogPath"`
}

// Validate returns an error if l is not a recognized configuration.
func (l Logger) Validate() error {
	if len(l.LogEncoding) > 0 && l.LogEncoding != "console" && l.LogEncoding != "json" {
		return fmt.Errorf("invalid LogEncoding: %s", l.LogEncoding)
	}
	return nil
}

// Default returns the mainnet configuration used when no config file is
// supplied.
func Default() Config {
	return Config{
		Network: netmode.MainNet,
		P2P: P2P{
			UserAgent:   "/rustybit:0.0.0_dev/",
			Services:    0,
			MinPeers:    1,
			MaxPeers:    8,
			DialTimeout: 10 * time.Second,
		},
		Logger: Logger{
			LogEncoding: "console",
			LogLevel:    "info",
		},
	}
}

// LoadFile reads and decodes a YAML config file at path, starting from
// Default() so an omitted field keeps its default value.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Logger.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
