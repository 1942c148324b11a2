// Package config loads and saves YAML run configurations for the timeode
// CLI: which evolver to use, step parameters, the grid, and the physics of
// the wavefunction being evolved.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt     = 0.01
	DefaultSteps  = 1000
	DefaultGridN  = 256
	DefaultLength = 20.0
	DefaultSigma  = 1.0
)

type Config struct {
	Method       string  `yaml:"method"` // "split" or "abm"
	Dt           float64 `yaml:"dt"`
	Steps        int     `yaml:"steps"`
	T0           float64 `yaml:"t0"`
	Normalize    bool    `yaml:"normalize"`
	NoRungeKutta bool    `yaml:"no_runge_kutta"`
	Fuse         bool    `yaml:"fuse"`

	Grid    GridConfig    `yaml:"grid"`
	Physics PhysicsConfig `yaml:"physics"`
	Packet  PacketConfig  `yaml:"packet"`
}

// GridConfig describes the periodic spatial grid.
type GridConfig struct {
	N      int     `yaml:"n"`
	Length float64 `yaml:"length"`
}

// PhysicsConfig describes the Hamiltonian: the interaction strength and
// the external trap.
type PhysicsConfig struct {
	G         float64 `yaml:"g"`          // nonlinear coupling; 0 gives a linear problem
	Trap      string  `yaml:"trap"`       // "none" or "harmonic"
	TrapOmega float64 `yaml:"trap_omega"` // harmonic trap frequency
}

// PacketConfig describes the initial Gaussian packet.
type PacketConfig struct {
	X0    float64 `yaml:"x0"`
	Sigma float64 `yaml:"sigma"`
	K0    float64 `yaml:"k0"`
}

func DefaultConfig() *Config {
	return &Config{
		Method: "split",
		Dt:     DefaultDt,
		Steps:  DefaultSteps,
		Grid:   GridConfig{N: DefaultGridN, Length: DefaultLength},
		Physics: PhysicsConfig{
			Trap:      "harmonic",
			TrapOmega: 1.0,
		},
		Packet: PacketConfig{Sigma: DefaultSigma},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Method != "split" && c.Method != "abm" {
		return fmt.Errorf("config: unknown method %q", c.Method)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %f", c.Dt)
	}
	if c.Steps <= 1 {
		return fmt.Errorf("config: steps must be > 1, got %d", c.Steps)
	}
	if c.Grid.N <= 0 || c.Grid.N&(c.Grid.N-1) != 0 {
		return fmt.Errorf("config: grid n must be a power of two, got %d", c.Grid.N)
	}
	if c.Grid.Length <= 0 {
		return fmt.Errorf("config: grid length must be positive, got %f", c.Grid.Length)
	}
	switch c.Physics.Trap {
	case "", "none", "harmonic":
	default:
		return fmt.Errorf("config: unknown trap %q", c.Physics.Trap)
	}
	return nil
}
