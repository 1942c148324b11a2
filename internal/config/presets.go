package config

// Presets are ready-made run configurations for common demonstrations.
var Presets = map[string]*Config{
	"free": {
		Method: "split", Dt: 0.005, Steps: 2000,
		Grid:    GridConfig{N: 512, Length: 40.0},
		Physics: PhysicsConfig{Trap: "none"},
		Packet:  PacketConfig{X0: -10.0, Sigma: 1.0, K0: 2.0},
	},
	"breather": {
		Method: "split", Dt: 0.005, Steps: 4000,
		Grid:    GridConfig{N: 256, Length: 20.0},
		Physics: PhysicsConfig{G: 1.0, Trap: "harmonic", TrapOmega: 1.0},
		Packet:  PacketConfig{X0: 0.0, Sigma: 0.5, K0: 0.0},
	},
	"slosh": {
		Method: "abm", Dt: 0.002, Steps: 5000,
		Grid:    GridConfig{N: 256, Length: 20.0},
		Physics: PhysicsConfig{G: 0.5, Trap: "harmonic", TrapOmega: 1.0},
		Packet:  PacketConfig{X0: 2.0, Sigma: 1.0, K0: 0.0},
	},
	"soliton": {
		Method: "abm", Dt: 0.002, Steps: 4000, Fuse: true,
		Grid:    GridConfig{N: 512, Length: 40.0},
		Physics: PhysicsConfig{G: -1.0, Trap: "none"},
		Packet:  PacketConfig{X0: 0.0, Sigma: 1.0, K0: 1.0},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}
