package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/forbes-group/timeode/internal/config"
	"github.com/forbes-group/timeode/internal/evolver"
	"github.com/forbes-group/timeode/internal/expr"
	"github.com/forbes-group/timeode/internal/states"
	"github.com/forbes-group/timeode/internal/tui"
)

var (
	configFile string
	preset     string
	method     string
	dt         float64
	steps      int
	gridN      int
	gridLen    float64
	coupling   float64
	trap       string
	trapOmega  float64
	packetX0   float64
	packetSig  float64
	packetK0   float64
	normalize  bool
	fuse       bool
	frameRate  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "timeode",
		Short: "time evolution of quantum and superfluid states",
	}

	evolveCmd := &cobra.Command{
		Use:   "evolve",
		Short: "run an evolution and plot the final density",
		RunE:  runEvolve,
	}
	addRunFlags(evolveCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run an evolution with a live density view",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(config.Presets))
			for name := range config.Presets {
				names = append(names, name)
			}
			sort.Strings(names)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMETHOD\tDT\tSTEPS\tG\tTRAP")
			for _, name := range names {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%s\t%g\t%d\t%g\t%s\n",
					name, p.Method, p.Dt, p.Steps, p.Physics.G, p.Physics.Trap)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(evolveCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&method, "method", "", "evolver: split or abm")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps")
	cmd.Flags().IntVar(&gridN, "n", 0, "grid points (power of two)")
	cmd.Flags().Float64Var(&gridLen, "length", 0, "grid length")
	cmd.Flags().Float64Var(&coupling, "g", 0, "nonlinear coupling")
	cmd.Flags().StringVar(&trap, "trap", "", "external trap: none or harmonic")
	cmd.Flags().Float64Var(&trapOmega, "trap-omega", 0, "harmonic trap frequency")
	cmd.Flags().Float64Var(&packetX0, "x0", 0, "packet center")
	cmd.Flags().Float64Var(&packetSig, "sigma", 0, "packet width")
	cmd.Flags().Float64Var(&packetK0, "k0", 0, "packet momentum")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "renormalize after each step")
	cmd.Flags().BoolVar(&fuse, "fuse", false, "use fused expression stepping (abm)")
}

// buildConfig resolves preset, config file and flag overrides, in that
// order of increasing precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("method") {
		cfg.Method = method
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("n") {
		cfg.Grid.N = gridN
	}
	if cmd.Flags().Changed("length") {
		cfg.Grid.Length = gridLen
	}
	if cmd.Flags().Changed("g") {
		cfg.Physics.G = coupling
	}
	if cmd.Flags().Changed("trap") {
		cfg.Physics.Trap = trap
	}
	if cmd.Flags().Changed("trap-omega") {
		cfg.Physics.TrapOmega = trapOmega
	}
	if cmd.Flags().Changed("x0") {
		cfg.Packet.X0 = packetX0
	}
	if cmd.Flags().Changed("sigma") {
		cfg.Packet.Sigma = packetSig
	}
	if cmd.Flags().Changed("k0") {
		cfg.Packet.K0 = packetK0
	}
	if cmd.Flags().Changed("normalize") {
		cfg.Normalize = normalize
	}
	if cmd.Flags().Changed("fuse") {
		cfg.Fuse = fuse
	}
	return cfg, cfg.Validate()
}

func buildWave(cfg *config.Config) *states.Wavefunction {
	var vext states.Potential
	if cfg.Physics.Trap == "harmonic" {
		w2 := cfg.Physics.TrapOmega * cfg.Physics.TrapOmega
		vext = func(x, t float64) float64 { return 0.5 * w2 * x * x }
	}
	wave := states.NewWavefunction(cfg.Grid.N, cfg.Grid.Length, cfg.Physics.G, vext)
	wave.SetGaussian(cfg.Packet.X0, cfg.Packet.Sigma, cfg.Packet.K0)
	return wave
}

// buildEvolver constructs the configured evolver owning wave directly, so
// callers observe the evolution through the same handle they pass in.
func buildEvolver(cfg *config.Config, wave *states.Wavefunction) (tui.Evolver, error) {
	opts := evolver.Options{
		T0:           cfg.T0,
		Normalize:    cfg.Normalize,
		NoCopy:       true,
		NoRungeKutta: cfg.NoRungeKutta,
		Fuse:         cfg.Fuse && expr.Available(),
	}
	if cfg.Method == "split" {
		s, err := evolver.NewSplit(wave, cfg.Dt, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	a, err := evolver.NewABM(wave, cfg.Dt, opts)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func runEvolve(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	wave := buildWave(cfg)
	e, err := buildEvolver(cfg, wave)
	if err != nil {
		return err
	}

	norm0, energy0 := wave.Norm(), wave.Energy()
	if err := e.Evolve(cfg.Steps); err != nil {
		return err
	}

	fmt.Println(asciigraph.Plot(wave.Density(),
		asciigraph.Height(16), asciigraph.Width(72),
		asciigraph.Caption(fmt.Sprintf("|psi|^2 at t=%.3f", e.T()))))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "method\t%s\n", cfg.Method)
	fmt.Fprintf(w, "steps\t%d x dt=%g\n", cfg.Steps, cfg.Dt)
	fmt.Fprintf(w, "final t\t%.6f\n", e.T())
	fmt.Fprintf(w, "norm\t%.8f (initial %.8f)\n", wave.Norm(), norm0)
	fmt.Fprintf(w, "energy\t%.8f (initial %.8f)\n", wave.Energy(), energy0)
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	wave := buildWave(cfg)
	e, err := buildEvolver(cfg, wave)
	if err != nil {
		return err
	}

	model := tui.NewModel(e, wave, cfg.Method, frameRate, cfg.Steps)
	_, err = tea.NewProgram(model).Run()
	return err
}
