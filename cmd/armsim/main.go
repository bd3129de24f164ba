package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/armsim/internal/arm"
	"github.com/san-kum/armsim/internal/config"
	"github.com/san-kum/armsim/internal/hardware"
	"github.com/san-kum/armsim/internal/metrics"
	"github.com/san-kum/armsim/internal/prefs"
	"github.com/san-kum/armsim/internal/routine"
	"github.com/san-kum/armsim/internal/runner"
	"github.com/san-kum/armsim/internal/sim"
	"github.com/san-kum/armsim/internal/store"
	"github.com/san-kum/armsim/internal/telemetry"
	"github.com/san-kum/armsim/internal/tui"
)

var (
	dataDir     string
	configFile  string
	preset      string
	dt          float64
	duration    float64
	setpointDeg float64
	kp          float64
	kd          float64
	seed        int64
	noGravity   bool
	prefsFile   string
	save        bool
	display     bool
	// sweep ranges
	kpFrom, kpTo float64
	kdFrom, kdTo float64
	sweepSteps   int
	// export
	exportOut  string
	exportPlot string
	// robustness
	mcTrials  int
	mcPerturb float64
	// hardware
	hwPort  string
	hwServo int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "armsim",
		Short: "closed-loop arm position controller and simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".armsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless closed-loop simulation",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", false, "persist the run to the data directory")
	runCmd.Flags().BoolVar(&display, "display", false, "render the mechanism in real time while running")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive live view with setpoint and gain adjustment",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid-search kp/kd for settling time",
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&kpFrom, "kp-from", 10, "lowest kp")
	sweepCmd.Flags().Float64Var(&kpTo, "kp-to", 100, "highest kp")
	sweepCmd.Flags().Float64Var(&kdFrom, "kd-from", 0, "lowest kd")
	sweepCmd.Flags().Float64Var(&kdTo, "kd-to", 10, "highest kd")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 4, "grid points per axis")

	routineCmd := &cobra.Command{
		Use:   "routine [file]",
		Short: "play a scripted setpoint sequence from a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  runRoutine,
	}
	addRunFlags(routineCmd)

	robustCmd := &cobra.Command{
		Use:   "robustness",
		Short: "monte-carlo settling trials with a perturbed start pose",
		RunE:  runRobustness,
	}
	addRunFlags(robustCmd)
	robustCmd.Flags().IntVar(&mcTrials, "trials", 20, "number of trials")
	robustCmd.Flags().Float64Var(&mcPerturb, "perturb", 15, "start angle perturbation (deg)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON or a figure",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportOut, "out", "", "JSON output path (default stdout)")
	exportCmd.Flags().StringVar(&exportPlot, "plot", "", "figure output path (.svg, .png or .pdf)")

	hwCmd := &cobra.Command{
		Use:   "hw",
		Short: "drive a real servo joint with the same control loop",
		RunE:  runHardware,
	}
	addRunFlags(hwCmd)
	hwCmd.Flags().StringVar(&hwPort, "port", "/dev/ttyUSB0", "serial port of the servo bus")
	hwCmd.Flags().IntVar(&hwServo, "servo", 1, "servo id on the bus")

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, routineCmd, robustCmd, listCmd, plotCmd, exportCmd, hwCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset configuration name")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	cmd.Flags().Float64Var(&setpointDeg, "setpoint", config.DefaultSetpointDeg, "target angle (deg)")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	cmd.Flags().Int64Var(&seed, "seed", 0, "noise seed (0 = time-based)")
	cmd.Flags().BoolVar(&noGravity, "no-gravity", false, "disable gravity torque")
	cmd.Flags().StringVar(&prefsFile, "prefs", "", "preference store path for setpoint/kp hot-reload")
}

// resolveConfig merges preset, config file and CLI flags, flags winning.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("setpoint") {
		cfg.SetpointDeg = setpointDeg
	}
	if cmd.Flags().Changed("kp") {
		cfg.Control.Kp = kp
	}
	if cmd.Flags().Changed("kd") {
		cfg.Control.Kd = kd
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if noGravity {
		cfg.Arm.Gravity = false
	}
	return cfg, nil
}

func defaultMetrics() []metrics.Metric {
	return []metrics.Metric{
		metrics.NewSettlingTime(0.01),
		metrics.NewControlEffort(),
		metrics.NewOvershoot(),
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var sink telemetry.Sink
	if display {
		sink = telemetry.NewMechanism(os.Stdout, 25)
	}
	session, err := sim.NewSession(cfg, sink)
	if err != nil {
		return err
	}
	for _, m := range defaultMetrics() {
		session.AddMetric(m)
	}

	if prefsFile != "" {
		if err := attachPrefs(session.Arm()); err != nil {
			return err
		}
	}

	fmt.Printf("running arm simulation (setpoint %.1f deg, kp %.1f, kd %.1f)...\n",
		session.Arm().SetpointDeg(), cfg.Control.Kp, cfg.Control.Kd)
	start := time.Now()

	if display {
		// Real-time pacing so the mechanism view is watchable.
		runCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Duration*float64(time.Second)))
		defer cancel()
		err := runner.New(&simRobot{session: session},
			time.Duration(cfg.Dt*float64(time.Second))).Run(runCtx)
		if err != nil && err != context.DeadlineExceeded {
			return err
		}
	} else if err := session.Run(context.Background()); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("cycles: %d\n", len(session.Frames()))
	final := session.Backend().TrueState()
	fmt.Printf("final angle: %.2f deg (%.4f rad)\n", final.AngleRad*180/math.Pi, final.AngleRad)
	fmt.Println("\nmetrics:")
	for name, val := range session.MetricValues() {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	if save {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(store.RunMetadata{
			Name:        cfg.Name,
			Seed:        session.Seed(),
			Dt:          cfg.Dt,
			Duration:    cfg.Duration,
			Kp:          cfg.Control.Kp,
			Kd:          cfg.Control.Kd,
			SetpointDeg: cfg.SetpointDeg,
			Metrics:     session.MetricValues(),
		}, session.Frames())
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	session, err := sim.NewSession(cfg, nil)
	if err != nil {
		return err
	}
	if prefsFile != "" {
		if err := attachPrefs(session.Arm()); err != nil {
			return err
		}
	}
	return tui.Run(session)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if sweepSteps < 2 {
		return fmt.Errorf("sweep needs at least 2 steps per axis")
	}

	sweep := &sim.GainSweep{
		Kp: gridPoints(kpFrom, kpTo, sweepSteps),
		Kd: gridPoints(kdFrom, kdTo, sweepSteps),
	}

	fmt.Printf("sweeping %d gain pairs...\n", len(sweep.Kp)*len(sweep.Kd))
	results, best, err := sweep.Run(context.Background(), func() *sim.Session {
		s, err := sim.NewSession(cfg, nil)
		if err != nil {
			panic(err) // config already validated above
		}
		return s
	}, 0.01)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KP\tKD\tSETTLING\tOVERSHOOT")
	for _, r := range results {
		settling := "never"
		if r.SettlingTime >= 0 {
			settling = fmt.Sprintf("%.2fs", r.SettlingTime)
		}
		fmt.Fprintf(w, "%.1f\t%.1f\t%s\t%.4f rad\n", r.Kp, r.Kd, settling, r.Overshoot)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best >= 0 {
		fmt.Printf("\nbest: kp=%.1f kd=%.1f (settled in %.2fs)\n",
			results[best].Kp, results[best].Kd, results[best].SettlingTime)
	} else {
		fmt.Println("\nno gain pair settled; widen the ranges")
	}
	return nil
}

func gridPoints(from, to float64, steps int) []float64 {
	points := make([]float64, steps)
	for i := range points {
		points[i] = from + (to-from)*float64(i)/float64(steps-1)
	}
	return points
}

func runRoutine(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	r, err := routine.Load(args[0])
	if err != nil {
		return err
	}

	session, err := sim.NewSession(cfg, nil)
	if err != nil {
		return err
	}

	fmt.Printf("playing routine %q (%d steps)...\n", r.Name, len(r.Steps))
	start := time.Now()
	if err := r.Run(context.Background(), session); err != nil {
		return err
	}
	fmt.Printf("completed in %v (%d cycles)\n", time.Since(start), len(session.Frames()))

	final := session.Backend().TrueState()
	fmt.Printf("final angle: %.2f deg\n", final.AngleRad*180/math.Pi)
	return nil
}

func runRobustness(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	mc := routine.MonteCarlo{
		Trials:          mcTrials,
		PerturbationDeg: mcPerturb,
		ToleranceRad:    0.01,
		Seed:            cfg.Seed,
	}

	fmt.Printf("running %d trials (start pose +/- %.1f deg)...\n", mcTrials, mcPerturb)
	results, settled, err := mc.Run(context.Background(), func(offsetDeg float64) (*sim.Session, error) {
		trial := *cfg
		trial.Arm.StartAngleDeg += offsetDeg
		return sim.NewSession(&trial, nil)
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tOFFSET\tSETTLING")
	for _, r := range results {
		settling := "never"
		if r.SettlingTimeSec >= 0 {
			settling = fmt.Sprintf("%.2fs", r.SettlingTimeSec)
		}
		fmt.Fprintf(w, "%d\t%+.1f deg\t%s\n", r.Trial+1, r.OffsetDeg, settling)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nsettled: %d/%d\n", settled, len(results))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tKP\tKD\tSETPOINT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.3fs\t%.1f\t%.1f\t%.1f deg\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Kp,
			run.Kd,
			run.SetpointDeg,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(frames))

	angle := make([]float64, len(frames))
	volts := make([]float64, len(frames))
	for i, f := range frames {
		angle[i] = f.AngleRad * 180 / math.Pi
		volts[i] = f.Volts
	}

	fmt.Println(asciigraph.Plot(angle,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("angle (deg), setpoint %.1f", meta.SetpointDeg)),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(volts,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("commanded voltage (V)"),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	if exportPlot != "" {
		if err := store.ExportPlot(exportPlot, *meta, frames); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", exportPlot)
	}
	if exportOut != "" {
		if err := store.ExportJSON(exportOut, *meta, frames); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", exportOut)
	}
	if exportPlot == "" && exportOut == "" {
		return store.ExportJSON("/dev/stdout", *meta, frames)
	}
	return nil
}

// simRobot paces a simulated session through the runner so display sinks see
// frames at wall-clock rate.
type simRobot struct {
	session *sim.Session
}

func (r *simRobot) Init() error                  { return nil }
func (r *simRobot) ControlPeriodic()             { r.session.Arm().ControlStep() }
func (r *simRobot) SimulationPeriodic(d float64) { r.session.Arm().SimulationStep(d) }
func (r *simRobot) Close() error                 { return r.session.Arm().Close() }

// hwRobot adapts the arm orchestrator to the runner lifecycle for real
// hardware sessions.
type hwRobot struct {
	arm *arm.Arm
}

func (r *hwRobot) Init() error {
	r.arm.ReloadPreferences()
	return nil
}
func (r *hwRobot) ControlPeriodic()           { r.arm.ControlStep() }
func (r *hwRobot) SimulationPeriodic(float64) {}
func (r *hwRobot) Close() error               { return r.arm.Close() }

func runHardware(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	params, err := cfg.PhysicsParams()
	if err != nil {
		return err
	}

	backend, err := hardware.NewServoArm(hardware.ServoConfig{
		Port:      hwPort,
		ServoID:   hwServo,
		PeriodSec: cfg.Dt,
	})
	if err != nil {
		return err
	}

	a := arm.New(arm.Config{
		Name:        cfg.Name,
		SetpointDeg: cfg.SetpointDeg,
		Kp:          cfg.Control.Kp,
		Kd:          cfg.Control.Kd,
		MinAngleRad: params.MinAngleRad,
		MaxAngleRad: params.MaxAngleRad,
		Telemetry:   telemetry.Nop{},
	}, backend)
	if prefsFile != "" {
		if err := attachPrefs(a); err != nil {
			backend.Close()
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("driving servo %d on %s (setpoint %.1f deg); ctrl-c to stop\n",
		hwServo, hwPort, cfg.SetpointDeg)

	err = runner.New(&hwRobot{arm: a}, time.Duration(cfg.Dt*float64(time.Second))).Run(ctx)
	if err == context.Canceled {
		err = nil
	}
	if busErr := backend.Err(); busErr != nil {
		return busErr
	}
	return err
}

func attachPrefs(a *arm.Arm) error {
	ps, err := prefs.Open(prefsFile)
	if err != nil {
		return fmt.Errorf("open prefs: %w", err)
	}
	a.AttachPreferences(ps)
	a.ReloadPreferences()
	return nil
}
