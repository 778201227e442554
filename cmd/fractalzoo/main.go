package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fractalzoo/internal/assets"
	"github.com/san-kum/fractalzoo/internal/compute"
	"github.com/san-kum/fractalzoo/internal/config"
	"github.com/san-kum/fractalzoo/internal/fractal"
	"github.com/san-kum/fractalzoo/internal/gui"
	"github.com/san-kum/fractalzoo/internal/logging"
	"github.com/san-kum/fractalzoo/internal/metrics"
	"github.com/san-kum/fractalzoo/internal/render"
	"github.com/san-kum/fractalzoo/internal/storage"
	"github.com/san-kum/fractalzoo/internal/viewport"
	"github.com/san-kum/fractalzoo/internal/viz"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	catalog    string
	shaderDir  string
	backend    string
	workers    int
	maxIter    int
	// render
	outFile   string
	width     int
	height    int
	preset    string
	centerX   float64
	centerY   float64
	zoom      float64
	format    string
	theme     string
	thumbSize int
	benchRuns int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fractalzoo",
		Short: "interactive fractal explorer",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeLog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cmd, nil)
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", ".fractalzoo", "directory for exported frames")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&catalog, "catalog", "", "catalog file (json or yaml), built in when empty")
	pf.StringVar(&shaderDir, "shaders", "", "shader directory, built in when empty")
	pf.StringVar(&backend, "backend", "", "compute backend: auto, serial, cpu")
	pf.IntVar(&workers, "workers", 0, "cpu backend workers, 0 for one per cpu")
	pf.IntVar(&maxIter, "max-iter", 0, "iteration limit when a fractal sets none")
	pf.StringVar(&format, "format", "png", "export format: "+strings.Join(storage.Formats, ", "))

	guiCmd := &cobra.Command{
		Use:   "gui [fractal]",
		Short: "open the window explorer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGUI,
	}
	guiCmd.Flags().IntVar(&width, "width", 0, "window width")
	guiCmd.Flags().IntVar(&height, "height", 0, "window height")

	tuiCmd := &cobra.Command{
		Use:   "tui [fractal]",
		Short: "explore in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTUI,
	}
	tuiCmd.Flags().StringVar(&theme, "theme", "", "color theme: "+strings.Join(viz.ThemeNames(), ", "))

	renderCmd := &cobra.Command{
		Use:   "render [fractal]",
		Short: "render one frame to an image file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  renderFrame,
	}
	renderCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file, saved under --data when empty")
	renderCmd.Flags().IntVar(&width, "width", 0, "image width")
	renderCmd.Flags().IntVar(&height, "height", 0, "image height")
	renderCmd.Flags().StringVar(&preset, "preset", "", "named view and parameters")
	renderCmd.Flags().Float64Var(&centerX, "cx", 0, "view center, real part")
	renderCmd.Flags().Float64Var(&centerY, "cy", 0, "view center, imaginary part")
	renderCmd.Flags().Float64Var(&zoom, "zoom", 1, "zoom factor over the home view")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list fractals in the catalog",
		RunE:  listFractals,
	}

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "print the catalog tree",
		RunE:  printTree,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [fractal]",
		Short: "list available presets for a fractal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for fractal: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, name := range presets {
				p := config.GetPreset(args[0], name)
				cx, cy := p.View.Center()
				fmt.Printf("  %-12s center %.8g %+.8gi  width %.3g\n", name, cx, cy, p.View.Width())
			}
			return nil
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench [fractal]",
		Short: "benchmark the compute backends",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchFractal,
	}
	benchCmd.Flags().IntVar(&benchRuns, "runs", 10, "frames per backend")
	benchCmd.Flags().IntVar(&width, "width", 0, "frame width")
	benchCmd.Flags().IntVar(&height, "height", 0, "frame height")

	thumbsCmd := &cobra.Command{
		Use:   "thumbs",
		Short: "render catalog thumbnails",
		RunE:  renderThumbs,
	}
	thumbsCmd.Flags().StringVarP(&outFile, "out", "o", "assets", "directory receiving the thumbnail tree")
	thumbsCmd.Flags().IntVar(&thumbSize, "size", 128, "thumbnail edge in pixels")

	exportsCmd := &cobra.Command{
		Use:   "exports",
		Short: "list exported frames",
		RunE:  listExports,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "fractalzoo.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	rootCmd.AddCommand(guiCmd, tuiCmd, renderCmd, listCmd, treeCmd, presetsCmd, benchCmd, thumbsCmd, exportsCmd, configCmd)

	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when a command fails.
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// cfg is the configuration after the config file and flags are merged.
var cfg *config.Config

// logFile receives the log of the terminal explorer.
var logFile *os.File

func setup(cmd *cobra.Command) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("catalog") {
		cfg.Catalog = catalog
	}
	if flags.Changed("shaders") {
		cfg.ShaderDir = shaderDir
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("max-iter") {
		cfg.MaxIter = maxIter
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The terminal explorer owns stdout and stderr; its log goes to a file.
	var out io.Writer = os.Stderr
	if cmd.Name() == "tui" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(filepath.Join(dataDir, "fractalzoo.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		logFile = f
		out = f
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.LogLevel),
	})))
	return nil
}

// closeLog silences logging and closes the log file, if one is open.
func closeLog() error {
	if logFile == nil {
		return nil
	}
	logging.SetLogger(nil)
	err := logFile.Close()
	logFile = nil
	return err
}

func loadRegistry() (*fractal.Registry, error) {
	return assets.Load(cfg.Catalog, cfg.ShaderDir, cfg.DefaultFractal)
}

func newBackend() compute.Backend {
	if cfg.Backend == "" || cfg.Backend == "auto" {
		return compute.AutoSelectBackend(cfg.Workers, cfg.TileSize)
	}
	return compute.ByName(cfg.Backend, cfg.Workers, cfg.TileSize)
}

func newStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// pick resolves the fractal named in args, or the default one.
func pick(reg *fractal.Registry, args []string) (*fractal.Descriptor, error) {
	if len(args) == 0 {
		if d := reg.MustDefault(); d != nil {
			return d, nil
		}
		return nil, errors.New("catalog is empty")
	}
	d, ok := reg.Get(args[0])
	if !ok {
		return nil, fmt.Errorf("unknown fractal: %s (try 'fractalzoo list')", args[0])
	}
	return d, nil
}

func runGUI(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	st, err := newStore()
	if err != nil {
		return err
	}
	be := newBackend()
	defer be.Cleanup()

	start := ""
	if len(args) > 0 {
		start = args[0]
	}
	gui.Run(gui.Options{
		Registry:  reg,
		Backend:   be,
		MaxIter:   cfg.MaxIter,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Store:     st,
		Format:    format,
		Budget:    time.Duration(cfg.BudgetMs) * time.Millisecond,
		Start:     start,
		StartView: cfg.StartView,
	})
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	st, err := newStore()
	if err != nil {
		return err
	}
	be := newBackend()
	defer be.Cleanup()

	start := ""
	if len(args) > 0 {
		start = args[0]
	}
	return viz.Run(viz.Options{
		Registry:  reg,
		Backend:   be,
		MaxIter:   cfg.MaxIter,
		Store:     st,
		Format:    format,
		Theme:     theme,
		Start:     start,
		StartView: cfg.StartView,
	})
}

// renderImage draws d over view on the software path and returns the frame.
func renderImage(d *fractal.Descriptor, view viewport.Rect, w, h int, be compute.Backend, l render.Listener) (*image.RGBA, time.Duration, error) {
	sw := render.NewSoftware(be, cfg.MaxIter)
	sync := render.NewSynchronizer(l)
	start := time.Now()
	if err := sync.Draw(context.Background(), w, h, sw.DrawFunc(d, view)); err != nil {
		return nil, 0, err
	}
	return sync.Image(), time.Since(start), nil
}

func renderFrame(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	d, err := pick(reg, args)
	if err != nil {
		return err
	}

	view := d.HomeView(cfg.StartView)
	if preset != "" {
		p := config.GetPreset(d.Name, preset)
		if p == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(d.Name))
		}
		view = p.View
		if skipped := p.Apply(d.Params); len(skipped) > 0 {
			logging.Logger().Warn("preset parameters skipped", "preset", preset, "params", skipped)
		}
	}
	flags := cmd.Flags()
	if flags.Changed("cx") || flags.Changed("cy") {
		cx, cy := view.Center()
		if flags.Changed("cx") {
			cx = centerX
		}
		if flags.Changed("cy") {
			cy = centerY
		}
		hw, hh := view.Width()/2, view.Height()/2
		view = viewport.Rect{Left: cx - hw, Top: cy - hh, Right: cx + hw, Bottom: cy + hh}
	}
	view = view.Zoom(zoom)
	if err := view.Validate(); err != nil {
		return err
	}

	be := newBackend()
	defer be.Cleanup()
	img, elapsed, err := renderImage(d, view, cfg.Width, cfg.Height, be, nil)
	if errors.Is(err, render.ErrNotSoftware) {
		return fmt.Errorf("%w; open it with 'fractalzoo gui %q'", err, d.Name)
	}
	if err != nil {
		return err
	}

	if outFile == "" {
		st, err := newStore()
		if err != nil {
			return err
		}
		id, err := st.Save(img, storage.Describe(d, view, cfg.Width, cfg.Height, elapsed), format)
		if err != nil {
			return err
		}
		fmt.Printf("rendered %s in %v: %s\n", d.Name, elapsed.Round(time.Millisecond), filepath.Join(dataDir, id))
		return nil
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := storage.Encode(f, img, storage.FormatFromPath(outFile)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("rendered %s in %v: %s\n", d.Name, elapsed.Round(time.Millisecond), outFile)
	return nil
}

func listFractals(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tCATALOG\tPARAMS")
	for _, d := range reg.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Kind, strings.Join(d.Path, " / "), strings.Join(d.Params.Names(), ","))
	}
	return w.Flush()
}

func printTree(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	reg.Walk(func(level int, label string, leaf bool) {
		marker := "▸ "
		if leaf {
			marker = "· "
		}
		fmt.Printf("%s%s%s\n", strings.Repeat("  ", level), marker, label)
	})
	return nil
}

func benchFractal(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	d, err := pick(reg, args)
	if err != nil {
		return err
	}
	if d.Kind == fractal.ShaderBased {
		return fmt.Errorf("%w: %s", render.ErrNotSoftware, d.Name)
	}

	backends := []compute.Backend{
		compute.NewSerialBackend(),
		compute.NewCPUBackend(cfg.Workers, cfg.TileSize),
	}
	view := d.HomeView(cfg.StartView)
	fmt.Printf("benchmarking %s at %dx%d, %d frames\n\n", d.Name, cfg.Width, cfg.Height, benchRuns)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tMEAN\tMIN\tMAX\tMPIX/SEC")
	var series [][]float64
	for _, be := range backends {
		timer := metrics.NewRenderTimer(benchRuns)
		for i := 0; i < benchRuns; i++ {
			if _, _, err := renderImage(d, view, cfg.Width, cfg.Height, be, timer); err != nil {
				return err
			}
		}
		be.Cleanup()
		s := timer.Stats()
		mpix := float64(cfg.Width*cfg.Height) / 1e6 / (s.MeanMs / 1000)
		fmt.Fprintf(w, "%s\t%.2fms\t%.2fms\t%.2fms\t%.1f\n", be.Name(), s.MeanMs, s.MinMs, s.MaxMs, mpix)
		series = append(series, timer.History())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if benchRuns > 1 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany(series,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
			asciigraph.SeriesLegends(backends[0].Name(), backends[1].Name()),
			asciigraph.Caption("frame time (ms)"),
		))
	}
	return nil
}

func renderThumbs(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	be := newBackend()
	defer be.Cleanup()

	for _, d := range reg.All() {
		if d.ThumbnailRef == "" {
			continue
		}
		if d.Kind == fractal.ShaderBased {
			fmt.Printf("skip %s: shader fractal\n", d.Name)
			continue
		}
		img, _, err := renderImage(d, d.HomeView(cfg.StartView), thumbSize, thumbSize, be, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
		path := filepath.Join(outFile, filepath.FromSlash(d.ThumbnailRef))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := storage.Encode(f, img, storage.FormatFromPath(path)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func listExports(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	ids, err := st.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no exports found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFRACTAL\tTIME\tSIZE\tRENDER")
	for _, id := range ids {
		meta, err := st.Load(id)
		if err != nil {
			logging.Logger().Warn("unreadable export", "id", id, "err", err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%.1fms\n",
			meta.ID,
			meta.Fractal,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Width, meta.Height,
			meta.ElapsedMs,
		)
	}
	return w.Flush()
}
