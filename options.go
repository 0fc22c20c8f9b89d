package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"JuliaRenderer/coordinator"
	"JuliaRenderer/misc"
	"JuliaRenderer/pool"
	"JuliaRenderer/task"
)

const (
	DefaultMetricsAddress = ":9090"
	DefaultSavePath       = "renders"
	DefaultTimeout        = 10 * time.Minute
)

// Options contains the command-line configuration.
type Options struct {
	//
	// Mode. Neither flag means a local one-shot render.
	//
	Client      bool // Submit the render to a running coordinator.
	Coordinator bool // Serve renders over rpc.
	//
	// Transport.
	//
	Address        string // Coordinator address to serve on or connect to.
	MetricsAddress string // Address of the prometheus endpoint in coordinator mode.
	SettingsFile   string // Json file of coordinator settings. Transport and pool flags override it.
	Transport      string // tcp or http.
	//
	// Rendering.
	//
	Lifo           bool
	MaxWorkers     int
	MinWorkers     int
	ParametersFile string // Json file of render parameters.
	Threads        int    // Bands per render.
	Timeout        time.Duration
	//
	// Output.
	//
	Output   string // Image path. Defaults to a file inside the run directory.
	RunName  string
	SavePath string
	Verbose  bool
	//
	// Parameter overrides. Only flags set on the command line are applied.
	//
	A           float64
	B           float64
	CenterX     float64
	CenterY     float64
	Color       []int
	Iterations  int
	Mandelbrot  bool
	PixelHeight int
	PixelWidth  int
	Width       float64

	// internal
	fs *pflag.FlagSet
}

// NewOptions returns a new Options struct initialized with default values.
func NewOptions() *Options {
	p := task.DefaultParameters()
	return &Options{
		MetricsAddress: DefaultMetricsAddress,
		Transport:      coordinator.TCP.String(),
		Timeout:        DefaultTimeout,
		SavePath:       DefaultSavePath,
		A:              p.A,
		B:              p.B,
		CenterX:        p.CenterX,
		CenterY:        p.CenterY,
		Color:          []int{int(p.Red), int(p.Green), int(p.Blue)},
		Iterations:     p.IterationLimit,
		Mandelbrot:     p.Mandelbrot,
		PixelHeight:    p.PixelHeight,
		PixelWidth:     p.PixelWidth,
		Width:          p.Width,
	}
}

// AddFlags binds the Options fields to command-line flags on the given FlagSet.
func (opts *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	opts.fs = fs

	fs.BoolVar(&opts.Coordinator, "coordinator", opts.Coordinator,
		"Serve renders over rpc until interrupted.")
	fs.BoolVar(&opts.Client, "client", opts.Client,
		"Submit the render to a running coordinator and save the result.")
	fs.StringVar(&opts.Address, "address", opts.Address,
		"Coordinator address. Defaults to port 51000 on the local interface.")
	fs.StringVar(&opts.Transport, "transport", opts.Transport,
		"Rpc transport, tcp or http.")
	fs.StringVar(&opts.SettingsFile, "settings", opts.SettingsFile,
		"Json file of coordinator settings (cache, heart beat, pool). Flags set on the command line override it.")
	fs.StringVar(&opts.MetricsAddress, "metrics-address", opts.MetricsAddress,
		"Address of the prometheus metrics endpoint in coordinator mode. Empty disables it.")

	fs.StringVar(&opts.ParametersFile, "parameters", opts.ParametersFile,
		"Json file of render parameters. Flags below override its values.")
	fs.IntVar(&opts.Threads, "threads", opts.Threads,
		"Number of bands to split a render into. Defaults to the number of cpus.")
	fs.IntVar(&opts.MaxWorkers, "max-workers", opts.MaxWorkers,
		"Maximum number of concurrent executors. Defaults to the number of cpus.")
	fs.IntVar(&opts.MinWorkers, "min-workers", opts.MinWorkers,
		"Executors started before the first render.")
	fs.BoolVar(&opts.Lifo, "lifo", opts.Lifo,
		"Run queued bands newest first.")
	fs.DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"How long to wait for a render to finish.")

	fs.StringVarP(&opts.Output, "output", "o", opts.Output,
		"Image file to write. The extension picks png or jpeg.")
	fs.StringVar(&opts.SavePath, "save-path", opts.SavePath,
		"Directory that holds run directories.")
	fs.StringVar(&opts.RunName, "run-name", opts.RunName,
		"Name of the run directory. Generated when empty.")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose,
		"Log debug output.")

	fs.Float64Var(&opts.A, "a", opts.A, "Real part of c.")
	fs.Float64Var(&opts.B, "b", opts.B, "Imaginary part of c.")
	fs.BoolVar(&opts.Mandelbrot, "mandelbrot", opts.Mandelbrot, "Render the mandelbrot set instead of a julia set.")
	fs.IntVar(&opts.PixelWidth, "pixel-width", opts.PixelWidth, "Image width in pixels.")
	fs.IntVar(&opts.PixelHeight, "pixel-height", opts.PixelHeight, "Image height in pixels. Derived from the width when 0.")
	fs.Float64Var(&opts.CenterX, "center-x", opts.CenterX, "Real coordinate of the image center.")
	fs.Float64Var(&opts.CenterY, "center-y", opts.CenterY, "Imaginary coordinate of the image center.")
	fs.Float64Var(&opts.Width, "width", opts.Width, "Width of the image on the real axis.")
	fs.IntVar(&opts.Iterations, "iterations", opts.Iterations, "Iteration limit per pixel.")
	fs.IntSliceVar(&opts.Color, "color", opts.Color, "Base color as r,g,b.")
}

// Complete performs post-processing of parsed command-line arguments.
func (opts *Options) Complete() error {
	if opts.RunName == "" {
		opts.RunName = fmt.Sprintf("run_%s", uuid.New().String()[:8])
	}
	return nil
}

// Validate checks the Options for invalid or conflicting values.
func (opts *Options) Validate() error {
	if opts.Client && opts.Coordinator {
		return errors.New("flags \"client\" and \"coordinator\" are mutually exclusive")
	}
	if _, err := coordinator.ParseTransport(opts.Transport); err != nil {
		return fmt.Errorf("invalid value %q for flag %q: %w", opts.Transport, "transport", err)
	}

	for _, c := range []struct {
		name  string
		value int
	}{
		{"threads", opts.Threads},
		{"max-workers", opts.MaxWorkers},
		{"min-workers", opts.MinWorkers},
	} {
		if c.value < 0 {
			return fmt.Errorf("invalid value %d for flag %q: must be >= 0", c.value, c.name)
		}
	}
	if opts.MaxWorkers > 0 && opts.MinWorkers > opts.MaxWorkers {
		return fmt.Errorf("min-workers (%d) must not exceed max-workers (%d)", opts.MinWorkers, opts.MaxWorkers)
	}
	if opts.Timeout <= 0 {
		return fmt.Errorf("invalid value %s for flag %q: must be positive", opts.Timeout, "timeout")
	}

	if len(opts.Color) != 3 {
		return fmt.Errorf("invalid value %v for flag %q: want r,g,b", opts.Color, "color")
	}
	for _, c := range opts.Color {
		if c < 0 || c > 255 {
			return fmt.Errorf("invalid value %v for flag %q: channels must be between 0 and 255", opts.Color, "color")
		}
	}

	if !opts.Coordinator && opts.RunName != filepath.Base(opts.RunName) {
		return fmt.Errorf("invalid value %q for flag %q: must not contain a path", opts.RunName, "run-name")
	}
	return nil
}

func (opts *Options) changed(name string) bool {
	return opts.fs != nil && opts.fs.Changed(name)
}

// Parameters loads the parameters file, if any, and applies the override flags on top of it.
func (opts *Options) Parameters() (task.Parameters, error) {
	p := task.DefaultParameters()
	if opts.ParametersFile != "" {
		err, fileBytes := misc.ReadFile(opts.ParametersFile)
		if err != nil {
			return p, fmt.Errorf("reading parameters: %w", err)
		}
		if err = json.Unmarshal(fileBytes, &p); err != nil {
			return p, fmt.Errorf("parsing parameters %s: %w", opts.ParametersFile, err)
		}
	}

	if opts.changed("a") {
		p.A = opts.A
	}
	if opts.changed("b") {
		p.B = opts.B
	}
	if opts.changed("mandelbrot") {
		p.Mandelbrot = opts.Mandelbrot
	}
	if opts.changed("pixel-width") {
		p.PixelWidth = opts.PixelWidth
	}
	if opts.changed("pixel-height") {
		p.PixelHeight = opts.PixelHeight
	}
	if opts.changed("center-x") {
		p.CenterX = opts.CenterX
	}
	if opts.changed("center-y") {
		p.CenterY = opts.CenterY
	}
	if opts.changed("width") {
		p.Width = opts.Width
	}
	if opts.changed("iterations") {
		p.IterationLimit = opts.Iterations
	}
	if opts.changed("color") {
		p.Red, p.Green, p.Blue = uint8(opts.Color[0]), uint8(opts.Color[1]), uint8(opts.Color[2])
	}
	return p, nil
}

func (opts *Options) PoolSettings() pool.Settings {
	order := pool.FIFO
	if opts.Lifo {
		order = pool.LIFO
	}
	return pool.Settings{
		MaxWorkers: opts.MaxWorkers,
		MinWorkers: opts.MinWorkers,
		Order:      order,
	}
}

// CoordinatorSettings loads the settings file, if any, and applies the transport and pool flags set on the
// command line on top of it.
func (opts *Options) CoordinatorSettings() (coordinator.Settings, error) {
	settings := coordinator.NewSettings(opts.SettingsFile)

	if opts.changed("address") {
		settings.ServerAddress = opts.Address
	}
	if opts.changed("transport") {
		transport, err := coordinator.ParseTransport(opts.Transport)
		if err != nil {
			return settings, err
		}
		settings.Transport = transport
	}
	if opts.changed("threads") {
		settings.Threads = opts.Threads
	}
	if opts.changed("max-workers") {
		settings.Pool.MaxWorkers = opts.MaxWorkers
	}
	if opts.changed("min-workers") {
		settings.Pool.MinWorkers = opts.MinWorkers
	}
	if opts.changed("lifo") {
		settings.Pool.Order = opts.PoolSettings().Order
	}
	return settings, settings.Verify()
}

func (opts *Options) RunDirectory() string {
	return filepath.Join(opts.SavePath, opts.RunName)
}

// OutputPath is where the rendered image goes.
func (opts *Options) OutputPath() string {
	if opts.Output != "" {
		return opts.Output
	}
	return filepath.Join(opts.RunDirectory(), "image.png")
}
