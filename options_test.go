package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JuliaRenderer/coordinator"
	"JuliaRenderer/pool"
	"JuliaRenderer/task"
)

func parseOptions(t *testing.T, args ...string) *Options {
	t.Helper()
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	require.NoError(t, opts.Complete())
	return opts
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "defaults"},
		{name: "coordinator", args: []string{"--coordinator", "--transport", "http"}},
		{name: "client with jpeg output", args: []string{"--client", "-o", "out.jpg"}},
		{name: "both modes", args: []string{"--client", "--coordinator"}, wantErr: "mutually exclusive"},
		{name: "unknown transport", args: []string{"--transport", "udp"}, wantErr: "transport"},
		{name: "negative threads", args: []string{"--threads", "-1"}, wantErr: "threads"},
		{name: "negative workers", args: []string{"--max-workers", "-2"}, wantErr: "max-workers"},
		{name: "min above max", args: []string{"--max-workers", "2", "--min-workers", "3"}, wantErr: "min-workers"},
		{name: "zero timeout", args: []string{"--timeout", "0s"}, wantErr: "timeout"},
		{name: "short color", args: []string{"--color", "1,2"}, wantErr: "color"},
		{name: "color out of range", args: []string{"--color", "1,2,256"}, wantErr: "color"},
		{name: "run name with path", args: []string{"--run-name", "../escape"}, wantErr: "run-name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseOptions(t, tt.args...).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptionsDefaultParameters(t *testing.T) {
	opts := parseOptions(t)
	p, err := opts.Parameters()
	require.NoError(t, err)
	if diff := cmp.Diff(task.DefaultParameters(), p); diff != "" {
		t.Errorf("Parameters() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsOverrideParameters(t *testing.T) {
	opts := parseOptions(t,
		"--a", "-0.8", "--b", "0.156", "--mandelbrot",
		"--pixel-width", "640", "--pixel-height", "480",
		"--center-x", "-0.5", "--center-y", "0.25", "--width", "3",
		"--iterations", "200", "--color", "10,20,30",
	)
	p, err := opts.Parameters()
	require.NoError(t, err)

	want := task.DefaultParameters()
	want.A, want.B, want.Mandelbrot = -0.8, 0.156, true
	want.PixelWidth, want.PixelHeight = 640, 480
	want.CenterX, want.CenterY, want.Width = -0.5, 0.25, 3
	want.IterationLimit = 200
	want.Red, want.Green, want.Blue = 10, 20, 30
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Parameters() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsParametersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parameters.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"A": 0.1, "PixelWidth": 100, "IterationLimit": 50}`), 0o644))

	opts := parseOptions(t, "--parameters", path, "--iterations", "75")
	p, err := opts.Parameters()
	require.NoError(t, err)

	assert.Equal(t, 0.1, p.A)
	assert.Equal(t, 100, p.PixelWidth)
	assert.Equal(t, 75, p.IterationLimit)
	assert.Equal(t, task.DefaultParameters().B, p.B)

	opts = parseOptions(t, "--parameters", filepath.Join(t.TempDir(), "missing.json"))
	_, err = opts.Parameters()
	assert.Error(t, err)
}

func TestOptionsSettings(t *testing.T) {
	opts := parseOptions(t, "--lifo", "--max-workers", "4", "--min-workers", "1",
		"--transport", "http", "--address", "127.0.0.1:7000", "--threads", "8")
	require.NoError(t, opts.Validate())

	assert.Equal(t, pool.Settings{MaxWorkers: 4, MinWorkers: 1, Order: pool.LIFO}, opts.PoolSettings())

	settings, err := opts.CoordinatorSettings()
	require.NoError(t, err)
	assert.Equal(t, coordinator.HTTP, settings.Transport)
	assert.Equal(t, "127.0.0.1:7000", settings.ServerAddress)
	assert.Equal(t, 8, settings.Threads)
	assert.Equal(t, pool.Settings{MaxWorkers: 4, MinWorkers: 1, Order: pool.LIFO}, settings.Pool)
}

func TestOptionsSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordinator.json")
	contents := `{"CacheCapacity": 4, "CacheTTL": 60000000000, "HeartBeat": 5000000000,
		"ServerAddress": "127.0.0.1:6000", "Threads": 6, "Transport": 1, "Pool": {"MaxWorkers": 3}}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	opts := parseOptions(t, "--settings", path, "--threads", "12", "--lifo")
	require.NoError(t, opts.Validate())
	settings, err := opts.CoordinatorSettings()
	require.NoError(t, err)

	assert.Equal(t, uint64(4), settings.CacheCapacity)
	assert.Equal(t, time.Minute, settings.CacheTTL)
	assert.Equal(t, 5*time.Second, settings.HeartBeat)
	assert.Equal(t, "127.0.0.1:6000", settings.ServerAddress)
	assert.Equal(t, coordinator.HTTP, settings.Transport)
	assert.Equal(t, 12, settings.Threads)
	assert.Equal(t, pool.Settings{MaxWorkers: 3, MinWorkers: 0, Order: pool.LIFO}, settings.Pool)
}

func TestOptionsOutputPath(t *testing.T) {
	opts := parseOptions(t, "--save-path", "out", "--run-name", "zoom")
	assert.Equal(t, filepath.Join("out", "zoom", "image.png"), opts.OutputPath())

	opts = parseOptions(t, "--output", "julia.jpg")
	assert.Equal(t, "julia.jpg", opts.OutputPath())
	assert.True(t, strings.HasPrefix(opts.RunName, "run_"))
	assert.Len(t, opts.RunName, len("run_")+8)
}
