package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"JuliaRenderer/canvas"
	"JuliaRenderer/coordinator"
	"JuliaRenderer/metrics"
	"JuliaRenderer/misc"
	"JuliaRenderer/render"
)

func main() {
	opts := NewOptions()
	opts.AddFlags(pflag.CommandLine)
	pflag.Parse()

	misc.SetVerbose(opts.Verbose)
	logger := misc.NewLogger("Main")
	misc.CheckError(opts.Complete(), logger, misc.Fatal)
	misc.CheckError(opts.Validate(), logger, misc.Fatal)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case opts.Coordinator:
		err = runCoordinator(ctx, opts, logger)
	case opts.Client:
		err = runClient(ctx, opts, logger)
	default:
		err = runLocal(ctx, opts, logger)
	}
	misc.CheckError(err, logger, misc.Fatal)
}

// runLocal renders once in this process and saves the image into the run directory.
func runLocal(ctx context.Context, opts *Options, logger bslogger.Logger) error {
	parameters, err := opts.Parameters()
	if err != nil {
		return err
	}
	settings, err := parameters.Settings()
	if err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}

	// Keep the parameters next to the image so the run can be repeated
	runDirectory := opts.RunDirectory()
	backup, err := json.MarshalIndent(parameters, "", "  ")
	if err != nil {
		return err
	}
	if _, err = misc.WriteFile(filepath.Join(runDirectory, "parameters.json"), backup); err != nil {
		return fmt.Errorf("unable to back up parameters: %w", err)
	}

	logFile, err := os.Create(filepath.Join(runDirectory, "render.log"))
	if !misc.CheckError(err, logger, misc.Warning) {
		defer logFile.Close()
		misc.SetLogFile(logFile)
		defer misc.SetLogFile(nil)
		logger = misc.NewLogger("Main")
	}
	logger.Debug(parameters.String())

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	surface := canvas.NewCanvas()
	renderer := render.NewRenderer(surface, opts.PoolSettings())
	defer renderer.Close()

	start := time.Now()
	generation, err := renderer.Render(settings, threads)
	if err != nil {
		return err
	}
	logger.Infof("Rendering %s %dx%d in %d bands as generation %d",
		settings.Mode(), settings.PixelWidth, settings.PixelHeight, threads, generation)

	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err = surface.Wait(waitCtx); err != nil {
		painted, total := surface.Progress()
		return fmt.Errorf("render stopped with %d/%d rows painted: %w", painted, total, err)
	}
	logger.Infof("Rendered in %s", time.Since(start).Round(time.Millisecond))

	return surface.Save(opts.OutputPath())
}

// runCoordinator serves renders and metrics until ctx is cancelled.
func runCoordinator(ctx context.Context, opts *Options, logger bslogger.Logger) error {
	metrics.Register(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	settings, err := opts.CoordinatorSettings()
	if err != nil {
		return err
	}
	c := coordinator.NewCoordinator(settings)
	if err := c.Run(); err != nil {
		return err
	}
	logger.Infof("Coordinator %s serving over %s", c.Server.Name(), settings.Transport)

	group, ctx := errgroup.WithContext(ctx)

	var metricsServer *http.Server
	if opts.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              opts.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		logger.Infof("Metrics served at %s/metrics", opts.MetricsAddress)

		group.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownLogger := misc.NewLogger("Shutdown")
		shutdownLogger.Info("Shutting down")

		var metricsErr error
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsErr = metricsServer.Shutdown(shutdownCtx)
		}
		return misc.CheckErrors(shutdownLogger, misc.Warning, c.Stop(), metricsErr)
	})

	return group.Wait()
}

// runClient submits the render to a coordinator, waits for it and saves the export.
func runClient(ctx context.Context, opts *Options, logger bslogger.Logger) error {
	parameters, err := opts.Parameters()
	if err != nil {
		return err
	}
	settings, err := opts.CoordinatorSettings()
	if err != nil {
		return err
	}

	remote := coordinator.NewRemote(settings.Transport, settings.ServerAddress)
	if err = remote.Connect(); err != nil {
		return fmt.Errorf("connecting to %s: %w", settings.ServerAddress, err)
	}
	defer func() {
		misc.CheckError(remote.Disconnect(), logger, misc.Warning)
	}()

	reply, err := remote.Render(parameters, opts.Threads)
	if err != nil {
		return err
	}
	if reply.Cached {
		logger.Infof("Render %s is cached [%x]", reply.ID, reply.Fingerprint)
	} else {
		logger.Infof("Render %s started as generation %d [%x]", reply.ID, reply.Generation, reply.Fingerprint)

		waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
		status, err := remote.WaitComplete(waitCtx, reply.Generation, 100*time.Millisecond)
		if err != nil {
			return fmt.Errorf("waiting for render %s: %w", reply.ID, err)
		}
		logger.Debug(status.String())
	}

	image, err := remote.Export(reply.Fingerprint)
	if err != nil {
		return exportError(err, reply)
	}

	path := opts.OutputPath()
	if format := canvas.FormatFromPath(path); format != canvas.PNG {
		decoded, err := canvas.Decode(bytes.NewReader(image))
		if err != nil {
			return fmt.Errorf("decoding export: %w", err)
		}
		var buffer bytes.Buffer
		if err = canvas.Encode(&buffer, decoded, format); err != nil {
			return err
		}
		image = buffer.Bytes()
	}
	if _, err = misc.WriteFile(path, image); err != nil {
		return err
	}
	logger.Infof("Saved image to %s", path)
	return nil
}

// exportError explains the export failures a client can run into after its render finished.
func exportError(err error, reply coordinator.RenderReply) error {
	switch {
	case coordinator.RemoteError(err, coordinator.ErrUnknownRender):
		return fmt.Errorf("render %s [%x] was replaced by another render and is no longer cached: %w",
			reply.ID, reply.Fingerprint, err)
	case coordinator.RemoteError(err, coordinator.ErrRenderInProgress):
		return fmt.Errorf("render %s [%x] is being rendered again on the coordinator: %w",
			reply.ID, reply.Fingerprint, err)
	default:
		return fmt.Errorf("exporting render %s: %w", reply.ID, err)
	}
}
