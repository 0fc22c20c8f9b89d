package render

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BrugadaSyndrome/bslogger"

	"JuliaRenderer/fractal"
	"JuliaRenderer/metrics"
	"JuliaRenderer/misc"
	"JuliaRenderer/pool"
	"JuliaRenderer/task"
)

var ErrNoHistory = errors.New("no settings in that direction")

// Surface receives the bands of a render. Resize is called once per render before any band is dispatched.
// Paint may be called from another goroutine and in any band order.
type Surface interface {
	Resize(width int, height int, generation uint64)
	Paint(result task.Result) bool
}

// Renderer turns settings into bands, runs them on a pool and forwards finished bands to a Surface.
// Render does not wait for the bands; watch the Surface to know when an image is done.
type Renderer struct {
	generation uint64
	history    *History
	logger     bslogger.Logger // only used with mutex held
	mutex      sync.Mutex
	painter    bslogger.Logger // only used by the pool callback
	pool       *pool.Pool
	surface    Surface
}

func NewRenderer(surface Surface, settings pool.Settings) *Renderer {
	r := &Renderer{
		history: NewHistory(),
		logger:  misc.NewLogger("Renderer"),
		painter: misc.NewLogger("Painter"),
		surface: surface,
	}
	r.pool = pool.New(fractal.Render, r.paint, settings)
	return r
}

// paint runs on the pool's single callback goroutine.
func (r *Renderer) paint(result task.Result) {
	if !r.surface.Paint(result) {
		r.painter.Debugf("Surface dropped %s", result.String())
	}
}

// Render records settings in the history and starts rendering them in threads bands.
// The generation stamped on every band of the render is returned.
func (r *Renderer) Render(settings task.Settings, threads int) (uint64, error) {
	if err := settings.Verify(); err != nil {
		return 0, fmt.Errorf("invalid settings: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.history.Add(settings)
	return r.start(settings, threads, metrics.KindNew)
}

// Commit records settings in the history and makes them current without dispatching any band. The surface
// is resized for the returned generation and must be painted by the caller.
func (r *Renderer) Commit(settings task.Settings) (uint64, error) {
	if err := settings.Verify(); err != nil {
		return 0, fmt.Errorf("invalid settings: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.history.Add(settings)
	r.generation++
	r.surface.Resize(settings.PixelWidth, settings.PixelHeight, r.generation)
	metrics.RecordRender(metrics.KindCached, 0)

	r.logger.Infof("Committed generation %d without rendering", r.generation)
	return r.generation, nil
}

// Rewind re-renders the settings n steps back in the history.
func (r *Renderer) Rewind(n int, threads int) (uint64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.history.Rewind(n) {
		return 0, fmt.Errorf("rewind %d: %w", n, ErrNoHistory)
	}
	settings, _ := r.history.Current()
	return r.start(settings, threads, metrics.KindRewind)
}

// Advance re-renders the settings n steps forward in the history.
func (r *Renderer) Advance(n int, threads int) (uint64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.history.Advance(n) {
		return 0, fmt.Errorf("advance %d: %w", n, ErrNoHistory)
	}
	settings, _ := r.history.Current()
	return r.start(settings, threads, metrics.KindAdvance)
}

// start resizes the surface and dispatches the bands top to bottom. The caller holds the mutex.
func (r *Renderer) start(settings task.Settings, threads int, kind string) (uint64, error) {
	var startTime = time.Now()

	r.generation++
	generation := r.generation
	r.surface.Resize(settings.PixelWidth, settings.PixelHeight, generation)

	units := task.Partition(settings, threads)
	for i := range units {
		units[i].Generation = generation
		if err := r.pool.Dispatch(units[i]); err != nil {
			return generation, fmt.Errorf("dispatching band %d of generation %d: %w", i, generation, err)
		}
	}
	metrics.RecordRender(kind, len(units))

	r.logger.Infof("Rendering generation %d (%s) in %d bands", generation, kind, len(units))
	r.logger.Debugf("Dispatched %s in %s", settings.String(), time.Since(startTime))
	return generation, nil
}

// Current returns the settings of the most recent render, if there was one.
func (r *Renderer) Current() (task.Settings, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.history.Current()
}

func (r *Renderer) Generation() uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.generation
}

// HistoryLength returns how many renders can be rewound and advanced.
func (r *Renderer) HistoryLength() (int, int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.history.PastLength(), r.history.FutureLength()
}

// Busy reports whether any band is being computed.
func (r *Renderer) Busy() bool {
	return r.pool.IsWorking()
}

func (r *Renderer) Stats() pool.Stats {
	return r.pool.Stats()
}

func (r *Renderer) Close() {
	r.pool.Close()
}
