package coordinator

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/google/uuid"

	"JuliaRenderer/canvas"
	"JuliaRenderer/misc"
	"JuliaRenderer/render"
	"JuliaRenderer/task"
)

var (
	ErrRenderInProgress = errors.New("render in progress")
	ErrUnknownRender    = errors.New("unknown render")
	ErrNothingRendered  = errors.New("nothing rendered yet")
)

type RenderRequest struct {
	Parameters task.Parameters
	Threads    int
}

type RenderReply struct {
	Cached      bool
	Fingerprint uint64
	Generation  uint64
	ID          string
	Settings    task.Settings
}

type StatusReply struct {
	Active      int
	Busy        bool
	Cached      int
	Complete    bool
	Fingerprint uint64
	Future      int
	Generation  uint64
	Past        int
	Queued      int
	RowsPainted int
	RowsTotal   int
	Slots       int
}

func (s *StatusReply) String() string {
	return fmt.Sprintf("Render [Generation: %d] [Rows: %d/%d] | Pool [Slots: %d] [Active: %d] [Queued: %d] | Cache [%d]",
		s.Generation, s.RowsPainted, s.RowsTotal, s.Slots, s.Active, s.Queued, s.Cached)
}

type ExportReply struct {
	Fingerprint uint64
	Image       []byte
}

// Coordinator owns one renderer and its canvas and exposes them over RPC.
// Its RPC methods are safe to call concurrently.
type Coordinator struct {
	cache       *ExportCache
	canvas      *canvas.Canvas
	fingerprint uint64
	generation  uint64
	logger      bslogger.Logger // only used with mutex held
	mutex       sync.Mutex
	renderer    *render.Renderer
	running     bool
	settings    Settings
	shutdown    chan struct{}
	stopOnce    sync.Once

	Server Server
}

func NewCoordinator(settings Settings) *Coordinator {
	logger := misc.NewLogger("Coordinator")
	misc.CheckError(settings.Verify(), logger, misc.Fatal)

	c := &Coordinator{
		cache:    NewExportCache(settings.CacheTTL, settings.CacheCapacity),
		canvas:   canvas.NewCanvas(),
		logger:   logger,
		settings: settings,
		shutdown: make(chan struct{}),
	}
	c.renderer = render.NewRenderer(c.canvas, settings.Pool)
	c.Server = NewServer(settings.Transport, c, settings.ServerAddress, "CoordinatorServer")
	return c
}

// Run starts serving RPC calls and the background tickers.
func (c *Coordinator) Run() error {
	if err := c.Server.Run(); err != nil {
		return fmt.Errorf("starting %s server at %s: %w", c.settings.Transport, c.settings.ServerAddress, err)
	}
	c.cache.Start()
	c.mutex.Lock()
	c.running = true
	c.mutex.Unlock()
	go c.tickers()
	return nil
}

// Stop shuts the server down and releases the renderer.
func (c *Coordinator) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.shutdown)
		c.cache.Stop()
		c.renderer.Close()

		c.mutex.Lock()
		running := c.running
		c.running = false
		c.mutex.Unlock()
		if running {
			err = c.Server.Stop()
		}
	})
	return err
}

func (c *Coordinator) tickers() {
	heartBeat := time.NewTicker(c.settings.HeartBeat)
	defer heartBeat.Stop()
	logger := misc.NewLogger("Coordinator")

	for {
		select {
		case <-c.shutdown:
			return
		case <-heartBeat.C:
			logger.Debug("Heart beat ticker")
			var status StatusReply
			misc.CheckError(c.Status(misc.Nothing{}, &status), logger, misc.Warning)
			logger.Info(status.String())
		}
	}
}

// Render starts rendering the requested parameters. Settings whose image is still cached become current
// without being rendered again.
func (c *Coordinator) Render(request RenderRequest, reply *RenderReply) error {
	settings, err := request.Parameters.Settings()
	if err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	threads := request.Threads
	if threads <= 0 {
		threads = c.settings.Threads
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	fingerprint := Fingerprint(settings)
	*reply = RenderReply{
		Fingerprint: fingerprint,
		ID:          uuid.New().String(),
		Settings:    settings,
	}
	if encoded, ok := c.cache.Get(fingerprint); ok {
		generation, err := c.restore(settings, encoded)
		if err != nil {
			return err
		}
		c.generation = generation
		c.fingerprint = fingerprint
		reply.Cached = true
		reply.Generation = generation
		c.logger.Infof("Render %s answered from cache as generation %d [%x]", reply.ID, generation, fingerprint)
		return nil
	}

	generation, err := c.renderer.Render(settings, threads)
	if err != nil {
		return err
	}
	c.generation = generation
	c.fingerprint = fingerprint
	reply.Generation = generation
	c.logger.Infof("Render %s started as generation %d [%x]", reply.ID, generation, fingerprint)
	return nil
}

// restore makes settings current and paints their cached image instead of rendering them.
// The caller holds the mutex.
func (c *Coordinator) restore(settings task.Settings, encoded []byte) (uint64, error) {
	decoded, err := canvas.Decode(bytes.NewReader(encoded))
	if err != nil {
		return 0, err
	}
	if decoded.Bounds().Dx() != settings.PixelWidth || decoded.Bounds().Dy() != settings.PixelHeight {
		return 0, fmt.Errorf("cached image is %dx%d, want %dx%d",
			decoded.Bounds().Dx(), decoded.Bounds().Dy(), settings.PixelWidth, settings.PixelHeight)
	}

	generation, err := c.renderer.Commit(settings)
	if err != nil {
		return 0, err
	}
	c.canvas.Paint(task.Result{
		Generation: generation,
		Pixels:     decoded.Pix,
		PixelWidth: decoded.Bounds().Dx(),
	})
	return generation, nil
}

// Undo renders the settings steps renders back.
func (c *Coordinator) Undo(steps int, reply *RenderReply) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.move(c.renderer.Rewind, steps, reply)
}

// Redo renders the settings steps renders forward.
func (c *Coordinator) Redo(steps int, reply *RenderReply) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.move(c.renderer.Advance, steps, reply)
}

// move walks the history with step and fills reply with the render it started. The caller holds the mutex.
func (c *Coordinator) move(step func(int, int) (uint64, error), steps int, reply *RenderReply) error {
	if steps <= 0 {
		steps = 1
	}
	generation, err := step(steps, c.settings.Threads)
	if err != nil {
		return err
	}
	settings, _ := c.renderer.Current()
	c.generation = generation
	c.fingerprint = Fingerprint(settings)
	*reply = RenderReply{
		Fingerprint: c.fingerprint,
		Generation:  generation,
		ID:          uuid.New().String(),
		Settings:    settings,
	}
	c.logger.Infof("History moved to generation %d [%x]", generation, c.fingerprint)
	return nil
}

func (c *Coordinator) Status(nothing misc.Nothing, reply *StatusReply) error {
	c.mutex.Lock()
	generation, fingerprint := c.generation, c.fingerprint
	c.mutex.Unlock()

	painted, total := c.canvas.Progress()
	past, future := c.renderer.HistoryLength()
	stats := c.renderer.Stats()
	*reply = StatusReply{
		Active:      stats.Active,
		Busy:        stats.Active > 0,
		Cached:      c.cache.Len(),
		Complete:    generation != 0 && c.canvas.Generation() == generation && painted == total,
		Fingerprint: fingerprint,
		Future:      future,
		Generation:  generation,
		Past:        past,
		Queued:      stats.Queued,
		RowsPainted: painted,
		RowsTotal:   total,
		Slots:       stats.Slots,
	}
	return nil
}

// Export returns the png of a render. A zero fingerprint means the current render. The current render can
// only be exported once it is complete; earlier renders only while they are cached.
func (c *Coordinator) Export(fingerprint uint64, reply *ExportReply) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if fingerprint == 0 {
		if c.generation == 0 {
			return ErrNothingRendered
		}
		fingerprint = c.fingerprint
	}
	if encoded, ok := c.cache.Get(fingerprint); ok {
		*reply = ExportReply{Fingerprint: fingerprint, Image: encoded}
		return nil
	}
	if fingerprint != c.fingerprint || c.generation == 0 {
		return ErrUnknownRender
	}

	snapshot, ok := c.canvas.CompletedSnapshot(c.generation)
	if !ok {
		return ErrRenderInProgress
	}
	encoded, err := encodePNG(snapshot)
	if err != nil {
		return err
	}
	c.cache.Set(fingerprint, encoded)
	*reply = ExportReply{Fingerprint: fingerprint, Image: encoded}
	c.logger.Infof("Exported generation %d [%x] %d bytes", c.generation, fingerprint, len(encoded))
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buffer bytes.Buffer
	if err := canvas.Encode(&buffer, img, canvas.PNG); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buffer.Bytes(), nil
}

func (c *Coordinator) RollCall(nothing misc.Nothing, present *bool) error {
	*present = true
	return nil
}
