package canvas

import (
	"context"
	"image"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"

	"JuliaRenderer/misc"
	"JuliaRenderer/task"
)

// Canvas assembles bands into one image. Bands may arrive in any order and from any goroutine.
// Only bands of the current generation are painted.
type Canvas struct {
	done       chan struct{}
	generation uint64
	image      *image.RGBA
	logger     bslogger.Logger // only used with mutex held
	mutex      sync.RWMutex
	painted    []bool
	rowsLeft   int
}

func NewCanvas() *Canvas {
	c := &Canvas{
		done:   make(chan struct{}),
		image:  image.NewRGBA(image.Rectangle{}),
		logger: misc.NewLogger("Canvas"),
	}
	close(c.done)
	return c
}

// Resize replaces the image with a cleared one of the given size and starts tracking generation.
func (c *Canvas) Resize(width int, height int, generation uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.image = image.NewRGBA(image.Rect(0, 0, width, height))
	c.generation = generation
	c.painted = make([]bool, height)
	c.rowsLeft = height
	c.done = make(chan struct{})
	if c.rowsLeft == 0 {
		close(c.done)
	}
	c.logger.Debugf("Resized to %dx%d for generation %d", width, height, generation)
}

// Paint copies the rows of result into place at result.PY. Results from another generation, with a
// different width or reaching outside the image are dropped. Paint reports whether the band was painted.
func (c *Canvas) Paint(result task.Result) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if result.Generation != c.generation {
		c.logger.Debugf("Dropping stale %s, current generation is %d", result.String(), c.generation)
		return false
	}
	bounds := c.image.Bounds()
	rows := result.Rows()
	if result.PixelWidth != bounds.Dx() || result.PY < 0 || result.PY+rows > bounds.Dy() || len(result.Pixels) != rows*result.PixelWidth*4 {
		c.logger.Warningf("Dropping %s, it does not fit a %dx%d image", result.String(), bounds.Dx(), bounds.Dy())
		return false
	}

	rowBytes := result.PixelWidth * 4
	for r := 0; r < rows; r++ {
		y := result.PY + r
		copy(c.image.Pix[y*c.image.Stride:y*c.image.Stride+rowBytes], result.Pixels[r*rowBytes:(r+1)*rowBytes])
		if !c.painted[y] {
			c.painted[y] = true
			c.rowsLeft--
		}
	}

	// All rows have been recorded so the image is complete
	if c.rowsLeft == 0 && rows > 0 {
		select {
		case <-c.done:
		default:
			close(c.done)
			c.logger.Debugf("Generation %d complete", c.generation)
		}
	}
	return true
}

// Wait blocks until every row of the current generation is painted or ctx is done.
func (c *Canvas) Wait(ctx context.Context) error {
	c.mutex.RLock()
	done := c.done
	c.mutex.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Canvas) Complete() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.rowsLeft == 0
}

// Progress returns the painted and total row counts of the current generation.
func (c *Canvas) Progress() (int, int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.painted) - c.rowsLeft, len(c.painted)
}

func (c *Canvas) Generation() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.generation
}

// Snapshot returns a copy of the image as it is now.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.snapshot()
}

// CompletedSnapshot returns a copy of the image only if generation is current and fully painted.
func (c *Canvas) CompletedSnapshot(generation uint64) (*image.RGBA, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if generation != c.generation || c.rowsLeft != 0 {
		return nil, false
	}
	return c.snapshot(), true
}

func (c *Canvas) snapshot() *image.RGBA {
	snapshot := image.NewRGBA(c.image.Bounds())
	copy(snapshot.Pix, c.image.Pix)
	return snapshot
}
