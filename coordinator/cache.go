package coordinator

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"

	"JuliaRenderer/metrics"
	"JuliaRenderer/task"
)

// Fingerprint identifies the image a set of settings renders to. Equal settings give equal fingerprints.
func Fingerprint(s task.Settings) uint64 {
	buffer := make([]byte, 0, 80)
	for _, v := range []float64{s.A, s.B, s.StepSize, s.XMin, s.YMax} {
		buffer = binary.LittleEndian.AppendUint64(buffer, math.Float64bits(v))
	}
	for _, v := range []int{s.IterationLimit, s.PixelWidth, s.PixelHeight} {
		buffer = binary.LittleEndian.AppendUint64(buffer, uint64(v))
	}
	var mandelbrot byte
	if s.Mandelbrot {
		mandelbrot = 1
	}
	buffer = append(buffer, s.Red, s.Green, s.Blue, mandelbrot)
	return xxhash.Sum64(buffer)
}

// ExportCache keeps encoded images by fingerprint for a limited time.
type ExportCache struct {
	cache   *ttlcache.Cache[uint64, []byte]
	mutex   sync.Mutex
	running bool
}

func NewExportCache(ttl time.Duration, capacity uint64) *ExportCache {
	return &ExportCache{
		cache: ttlcache.New[uint64, []byte](
			ttlcache.WithTTL[uint64, []byte](ttl),
			ttlcache.WithCapacity[uint64, []byte](capacity),
		),
	}
}

func (e *ExportCache) Get(fingerprint uint64) ([]byte, bool) {
	item := e.cache.Get(fingerprint)
	metrics.RecordCacheLookup(item != nil)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Has reports whether fingerprint is cached without extending its lifetime.
func (e *ExportCache) Has(fingerprint uint64) bool {
	return e.cache.Has(fingerprint)
}

func (e *ExportCache) Set(fingerprint uint64, image []byte) {
	e.cache.Set(fingerprint, image, ttlcache.DefaultTTL)
}

func (e *ExportCache) Len() int {
	return e.cache.Len()
}

// Start removes expired images in the background until Stop is called.
func (e *ExportCache) Start() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.running {
		return
	}
	e.running = true
	go e.cache.Start()
}

// Stop ends the background cleanup. It is a no-op if Start was not called.
func (e *ExportCache) Stop() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if !e.running {
		return
	}
	e.running = false
	e.cache.Stop()
}
