package coordinator

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JuliaRenderer/pool"
	"JuliaRenderer/task"
)

func TestSettingsVerifyDefaults(t *testing.T) {
	var s Settings
	require.NoError(t, s.Verify())

	assert.Equal(t, uint64(16), s.CacheCapacity)
	assert.Equal(t, 10*time.Minute, s.CacheTTL)
	assert.Equal(t, 30*time.Second, s.HeartBeat)
	assert.Equal(t, runtime.NumCPU(), s.Threads)
	assert.Equal(t, TCP, s.Transport)
	assert.Equal(t, runtime.NumCPU(), s.Pool.MaxWorkers)
	assert.Contains(t, s.ServerAddress, ":51000")
}

func TestNewSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordinator.json")
	contents := `{"ServerAddress": "127.0.0.1:6000", "Threads": 6, "Transport": 1, "Pool": {"MaxWorkers": 3, "MinWorkers": 1, "Order": 1}}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	s := NewSettings(path)
	assert.Equal(t, "127.0.0.1:6000", s.ServerAddress)
	assert.Equal(t, 6, s.Threads)
	assert.Equal(t, HTTP, s.Transport)
	assert.Equal(t, pool.Settings{MaxWorkers: 3, MinWorkers: 1, Order: pool.LIFO}, s.Pool)
}

func TestParseTransport(t *testing.T) {
	transport, err := ParseTransport("HTTP")
	require.NoError(t, err)
	assert.Equal(t, HTTP, transport)

	transport, err = ParseTransport("tcp")
	require.NoError(t, err)
	assert.Equal(t, TCP, transport)

	_, err = ParseTransport("udp")
	assert.Error(t, err)
	assert.Equal(t, "Unknown", Transport(5).String())
}

func TestFingerprint(t *testing.T) {
	p := task.DefaultParameters()
	a, err := p.Settings()
	require.NoError(t, err)
	b := a

	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	changes := []func(s *task.Settings){
		func(s *task.Settings) { s.A += 0.001 },
		func(s *task.Settings) { s.Mandelbrot = true },
		func(s *task.Settings) { s.PixelHeight++ },
		func(s *task.Settings) { s.Blue = 1 },
		func(s *task.Settings) { s.IterationLimit = 7 },
	}
	for i, change := range changes {
		c := a
		change(&c)
		assert.NotEqual(t, Fingerprint(a), Fingerprint(c), "change %d", i)
	}
}

func TestExportCache(t *testing.T) {
	cache := NewExportCache(50*time.Millisecond, 2)
	cache.Start()
	defer cache.Stop()

	cache.Set(1, []byte("one"))
	image, ok := cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), image)
	assert.True(t, cache.Has(1))

	_, ok = cache.Get(2)
	assert.False(t, ok)

	cache.Set(2, []byte("two"))
	cache.Set(3, []byte("three"))
	assert.Equal(t, 2, cache.Len())

	assert.Eventually(t, func() bool {
		return !cache.Has(3) && cache.Len() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestExportCacheStopWithoutStart(t *testing.T) {
	cache := NewExportCache(time.Minute, 1)
	assert.NotPanics(t, cache.Stop)
}
