package task

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(pixelHeight int) Settings {
	return Settings{
		A:              0.377,
		B:              0.28,
		Blue:           0,
		Green:          128,
		IterationLimit: 100,
		PixelHeight:    pixelHeight,
		PixelWidth:     8,
		Red:            255,
		StepSize:       0.25,
		XMin:           -1,
		YMax:           2,
	}
}

func rowsOf(units []WorkUnit) []int {
	rows := make([]int, len(units))
	for i, u := range units {
		rows[i] = u.PixelHeight
	}
	return rows
}

func TestPartitionRows(t *testing.T) {
	tests := []struct {
		name        string
		pixelHeight int
		threads     int
		want        []int
	}{
		{name: "even split", pixelHeight: 1000, threads: 4, want: []int{250, 250, 250, 250}},
		{name: "one extra row", pixelHeight: 1001, threads: 4, want: []int{251, 250, 250, 250}},
		{name: "three extra rows", pixelHeight: 1003, threads: 4, want: []int{251, 251, 251, 250}},
		{name: "single thread", pixelHeight: 7, threads: 1, want: []int{7}},
		{name: "zero threads clamps to one", pixelHeight: 5, threads: 0, want: []int{5}},
		{name: "negative threads clamps to one", pixelHeight: 5, threads: -3, want: []int{5}},
		{name: "more threads than rows", pixelHeight: 3, threads: 8, want: []int{1, 1, 1}},
		{name: "one row per thread", pixelHeight: 4, threads: 4, want: []int{1, 1, 1, 1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			units := Partition(testSettings(test.pixelHeight), test.threads)
			if diff := cmp.Diff(test.want, rowsOf(units)); diff != "" {
				t.Errorf("Unexpected rows (-want +got): %v", diff)
			}
		})
	}
}

func TestPartitionTilesImage(t *testing.T) {
	for pixelHeight := 1; pixelHeight <= 40; pixelHeight++ {
		for threads := 1; threads <= 45; threads++ {
			s := testSettings(pixelHeight)
			units := Partition(s, threads)

			py := 0
			for i, u := range units {
				require.Equal(t, i, u.Band)
				require.Equal(t, py, u.PY, "height %d threads %d band %d", pixelHeight, threads, i)
				require.Positive(t, u.PixelHeight)
				assert.InDelta(t, s.YMax-s.StepSize*float64(u.PY), u.Y, 1e-9)
				py += u.PixelHeight
			}
			require.Equal(t, pixelHeight, py, "height %d threads %d", pixelHeight, threads)
		}
	}
}

func TestPartitionCopiesSettings(t *testing.T) {
	s := testSettings(10)
	s.Mandelbrot = true
	units := Partition(s, 3)
	require.Len(t, units, 3)

	for _, u := range units {
		assert.Equal(t, s.A, u.A)
		assert.Equal(t, s.B, u.B)
		assert.True(t, u.Mandelbrot)
		assert.Equal(t, s.XMin, u.X)
		assert.Equal(t, s.StepSize, u.StepSize)
		assert.Equal(t, s.PixelWidth, u.PixelWidth)
		assert.Equal(t, s.IterationLimit, u.IterationLimit)
		assert.Equal(t, [3]uint8{255, 128, 0}, [3]uint8{u.Red, u.Green, u.Blue})
		assert.Zero(t, u.Generation)
	}
	assert.Equal(t, 2.0, units[0].Y)
	assert.Equal(t, 1.0, units[1].Y)
	assert.Equal(t, 0.25, units[2].Y)
}

func TestPartitionEmptyImage(t *testing.T) {
	assert.Empty(t, Partition(testSettings(0), 4))
}
