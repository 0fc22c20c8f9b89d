package fractal

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JuliaRenderer/task"
)

func smallUnit(mandelbrot bool) task.WorkUnit {
	return task.WorkUnit{
		A:              0.377,
		B:              0.28,
		Blue:           0,
		Green:          128,
		IterationLimit: 10,
		Mandelbrot:     mandelbrot,
		PixelHeight:    2,
		PixelWidth:     4,
		Red:            255,
		StepSize:       0.5,
		X:              -1,
		Y:              1,
	}
}

func flatten(colors ...color.RGBA) []byte {
	pixels := make([]byte, 0, len(colors)*4)
	for _, c := range colors {
		pixels = append(pixels, c.R, c.G, c.B, c.A)
	}
	return pixels
}

var (
	black  = color.RGBA{A: 255}
	dim    = color.RGBA{R: 102, G: 51, A: 255}
	bright = color.RGBA{R: 204, G: 102, A: 255}
	full   = color.RGBA{R: 255, G: 128, A: 255}
)

func TestRenderJulia(t *testing.T) {
	result := Render(smallUnit(false))

	want := flatten(
		dim, black, full, bright,
		bright, black, black, black,
	)
	if diff := cmp.Diff(want, result.Pixels); diff != "" {
		t.Errorf("Unexpected pixels (-want +got): %v", diff)
	}
	assert.Equal(t, 2, result.Rows())
}

func TestRenderMandelbrot(t *testing.T) {
	result := Render(smallUnit(true))

	want := flatten(
		dim, bright, black, black,
		full, black, black, full,
	)
	if diff := cmp.Diff(want, result.Pixels); diff != "" {
		t.Errorf("Unexpected pixels (-want +got): %v", diff)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	unit := smallUnit(false)
	unit.PixelWidth = 64
	unit.PixelHeight = 16
	unit.StepSize = 2.5 / 64
	unit.IterationLimit = 200

	first := Render(unit)
	second := Render(unit)
	assert.Equal(t, first.Pixels, second.Pixels)
}

func TestRenderCopiesIdentity(t *testing.T) {
	unit := smallUnit(false)
	unit.Band = 3
	unit.Generation = 11
	unit.PY = 40

	result := Render(unit)
	assert.Equal(t, 3, result.Band)
	assert.Equal(t, uint64(11), result.Generation)
	assert.Equal(t, 40, result.PY)
	assert.Equal(t, 4, result.PixelWidth)
	assert.Len(t, result.Pixels, 4*2*4)
}

func TestEscapeTime(t *testing.T) {
	tests := []struct {
		name       string
		x, y, a, b float64
		mandelbrot bool
		limit      int
		want       int
	}{
		{name: "origin is interior", x: 0, y: 0, mandelbrot: true, limit: 50, want: 50},
		{name: "minus one is interior", x: -1, y: 0, mandelbrot: true, limit: 50, want: 50},
		{name: "far point escapes at once", x: 2, y: 2, mandelbrot: true, limit: 50, want: 0},
		{name: "julia point", x: -1, y: 1, a: 0.377, b: 0.28, limit: 10, want: 1},
		{name: "zero limit", x: 0, y: 0, mandelbrot: true, limit: 0, want: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := EscapeTime(test.x, test.y, test.a, test.b, test.mandelbrot, test.limit)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestEscapeTimeStableAcrossLimits(t *testing.T) {
	for _, mandelbrot := range []bool{false, true} {
		for gx := 0; gx <= 40; gx++ {
			for gy := 0; gy <= 40; gy++ {
				x := -2 + float64(gx)*0.1
				y := -2 + float64(gy)*0.1
				previous := EscapeTime(x, y, 0.377, 0.28, mandelbrot, 1)
				for limit := 2; limit <= 300; limit++ {
					iterations := EscapeTime(x, y, 0.377, 0.28, mandelbrot, limit)
					if iterations < previous {
						t.Fatalf("mandelbrot=%t (%g, %g): limit %d gave %d, below %d at limit %d",
							mandelbrot, x, y, limit, iterations, previous, limit-1)
					}
					if previous < limit-1 && iterations != previous {
						t.Fatalf("mandelbrot=%t (%g, %g): escaped at %d under limit %d but %d under limit %d",
							mandelbrot, x, y, previous, limit-1, iterations, limit)
					}
					previous = iterations
				}
			}
		}
	}
}

func TestShade(t *testing.T) {
	assert.Equal(t, Interior, Shade(100, 100, 255, 255, 255))
	assert.Equal(t, color.RGBA{A: 255}, Shade(0, 100, 255, 255, 255))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, Shade(25, 100, 255, 255, 255))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, Shade(99, 100, 255, 255, 255))
	assert.Equal(t, color.RGBA{R: 20, G: 0, B: 40, A: 255}, Shade(1, 20, 100, 0, 200))
}

func TestShadeMonotonic(t *testing.T) {
	const limit = 400
	previous := Shade(0, limit, 255, 128, 64)
	for i := 1; i < limit; i++ {
		c := Shade(i, limit, 255, 128, 64)
		require.GreaterOrEqual(t, c.R, previous.R, "iteration %d", i)
		require.GreaterOrEqual(t, c.G, previous.G, "iteration %d", i)
		require.GreaterOrEqual(t, c.B, previous.B, "iteration %d", i)
		require.Equal(t, uint8(255), c.A)
		previous = c
	}
}

func TestRenderInteriorIsBlack(t *testing.T) {
	unit := task.WorkUnit{
		IterationLimit: 30,
		Mandelbrot:     true,
		PixelHeight:    1,
		PixelWidth:     3,
		Red:            255,
		Green:          255,
		Blue:           255,
		StepSize:       0.25,
		X:              -0.25,
		Y:              0,
	}
	result := Render(unit)
	assert.Equal(t, flatten(black, black, black), result.Pixels)
}
