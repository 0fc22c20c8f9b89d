package fractal

import (
	"image/color"

	"JuliaRenderer/misc"
	"JuliaRenderer/task"
)

// Boundary is the squared magnitude past which an orbit has escaped.
const Boundary = 4.0

var Interior = color.RGBA{R: 0, G: 0, B: 0, A: 255}

// EscapeTime iterates t' = t² + c starting at (x, y) and returns the zero based iteration at which
// the orbit left the radius 2 disc, or limit if it never did. In mandelbrot mode c is the starting point
// itself, otherwise c is (a, b).
func EscapeTime(x float64, y float64, a float64, b float64, mandelbrot bool, limit int) int {
	if mandelbrot {
		a, b = x, y
	}
	tx, ty := x, y
	for i := 0; i < limit; i++ {
		tx, ty = tx*tx-ty*ty+a, 2*tx*ty+b
		if tx*tx+ty*ty > Boundary {
			return i
		}
	}
	return limit
}

// Shade maps an iteration count to a colour. Points that never escaped are black, the rest scale the base
// colour by an intensity that saturates once iterations reach a quarter of the limit.
func Shade(iterations int, limit int, red uint8, green uint8, blue uint8) color.RGBA {
	if iterations >= limit {
		return Interior
	}
	intensity := misc.ClampFloat64(255*float64(iterations)*4/float64(limit), 0, 255) / 255
	return color.RGBA{
		R: misc.ClampUint8(misc.LerpFloat64(0, float64(red), intensity)),
		G: misc.ClampUint8(misc.LerpFloat64(0, float64(green), intensity)),
		B: misc.ClampUint8(misc.LerpFloat64(0, float64(blue), intensity)),
		A: 255,
	}
}

// Render computes every pixel of the band described by unit.
func Render(unit task.WorkUnit) task.Result {
	result := task.NewResult(unit)
	i := 0
	for row := 0; row < unit.PixelHeight; row++ {
		y := unit.Y - float64(row)*unit.StepSize
		for px := 0; px < unit.PixelWidth; px++ {
			x := unit.X + float64(px)*unit.StepSize
			iterations := EscapeTime(x, y, unit.A, unit.B, unit.Mandelbrot, unit.IterationLimit)
			c := Shade(iterations, unit.IterationLimit, unit.Red, unit.Green, unit.Blue)
			result.Pixels[i] = c.R
			result.Pixels[i+1] = c.G
			result.Pixels[i+2] = c.B
			result.Pixels[i+3] = c.A
			i += 4
		}
	}
	return result
}
