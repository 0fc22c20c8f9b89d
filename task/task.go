package task

import "fmt"

// WorkUnit describes one horizontal band of an image. It is everything an executor needs to compute the band.
type WorkUnit struct {
	A              float64
	B              float64
	Band           int
	Blue           uint8
	Generation     uint64
	Green          uint8
	IterationLimit int
	Mandelbrot     bool
	PixelHeight    int // rows in this band
	PixelWidth     int
	PY             int // first row of the band in the full image
	Red            uint8
	StepSize       float64
	X              float64 // cartesian x of the left column
	Y              float64 // cartesian y of the top row
}

func (u *WorkUnit) String() string {
	output := "{WorkUnit "
	output += fmt.Sprintf("Generation: %d ", u.Generation)
	output += fmt.Sprintf("Band: %d ", u.Band)
	output += fmt.Sprintf("PY: %d ", u.PY)
	output += fmt.Sprintf("Rows: %d ", u.PixelHeight)
	output += fmt.Sprintf("Origin: (%g, %g)}", u.X, u.Y)
	return output
}

// Pixels is the number of pixels in the band.
func (u *WorkUnit) Pixels() int {
	return u.PixelWidth * u.PixelHeight
}
