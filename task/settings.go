package task

import (
	"errors"
	"fmt"
	"math"
)

// Settings is the committed, immutable description of one render. A new render gets a new Settings value.
type Settings struct {
	A              float64
	B              float64
	Blue           uint8
	Green          uint8
	IterationLimit int
	Mandelbrot     bool
	PixelHeight    int
	PixelWidth     int
	Red            uint8
	StepSize       float64
	XMin           float64
	YMax           float64
}

func (s *Settings) String() string {
	output := "{Settings "
	output += fmt.Sprintf("Mode: %s ", s.Mode())
	output += fmt.Sprintf("C: (%g, %g) ", s.A, s.B)
	output += fmt.Sprintf("Size: %dx%d ", s.PixelWidth, s.PixelHeight)
	output += fmt.Sprintf("Origin: (%g, %g) ", s.XMin, s.YMax)
	output += fmt.Sprintf("StepSize: %g ", s.StepSize)
	output += fmt.Sprintf("Color: (%d, %d, %d) ", s.Red, s.Green, s.Blue)
	output += fmt.Sprintf("IterationLimit: %d}", s.IterationLimit)
	return output
}

func (s *Settings) Mode() string {
	if s.Mandelbrot {
		return "mandelbrot"
	}
	return "julia"
}

// Verify rejects settings the kernel cannot render. Unlike Parameters it fills in no defaults.
func (s *Settings) Verify() error {
	if s.PixelWidth < 1 {
		return fmt.Errorf("pixel width must be at least 1, got %d", s.PixelWidth)
	}
	if s.PixelHeight < 1 {
		return fmt.Errorf("pixel height must be at least 1, got %d", s.PixelHeight)
	}
	if s.IterationLimit < 1 {
		return fmt.Errorf("iteration limit must be at least 1, got %d", s.IterationLimit)
	}
	if !finite(s.StepSize) || s.StepSize <= 0 {
		return fmt.Errorf("step size must be a positive finite number, got %g", s.StepSize)
	}
	for name, v := range map[string]float64{"a": s.A, "b": s.B, "x min": s.XMin, "y max": s.YMax} {
		if !finite(v) {
			return fmt.Errorf("%s must be finite, got %g", name, v)
		}
	}
	return nil
}

var ErrNotFinite = errors.New("value is not finite")

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
