package task

import (
	"fmt"
	"math"
)

// Parameters are the user facing inputs of a render. Settings are derived from them.
type Parameters struct {
	A              float64
	AspectX        float64
	AspectY        float64
	B              float64
	Blue           uint8
	CenterX        float64
	CenterY        float64
	Green          uint8
	IterationLimit int
	Mandelbrot     bool
	PixelHeight    int
	PixelWidth     int
	Red            uint8
	Width          float64
}

func DefaultParameters() Parameters {
	return Parameters{
		A:              0.377,
		AspectX:        1,
		AspectY:        1,
		B:              0.28,
		Blue:           0,
		CenterX:        0,
		CenterY:        0,
		Green:          128,
		IterationLimit: 1000,
		Mandelbrot:     false,
		PixelWidth:     2560,
		Red:            255,
		Width:          2.5,
	}
}

func (p *Parameters) String() string {
	output := "\nRender parameters\n"
	output += fmt.Sprintf("C: (%g, %g) Mandelbrot: %t\n", p.A, p.B, p.Mandelbrot)
	output += fmt.Sprintf("Center: (%g, %g) Width: %g\n", p.CenterX, p.CenterY, p.Width)
	output += fmt.Sprintf("Pixels: %dx%d Aspect: %g:%g\n", p.PixelWidth, p.PixelHeight, p.AspectX, p.AspectY)
	output += fmt.Sprintf("Color: (%d, %d, %d) IterationLimit: %d\n", p.Red, p.Green, p.Blue, p.IterationLimit)
	return output
}

// Verify fills in defaults for unset fields and rejects values that are not finite.
// A PixelHeight of zero is derived from PixelWidth and the aspect ratio.
func (p *Parameters) Verify() error {
	for name, v := range map[string]float64{
		"a": p.A, "b": p.B, "center x": p.CenterX, "center y": p.CenterY,
		"width": p.Width, "aspect x": p.AspectX, "aspect y": p.AspectY,
	} {
		if !finite(v) {
			return fmt.Errorf("%s: %w", name, ErrNotFinite)
		}
	}

	if p.Width <= 0 {
		p.Width = 2.5
	}
	if p.PixelWidth <= 0 {
		p.PixelWidth = 2560
	}
	if p.AspectX <= 0 {
		p.AspectX = 1
	}
	if p.AspectY <= 0 {
		p.AspectY = 1
	}
	if p.IterationLimit <= 0 {
		p.IterationLimit = 1000
	}
	if p.PixelHeight <= 0 {
		p.PixelHeight = AutoPixelHeight(p.PixelWidth, p.AspectX, p.AspectY)
	}
	return nil
}

// AutoPixelHeight is the pixel height that keeps pixelWidth at the aspect ratio aspectX:aspectY.
func AutoPixelHeight(pixelWidth int, aspectX float64, aspectY float64) int {
	height := int(math.Floor(float64(pixelWidth) / (aspectX / aspectY)))
	if height < 1 {
		return 1
	}
	return height
}

// Settings derives the render settings. The frame keeps square pixels so the
// cartesian height follows from Width and the pixel dimensions.
func (p *Parameters) Settings() (Settings, error) {
	if err := p.Verify(); err != nil {
		return Settings{}, err
	}

	ySize := p.Width / (float64(p.PixelWidth) / float64(p.PixelHeight))
	s := Settings{
		A:              p.A,
		B:              p.B,
		Blue:           p.Blue,
		Green:          p.Green,
		IterationLimit: p.IterationLimit,
		Mandelbrot:     p.Mandelbrot,
		PixelHeight:    p.PixelHeight,
		PixelWidth:     p.PixelWidth,
		Red:            p.Red,
		StepSize:       p.Width / float64(p.PixelWidth),
		XMin:           p.CenterX - p.Width/2,
		YMax:           p.CenterY + ySize/2,
	}
	return s, s.Verify()
}
