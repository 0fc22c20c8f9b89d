package task

// Partition splits the image described by s into threads horizontal bands ordered top to bottom.
// threads is clamped into [1, s.PixelHeight]. The first PixelHeight%threads bands get one extra row.
func Partition(s Settings, threads int) []WorkUnit {
	if s.PixelHeight < 1 {
		return nil
	}
	if threads < 1 {
		threads = 1
	}
	if threads > s.PixelHeight {
		threads = s.PixelHeight
	}

	base := s.PixelHeight / threads
	remainder := s.PixelHeight - base*threads

	units := make([]WorkUnit, 0, threads)
	y := s.YMax
	py := 0
	for i := 0; i < threads; i++ {
		rows := base
		if i < remainder {
			rows++
		}
		units = append(units, WorkUnit{
			A:              s.A,
			B:              s.B,
			Band:           i,
			Blue:           s.Blue,
			Green:          s.Green,
			IterationLimit: s.IterationLimit,
			Mandelbrot:     s.Mandelbrot,
			PixelHeight:    rows,
			PixelWidth:     s.PixelWidth,
			PY:             py,
			Red:            s.Red,
			StepSize:       s.StepSize,
			X:              s.XMin,
			Y:              y,
		})
		y -= s.StepSize * float64(rows)
		py += rows
	}
	return units
}
