package task

import "fmt"

// Result is a computed band. Pixels holds PixelWidth*rows RGBA quadruplets, row-major, top row first.
type Result struct {
	Band       int
	Generation uint64
	Pixels     []byte
	PixelWidth int
	PY         int
}

func NewResult(unit WorkUnit) Result {
	return Result{
		Band:       unit.Band,
		Generation: unit.Generation,
		Pixels:     make([]byte, unit.Pixels()*4),
		PixelWidth: unit.PixelWidth,
		PY:         unit.PY,
	}
}

// Rows is derived from the length of Pixels.
func (r *Result) Rows() int {
	if r.PixelWidth <= 0 {
		return 0
	}
	return len(r.Pixels) / (r.PixelWidth * 4)
}

func (r *Result) String() string {
	output := "{Result "
	output += fmt.Sprintf("Generation: %d ", r.Generation)
	output += fmt.Sprintf("Band: %d ", r.Band)
	output += fmt.Sprintf("PY: %d ", r.PY)
	output += fmt.Sprintf("Rows: %d}", r.Rows())
	return output
}
