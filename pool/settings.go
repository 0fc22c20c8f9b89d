package pool

import (
	"fmt"
	"runtime"
)

const (
	FIFO QueueOrder = iota
	LIFO
)

// QueueOrder decides which queued work unit is handed out when an executor frees up.
type QueueOrder int

func (o QueueOrder) String() string {
	if o < FIFO || o > LIFO {
		return "Unknown"
	}
	return []string{
		"FIFO", "LIFO",
	}[o]
}

type Settings struct {
	MaxWorkers int
	MinWorkers int
	Order      QueueOrder
}

func (s *Settings) String() string {
	output := "\nPool settings\n"
	output += fmt.Sprintf("Max Workers: %d\n", s.MaxWorkers)
	output += fmt.Sprintf("Min Workers: %d\n", s.MinWorkers)
	output += fmt.Sprintf("Order: %s\n", s.Order)
	return output
}

// Verify replaces out of range values with defaults. It never fails.
func (s *Settings) Verify() error {
	if s.MaxWorkers <= 0 {
		s.MaxWorkers = runtime.NumCPU()
	}
	if s.MinWorkers < 0 {
		s.MinWorkers = 0
	}
	if s.MinWorkers > s.MaxWorkers {
		s.MinWorkers = s.MaxWorkers
	}
	if s.Order < FIFO || s.Order > LIFO {
		s.Order = FIFO
	}
	return nil
}
