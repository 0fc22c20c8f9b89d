package pool

import (
	"fmt"
	"time"

	"github.com/BrugadaSyndrome/bslogger"

	"JuliaRenderer/metrics"
	"JuliaRenderer/misc"
	"JuliaRenderer/task"
)

// slot is one executor goroutine. busy and the work channel are guarded by the pool mutex on the sending side.
type slot struct {
	busy     bool
	id       int
	logger   bslogger.Logger
	work     chan task.WorkUnit
	unitsRun int
}

type completion struct {
	result task.Result
	slot   *slot
}

func newSlot(id int) *slot {
	return &slot{
		id:     id,
		logger: misc.NewLogger(fmt.Sprintf("Executor %d", id)),
		work:   make(chan task.WorkUnit, 1),
	}
}

// run processes units until the work channel is closed. A unit whose executor panics produces no completion,
// which leaves the slot busy for the rest of the pool's life.
func (s *slot) run(executor Executor, completions chan<- completion, done <-chan struct{}) {
	s.logger.Debug("Processing tasks")
	var startTime = time.Now()

	for unit := range s.work {
		result, ok := s.execute(executor, unit)
		if !ok {
			continue
		}
		s.unitsRun++

		select {
		case completions <- completion{result: result, slot: s}:
		case <-done:
			s.logger.Debugf("Dropping %s, pool closed", unit.String())
		}
	}

	s.logger.Debugf("Done processing %d tasks in %s", s.unitsRun, time.Since(startTime))
}

func (s *slot) execute(executor Executor, unit task.WorkUnit) (result task.Result, ok bool) {
	startTime := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Executor failed on %s: %v", unit.String(), r)
			metrics.RecordExecution(metrics.OutcomePanic, time.Since(startTime))
			ok = false
		}
	}()

	result = executor(unit)
	elapsed := time.Since(startTime)
	metrics.RecordExecution(metrics.OutcomeSuccess, elapsed)
	s.logger.Debugf("Computed %s in %s", unit.String(), elapsed)
	return result, true
}
