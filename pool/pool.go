package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"

	"JuliaRenderer/metrics"
	"JuliaRenderer/misc"
	"JuliaRenderer/task"
)

// Executor computes one band. It runs on an executor goroutine and must not touch shared state.
type Executor func(unit task.WorkUnit) task.Result

// Callback receives every result exactly once. Calls are made one at a time from a single goroutine.
type Callback func(result task.Result)

var ErrClosed = errors.New("pool is closed")

type Stats struct {
	Active     int
	MaxWorkers int
	Queued     int
	Slots      int
}

func (s Stats) String() string {
	return fmt.Sprintf("Slots [Created: %d/%d] [Active: %d] | Queue [%d]", s.Slots, s.MaxWorkers, s.Active, s.Queued)
}

// Pool runs work units on at most MaxWorkers executor goroutines. Units that find no idle executor wait
// in a queue and are handed out one per completion.
type Pool struct {
	active      int
	callback    Callback
	closed      bool
	completions chan completion
	done        chan struct{}
	executor    Executor
	logger      bslogger.Logger // only used with mutex held
	mutex       sync.Mutex
	queue       []task.WorkUnit
	settings    Settings
	slots       []*slot
}

func New(executor Executor, callback Callback, settings Settings) *Pool {
	misc.CheckError(settings.Verify(), misc.NewLogger("PoolSettings"), misc.Warning)

	p := &Pool{
		callback:    callback,
		completions: make(chan completion, settings.MaxWorkers),
		done:        make(chan struct{}),
		executor:    executor,
		logger:      misc.NewLogger("Pool"),
		settings:    settings,
	}
	p.mutex.Lock()
	p.logger.Debug(p.settings.String())
	p.createExecutors(settings.MinWorkers)
	p.mutex.Unlock()

	go p.collect()

	return p
}

// createExecutors starts up to n executors without exceeding MaxWorkers and returns how many were started.
// The caller holds the mutex.
func (p *Pool) createExecutors(n int) int {
	room := p.settings.MaxWorkers - len(p.slots)
	if n > room {
		n = room
	}
	for i := 0; i < n; i++ {
		s := newSlot(len(p.slots))
		p.slots = append(p.slots, s)
		go s.run(p.executor, p.completions, p.done)
	}
	if n > 0 {
		p.logger.Debugf("Started %d executors, %d total", n, len(p.slots))
		p.record()
	}
	if n < 0 {
		return 0
	}
	return n
}

// Dispatch hands unit to the first idle executor, starting a new one if the pool is below capacity.
// Otherwise the unit is queued. Dispatch never waits for an executor.
func (p *Pool) Dispatch(unit task.WorkUnit) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return ErrClosed
	}

	// Keep queued units ahead of new arrivals.
	if len(p.queue) > 0 || !p.place(unit) {
		p.queue = append(p.queue, unit)
		metrics.RecordDispatch(metrics.PlacementQueue)
		p.record()
	}
	return nil
}

// place scans the slots in creation order. If none is idle and there is room, one slot is created
// and the scan is repeated once. The caller holds the mutex.
func (p *Pool) place(unit task.WorkUnit) bool {
	for attempt := 0; attempt < 2; attempt++ {
		for _, s := range p.slots {
			if s.busy {
				continue
			}
			s.busy = true
			p.active++
			s.work <- unit
			metrics.RecordDispatch(metrics.PlacementSlot)
			p.record()
			return true
		}
		if p.createExecutors(1) == 0 {
			return false
		}
	}
	return false
}

func (p *Pool) collect() {
	for {
		select {
		case <-p.done:
			return
		case c := <-p.completions:
			p.complete(c)
		}
	}
}

func (p *Pool) complete(c completion) {
	p.mutex.Lock()
	c.slot.busy = false
	p.active--
	p.record()
	p.mutex.Unlock()

	p.callback(c.result)

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed || len(p.queue) == 0 {
		return
	}

	var unit task.WorkUnit
	last := len(p.queue) - 1
	if p.settings.Order == LIFO {
		unit = p.queue[last]
		p.queue = p.queue[:last]
	} else {
		unit = p.queue[0]
		p.queue = p.queue[1:]
	}

	if !p.place(unit) {
		// Every slot was taken again while the callback ran.
		if p.settings.Order == LIFO {
			p.queue = append(p.queue, unit)
		} else {
			p.queue = append([]task.WorkUnit{unit}, p.queue...)
		}
	}
	p.record()
}

// record publishes the pool state. The caller holds the mutex.
func (p *Pool) record() {
	metrics.RecordPoolState(len(p.slots), p.active, len(p.queue))
}

// IsWorking reports whether any executor is busy.
func (p *Pool) IsWorking() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.active > 0
}

func (p *Pool) IsIdle() bool {
	return !p.IsWorking()
}

func (p *Pool) Stats() Stats {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return Stats{
		Active:     p.active,
		MaxWorkers: p.settings.MaxWorkers,
		Queued:     len(p.queue),
		Slots:      len(p.slots),
	}
}

func (p *Pool) Settings() Settings {
	return p.settings
}

// Close discards queued units and lets executors exit once their current unit is done. Results still in
// flight are not delivered.
func (p *Pool) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.logger.Debugf("Closing with %s", Stats{Active: p.active, MaxWorkers: p.settings.MaxWorkers, Queued: len(p.queue), Slots: len(p.slots)})
	for _, s := range p.slots {
		close(s.work)
	}
	p.queue = nil
	close(p.done)
}
