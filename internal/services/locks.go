package services

import "sync"

// periodLocks serializes mutating operations on the same pay period. Runs and
// rebuilds both delete-then-recreate their period's result rows, so two of
// them racing on one period would corrupt the result set; different periods
// are independent and may proceed concurrently.
type periodLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newPeriodLocks() *periodLocks {
	return &periodLocks{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the period's mutex and returns its unlock function.
func (p *periodLocks) Lock(periodID int64) func() {
	p.mu.Lock()
	l, ok := p.locks[periodID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[periodID] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
