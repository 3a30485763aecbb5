package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodLocksSerializeSamePeriod(t *testing.T) {
	locks := newPeriodLocks()

	const workers = 8
	const iterations = 100

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock := locks.Lock(42)
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*iterations, counter)
}

func TestPeriodLocksIndependentAcrossPeriods(t *testing.T) {
	locks := newPeriodLocks()

	unlockA := locks.Lock(1)
	defer unlockA()

	// A different period's lock must be acquirable while period 1 is held.
	acquired := make(chan struct{})
	go func() {
		unlockB := locks.Lock(2)
		close(acquired)
		unlockB()
	}()

	<-acquired
}
