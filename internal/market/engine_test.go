package market

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestTickGuardSingleWinner(t *testing.T) {
	s := &Service{}

	if !s.tryBeginTick() {
		t.Fatalf("first acquisition should succeed")
	}
	if s.tryBeginTick() {
		t.Fatalf("second acquisition should fail while tick in progress")
	}
	s.endTick()
	if !s.tryBeginTick() {
		t.Fatalf("acquisition after release should succeed")
	}
	s.endTick()
}

func TestTickGuardConcurrent(t *testing.T) {
	s := &Service{}

	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.tryBeginTick() {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}
