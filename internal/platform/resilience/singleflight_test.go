package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CollapsesConcurrentLoads(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var runs atomic.Int32

	const callers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(callers)

	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, _ := g.Do("football_matches_today", func() (any, error) {
				runs.Add(1)
				time.Sleep(20 * time.Millisecond)
				return 3, nil
			})
			if err != nil || v.(int) != 3 {
				t.Errorf("unexpected result v=%v err=%v", v, err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Fatalf("expected one execution, got %d", got)
	}
}

func TestSingleFlight_ForgetStartsNewCall(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	release := make(chan struct{})
	firstDone := make(chan struct{})

	go func() {
		defer close(firstDone)
		_, _, _ = g.Do("ufc_events", func() (any, error) {
			<-release
			return "first", nil
		})
	}()

	// wait until the first call is registered
	for {
		g.mu.Lock()
		_, ok := g.inflight["ufc_events"]
		g.mu.Unlock()
		if ok {
			break
		}
		time.Sleep(time.Millisecond)
	}

	g.Forget("ufc_events")
	v, _, shared := g.Do("ufc_events", func() (any, error) { return "second", nil })
	if v != "second" || shared {
		t.Fatalf("expected fresh call after Forget, got v=%v shared=%v", v, shared)
	}

	close(release)
	<-firstDone
}
