package resilience

import "sync"

// SingleFlight collapses concurrent calls sharing a key into one execution.
// Late callers block on the in-flight call and receive its result.
type SingleFlight struct {
	mu       sync.Mutex
	inflight map[string]*flight
}

type flight struct {
	done    chan struct{}
	val     any
	err     error
	waiters int
}

// Do runs fn once per key among concurrent callers. shared reports whether
// the result was produced by another caller's execution.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (v any, err error, shared bool) {
	g.mu.Lock()
	if g.inflight == nil {
		g.inflight = make(map[string]*flight)
	}
	if f, ok := g.inflight[key]; ok {
		f.waiters++
		g.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}

	f := &flight{done: make(chan struct{})}
	g.inflight[key] = f
	g.mu.Unlock()

	f.val, f.err = fn()

	g.mu.Lock()
	if g.inflight[key] == f {
		delete(g.inflight, key)
	}
	shared = f.waiters > 0
	g.mu.Unlock()
	close(f.done)

	return f.val, f.err, shared
}

// Forget drops the in-flight record for key so the next Do starts a fresh call.
func (g *SingleFlight) Forget(key string) {
	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()
}
