package locking

import "sync"

// Guard serializes transfer attempts according to the enabled policies.
// Both policies are independently toggleable; when both are enabled a
// transfer holds both locks simultaneously. Locks are exclusive and
// non-reentrant, and are scoped only around the transfer attempt.
type Guard struct {
	globalEnabled    bool
	perSourceEnabled bool

	global sync.Mutex

	mu        sync.Mutex
	perSource map[string]*sync.Mutex
}

// New constructs a Guard with the given policies.
func New(globalSingle, perSourceSingle bool) *Guard {
	return &Guard{
		globalEnabled:    globalSingle,
		perSourceEnabled: perSourceSingle,
		perSource:        make(map[string]*sync.Mutex),
	}
}

// Acquire takes all enabled locks for a transfer out of sourceDir (global
// first, then per-source) and returns a release function that drops them in
// reverse order. The release function must be called on every exit path.
func (g *Guard) Acquire(sourceDir string) func() {
	g.acquireGlobal()
	g.acquirePerSource(sourceDir)
	released := false
	return func() {
		if released {
			return
		}
		released = true
		g.releasePerSource(sourceDir)
		g.releaseGlobal()
	}
}

func (g *Guard) acquireGlobal() {
	if !g.globalEnabled {
		return
	}
	g.global.Lock()
}

func (g *Guard) releaseGlobal() {
	if !g.globalEnabled {
		return
	}
	g.global.Unlock()
}

func (g *Guard) acquirePerSource(dir string) {
	if !g.perSourceEnabled {
		return
	}
	g.lockFor(dir).Lock()
}

func (g *Guard) releasePerSource(dir string) {
	if !g.perSourceEnabled {
		return
	}
	g.lockFor(dir).Unlock()
}

// lockFor returns the lock keyed by dir, creating it on first reference.
func (g *Guard) lockFor(dir string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.perSource[dir]
	if !ok {
		lock = &sync.Mutex{}
		g.perSource[dir] = lock
	}
	return lock
}
