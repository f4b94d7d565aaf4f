package executions

import (
	"sync"

	"github.com/watzon/uiproof/internal/browser"
)

// entry tracks the live resources of one running execution. done is closed
// when the background job finishes, so stop() and tests can join it.
type entry struct {
	session browser.Session
	done    chan struct{}
}

// registry maps execution ids to their live session and job handle. The
// owning job inserts and removes itself; Stop and GetRunningSession touch it
// from other goroutines, so every access holds the mutex.
type registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*entry)}
}

func (r *registry) add(id string, session browser.Session) *entry {
	e := &entry{session: session, done: make(chan struct{})}
	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()
	return e
}

func (r *registry) session(id string) browser.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.session
	}
	return nil
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// wait returns a channel closed when the execution's job finishes. Unknown
// ids get an already-closed channel.
func (r *registry) wait(id string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.done
	}
	return closedDone
}
