package state

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Recorder accumulates points into paths for the current micrograph.
// Completed paths are kept in creation order; the path being drawn is held
// separately until End. A Recorder is safe for concurrent use.
type Recorder struct {
	mu      sync.RWMutex
	paths   []Path
	current *Path
}

func NewRecorder() *Recorder {
	return &Recorder{paths: make([]Path, 0)}
}

// Begin starts a new path at p. Any path still open is finalized first.
func (r *Recorder) Begin(p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endLocked()
	r.current = &Path{ID: uuid.NewString(), Points: []Point{p}}
}

// Extend appends p to the open path and returns the point it follows.
// With no open path, Extend begins one and ok is false.
func (r *Recorder) Extend(p Point) (prev Point, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		r.current = &Path{ID: uuid.NewString(), Points: []Point{p}}
		return Point{}, false
	}
	prev = r.current.Points[len(r.current.Points)-1]
	r.current.Points = append(r.current.Points, p)
	return prev, true
}

// End finalizes the open path and pushes it onto the collection.
func (r *Recorder) End() (Path, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endLocked()
}

func (r *Recorder) endLocked() (Path, bool) {
	if r.current == nil {
		return Path{}, false
	}
	done := *r.current
	r.current = nil
	if len(done.Points) == 0 {
		return Path{}, false
	}
	r.paths = append(r.paths, done)
	return done.Clone(), true
}

// Undo removes the most recently completed path. A path still being drawn
// is not affected.
func (r *Recorder) Undo() (Path, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.paths) == 0 {
		return Path{}, false
	}
	last := r.paths[len(r.paths)-1]
	r.paths = r.paths[:len(r.paths)-1]
	log.Printf("[state] undo %s (%d points), %d paths left", last.ID, len(last.Points), len(r.paths))
	return last, true
}

// Clear drops every path, including one in progress.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = make([]Path, 0)
	r.current = nil
}

// Paths returns a copy of the completed paths in creation order.
func (r *Recorder) Paths() []Path {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]Path, 0, len(r.paths))
	for _, p := range r.paths {
		paths = append(paths, p.Clone())
	}
	return paths
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.paths)
}

// Current returns a copy of the path being drawn, if any.
func (r *Recorder) Current() (Path, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return Path{}, false
	}
	return r.current.Clone(), true
}

func (r *Recorder) Open() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current != nil
}
