package worker

import (
	"sync"
)

// Job is a schedulable unit identified by ID with a relative cost.
type Job struct {
	ID     int
	Weight int
}

// Dispatcher hands out jobs heaviest first so long scenes start early and do
// not end up as the tail of the run. Ties go to the lowest ID.
type Dispatcher struct {
	mu        sync.Mutex
	ready     map[int]Job  // jobs not yet started
	completed map[int]bool // completed job IDs
}

// NewDispatcher creates a new dispatcher with the given jobs.
func NewDispatcher(jobs []Job) *Dispatcher {
	ready := make(map[int]Job, len(jobs))
	for _, j := range jobs {
		ready[j.ID] = j
	}
	return &Dispatcher{
		ready:     ready,
		completed: make(map[int]bool),
	}
}

// Next returns the next job to process.
// Returns false if no jobs remain.
func (d *Dispatcher) Next() (Job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.ready) == 0 {
		return Job{}, false
	}

	var best Job
	found := false
	for _, j := range d.ready {
		if !found || j.Weight > best.Weight || (j.Weight == best.Weight && j.ID < best.ID) {
			best = j
			found = true
		}
	}

	delete(d.ready, best.ID)
	return best, true
}

// MarkComplete records a job as completed.
func (d *Dispatcher) MarkComplete(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completed[id] = true
}

// Remaining returns the count of unstarted jobs.
func (d *Dispatcher) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ready)
}

// Completed returns the count of completed jobs.
func (d *Dispatcher) Completed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.completed)
}
