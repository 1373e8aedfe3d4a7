// Package client provides the per-connection client record and the registry
// of connected clients.
package client

import (
	"sync"

	"github.com/tmechsner/printd/internal/printd/job"
)

// newClient creates a Client instance. Clients are created through
// Registry.Add so ids stay monotonic.
func newClient(id int) *Client {
	return &Client{
		mutex: new(sync.RWMutex),
		ID:    id,
	}
}

// Client represents one connected client. It owns an insertion-ordered index
// of the jobs it created and the counter assigning their client-local ids.
type Client struct {
	// mutex guards jobs, jobCounter, and quit.
	mutex *sync.RWMutex

	// ID identifies the client. Ids are assigned monotonically across the
	// lifetime of the server.
	ID int

	jobs       []*job.Job
	jobCounter int
	quit       bool
}

// NextJobID assigns the next client-local job id. Ids start at 1 and are
// never reused.
func (c *Client) NextJobID() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.jobCounter++
	return c.jobCounter
}

// AddJob appends j to the client's job index.
func (c *Client) AddJob(j *job.Job) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.jobs = append(c.jobs, j)
}

// FindJob retrieves the job with the given client-local id. Lookup is a
// linear scan; a client's index stays small.
func (c *Client) FindJob(id int) (*job.Job, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, j := range c.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return nil, false
}

// HeadJob retrieves the first job in the index, if any. The teardown sweep
// re-reads the head after every removal.
func (c *Client) HeadJob() (*job.Job, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if len(c.jobs) == 0 {
		return nil, false
	}
	return c.jobs[0], true
}

// RemoveJob unlinks j from the client's job index.
func (c *Client) RemoveJob(j *job.Job) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for i, linked := range c.jobs {
		if linked == j {
			c.jobs = append(c.jobs[:i], c.jobs[i+1:]...)
			return
		}
	}
}

// ForEachJob calls visit for every job in the index, in insertion order,
// under the shared index lock. The visitor must not mutate the index.
func (c *Client) ForEachJob(visit func(*job.Job)) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, j := range c.jobs {
		visit(j)
	}
}

// SetQuit marks the client as quitting. The handler loop observes the flag
// between commands.
func (c *Client) SetQuit() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.quit = true
}

// Quit reports whether the client is quitting.
func (c *Client) Quit() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.quit
}
