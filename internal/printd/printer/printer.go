// Package printer provides the serialized printer execution slot: a FIFO
// queue of jobs, the turn protocol workers rendezvous on, and the registry
// that materializes printers on first use.
package printer

import (
	"os"
	"sync"

	"github.com/tmechsner/printd/internal/log"
	"github.com/tmechsner/printd/internal/printd/device"
	"github.com/tmechsner/printd/internal/printd/job"
)

// logger is an object for logging package events to stdout.
var logger = log.New(os.Stdout, "printer")

// newPrinter creates a Printer wrapping the open device handle.
func newPrinter(id int, handle device.Handle) *Printer {
	return &Printer{
		ID:     id,
		mutex:  new(sync.RWMutex),
		handle: handle,
		turn:   newTurnstile(),
	}
}

// Printer owns one serialized execution slot. Jobs queue FIFO; only the job
// at the head of the queue may write to the device. Printers are created
// lazily and never destroyed.
type Printer struct {
	// ID is the printer device id.
	ID int

	// mutex guards queue.
	mutex *sync.RWMutex
	queue []*job.Job

	handle device.Handle
	turn   *turnstile
}

// Enqueue appends j to the queue and wakes all workers waiting for their
// turn so they re-check the head.
func (p *Printer) Enqueue(j *job.Job) {
	p.mutex.Lock()
	p.queue = append(p.queue, j)
	p.mutex.Unlock()

	p.turn.Broadcast()
}

// Dequeue removes j from the queue, wherever it is linked, and wakes all
// waiting workers. Dequeueing a job that is not linked is a no-op.
func (p *Printer) Dequeue(j *job.Job) {
	p.mutex.Lock()
	for i, linked := range p.queue {
		if linked == j {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			break
		}
	}
	p.mutex.Unlock()

	p.turn.Broadcast()
}

// Head retrieves the job at the head of the queue, or nil if the queue is
// empty. The head job is the only job eligible to run on the printer.
func (p *Printer) Head() *job.Job {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	if len(p.queue) == 0 {
		return nil
	}
	return p.queue[0]
}

// Empty reports whether the printer's queue holds no jobs.
func (p *Printer) Empty() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return len(p.queue) == 0
}
