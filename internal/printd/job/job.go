// Package job provides the print job record and its lifecycle state machine.
package job

import (
	"context"
	"sync"
)

// New creates a Job instance in the Waiting state. A printerID of zero means
// no printer could be resolved for the job; the caller is expected to mark
// the job with PrinterError before it becomes visible to other goroutines.
func New(clientID, id, printerID int, filename string) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		mutex:     new(sync.RWMutex),
		ID:        id,
		ClientID:  clientID,
		PrinterID: printerID,
		Filename:  filename,
		status:    Waiting,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Job represents a single print job: one file to be streamed to one printer
// on behalf of one client. A Job is linked into at most one printer queue and
// at most one client index at a time.
type Job struct {
	// mutex guards status and pageCount.
	mutex *sync.RWMutex

	// ID is the client-local job id. Ids are assigned monotonically per
	// client and never reused.
	ID int
	// ClientID identifies the owning client.
	ClientID int
	// PrinterID identifies the printer the job is assigned to. Zero means
	// the printer could not be resolved at creation time.
	PrinterID int
	// Filename is the file to print.
	Filename string

	status    Status
	pageCount int

	// ctx coordinates waking the job's worker while it is blocked waiting
	// for its turn. Cancelled when the job is cancelled or detached.
	ctx    context.Context
	cancel context.CancelFunc

	// done is closed by the worker on exit. Joining a job means receiving
	// on done.
	done chan struct{}
}

// Status retrieves the Job status.
func (j *Job) Status() Status {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	return j.status
}

// SetStatus transitions the Job to s. Terminal statuses are final; a Job in a
// terminal status ignores further transitions.
func (j *Job) SetStatus(s Status) {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = s
}

// BeginPrinting transitions the Job to InProgress and initializes the page
// count, unless the Job has been cancelled in the meantime. The ok return
// value reports whether printing may proceed.
func (j *Job) BeginPrinting() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	if j.status != Waiting {
		return false
	}
	j.status = InProgress
	j.pageCount = 1
	return true
}

// NextPage records that a page boundary was crossed. Only the Job's worker
// calls NextPage.
func (j *Job) NextPage() {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	j.pageCount++
}

// PageCount retrieves the number of pages printed so far.
func (j *Job) PageCount() int {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	return j.pageCount
}

// RequestCancel attempts to cancel the Job and reports what the caller has
// to do to complete the cancellation.
//
// An InProgress job is flipped to Cancelled; its worker observes the status
// between characters and unlinks itself from the printer queue. A Waiting (or
// already Cancelled) job has its worker woken through the job context; the
// worker cannot unlink itself in that case, so the caller must dequeue the
// job from its printer. Any other status is terminal and the cancel is a
// reported no-op.
func (j *Job) RequestCancel() CancelOutcome {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	switch j.status {
	case InProgress:
		j.status = Canceled
		return CancelInterrupted
	case Waiting, Canceled:
		j.status = Canceled
		j.cancel()
		return CancelUnlinked
	default:
		return CancelTerminal
	}
}

// Detach prepares the Job for billing. If the Job is still Waiting or already
// Cancelled its worker is woken and stopped, and detached is true: the caller
// must dequeue the job from its printer on the worker's behalf. The returned
// status is the billing snapshot taken before the worker was stopped, so a
// job that never started printing still bills under its observed status.
func (j *Job) Detach() (snapshot Status, detached bool) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	snapshot = j.status
	if snapshot == Waiting || snapshot == Canceled {
		j.status = Canceled
		j.cancel()
		return snapshot, true
	}
	return snapshot, false
}

// Context returns the context used to wake the Job's worker while it waits
// for its printer turn.
func (j *Job) Context() context.Context {
	return j.ctx
}

// Done returns a channel that is closed once the Job's worker has exited and
// released all resources it held.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Exited marks the worker as exited. Called exactly once, by the worker.
func (j *Job) Exited() {
	j.cancel()
	close(j.done)
}
