package printer

import (
	"bufio"
	"io"
	"os"

	"github.com/tmechsner/printd/internal/printd"
	"github.com/tmechsner/printd/internal/printd/device"
	"github.com/tmechsner/printd/internal/printd/job"
)

// Worker executes a single job: it waits for the job's turn on the printer,
// streams the file to the device character by character, and honors
// cancellation at every step. Run is meant to be launched as a goroutine per
// job.
type Worker struct {
	// Job is the job to execute.
	Job *job.Job
	// Printer is the serialized slot the job queues on. Nil if no printer
	// could be resolved at creation time; the worker then exits with the
	// status already set.
	Printer *Printer
	// Devices probes printer presence between characters.
	Devices device.Manager
}

// Run executes the job to a terminal status and releases every resource the
// worker held. It closes the job's done channel on exit.
func (w Worker) Run() {
	j := w.Job
	defer j.Exited()

	if w.Printer == nil {
		return
	}

	if !w.awaitTurn() {
		// Cancelled while waiting. The canceller unlinks the job on the
		// worker's behalf; dequeue again in case the status was flipped
		// without a wake.
		w.Printer.Dequeue(j)
		logger.Infof("job cancelled while waiting: client %d, job %d, printer %d", j.ClientID, j.ID, w.Printer.ID)
		return
	}

	aborted := !w.print()

	// Release the slot before committing the final status, so the next
	// worker can start immediately.
	w.Printer.Dequeue(j)

	if !aborted {
		j.SetStatus(job.Finished)
		logger.Infof("finished printing: client %d, job %d, printer %d, pages %d", j.ClientID, j.ID, w.Printer.ID, j.PageCount())
	}

	if w.Printer.Empty() {
		logger.Infof("queue of printer %d now empty", w.Printer.ID)
	}
}

// awaitTurn blocks until the job reaches the head of the printer's queue.
// It returns false if the job was cancelled first. A listener is registered
// before every head check so no broadcast is lost.
func (w Worker) awaitTurn() bool {
	j := w.Job
	for {
		id, wake := w.Printer.turn.listen()

		if w.Printer.Head() == j {
			w.Printer.turn.forget(id)
			return true
		}
		if j.Status() == job.Canceled {
			w.Printer.turn.forget(id)
			return false
		}

		select {
		case <-wake:
		case <-j.Context().Done():
			w.Printer.turn.forget(id)
			return false
		}
		w.Printer.turn.forget(id)
	}
}

// print opens the job's file and streams it to the device. It returns true
// if the job ran to completion and false on any abort: file error, printer
// loss, or cancellation. The job status is already set on abort.
func (w Worker) print() bool {
	j := w.Job

	fd, err := os.Open(j.Filename)
	if err != nil {
		j.SetStatus(job.FileError)
		logger.Errorf("could not read file %s; error: %v", j.Filename, err)
		return false
	}
	defer fd.Close()

	if !j.BeginPrinting() {
		logger.Infof("job cancelled: client %d, job %d, printer %d", j.ClientID, j.ID, w.Printer.ID)
		return false
	}
	logger.Infof("start printing: client %d, job %d, printer %d", j.ClientID, j.ID, w.Printer.ID)

	reader := bufio.NewReader(fd)
	lineCount := 0
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			lineCount++
			ok, next := w.printLine(line, lineCount)
			if !ok {
				return false
			}
			lineCount = next
		}
		if err == io.EOF {
			return true
		}
		if err != nil {
			logger.Errorf("read file %s; error: %v", j.Filename, err)
			return true
		}
	}
}

// printLine writes one input line to the device, inserting the page-break
// newline when the line count crosses a page boundary. It returns the line
// count to carry into the next line, and ok=false if the job aborted.
func (w Worker) printLine(line string, lineCount int) (ok bool, next int) {
	j := w.Job

	for i := 0; i < len(line); i++ {
		// The printer may vanish at any point.
		if !w.Devices.Exists(w.Printer.ID) {
			j.SetStatus(job.PrinterError)
			logger.Errorf("printer %d became unavailable: client %d, job %d", w.Printer.ID, j.ClientID, j.ID)
			return false, 0
		}

		if lineCount > printd.LinesPerPage {
			if err := w.Printer.handle.WriteChar('\n'); err != nil {
				logger.Warnf("write page break to printer %d; error: %v", w.Printer.ID, err)
			}
			j.NextPage()
			lineCount = 1
		}

		if err := w.Printer.handle.WriteChar(line[i]); err != nil {
			logger.Warnf("write to printer %d; error: %v", w.Printer.ID, err)
		}

		if j.Status() == job.Canceled {
			logger.Infof("job cancelled: client %d, job %d, printer %d", j.ClientID, j.ID, w.Printer.ID)
			return false, 0
		}
	}
	return true, lineCount
}
