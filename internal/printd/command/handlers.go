package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tmechsner/printd/internal/printd"
	"github.com/tmechsner/printd/internal/printd/client"
	"github.com/tmechsner/printd/internal/printd/job"
	"github.com/tmechsner/printd/internal/printd/printer"
)

// print creates a job printing the named file on the given printer.
//
// Usage: print printer_id filename
//
// The job is created even when the printer cannot be resolved; it is then
// born in the terminal printer-error state and linked only into the client's
// index, never into a printer queue.
func (d *Dispatcher) print(c *client.Client, args []string) string {
	var p *printer.Printer

	printerID, err := strconv.Atoi(args[1])
	if err != nil || printerID == 0 || !d.devices.Exists(printerID) {
		logger.Errorf("printer does not exist or given argument is not a number; arg: %s", args[1])
		printerID = 0
	} else {
		p, err = d.printers.LookupOrCreate(printerID)
		if err != nil {
			logger.Errorf("resolving printer %d; error: %v", printerID, err)
			p, printerID = nil, 0
		}
	}

	id := c.NextJobID()
	j := job.New(c.ID, id, printerID, args[2])
	if p == nil {
		j.SetStatus(job.PrinterError)
	}

	c.AddJob(j)
	if p != nil {
		p.Enqueue(j)
	}

	go printer.Worker{Job: j, Printer: p, Devices: d.devices}.Run()

	return fmt.Sprintf("  Created job no. %d\n", id)
}

// status reports the current status of a job.
//
// Usage: status job_id
func (d *Dispatcher) status(c *client.Client, args []string) string {
	jobID, _ := strconv.Atoi(args[1])
	j, ok := c.FindJob(jobID)
	if !ok {
		return fmt.Sprintf("  Job %s could not be found. \n", args[1])
	}
	return fmt.Sprintf("  Job %d has status '%s'.\n", j.ID, j.Status())
}

// invoice waits for a job to finish, bills it, and releases it.
//
// Usage: invoice job_id
//
// A job that is still waiting for its turn (or was cancelled while waiting)
// is stopped and dequeued rather than waited out; it bills under the status
// it had when the invoice arrived. Error states bill zero.
func (d *Dispatcher) invoice(c *client.Client, args []string) string {
	jobID, _ := strconv.Atoi(args[1])
	j, ok := c.FindJob(jobID)
	if !ok {
		return fmt.Sprintf("  Job %s could not be found. \n", args[1])
	}

	st, detached := j.Detach()
	if detached {
		// The worker cannot unlink the job itself anymore.
		if p, ok := d.printers.Lookup(j.PrinterID); ok {
			p.Dequeue(j)
		}
	}
	<-j.Done()
	if !detached {
		st = j.Status()
	}

	var total float64
	if st != job.FileError && st != job.PrinterError {
		total = printd.PagePrice * float64(j.PageCount())
	}

	var reply string
	if j.PrinterID == 0 {
		reply = fmt.Sprintf("  Job %d: status '%s', printed %d pages. %.2f total.\n", j.ID, st, j.PageCount(), total)
	} else {
		reply = fmt.Sprintf("  Job %d, printer %d: status '%s', printed %d pages. %.2f total.\n", j.ID, j.PrinterID, st, j.PageCount(), total)
	}

	c.RemoveJob(j)
	logger.Infof("removed job %d from client %d's index", j.ID, c.ID)

	return reply
}

// cancel cancels a job if it has not finished yet.
//
// Usage: cancel job_id
func (d *Dispatcher) cancel(c *client.Client, args []string) string {
	jobID, _ := strconv.Atoi(args[1])
	return d.cancelJob(c, jobID)
}

// cancelJob is the shared cancellation path used by cancel, quit, and the
// disconnect teardown.
func (d *Dispatcher) cancelJob(c *client.Client, jobID int) string {
	j, ok := c.FindJob(jobID)
	if !ok {
		return fmt.Sprintf("  Job %d could not be found. \n", jobID)
	}

	switch j.RequestCancel() {
	case job.CancelInterrupted:
		// The worker polls its status between characters and unlinks
		// itself from the printer queue.
		return fmt.Sprintf("  Job %d was cancelled.\n", j.ID)
	case job.CancelUnlinked:
		if p, ok := d.printers.Lookup(j.PrinterID); ok {
			p.Dequeue(j)
		}
		return fmt.Sprintf("  Job %d was cancelled.\n", j.ID)
	default:
		return fmt.Sprintf("  Job %d has already finished or is in error state.\n", j.ID)
	}
}

// jobs lists every job assigned to the given printer, across all connected
// clients.
//
// Usage: jobs printer_id
func (d *Dispatcher) jobs(_ *client.Client, args []string) string {
	printerID, _ := strconv.Atoi(args[1])

	var b strings.Builder
	found := 0
	d.clients.ForEach(func(cl *client.Client) {
		cl.ForEachJob(func(j *job.Job) {
			if j.PrinterID == 0 || j.PrinterID != printerID {
				return
			}
			fmt.Fprintf(&b, "  Client %d, job %d, file '%s', status '%s'\n", j.ClientID, j.ID, j.Filename, j.Status())
			found++
		})
	})

	if found == 0 {
		return fmt.Sprintf("  Currently there are no jobs for printer %s.\n", args[1])
	}
	return b.String()
}

// quit cancels every job of the calling client, releases them, and marks the
// client as quitting. The reply concatenates the per-job cancel reports.
//
// Usage: quit
func (d *Dispatcher) quit(c *client.Client, _ []string) string {
	reply := d.Teardown(c)
	c.SetQuit()
	return reply
}

// Teardown cancels, joins, and unlinks every job of c, re-reading the index
// head after each removal. It is the quit command without the quit flag, and
// runs on disconnect as well so no orphan job stays linked in any printer
// queue.
func (d *Dispatcher) Teardown(c *client.Client) string {
	var b strings.Builder
	for {
		j, ok := c.HeadJob()
		if !ok {
			return b.String()
		}

		b.WriteString(d.cancelJob(c, j.ID))
		<-j.Done()
		c.RemoveJob(j)
		logger.Infof("released job %d of client %d", j.ID, c.ID)
	}
}
