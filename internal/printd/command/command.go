// Package command maps protocol verbs to handlers operating over a client
// and its arguments. Every handler produces an in-band reply string; errors
// are never surfaced as Go errors to the wire.
package command

import (
	"fmt"
	"os"

	"github.com/tmechsner/printd/internal/log"
	"github.com/tmechsner/printd/internal/printd/client"
	"github.com/tmechsner/printd/internal/printd/device"
	"github.com/tmechsner/printd/internal/printd/printer"
)

// logger is an object for logging package events to stdout.
var logger = log.New(os.Stdout, "command")

// handlerFunc executes one command for a client. args holds the verb at
// index 0; the argument count has already been checked.
type handlerFunc func(c *client.Client, args []string) string

// cmd associates a verb with its handler and required argument count.
type cmd struct {
	verb string
	argc int
	fn   handlerFunc
}

// NewDispatcher creates a Dispatcher instance. The command table is built
// once here and immutable afterwards.
func NewDispatcher(printers *printer.Registry, clients *client.Registry, devices device.Manager) *Dispatcher {
	d := &Dispatcher{
		printers: printers,
		clients:  clients,
		devices:  devices,
	}
	d.table = []cmd{
		{verb: "print", argc: 2, fn: d.print},
		{verb: "status", argc: 1, fn: d.status},
		{verb: "invoice", argc: 1, fn: d.invoice},
		{verb: "cancel", argc: 1, fn: d.cancel},
		{verb: "jobs", argc: 1, fn: d.jobs},
		{verb: "quit", argc: 0, fn: d.quit},
	}
	return d
}

// Dispatcher routes parsed command lines to handlers. It owns no state of
// its own; all shared state lives in the registries.
type Dispatcher struct {
	printers *printer.Registry
	clients  *client.Registry
	devices  device.Manager

	table []cmd
}

// Dispatch executes the command named by args[0] for c and returns the reply
// to write back. Unknown verbs and argument-count mismatches yield in-band
// error replies.
func (d *Dispatcher) Dispatch(c *client.Client, args []string) string {
	for _, cmd := range d.table {
		if cmd.verb != args[0] {
			continue
		}
		if got := len(args) - 1; got != cmd.argc {
			return fmt.Sprintf("  This command takes %d arguments. Instead received %d.\n", cmd.argc, got)
		}
		return cmd.fn(c, args)
	}
	return fmt.Sprintf("  '%s' is not a valid command.\n", args[0])
}
