// Package cli defines the printd CLI.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tmechsner/printd/internal/log"
	"github.com/tmechsner/printd/internal/validator"
)

// logger is an object for logging package events to stdout.
var logger = log.New(os.Stdout, "cli")

const (
	ecSuccess = 0
	// ecFailure indicates an argument or bind failure.
	ecFailure = 1
)

// Run is the entrypoint of the printd CLI.
func Run() int {
	if len(os.Args) != 2 {
		return help("Expected exactly one argument.")
	}

	port, err := strconv.Atoi(os.Args[1])
	valid := validator.New()
	valid.Assert(err == nil, "port must be a number")
	valid.Assert(port > 0 && port < 65536, "port must be between 1 and 65535")
	if err := valid.Err(); err != nil {
		return help(fmt.Sprintf("Invalid port \"%s\".", os.Args[1]))
	}

	return runServe(port)
}

// help outputs a general overview of the printd executable to the user. The
// text argument may be used to add a detailed notice.
func help(text string) int {
	if text != "" {
		fmt.Fprintf(os.Stdout, "\nNotice: %s\n", text)
	}

	fmt.Fprint(os.Stdout, `
Printd serves a line-oriented print protocol over TCP. Connected clients
submit print jobs against character-device printers, query and cancel them,
and settle invoices.

Usage:
  printd <port>

Commands accepted on a connection:
  print <printer_id> <filename>
  status <job_id>
  invoice <job_id>
  cancel <job_id>
  jobs <printer_id>
  quit
`)
	return ecFailure
}
