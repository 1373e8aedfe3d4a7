// Package server accepts client connections and runs the per-connection
// handler loop of the print server.
package server

import (
	"io"
	"net"
	"os"
	"strings"

	"github.com/tmechsner/printd/internal/log"
	"github.com/tmechsner/printd/internal/printd"
	"github.com/tmechsner/printd/internal/printd/client"
	"github.com/tmechsner/printd/internal/printd/command"
	"github.com/tmechsner/printd/internal/printd/device"
	"github.com/tmechsner/printd/internal/printd/printer"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// logger is an object for logging package events to stdout.
var logger = log.New(os.Stdout, "server")

// New creates a Server instance backed by the passed device manager.
func New(devices device.Manager) *Server {
	printers := printer.NewRegistry(devices)
	clients := client.NewRegistry()
	return &Server{
		printers:   printers,
		clients:    clients,
		dispatcher: command.NewDispatcher(printers, clients, devices),
	}
}

// Server owns the registries and the command dispatcher. One handler
// goroutine runs per connection; handlers share state only through the
// registries.
type Server struct {
	printers   *printer.Registry
	clients    *client.Registry
	dispatcher *command.Dispatcher
}

// Clients exposes the client registry, primarily for tests observing
// connection teardown.
func (s *Server) Clients() *client.Registry {
	return s.clients
}

// Printers exposes the printer registry, primarily for tests observing queue
// state.
func (s *Server) Printers() *printer.Registry {
	return s.printers
}

// Serve accepts connections on lis and spawns a handler per client. It
// returns when the listener fails, which for an externally closed listener
// is the shutdown path.
func (s *Server) Serve(lis net.Listener) error {
	for {
		conn, err := lis.Accept()
		if err != nil {
			return errors.Wrap(err, "accept connection")
		}

		c := s.clients.Add()
		go s.handle(c, conn)
	}
}

// handle runs the per-connection loop: read a line, dispatch, write the
// reply, until the client quits or the connection drops. Disconnect is
// treated as a quit with no reply.
func (s *Server) handle(c *client.Client, conn net.Conn) {
	connID := uuid.New()
	logger.Infof("client %d connected; conn: %s, remote: %s", c.ID, connID, conn.RemoteAddr())

	buf := make([]byte, printd.MaxCanon)
	for !c.Quit() {
		n, err := conn.Read(buf)
		if err == io.EOF {
			logger.Infof("connection closed by client %d; conn: %s", c.ID, connID)
			break
		}
		if err != nil {
			logger.Errorf("communication error with client %d; conn: %s, error: %v", c.ID, connID, err)
			break
		}

		args := tokenize(string(buf[:n]))
		if len(args) == 0 {
			continue
		}

		reply := s.dispatcher.Dispatch(c, args)
		if _, err := conn.Write([]byte(reply)); err != nil {
			logger.Errorf("replying to client %d; conn: %s, error: %v", c.ID, connID, err)
			break
		}
	}

	if err := conn.Close(); err != nil {
		logger.Errorf("closing connection of client %d; error: %v", c.ID, err)
	}

	// A dropped connection cancels everything the client still owned.
	if !c.Quit() {
		s.dispatcher.Teardown(c)
	}
	s.clients.Remove(c)
	logger.Infof("client %d disconnected; conn: %s", c.ID, connID)
}

// tokenize strips the line terminator and splits the command line into
// fields on runs of spaces.
func tokenize(line string) []string {
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	return strings.Fields(line)
}
