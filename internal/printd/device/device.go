// Package device provides the printer device abstraction. A printer is a
// slow character device addressed by a small integer id; the default
// implementation maps ids to pseudoterminal paths.
package device

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Manager probes for and opens printer devices.
type Manager interface {
	// Exists reports whether the device with the given id is present.
	// It must be cheap and safe to call concurrently.
	Exists(id int) bool
	// Open opens the device with the given id for writing.
	Open(id int) (Handle, error)
}

// Handle is an open printer device.
type Handle interface {
	// WriteChar writes a single byte to the device.
	WriteChar(c byte) error
	Close() error
}

// DefaultPathPattern addresses pseudoterminal slave devices by number.
const DefaultPathPattern = "/dev/pts/%d"

// DefaultLatency is how long one character takes to print.
const DefaultLatency = 100 * time.Millisecond

// NewTTY creates a TTY manager mapping printer ids to device paths via
// pattern. A zero latency disables the per-character delay.
func NewTTY(pattern string, latency time.Duration) *TTY {
	return &TTY{pattern: pattern, latency: latency}
}

// TTY maps printer ids to terminal character devices.
type TTY struct {
	pattern string
	latency time.Duration
}

var _ Manager = (*TTY)(nil)

// Exists reports whether the device path for id exists and is a character
// device.
func (t TTY) Exists(id int) bool {
	var stat unix.Stat_t
	if err := unix.Stat(t.path(id), &stat); err != nil {
		return false
	}
	return stat.Mode&unix.S_IFMT == unix.S_IFCHR
}

// Open opens the device for id write-only.
func (t TTY) Open(id int) (Handle, error) {
	if !t.Exists(id) {
		return nil, errors.Errorf("printer %d does not exist", id)
	}
	fd, err := os.OpenFile(t.path(id), os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open printer %d", id)
	}
	return &tty{fd: fd, latency: t.latency}, nil
}

func (t TTY) path(id int) string {
	return fmt.Sprintf(t.pattern, id)
}

// tty is an open terminal device. Writes are serialized by the caller; a
// printer runs one job at a time.
type tty struct {
	fd      *os.File
	latency time.Duration
}

// WriteChar writes one byte. A form feed is rendered as a dashed separator
// line. Every call pays the device latency.
func (t *tty) WriteChar(c byte) error {
	if c == '\f' {
		for i := 0; i < 30; i++ {
			if _, err := t.fd.Write([]byte("- ")); err != nil {
				return errors.Wrap(err, "write form feed")
			}
		}
		if _, err := t.fd.Write([]byte("\n")); err != nil {
			return errors.Wrap(err, "write form feed")
		}
	} else {
		if _, err := t.fd.Write([]byte{c}); err != nil {
			return errors.Wrap(err, "write char")
		}
	}
	time.Sleep(t.latency)
	return nil
}

func (t *tty) Close() error {
	return t.fd.Close()
}
