package server

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tmechsner/printd/internal/printd/client"
	"github.com/tmechsner/printd/internal/printd/device"
)

// fakeDevices is an in-memory device.Manager for end-to-end tests.
type fakeDevices struct {
	mutex   sync.Mutex
	missing map[int]bool
	latency time.Duration
}

func newFakeDevices() *fakeDevices {
	return &fakeDevices{missing: make(map[int]bool)}
}

func (f *fakeDevices) Exists(id int) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return !f.missing[id]
}

func (f *fakeDevices) Open(id int) (device.Handle, error) {
	return fakeHandle{latency: f.latency}, nil
}

type fakeHandle struct {
	latency time.Duration
}

func (h fakeHandle) WriteChar(byte) error {
	time.Sleep(h.latency)
	return nil
}

func (h fakeHandle) Close() error { return nil }

// startServer serves on an ephemeral loopback port and returns the server
// and a dialed client connection.
func startServer(t *testing.T, devices *fakeDevices) (*Server, net.Conn, string) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { lis.Close() })

	srv := New(devices)
	go func() {
		// Serve exits with an error once the listener closes.
		_ = srv.Serve(lis)
	}()

	addr := lis.Addr().String()
	return srv, dial(t, addr), addr
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// roundTrip sends one command line and reads the server's reply.
func roundTrip(t *testing.T, conn net.Conn, line string) string {
	t.Helper()

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return string(buf[:n])
}

func clientCount(s *Server) int {
	count := 0
	s.Clients().ForEach(func(*client.Client) { count++ })
	return count
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestTokenize(t *testing.T) {
	tests := map[string]struct {
		line     string
		expected []string
	}{
		"plain":           {line: "print 7 a.txt", expected: []string{"print", "7", "a.txt"}},
		"crlf terminated": {line: "status 1\r\n", expected: []string{"status", "1"}},
		"extra spaces":    {line: "  jobs   7  \n", expected: []string{"jobs", "7"}},
		"empty":           {line: "\r\n", expected: nil},
		"second line ignored": {
			line:     "quit\nprint 7 a.txt\n",
			expected: []string{"quit"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			actual := tokenize(test.line)
			if len(actual) != len(test.expected) {
				t.Fatalf("unexpected tokens; actual: %v, expected: %v", actual, test.expected)
			}
			for i := range actual {
				if actual[i] != test.expected[i] {
					t.Fatalf("unexpected tokens; actual: %v, expected: %v", actual, test.expected)
				}
			}
		})
	}
}

func TestServerHappyPath(t *testing.T) {
	srv, conn, _ := startServer(t, newFakeDevices())

	file := writeFile(t, "a.txt", "one\ntwo\nthree\n")
	if actual := roundTrip(t, conn, "print 7 "+file); actual != "  Created job no. 1\n" {
		t.Fatalf("unexpected reply; actual: %q", actual)
	}

	expected := fmt.Sprintf("  Job 1, printer 7: status 'finished', printed 1 pages. %.2f total.\n", 0.05)
	if actual := roundTrip(t, conn, "invoice 1"); actual != expected {
		t.Fatalf("unexpected reply; actual: %q, expected: %q", actual, expected)
	}

	if actual := roundTrip(t, conn, "nonsense"); actual != "  'nonsense' is not a valid command.\n" {
		t.Fatalf("unexpected reply; actual: %q", actual)
	}

	// quit with an empty index replies nothing; the server closes the
	// connection.
	if _, err := conn.Write([]byte("quit\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := conn.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("expected connection to close; error: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for clientCount(srv) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client was not removed from registry")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServerQuitReportsCancellations(t *testing.T) {
	devices := newFakeDevices()
	devices.latency = time.Millisecond
	_, conn, _ := startServer(t, devices)

	big := writeFile(t, "big.txt", strings.Repeat("x", 5000)+"\n")
	roundTrip(t, conn, "print 7 "+big)
	roundTrip(t, conn, "print 7 "+big)

	actual := roundTrip(t, conn, "quit")
	expected := "  Job 1 was cancelled.\n  Job 2 was cancelled.\n"
	if actual != expected {
		t.Fatalf("unexpected reply; actual: %q, expected: %q", actual, expected)
	}
}

func TestServerDisconnectCancelsJobs(t *testing.T) {
	devices := newFakeDevices()
	devices.latency = time.Millisecond
	srv, conn, _ := startServer(t, devices)

	big := writeFile(t, "big.txt", strings.Repeat("x", 5000)+"\n")
	roundTrip(t, conn, "print 7 "+big)
	roundTrip(t, conn, "print 7 "+big)

	// Dropping the connection is a quit with no reply.
	if err := conn.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		p, ok := srv.Printers().Lookup(7)
		if ok && p.Empty() && clientCount(srv) == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected disconnect to release all jobs and the client")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServerCancelAcrossQueue(t *testing.T) {
	devices := newFakeDevices()
	devices.latency = time.Millisecond
	_, alice, addr := startServer(t, devices)

	big := writeFile(t, "big.txt", strings.Repeat("x", 5000)+"\n")
	roundTrip(t, alice, "print 7 "+big)

	deadline := time.Now().Add(5 * time.Second)
	for roundTrip(t, alice, "status 1") != "  Job 1 has status 'printing'.\n" {
		if time.Now().After(deadline) {
			t.Fatalf("job did not start printing before deadline")
		}
		time.Sleep(time.Millisecond)
	}

	// A second client queues behind the running job, then cancels while
	// still waiting.
	bob := dial(t, addr)
	small := writeFile(t, "small.txt", "hi\n")
	if actual := roundTrip(t, bob, "print 7 "+small); actual != "  Created job no. 1\n" {
		t.Fatalf("unexpected reply; actual: %q", actual)
	}
	if actual := roundTrip(t, bob, "cancel 1"); actual != "  Job 1 was cancelled.\n" {
		t.Fatalf("unexpected reply; actual: %q", actual)
	}

	expected := "  Job 1, printer 7: status 'cancelled', printed 0 pages. 0.00 total.\n"
	if actual := roundTrip(t, bob, "invoice 1"); actual != expected {
		t.Fatalf("unexpected reply; actual: %q, expected: %q", actual, expected)
	}

	roundTrip(t, alice, "quit")
}
