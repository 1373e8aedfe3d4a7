package printer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tmechsner/printd/internal/printd/device"
)

// ErrPrinterUnknown indicates the probed printer device does not exist.
var ErrPrinterUnknown = errors.New("printer unknown")

// NewRegistry creates a Registry instance backed by the passed device
// manager.
func NewRegistry(devices device.Manager) *Registry {
	return &Registry{
		mutex:    new(sync.RWMutex),
		printers: make(map[int]*Printer),
		devices:  devices,
	}
}

// Registry lazily materializes Printer records on first reference. Printers
// are never removed.
type Registry struct {
	mutex    *sync.RWMutex
	printers map[int]*Printer
	devices  device.Manager
}

// LookupOrCreate retrieves the Printer with the given id, creating it on
// first reference. Creation probes the device and opens its handle; a device
// that does not exist yields ErrPrinterUnknown.
func (r *Registry) LookupOrCreate(id int) (*Printer, error) {
	r.mutex.RLock()
	p, ok := r.printers[id]
	r.mutex.RUnlock()
	if ok {
		return p, nil
	}

	if !r.devices.Exists(id) {
		return nil, fmt.Errorf("%w; id: %d", ErrPrinterUnknown, id)
	}
	handle, err := r.devices.Open(id)
	if err != nil {
		return nil, fmt.Errorf("open printer device; id: %d, error: %w", id, err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Another goroutine may have created the printer while the registry
	// was unlocked.
	if p, ok := r.printers[id]; ok {
		handle.Close()
		return p, nil
	}

	p = newPrinter(id, handle)
	r.printers[id] = p
	logger.Infof("added printer %d to registry", id)

	return p, nil
}

// Lookup retrieves the Printer with the given id if it has been created.
func (r *Registry) Lookup(id int) (*Printer, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	p, ok := r.printers[id]
	return p, ok
}

// ForEach calls visit for every registered Printer under the shared registry
// lock. The visitor must not mutate the registry.
func (r *Registry) ForEach(visit func(*Printer)) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, p := range r.printers {
		visit(p)
	}
}
