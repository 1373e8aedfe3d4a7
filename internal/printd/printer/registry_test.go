package printer

import (
	"errors"
	"testing"
)

func TestLookupOrCreate(t *testing.T) {
	devices := newFakeDevices()
	registry := NewRegistry(devices)

	p, err := registry.LookupOrCreate(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 7 {
		t.Fatalf("unexpected printer id; actual: %d, expected: 7", p.ID)
	}

	// A second reference yields the same printer.
	again, err := registry.LookupOrCreate(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != p {
		t.Fatalf("expected the same printer instance on second lookup")
	}
}

func TestLookupOrCreateUnknown(t *testing.T) {
	devices := newFakeDevices()
	devices.setMissing(99)
	registry := NewRegistry(devices)

	if _, err := registry.LookupOrCreate(99); !errors.Is(err, ErrPrinterUnknown) {
		t.Fatalf("unexpected error; actual: %v, expected: %v", err, ErrPrinterUnknown)
	}
}

func TestLookup(t *testing.T) {
	devices := newFakeDevices()
	registry := NewRegistry(devices)

	if _, ok := registry.Lookup(7); ok {
		t.Fatalf("expected lookup of uncreated printer to fail")
	}

	p, err := registry.LookupOrCreate(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, ok := registry.Lookup(7)
	if !ok || found != p {
		t.Fatalf("expected lookup to find printer 7")
	}
}

func TestForEach(t *testing.T) {
	devices := newFakeDevices()
	registry := NewRegistry(devices)

	for _, id := range []int{3, 5, 7} {
		if _, err := registry.LookupOrCreate(id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	seen := make(map[int]bool)
	registry.ForEach(func(p *Printer) {
		seen[p.ID] = true
	})

	if len(seen) != 3 || !seen[3] || !seen[5] || !seen[7] {
		t.Fatalf("unexpected printers visited; actual: %v", seen)
	}
}
