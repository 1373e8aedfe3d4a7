// Package printd contains shared printd constructs: constants, limits, and
// pricing.
package printd

const (
	// MaxCanon is the maximum length in bytes of a single command line
	// accepted on the wire.
	MaxCanon = 256

	// LinesPerPage is the number of input lines that fit on one printed
	// page.
	LinesPerPage = 5

	// PagePrice is the price billed per printed page.
	PagePrice = 0.05
)
