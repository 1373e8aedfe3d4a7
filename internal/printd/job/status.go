package job

// Status represents the possible statuses of a Job. The string value is the
// exact text reported to clients.
type Status string

const (
	// Waiting indicates the job is queued and has not reached the head of
	// its printer's queue.
	Waiting Status = "waiting"
	// InProgress indicates the job is currently being printed.
	InProgress Status = "printing"
	// Canceled indicates the job was cancelled before completing.
	Canceled Status = "cancelled"
	// Finished indicates the job's file was printed completely.
	Finished Status = "finished"
	// PrinterError indicates the job's printer did not exist or vanished
	// mid-print.
	PrinterError Status = "printer error"
	// FileError indicates the job's file could not be opened.
	FileError Status = "file error"
)

// Terminal reports whether s is final. A job in a terminal status never
// transitions again.
func (s Status) Terminal() bool {
	switch s {
	case Canceled, Finished, PrinterError, FileError:
		return true
	}
	return false
}

// CancelOutcome describes what a cancel request achieved and which side owns
// the remaining cleanup.
type CancelOutcome int

const (
	// CancelInterrupted means the job was printing; the worker will notice
	// and unlink itself from the printer queue.
	CancelInterrupted CancelOutcome = iota
	// CancelUnlinked means the job's worker was woken and stopped; the
	// caller must dequeue the job from its printer.
	CancelUnlinked
	// CancelTerminal means the job had already finished or failed; nothing
	// was changed.
	CancelTerminal
)
