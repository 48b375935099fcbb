package sync

import (
	"fmt"
	"os"
	"time"

	"anisync/internal/confirm"
	"anisync/internal/shared"
)

// Audit appends a plain-text record of a mirror run to a log file: one
// header line per run, one description per applied operation, and a footer
// with the run's tallies. Runs append to the same file, separated by their
// headers.
type Audit struct {
	f     *os.File
	runID string
	err   error
}

// OpenAudit opens (or creates) the audit log at path and writes the run
// header for a source to dest mirror.
func OpenAudit(path, sourceUser, destUser string) (*Audit, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	a := &Audit{f: f, runID: shared.GenerateID()}
	a.writef("=== run %s at %s: %s -> %s\n", a.runID, time.Now().Format(time.RFC3339), sourceUser, destUser)

	return a, nil
}

// RunID identifies this run's section in the log.
func (a *Audit) RunID() string {
	return a.runID
}

// Record appends one operation. Write failures are held and surfaced by
// [Audit.Finish] so a broken log never interrupts the run itself.
func (a *Audit) Record(op confirm.Op) {
	a.writef("%s\n", op.Describe())
}

func (a *Audit) writef(format string, args ...any) {
	if a.err != nil {
		return
	}

	_, a.err = fmt.Fprintf(a.f, format, args...)
}

// Finish writes the run footer and closes the log.
func (a *Audit) Finish(summary *Summary) error {
	a.writef("created %d, updated %d, deleted %d, skipped %d\n", summary.Created, summary.Updated, summary.Deleted, summary.Skipped)
	a.writef("Total queries: %d\n\n", summary.Requests)

	err := a.err
	if cerr := a.f.Close(); err == nil {
		err = cerr
	}

	return err
}
