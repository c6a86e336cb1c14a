package changelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aRestless/staticip/pkg/registry"
)

// TimeFormat is the timestamp layout expected by the downstream parser.
const TimeFormat = "2006-01-02T15:04:05Z"

const action = "RENEW"

// FormatRecord renders one change record:
// <timestamp>,RENEW,<address>,<hostname>,<hardware_id>
func FormatRecord(ts time.Time, rec registry.HostRecord) string {
	return fmt.Sprintf("%s,%s,%s,%s,%s",
		ts.UTC().Format(TimeFormat),
		action,
		rec.Address,
		rec.Hostname,
		rec.HardwareID,
	)
}

// Select returns the records that go into the change log: the changed
// ones, or all of them when includeAll is set.
func Select(reg *registry.Registry, includeAll bool) []registry.HostRecord {
	if includeAll {
		return reg.Records()
	}

	return reg.Changed()
}

// Writer appends change records to one log file shared by every project
// of a run.
type Writer struct {
	f      io.WriteCloser
	w      *bufio.Writer
	closed bool
}

// Open truncates the log unless appendMode is set.
func Open(path string, appendMode bool) (*Writer, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open change log: %w", err)
	}

	return NewWriter(f), nil
}

func NewWriter(wc io.WriteCloser) *Writer {
	return &Writer{
		f: wc,
		w: bufio.NewWriter(wc),
	}
}

// Write emits the selected records of reg stamped with now and flushes
// them, so a later project failure cannot lose them.
func (w *Writer) Write(reg *registry.Registry, includeAll bool, now time.Time) (int, error) {
	records := Select(reg, includeAll)
	for _, rec := range records {
		if _, err := fmt.Fprintln(w.w, FormatRecord(now, rec)); err != nil {
			return 0, fmt.Errorf("write change record %s: %w", rec.Address, err)
		}
	}

	if err := w.w.Flush(); err != nil {
		return 0, fmt.Errorf("flush change log: %w", err)
	}

	return len(records), nil
}

// Close flushes and closes the file. Further calls are no-ops.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flush change log: %w", err)
	}

	return w.f.Close()
}
