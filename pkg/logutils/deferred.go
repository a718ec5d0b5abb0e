package logutils

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Deferred holds log events in memory until Flush is called. zerolog writes each
// event with a single Write, and Flush replays them one Write per event so the
// destination may be a zerolog.ConsoleWriter. Safe for concurrent use.
type Deferred struct {
	mu     sync.Mutex
	events [][]byte
}

// Write stores a copy of p as one event.
func (d *Deferred) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, append([]byte(nil), p...))
	return len(p), nil
}

// Len returns the number of held events.
func (d *Deferred) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

// Flush writes every held event to w in order and clears the buffer. Events
// after a failed write are dropped.
func (d *Deferred) Flush(w io.Writer) error {
	d.mu.Lock()
	events := d.events
	d.events = nil
	d.mu.Unlock()

	for _, e := range events {
		if _, err := w.Write(e); err != nil {
			return err
		}
	}
	return nil
}

// Stderr returns the writer New uses when no log file is configured.
func Stderr() io.Writer {
	return consoleOrJSON(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}
