package download

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrorLog is the durable failure record: newline-delimited plain text,
// append-only, written line by line so partial progress survives a crash.
type ErrorLog struct {
	mu    sync.Mutex
	f     *os.File
	RunID string
}

// OpenErrorLog opens (or creates) the log and stamps a run header so
// failures from separate runs stay distinguishable.
func OpenErrorLog(path string) (*ErrorLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}

	l := &ErrorLog{f: f, RunID: uuid.NewString()}
	header := fmt.Sprintf("# run %s started %s\n", l.RunID, time.Now().Format(time.RFC3339))
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write error log header: %w", err)
	}
	return l, nil
}

// Append writes one failure line immediately.
func (l *ErrorLog) Append(format string, args ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintf(l.f, format+"\n", args...); err != nil {
		return fmt.Errorf("append to error log: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *ErrorLog) Close() error {
	return l.f.Close()
}
