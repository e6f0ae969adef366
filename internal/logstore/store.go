// Package logstore appends canonical barcode events to date-partitioned
// plain-text log files.
package logstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/scanworks/scanbridge/internal/model"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// Store writes one text line per event to the log file for the current date.
// Writes from concurrent producers are serialized through a mutex so lines
// never interleave; the file is opened and closed per append.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("logstore: dir is empty")
	}
	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		return nil, fmt.Errorf("logstore: mkdir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Append writes event as one newline-terminated line to today's log file.
// The file is named from the current date at call time, not the event's
// timestamp, so late-arriving events land in the day they were received.
func (s *Store) Append(event model.BarcodeEvent) error {
	line := fmt.Sprintf("%s | %s | %s\n",
		event.Timestamp.Format(model.StoreTimeLayout), event.Data, event.Format)

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.FileForDate(time.Now()), os.O_CREATE|os.O_APPEND|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return fmt.Errorf("logstore: open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("logstore: write: %w", err)
	}
	return nil
}

// FileForDate returns the log file path for the date of t.
func (s *Store) FileForDate(t time.Time) string {
	return filepath.Join(s.dir, "barcodes_"+t.Format("20060102")+".txt")
}
