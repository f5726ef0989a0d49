package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/newtron-network/newtcheck/pkg/util"
)

// Logger stores and retrieves run history.
type Logger interface {
	Log(events ...*Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// RotationConfig bounds the history file. Zero values disable rotation and
// pruning respectively.
type RotationConfig struct {
	MaxSize    int64
	MaxBackups int
}

// backupStamp sorts lexically in creation order.
const backupStamp = "20060102T150405.000000000"

// maxLine caps a single stored event; one event carries every message of
// one unit.
const maxLine = 4 << 20

// FileLogger keeps history as one JSON object per line. Backups are
// renamed to <path>.<stamp> when the live file outgrows MaxSize.
type FileLogger struct {
	path string
	rot  RotationConfig

	mu   sync.Mutex
	f    *os.File
	size int64
}

// NewFileLogger opens the history file at path for appending, creating the
// file and its directory as needed.
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}
	l := &FileLogger{path: path, rot: rotation}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("history: open %s: %w", l.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("history: stat %s: %w", l.path, err)
	}
	l.f, l.size = f, info.Size()
	return nil
}

// Log appends events as a single write. The size check happens before the
// write, so one call never spans two files.
func (l *FileLogger) Log(events ...*Event) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("history: encode event: %w", err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return fmt.Errorf("history: %s is closed", l.path)
	}
	if l.rot.MaxSize > 0 && l.size >= l.rot.MaxSize {
		if err := l.rotate(); err != nil {
			return err
		}
	}
	n, err := l.f.Write(buf.Bytes())
	l.size += int64(n)
	return err
}

// Query reads the live file and returns matching events oldest first,
// after applying the filter's offset and limit. Unparseable lines are
// logged and skipped.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*Event
	err := scanFile(l.path, func(e *Event) {
		if filter.match(e) {
			out = append(out, e)
		}
	})
	if err != nil {
		return nil, err
	}
	return page(out, filter.Offset, filter.Limit), nil
}

// Close releases the file. Later calls to Log fail.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// scanFile decodes every line of path into fn. A missing file holds no
// events.
func scanFile(path string, fn func(*Event)) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	for line := 1; sc.Scan(); line++ {
		e := &Event{}
		if err := json.Unmarshal(sc.Bytes(), e); err != nil {
			util.WithFields(map[string]interface{}{"file": path, "line": line}).
				Warnf("history: skipping unreadable entry: %v", err)
			continue
		}
		fn(e)
	}
	return sc.Err()
}

func page(events []*Event, offset, limit int) []*Event {
	if offset >= len(events) {
		return []*Event{}
	}
	if offset > 0 {
		events = events[offset:]
	}
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	return events
}

func (f Filter) match(e *Event) bool {
	switch {
	case f.RunID != "" && e.RunID != f.RunID,
		f.Device != "" && e.Device != f.Device,
		f.Test != "" && e.Test != f.Test,
		f.Status != "" && e.Status != f.Status,
		!f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime),
		!f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	}
	return true
}

// rotate moves the live file aside, reopens an empty one and drops the
// oldest backups beyond MaxBackups. Caller holds mu.
func (l *FileLogger) rotate() error {
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("history: rotate: %w", err)
	}
	l.f = nil
	backup := l.path + "." + time.Now().UTC().Format(backupStamp)
	if err := os.Rename(l.path, backup); err != nil {
		return fmt.Errorf("history: rotate: %w", err)
	}
	if err := l.open(); err != nil {
		return err
	}
	if l.rot.MaxBackups > 0 {
		l.prune()
	}
	return nil
}

func (l *FileLogger) prune() {
	backups, err := filepath.Glob(l.path + ".*")
	if err != nil || len(backups) <= l.rot.MaxBackups {
		return
	}
	sort.Strings(backups)
	for _, old := range backups[:len(backups)-l.rot.MaxBackups] {
		if err := os.Remove(old); err != nil {
			util.WithField("file", old).Warnf("history: removing backup: %v", err)
		}
	}
}
