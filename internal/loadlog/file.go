package loadlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// File is the durable, file-backed ledger. All writes go through a single
// mutex: record dispatch may be parallel, but appends are serialized so
// each line is atomic. Every Record flushes and fsyncs before returning;
// the corresponding batch is not committed until that happens.
type File struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	f       *os.File
	w       *bufio.Writer
	keys    map[key]struct{}
	entries int
}

// Open replays the full log at path into memory and returns a ledger ready
// for appends. A missing file is an empty ledger; the file itself is
// created lazily on the first Record. A partial trailing line, the
// signature of a crash mid-append, is logged and ignored; a malformed line
// anywhere else means the log was edited and is an error.
func Open(path string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &File{
		path:   path,
		logger: logger,
		keys:   make(map[key]struct{}),
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening load log %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	var pendingErr error
	for scanner.Scan() {
		line++
		if pendingErr != nil {
			// The malformed line was not the last one.
			return nil, pendingErr
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			pendingErr = fmt.Errorf("load log %s line %d: %w", path, line, err)
			continue
		}
		l.entries++
		if e.Outcome == OutcomeSuccess {
			l.keys[key{model: e.Model, identity: e.Identity}] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading load log %s: %w", path, err)
	}
	if pendingErr != nil {
		logger.Warn("ignoring partial trailing line in load log", "path", path, "line", line)
	}
	return l, nil
}

// Contains reports whether a prior append recorded success for the key.
func (l *File) Contains(model, identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[key{model: model, identity: identity}]
	return ok
}

// Len returns the number of replayed plus appended entries.
func (l *File) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries
}

// Record appends one entry and does not return until it is flushed and
// synced to disk.
func (l *File) Record(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("creating load log %s: %w", l.path, err)
		}
		l.f = f
		l.w = bufio.NewWriter(f)
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding load log entry %s/%s: %w", e.Model, e.Identity, err)
	}
	if _, err := l.w.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("appending load log entry %s/%s: %w", e.Model, e.Identity, err)
	}
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("flushing load log entry %s/%s: %w", e.Model, e.Identity, err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("syncing load log entry %s/%s: %w", e.Model, e.Identity, err)
	}

	l.entries++
	if e.Outcome == OutcomeSuccess {
		l.keys[key{model: e.Model, identity: e.Identity}] = struct{}{}
	}
	return nil
}

// Close closes the underlying file, if one was ever created.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	l.w = nil
	return err
}

// ReadAll replays every entry of the log at path, for inspection commands.
// Unlike Open it keeps full entries, not just keys.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening load log %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			// Tolerate the trailing partial line here too.
			break
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading load log %s: %w", path, err)
	}
	return entries, nil
}
