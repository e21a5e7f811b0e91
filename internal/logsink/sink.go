// Package logsink appends timestamped lines to plain-text job logs.
package logsink

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Timestamp layouts used by the job logs.
const (
	// HeartbeatLayout renders DD/MM/YYYY-HH:MM:SS.
	HeartbeatLayout = "02/01/2006-15:04:05"
	// StandardLayout renders YYYY-MM-DD HH:MM:SS.
	StandardLayout = "2006-01-02 15:04:05"
)

// IOFailure reports a failed log write. It wraps the underlying OS error.
type IOFailure struct {
	Path string
	Err  error
}

func (f *IOFailure) Error() string {
	return fmt.Sprintf("logsink: write %s: %v", f.Path, f.Err)
}

func (f *IOFailure) Unwrap() error {
	return f.Err
}

// Entry is a single log line before rendering.
type Entry struct {
	Timestamp string
	Message   string
}

// Line renders the entry as "<timestamp> <message>".
func (e Entry) Line() string {
	if e.Timestamp == "" {
		return e.Message
	}
	return e.Timestamp + " " + e.Message
}

// Sink appends lines to files. Each Append opens, writes and closes the file;
// nothing is buffered between calls. The directory of every path is created
// on first use, and again if it has since been removed. It is safe for
// concurrent use.
type Sink struct {
	mu       sync.Mutex
	ensured  map[string]struct{}
	fileMode os.FileMode
}

// New returns a Sink that creates files with mode 0o644.
func New() *Sink {
	return &Sink{
		ensured:  make(map[string]struct{}),
		fileMode: 0o644,
	}
}

// Append writes line plus a trailing newline to the file at path in a single
// write. Embedded newlines are replaced with spaces so one call is always one
// line. Errors are returned as *IOFailure.
func (s *Sink) Append(path, line string) error {
	if path == "" {
		return &IOFailure{Path: path, Err: os.ErrInvalid}
	}
	dir := filepath.Dir(path)
	if err := s.ensureDir(dir); err != nil {
		return &IOFailure{Path: path, Err: err}
	}

	data := []byte(strings.ReplaceAll(strings.TrimRight(line, "\r\n"), "\n", " ") + "\n")

	f, err := s.open(path)
	if errors.Is(err, fs.ErrNotExist) {
		// The directory was removed after it was first created.
		s.forgetDir(dir)
		if err = s.ensureDir(dir); err == nil {
			f, err = s.open(path)
		}
	}
	if err != nil {
		return &IOFailure{Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return &IOFailure{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOFailure{Path: path, Err: err}
	}
	return nil
}

// AppendEntry renders entry and appends it to path.
func (s *Sink) AppendEntry(path string, entry Entry) error {
	return s.Append(path, entry.Line())
}

func (s *Sink) open(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, s.fileMode)
}

func (s *Sink) forgetDir(dir string) {
	s.mu.Lock()
	delete(s.ensured, dir)
	s.mu.Unlock()
}

func (s *Sink) ensureDir(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ensured[dir]; ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.ensured[dir] = struct{}{}
	return nil
}
