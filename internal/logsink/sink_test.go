package logsink

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestAppend_CreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs", "crm_heartbeat_log.txt")
	sink := New()

	require.NoError(t, sink.Append(path, "12/10/2026-08:00:00 CRM is alive"))

	assert.Equal(t, []string{"12/10/2026-08:00:00 CRM is alive"}, readLines(t, path))
}

func TestAppend_RepeatedRunsAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "low_stock_updates_log.txt")

	// Two sinks model two separate process runs.
	require.NoError(t, New().Append(path, "first"))
	require.NoError(t, New().Append(path, "second"))
	require.NoError(t, New().Append(path, "third"))

	assert.Equal(t, []string{"first", "second", "third"}, readLines(t, path))
}

func TestAppend_RecreatesRemovedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	path := filepath.Join(dir, "crm_heartbeat_log.txt")
	sink := New()

	require.NoError(t, sink.Append(path, "first"))
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, sink.Append(path, "second"))
	require.NoError(t, sink.Append(path, "third"))

	assert.Equal(t, []string{"second", "third"}, readLines(t, path))
}

func TestAppend_OneLinePerCall(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{name: "plain", line: "hello", want: "hello\n"},
		{name: "trailing newline is not doubled", line: "hello\n", want: "hello\n"},
		{name: "embedded newline is flattened", line: "graphql: a\nb", want: "graphql: a b\n"},
		{name: "crlf trimmed", line: "hello\r\n", want: "hello\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")
			require.NoError(t, New().Append(path, tt.line))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestAppend_FailureIsIOFailure(t *testing.T) {
	dir := t.TempDir()
	// A regular file where a directory is expected makes MkdirAll fail.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := New().Append(filepath.Join(blocker, "log.txt"), "line")
	require.Error(t, err)

	var ioErr *IOFailure
	require.True(t, errors.As(err, &ioErr), "error %T is not *IOFailure", err)
	assert.Equal(t, filepath.Join(blocker, "log.txt"), ioErr.Path)
	assert.NotNil(t, ioErr.Unwrap())
	assert.Contains(t, err.Error(), "logsink: write")
}

func TestAppend_PathIsDirectory(t *testing.T) {
	dir := t.TempDir()

	err := New().Append(dir, "line")

	var ioErr *IOFailure
	require.ErrorAs(t, err, &ioErr)
}

func TestAppend_EmptyPath(t *testing.T) {
	err := New().Append("", "line")

	var ioErr *IOFailure
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestAppend_ConcurrentWritesKeepLinesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.txt")
	sink := New()

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, sink.Append(path, "2026-10-12 08:00:00 - Updated: Widget"))
		}()
	}
	wg.Wait()

	lines := readLines(t, path)
	require.Len(t, lines, writers)
	for _, line := range lines {
		assert.Equal(t, "2026-10-12 08:00:00 - Updated: Widget", line)
	}
}

func TestEntry_Line(t *testing.T) {
	assert.Equal(t, "ts msg", Entry{Timestamp: "ts", Message: "msg"}.Line())
	assert.Equal(t, "msg", Entry{Message: "msg"}.Line())

	path := filepath.Join(t.TempDir(), "entry.txt")
	require.NoError(t, New().AppendEntry(path, Entry{Timestamp: "[2026-10-12 08:00:00]", Message: "ERROR: boom"}))
	assert.Equal(t, []string{"[2026-10-12 08:00:00] ERROR: boom"}, readLines(t, path))
}
