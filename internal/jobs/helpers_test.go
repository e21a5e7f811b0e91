package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jamesprial/crm-housekeeping/internal/graphql"
	"github.com/jamesprial/crm-housekeeping/internal/logsink"
)

// ============================================================================
// Mock: GraphQL Client
// ============================================================================

// mockGraphQLClient implements graphql.Client. Each call is recorded and
// delegated to executeFunc.
type mockGraphQLClient struct {
	executeFunc func(ctx context.Context, query string, variables map[string]any) ([]byte, error)

	mu    sync.Mutex
	calls []graphql.Request
}

var _ graphql.Client = (*mockGraphQLClient)(nil)

func (m *mockGraphQLClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, graphql.Request{Query: query, Variables: variables})
	m.mu.Unlock()
	if m.executeFunc != nil {
		return m.executeFunc(ctx, query, variables)
	}
	return nil, fmt.Errorf("mockGraphQLClient.Execute not configured")
}

func (m *mockGraphQLClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// respondWith returns a client answering every call with data.
func respondWith(data string) *mockGraphQLClient {
	return &mockGraphQLClient{
		executeFunc: func(context.Context, string, map[string]any) ([]byte, error) {
			return []byte(data), nil
		},
	}
}

// failWith returns a client failing every call with a TransportFailure.
func failWith(msg string) *mockGraphQLClient {
	return &mockGraphQLClient{
		executeFunc: func(context.Context, string, map[string]any) ([]byte, error) {
			return nil, &graphql.TransportFailure{Message: msg}
		},
	}
}

// ============================================================================
// Mock: Appender
// ============================================================================

// flakySink delegates to a real logsink.Sink but fails the calls whose
// 1-based index is listed in failOn.
type flakySink struct {
	inner  *logsink.Sink
	failOn map[int]bool

	mu    sync.Mutex
	calls int
}

func newFlakySink(failOn ...int) *flakySink {
	s := &flakySink{inner: logsink.New(), failOn: map[int]bool{}}
	for _, n := range failOn {
		s.failOn[n] = true
	}
	return s
}

func (s *flakySink) Append(path, line string) error {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if s.failOn[n] {
		return &logsink.IOFailure{Path: path, Err: errors.New("no space left on device")}
	}
	return s.inner.Append(path, line)
}

// ============================================================================
// Test Helpers
// ============================================================================

// fixedNow is the clock used by every job test.
var fixedNow = time.Date(2026, 10, 12, 8, 30, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// logPath returns a log path inside a not-yet-existing directory.
func logPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "logs", name)
}

// readLog returns the lines of the log at path, or nil if it does not exist.
func readLog(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// observedLogger returns a logger whose entries can be inspected.
func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}
