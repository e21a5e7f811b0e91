package safety

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func Test_AuditLogger_Log_Format_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(&buf, "run-123")

	entry := AuditEntry{
		Timestamp: time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC),
		Tool:      "crm_heartbeat",
		Result:    "ok",
		Duration:  250 * time.Millisecond,
	}
	if err := logger.Log(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, buf.String())
	}
	if parsed["tool"] != "crm_heartbeat" {
		t.Errorf("tool = %v, want crm_heartbeat", parsed["tool"])
	}
	if parsed["result"] != "ok" {
		t.Errorf("result = %v, want ok", parsed["result"])
	}
	if parsed["run_id"] != "run-123" {
		t.Errorf("run_id = %v, want run-123", parsed["run_id"])
	}
	if parsed["duration_ns"] != float64(250*time.Millisecond) {
		t.Errorf("duration_ns = %v", parsed["duration_ns"])
	}
	if _, ok := parsed["params"]; ok {
		t.Error("empty params should be omitted")
	}
}

func Test_AuditLogger_ExplicitRunIDWins(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(&buf, "default-run")

	if err := logger.Log(AuditEntry{Tool: "crm_heartbeat", RunID: "explicit", Result: "ok"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"run_id":"explicit"`) {
		t.Errorf("output = %s, want explicit run_id", buf.String())
	}
}

func Test_AuditLogger_ConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(&buf, "run")

	const writers = 40
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_ = logger.Log(AuditEntry{Tool: "crm_order_reminders", Params: map[string]any{"n": 1}, Result: "ok"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != writers {
		t.Fatalf("lines = %d, want %d", len(lines), writers)
	}
	for i, line := range lines {
		var v map[string]any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func Test_AuditLogger_NilWriter(t *testing.T) {
	logger := NewAuditLogger(nil, "run")
	if logger != nil {
		t.Fatal("NewAuditLogger(nil) should return nil")
	}
	if err := logger.Log(AuditEntry{Tool: "crm_heartbeat"}); !errors.Is(err, ErrNilWriter) {
		t.Errorf("Log() on nil logger = %v, want ErrNilWriter", err)
	}
}
