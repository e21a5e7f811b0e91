package safety

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"
)

const tokenTTL = 5 * time.Minute

// ConfirmationTracker hands out single-use, time-limited tokens that a caller
// must echo back before a mutating job runs. A token is bound to the tool it
// was issued for.
type ConfirmationTracker struct {
	mutating map[string]struct{}
	now      func() time.Time
	entropy  io.Reader

	mu     sync.Mutex
	tokens map[string]pendingConfirmation
}

type pendingConfirmation struct {
	tool     string
	issuedAt time.Time
}

// TrackerOption customises a ConfirmationTracker.
type TrackerOption func(*ConfirmationTracker)

// WithEntropy replaces crypto/rand as the source of token bytes.
func WithEntropy(r io.Reader) TrackerOption {
	return func(ct *ConfirmationTracker) { ct.entropy = r }
}

// NewConfirmationTracker returns a tracker requiring confirmation for the
// given tool names. A nil or empty slice means nothing requires confirmation.
func NewConfirmationTracker(mutatingTools []string, opts ...TrackerOption) *ConfirmationTracker {
	ct := &ConfirmationTracker{
		mutating: make(map[string]struct{}, len(mutatingTools)),
		now:      time.Now,
		entropy:  rand.Reader,
		tokens:   make(map[string]pendingConfirmation),
	}
	for _, tool := range mutatingTools {
		ct.mutating[tool] = struct{}{}
	}
	for _, opt := range opts {
		opt(ct)
	}
	return ct
}

// NeedsConfirmation reports whether tool requires a token.
func (ct *ConfirmationTracker) NeedsConfirmation(tool string) bool {
	_, ok := ct.mutating[tool]
	return ok
}

// RequestConfirmation issues a token for tool, valid for five minutes. It
// fails rather than issue a token when no random bytes are available.
func (ct *ConfirmationTracker) RequestConfirmation(tool string) (string, error) {
	var b [16]byte
	if _, err := io.ReadFull(ct.entropy, b[:]); err != nil {
		return "", fmt.Errorf("generate confirmation token: %w", err)
	}
	token := hex.EncodeToString(b[:])

	ct.mu.Lock()
	defer ct.mu.Unlock()

	now := ct.now()
	for t, p := range ct.tokens {
		if now.Sub(p.issuedAt) > tokenTTL {
			delete(ct.tokens, t)
		}
	}
	ct.tokens[token] = pendingConfirmation{tool: tool, issuedAt: now}
	return token, nil
}

// Confirm consumes token and reports whether it was issued for tool and has
// not expired. A token is spent by the first Confirm call whatever the
// outcome.
func (ct *ConfirmationTracker) Confirm(tool, token string) bool {
	if token == "" {
		return false
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	pending, ok := ct.tokens[token]
	if !ok {
		return false
	}
	delete(ct.tokens, token)

	return pending.tool == tool && ct.now().Sub(pending.issuedAt) <= tokenTTL
}
