// Package safety guards the jobs exposed over MCP: which jobs are exposed,
// which need an explicit confirmation token, and an audit trail of every call.
package safety

import "path/filepath"

// Filter decides which job tools are exposed, from glob allow and deny lists
// (filepath.Match syntax). The denylist wins; an empty allowlist allows
// everything not denied.
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter. Either list may be nil.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// IsAllowed reports whether the tool or job name passes the filter. A nil
// Filter allows everything.
func (f *Filter) IsAllowed(name string) bool {
	if f == nil {
		return true
	}
	if matchAny(f.denylist, name) {
		return false
	}
	return len(f.allowlist) == 0 || matchAny(f.allowlist, name)
}

// matchAny treats malformed patterns as non-matching.
func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
