package session

import "sync"

// ErrorLog accumulates user-facing failure messages across operations.
// Entries are only removed by an explicit Clear, so a burst of rejections
// stays visible until the caller acknowledges it.
type ErrorLog struct {
	mu      sync.Mutex
	entries []string
}

func NewErrorLog() *ErrorLog {
	return &ErrorLog{}
}

func (e *ErrorLog) Append(messages ...string) {
	if len(messages) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, messages...)
}

// All returns a copy of the accumulated messages in append order.
func (e *ErrorLog) All() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.entries))
	copy(out, e.entries)
	return out
}

func (e *ErrorLog) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

func (e *ErrorLog) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
}
