package logtail

import (
	"strings"
	"sync"
)

// Buffer is an append only log buffer. It is never cleared unless Reset is called.
type Buffer struct {
	mu  sync.RWMutex
	buf string
}

// Append adds a fragment at the end of the buffer, or at the beginning when
// appendToEnd is false (reverse chronological display).
func (b *Buffer) Append(fragment string, appendToEnd bool) {
	if fragment == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	sb.Grow(len(b.buf) + len(fragment))
	if appendToEnd {
		sb.WriteString(b.buf)
		sb.WriteString(fragment)
	} else {
		sb.WriteString(fragment)
		sb.WriteString(b.buf)
	}
	b.buf = sb.String()
}

// Reset clears the buffer.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = ""
}

// String returns the buffer content.
func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.buf
}

// Len returns the buffer content length in bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buf)
}
