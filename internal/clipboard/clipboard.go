// Package clipboard copies bot replies to the system clipboard, keeping an
// in-process copy when the system clipboard cannot be used.
package clipboard

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable is returned where the platform build has no clipboard.
var ErrUnavailable = errors.New("clipboard not available on this platform")

// ErrEmpty is returned when there is nothing to copy.
var ErrEmpty = errors.New("nothing to copy")

// Writer puts text on a clipboard.
type Writer interface {
	Write(text string) error
}

// System writes to the operating system clipboard.
type System struct {
	once    sync.Once
	initErr error
}

// NewSystem returns the system clipboard. Initialization is deferred to the
// first Write.
func NewSystem() *System {
	return &System{}
}

// Available reports whether this build supports the system clipboard.
func (s *System) Available() bool {
	return clipboardAvailable
}

// Write copies text to the system clipboard.
func (s *System) Write(text string) error {
	if !clipboardAvailable {
		return ErrUnavailable
	}
	s.once.Do(func() {
		s.initErr = initClipboard()
	})
	if s.initErr != nil {
		return fmt.Errorf("clipboard initialization failed: %w", s.initErr)
	}
	if err := writeToClipboard(text); err != nil {
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	return nil
}

// Memory keeps the last copied text in process.
type Memory struct {
	mu   sync.Mutex
	last string
	n    int
}

// NewMemory creates an empty in-process clipboard.
func NewMemory() *Memory {
	return &Memory{}
}

// Write stores text.
func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = text
	m.n++
	return nil
}

// Last returns the most recent text and whether anything was written.
func (m *Memory) Last() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.n > 0
}

// FallbackError reports that text went to the fallback instead of the primary
// clipboard.
type FallbackError struct {
	Reason error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("copied to session buffer instead: %v", e.Reason)
}

func (e *FallbackError) Unwrap() error {
	return e.Reason
}

// Copier writes to a primary clipboard and falls back to an in-process one.
type Copier struct {
	primary  Writer
	fallback *Memory
}

// NewCopier creates a copier. A nil fallback gets a fresh Memory.
func NewCopier(primary Writer, fallback *Memory) *Copier {
	if fallback == nil {
		fallback = NewMemory()
	}
	return &Copier{primary: primary, fallback: fallback}
}

// Fallback returns the in-process clipboard.
func (c *Copier) Fallback() *Memory {
	return c.fallback
}

// Copy copies text and returns the number of characters copied. When the
// primary clipboard fails the text is kept in the fallback and a
// *FallbackError is returned alongside the count.
func (c *Copier) Copy(text string) (int, error) {
	if text == "" {
		return 0, ErrEmpty
	}
	n := len([]rune(text))

	if c.primary != nil {
		err := c.primary.Write(text)
		if err == nil {
			return n, nil
		}
		_ = c.fallback.Write(text)
		return n, &FallbackError{Reason: err}
	}

	_ = c.fallback.Write(text)
	return n, &FallbackError{Reason: ErrUnavailable}
}
