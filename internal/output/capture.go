package output

import (
	"bytes"
	"strings"
	"sync"
)

// CaptureBuffer is an io.Writer that collects printer output for tests.
// It is safe for concurrent use.
type CaptureBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewCaptureBuffer returns an empty buffer.
func NewCaptureBuffer() *CaptureBuffer {
	return &CaptureBuffer{}
}

func (c *CaptureBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *CaptureBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Lines splits the output on newlines, dropping the trailing one.
func (c *CaptureBuffer) Lines() []string {
	content := strings.TrimSuffix(c.String(), "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// Reset discards everything captured so far.
func (c *CaptureBuffer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
}
