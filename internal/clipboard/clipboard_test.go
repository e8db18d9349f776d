package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{ err error }

func (f failingWriter) Write(string) error { return f.err }

func TestCopier_PrimarySucceeds(t *testing.T) {
	primary := NewMemory()
	c := NewCopier(primary, nil)

	n, err := c.Copy("héllo")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	text, ok := primary.Last()
	assert.True(t, ok)
	assert.Equal(t, "héllo", text)

	_, ok = c.Fallback().Last()
	assert.False(t, ok)
}

func TestCopier_FallsBack(t *testing.T) {
	boom := errors.New("no display")
	fallback := NewMemory()
	c := NewCopier(failingWriter{err: boom}, fallback)

	n, err := c.Copy("reply")
	assert.Equal(t, 5, n)

	var fbErr *FallbackError
	require.ErrorAs(t, err, &fbErr)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "session buffer")

	text, ok := fallback.Last()
	assert.True(t, ok)
	assert.Equal(t, "reply", text)
}

func TestCopier_NoPrimary(t *testing.T) {
	c := NewCopier(nil, nil)
	_, err := c.Copy("x")
	assert.ErrorIs(t, err, ErrUnavailable)

	text, _ := c.Fallback().Last()
	assert.Equal(t, "x", text)
}

func TestCopier_Empty(t *testing.T) {
	c := NewCopier(NewMemory(), nil)
	_, err := c.Copy("")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSystem_Availability(t *testing.T) {
	s := NewSystem()
	assert.Equal(t, clipboardAvailable, s.Available())
	if !s.Available() {
		assert.ErrorIs(t, s.Write("x"), ErrUnavailable)
	}
}
