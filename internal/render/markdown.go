package render

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"flexchat/internal/logger"

	"github.com/charmbracelet/glamour"
)

// DefaultWordWrap is the wrap width used until SetWidth is called.
const DefaultWordWrap = 80

// ErrEmptyMarkdown is returned when there is nothing to render.
var ErrEmptyMarkdown = errors.New("markdown content cannot be empty")

// Markdown renders bot replies with glamour.
type Markdown struct {
	mu       sync.Mutex
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer for a glamour style name ("auto", "dark",
// "light", "notty", "ascii") or a style file path.
func NewMarkdown(style string, width int) (*Markdown, error) {
	if width <= 0 {
		width = DefaultWordWrap
	}
	m := &Markdown{style: style, width: width}
	renderer, err := m.build()
	if err != nil {
		return nil, err
	}
	m.renderer = renderer
	return m, nil
}

func (m *Markdown) build() (*glamour.TermRenderer, error) {
	if m.style == "" || m.style == "auto" {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(m.width),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		return renderer, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(m.style),
		glamour.WithWordWrap(m.width),
	)
	if err != nil {
		logger.Debug("Failed to create renderer with style, falling back to notty", "style", m.style, "error", err)
		renderer, err = glamour.NewTermRenderer(
			glamour.WithStylePath("notty"),
			glamour.WithWordWrap(m.width),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
	}
	return renderer, nil
}

// Style returns the glamour style in use.
func (m *Markdown) Style() string {
	return m.style
}

// Width returns the current wrap width.
func (m *Markdown) Width() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width
}

// SetWidth changes the wrap width, rebuilding the renderer when it differs.
func (m *Markdown) SetWidth(width int) error {
	if width <= 0 {
		return fmt.Errorf("word wrap width must be positive, got %d", width)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if width == m.width {
		return nil
	}

	prev := m.width
	m.width = width
	renderer, err := m.build()
	if err != nil {
		m.width = prev
		return fmt.Errorf("failed to create renderer with word wrap %d: %w", width, err)
	}
	m.renderer = renderer
	return nil
}

// Render renders markdown to ANSI text with surrounding blank lines removed.
func (m *Markdown) Render(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", ErrEmptyMarkdown
	}

	m.mu.Lock()
	renderer := m.renderer
	m.mu.Unlock()

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.Trim(rendered, "\n"), nil
}
