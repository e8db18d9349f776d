// Package output provides the console printer used by the flexchat line shell
// and one-shot commands. Colors come from an injected StyleProvider, so the
// printer never depends on the theme implementation.
package output

// StyleProvider styles text by semantic role. render.Theme is the production
// implementation.
type StyleProvider interface {
	GetStyle(semantic string) TextStyle
	// IsAvailable reports whether styles can be used; the printer falls back
	// to Plain otherwise.
	IsAvailable() bool
	// GetThemeType names the matching glamour style ("dark", "light", "notty").
	GetThemeType() string
}

// TextStyle renders text with styling.
type TextStyle interface {
	Render(text string) string
}

// Mode selects how the printer encodes output.
type Mode int

// Printer modes.
const (
	// ModeAuto styles output when a provider is available.
	ModeAuto Mode = iota
	ModeStyled
	// ModePlain uses the Plain symbol prefixes.
	ModePlain
	// ModeJSON writes one JSON object per line.
	ModeJSON
)

// SemanticType names the role of a piece of output.
type SemanticType string

// Semantic roles.
const (
	SemanticPlain   SemanticType = "plain"
	SemanticInfo    SemanticType = "info"
	SemanticSuccess SemanticType = "success"
	SemanticWarning SemanticType = "warning"
	SemanticError   SemanticType = "error"
	// SemanticUser marks text typed by the user.
	SemanticUser SemanticType = "user"
	// SemanticBot marks replies from the chat backend.
	SemanticBot    SemanticType = "bot"
	SemanticMuted  SemanticType = "muted"
	SemanticAccent SemanticType = "accent"
)

var plainPrefixes = map[SemanticType]string{
	SemanticSuccess: "✓ ",
	SemanticWarning: "⚠ ",
	SemanticError:   "✗ ",
	SemanticInfo:    "ℹ ",
	SemanticUser:    "> ",
}

type prefixStyle string

func (p prefixStyle) Render(text string) string {
	return string(p) + text
}

type plainProvider struct{}

func (plainProvider) GetStyle(semantic string) TextStyle {
	return prefixStyle(plainPrefixes[SemanticType(semantic)])
}

func (plainProvider) IsAvailable() bool { return true }

func (plainProvider) GetThemeType() string { return "notty" }

// Plain marks roles with symbol prefixes instead of colors. It is used
// whenever styling is off.
var Plain StyleProvider = plainProvider{}
