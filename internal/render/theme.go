// Package render turns widget state into styled terminal text: themes loaded
// from embedded YAML, glamour markdown for bot replies and the transcript,
// banner and counter formatting shared by the shell and the TUI.
package render

import (
	"fmt"
	"slices"
	"strings"

	"flexchat/internal/data/embedded"
	"flexchat/internal/logger"
	"flexchat/internal/output"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// StyleConfig is the YAML form of one style.
type StyleConfig struct {
	Foreground any   `yaml:"foreground,omitempty"`
	Background any   `yaml:"background,omitempty"`
	Bold       *bool `yaml:"bold,omitempty"`
	Italic     *bool `yaml:"italic,omitempty"`
	Underline  *bool `yaml:"underline,omitempty"`
	Reverse    *bool `yaml:"reverse,omitempty"`
}

// ThemeStyles lists the styles a theme file may define.
type ThemeStyles struct {
	User     StyleConfig `yaml:"user"`
	Bot      StyleConfig `yaml:"bot"`
	Error    StyleConfig `yaml:"error"`
	Info     StyleConfig `yaml:"info"`
	Success  StyleConfig `yaml:"success"`
	Warning  StyleConfig `yaml:"warning"`
	Muted    StyleConfig `yaml:"muted"`
	Accent   StyleConfig `yaml:"accent"`
	Border   StyleConfig `yaml:"border"`
	Selected StyleConfig `yaml:"selected"`
}

// ThemeConfig is a theme file.
type ThemeConfig struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Glamour     string      `yaml:"glamour,omitempty"`
	Styles      ThemeStyles `yaml:"styles"`
}

// Theme holds the lipgloss styles used across the front ends. It also serves
// as the output.StyleProvider of shell printers.
type Theme struct {
	Name        string
	Description string
	Glamour     string

	User     lipgloss.Style
	Bot      lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Border   lipgloss.Style
	Selected lipgloss.Style
}

// ParseTheme builds a theme from YAML.
func ParseTheme(data []byte) (*Theme, error) {
	var cfg ThemeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("theme file has no name")
	}

	glamourStyle := cfg.Glamour
	if glamourStyle == "" {
		glamourStyle = "auto"
	}

	s := cfg.Styles
	return &Theme{
		Name:        cfg.Name,
		Description: cfg.Description,
		Glamour:     glamourStyle,
		User:        createStyle(s.User),
		Bot:         createStyle(s.Bot),
		Error:       createStyle(s.Error),
		Info:        createStyle(s.Info),
		Success:     createStyle(s.Success),
		Warning:     createStyle(s.Warning),
		Muted:       createStyle(s.Muted),
		Accent:      createStyle(s.Accent),
		Border:      createStyle(s.Border),
		Selected:    createStyle(s.Selected),
	}, nil
}

func createStyle(cfg StyleConfig) lipgloss.Style {
	style := lipgloss.NewStyle()

	if color := parseColor(cfg.Foreground); color != nil {
		style = style.Foreground(color)
	}
	if color := parseColor(cfg.Background); color != nil {
		style = style.Background(color)
	}
	if cfg.Bold != nil && *cfg.Bold {
		style = style.Bold(true)
	}
	if cfg.Italic != nil && *cfg.Italic {
		style = style.Italic(true)
	}
	if cfg.Underline != nil && *cfg.Underline {
		style = style.Underline(true)
	}
	if cfg.Reverse != nil && *cfg.Reverse {
		style = style.Reverse(true)
	}
	return style
}

// parseColor accepts a color string or a {light, dark} map.
func parseColor(value any) lipgloss.TerminalColor {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return lipgloss.Color(v)
	case map[string]any:
		light, hasLight := v["light"].(string)
		dark, hasDark := v["dark"].(string)
		if hasLight && hasDark {
			return lipgloss.AdaptiveColor{Light: light, Dark: dark}
		}
		return nil
	default:
		return nil
	}
}

// PlainTheme returns a theme without colors.
func PlainTheme() *Theme {
	return &Theme{
		Name:     "plain",
		Glamour:  "notty",
		User:     lipgloss.NewStyle().Bold(true),
		Bot:      lipgloss.NewStyle().Bold(true),
		Error:    lipgloss.NewStyle().Bold(true),
		Info:     lipgloss.NewStyle(),
		Success:  lipgloss.NewStyle(),
		Warning:  lipgloss.NewStyle(),
		Muted:    lipgloss.NewStyle(),
		Accent:   lipgloss.NewStyle(),
		Border:   lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Reverse(true),
	}
}

// GetStyle implements output.StyleProvider.
func (t *Theme) GetStyle(semantic string) output.TextStyle {
	switch output.SemanticType(semantic) {
	case output.SemanticUser:
		return textStyle{t.User}
	case output.SemanticBot:
		return textStyle{t.Bot}
	case output.SemanticError:
		return textStyle{t.Error}
	case output.SemanticInfo:
		return textStyle{t.Info}
	case output.SemanticSuccess:
		return textStyle{t.Success}
	case output.SemanticWarning:
		return textStyle{t.Warning}
	case output.SemanticMuted:
		return textStyle{t.Muted}
	case output.SemanticAccent:
		return textStyle{t.Accent}
	default:
		return textStyle{lipgloss.NewStyle()}
	}
}

// IsAvailable implements output.StyleProvider.
func (t *Theme) IsAvailable() bool {
	return t != nil
}

// GetThemeType implements output.StyleProvider and names the glamour style
// matching this theme.
func (t *Theme) GetThemeType() string {
	return t.Glamour
}

type textStyle struct {
	style lipgloss.Style
}

func (s textStyle) Render(text string) string {
	return s.style.Render(text)
}

// Registry holds the loaded themes.
type Registry struct {
	themes map[string]*Theme
}

// NewRegistry loads every embedded theme. Themes that fail to parse are
// replaced by the plain theme under the same name.
func NewRegistry() *Registry {
	r := &Registry{themes: make(map[string]*Theme)}

	files, err := embedded.ThemeFiles()
	if err != nil {
		logger.Error("Failed to read embedded themes", "error", err)
	}
	for name, data := range files {
		theme, err := ParseTheme(data)
		if err != nil {
			logger.Error("Failed to load theme", "theme", name, "error", err)
			fallback := PlainTheme()
			fallback.Name = name
			r.themes[name] = fallback
			continue
		}
		r.themes[name] = theme
	}

	if _, ok := r.themes["plain"]; !ok {
		r.themes["plain"] = PlainTheme()
	}
	return r
}

// Names lists the available themes in name order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.themes))
	for name := range r.themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns the named theme. Unknown names fall back to plain.
func (r *Registry) Get(name string) *Theme {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		normalized = "default"
	}
	if theme, ok := r.themes[normalized]; ok {
		return theme
	}
	logger.Debug("Unknown theme requested, using plain theme", "theme", name, "available", r.Names())
	return r.themes["plain"]
}

// Resolve returns the named theme, or plain when the terminal cannot show
// colors.
func (r *Registry) Resolve(name string, profile termenv.Profile) *Theme {
	if profile == termenv.Ascii {
		return r.themes["plain"]
	}
	return r.Get(name)
}
