package render

import (
	"fmt"
	"strings"

	"flexchat/internal/widget"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Welcome placeholder shown while the transcript is empty.
const (
	WelcomeTitle = "Welcome to the Flexible LangChain Chatbot!"
	WelcomeHint  = "Configure your settings on the left and start chatting."
)

// TimeFormat is the timestamp layout of transcript rows.
const TimeFormat = "15:04:05"

// Formatter renders widget state with a theme. Bot replies go through
// markdown when a renderer is set.
type Formatter struct {
	theme    *Theme
	markdown *Markdown
}

// NewFormatter creates a formatter. A nil theme means plain; a nil markdown
// renderer prints replies verbatim.
func NewFormatter(theme *Theme, markdown *Markdown) *Formatter {
	if theme == nil {
		theme = PlainTheme()
	}
	return &Formatter{theme: theme, markdown: markdown}
}

// Theme returns the formatter's theme.
func (f *Formatter) Theme() *Theme {
	return f.theme
}

// SenderLabel names the author of a transcript row.
func SenderLabel(sender widget.Sender) string {
	switch sender {
	case widget.SenderUser:
		return "You"
	case widget.SenderBot:
		return "Bot"
	default:
		return "Error"
	}
}

// Message renders one transcript row wrapped to width. A width of zero
// disables wrapping.
func (f *Formatter) Message(msg widget.Message, width int) string {
	var label lipgloss.Style
	switch msg.Sender {
	case widget.SenderUser:
		label = f.theme.User
	case widget.SenderBot:
		label = f.theme.Bot
	default:
		label = f.theme.Error
	}

	header := label.Render(SenderLabel(msg.Sender))
	if !msg.Timestamp.IsZero() {
		header += " " + f.theme.Muted.Render(msg.Timestamp.Format(TimeFormat))
	}

	return header + "\n" + f.body(msg, width)
}

func (f *Formatter) body(msg widget.Message, width int) string {
	if msg.Sender == widget.SenderBot && f.markdown != nil {
		if width > 0 {
			_ = f.markdown.SetWidth(width)
		}
		if rendered, err := f.markdown.Render(msg.Content); err == nil {
			return rendered
		}
	}

	style := lipgloss.NewStyle()
	if msg.IsError() {
		style = f.theme.Error.Bold(false)
	}
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(msg.Content)
}

// Transcript renders every row, headed by the welcome placeholder until the
// first user or bot message.
func (f *Formatter) Transcript(msgs []widget.Message, width int) string {
	rows := make([]string, 0, len(msgs)+1)
	if widget.ShowsWelcome(msgs) {
		rows = append(rows, f.Welcome(width))
	}
	for _, msg := range msgs {
		rows = append(rows, f.Message(msg, width))
	}
	return strings.Join(rows, "\n\n")
}

// Welcome renders the placeholder, centered when width is known.
func (f *Formatter) Welcome(width int) string {
	block := f.theme.Accent.Render(WelcomeTitle) + "\n" + f.theme.Muted.Render(WelcomeHint)
	if width <= 0 {
		return block
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Align(lipgloss.Center).Render(block))
}

// Status renders the banner line, truncated to width. Hidden banners render
// as an empty string.
func (f *Formatter) Status(s widget.Status, width int) string {
	if !s.Visible || s.Text == "" {
		return ""
	}

	var style lipgloss.Style
	switch s.Severity {
	case widget.SeveritySuccess:
		style = f.theme.Success
	case widget.SeverityError:
		style = f.theme.Error
	default:
		style = f.theme.Info
	}

	text := s.Text
	if width > 0 {
		text = ansi.Truncate(text, width, "…")
	}
	return style.Render(text)
}

// CharCount renders the input counter colored by level.
func (f *Formatter) CharCount(c widget.CharCount) string {
	text := fmt.Sprintf("%d characters", c.Count)
	switch c.Level {
	case widget.CharLevelDanger:
		return f.theme.Error.Render(text)
	case widget.CharLevelWarning:
		return f.theme.Warning.Render(text)
	default:
		return f.theme.Muted.Render(text)
	}
}

// Typing renders the typing indicator line next to a spinner frame.
func (f *Formatter) Typing(frame string) string {
	return f.theme.Bot.Render("Bot") + " " + f.theme.Muted.Render(frame+" typing…")
}

// Strip removes ANSI sequences, for plain output and tests.
func Strip(s string) string {
	return ansi.Strip(s)
}
