package render

import (
	"strings"
	"testing"
	"time"

	"flexchat/internal/output"
	"flexchat/internal/widget"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ output.StyleProvider = (*Theme)(nil)

func TestRegistry_LoadsEmbeddedThemes(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"dark", "default", "light", "plain"}, r.Names())

	assert.Equal(t, "dark", r.Get("DARK").Name)
	assert.Equal(t, "default", r.Get("").Name)
	assert.Equal(t, "plain", r.Get("solarized").Name)
	assert.Equal(t, "light", r.Get(" light ").GetThemeType())
}

func TestRegistry_ResolveFallsBackOnAsciiProfile(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "plain", r.Resolve("dark", termenv.Ascii).Name)
	assert.Equal(t, "dark", r.Resolve("dark", termenv.TrueColor).Name)
}

func TestParseTheme(t *testing.T) {
	theme, err := ParseTheme([]byte(`
name: custom
styles:
  user:
    foreground:
      light: "#000000"
      dark: "#FFFFFF"
    bold: true
  error:
    foreground: "#FF0000"
`))
	require.NoError(t, err)
	assert.Equal(t, "custom", theme.Name)
	assert.Equal(t, "auto", theme.Glamour)
	assert.True(t, theme.User.GetBold())
	assert.NotNil(t, theme.Error.GetForeground())

	_, err = ParseTheme([]byte("name: [broken"))
	assert.ErrorContains(t, err, "failed to parse theme file")

	_, err = ParseTheme([]byte("styles: {}"))
	assert.ErrorContains(t, err, "no name")
}

func TestTheme_GetStyle(t *testing.T) {
	theme := PlainTheme()
	for _, semantic := range []output.SemanticType{
		output.SemanticUser, output.SemanticBot, output.SemanticError, output.SemanticInfo,
		output.SemanticSuccess, output.SemanticWarning, output.SemanticMuted, output.SemanticAccent,
		output.SemanticPlain,
	} {
		got := theme.GetStyle(string(semantic)).Render("text")
		assert.Equal(t, "text", ansi.Strip(got), semantic)
	}
	assert.True(t, theme.IsAvailable())
	assert.Equal(t, "notty", theme.GetThemeType())
}

func TestMarkdown(t *testing.T) {
	md, err := NewMarkdown("notty", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultWordWrap, md.Width())
	assert.Equal(t, "notty", md.Style())

	out, err := md.Render("# Hello World\n\nSome **bold** text.")
	require.NoError(t, err)
	plain := Strip(out)
	assert.Contains(t, plain, "Hello World")
	assert.Contains(t, plain, "bold")
	assert.False(t, strings.HasPrefix(out, "\n"))

	_, err = md.Render("   ")
	assert.ErrorIs(t, err, ErrEmptyMarkdown)

	assert.Error(t, md.SetWidth(0))
	require.NoError(t, md.SetWidth(40))
	assert.Equal(t, 40, md.Width())
}

func TestMarkdown_UnknownStyleFallsBack(t *testing.T) {
	md, err := NewMarkdown("/no/such/style.json", 60)
	require.NoError(t, err)

	out, err := md.Render("plain words")
	require.NoError(t, err)
	assert.Contains(t, Strip(out), "plain words")
}

func TestFormatter_Transcript(t *testing.T) {
	f := NewFormatter(nil, nil)

	welcome := Strip(f.Transcript(nil, 0))
	assert.Contains(t, welcome, WelcomeTitle)
	assert.Contains(t, welcome, WelcomeHint)

	ts := time.Date(2025, 1, 1, 9, 30, 5, 0, time.UTC)
	out := Strip(f.Transcript([]widget.Message{
		{Content: "hello", Sender: widget.SenderUser, Timestamp: ts},
		{Content: "hi!", Sender: widget.SenderBot, Timestamp: ts},
		{Content: "Failed to send message. Please try again.", Sender: widget.SenderError},
	}, 0))

	assert.Equal(t, "You 09:30:05\nhello\n\nBot 09:30:05\nhi!\n\nError\nFailed to send message. Please try again.", out)
}

func TestFormatter_Transcript_ErrorRowsKeepWelcome(t *testing.T) {
	f := NewFormatter(nil, nil)

	out := Strip(f.Transcript([]widget.Message{
		{Content: "Failed to send message. Please try again.", Sender: widget.SenderError},
	}, 0))

	assert.True(t, strings.HasPrefix(out, WelcomeTitle), out)
	assert.True(t, strings.HasSuffix(out, "Error\nFailed to send message. Please try again."), out)
}

func TestFormatter_BotRepliesUseMarkdown(t *testing.T) {
	md, err := NewMarkdown("notty", 80)
	require.NoError(t, err)
	f := NewFormatter(PlainTheme(), md)

	out := Strip(f.Message(widget.Message{Content: "* one\n* two", Sender: widget.SenderBot}, 60))
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.NotContains(t, out, "* one")
	assert.Equal(t, 60, md.Width())
}

func TestFormatter_Status(t *testing.T) {
	f := NewFormatter(PlainTheme(), nil)

	assert.Empty(t, f.Status(widget.Status{Text: "gone", Visible: false}, 80))
	assert.Equal(t, "Conversation cleared", Strip(f.Status(widget.Status{
		Text: "Conversation cleared", Severity: widget.SeveritySuccess, Visible: true,
	}, 80)))

	long := f.Status(widget.Status{
		Text: "Model: ChatGPT | Memory: Active | Context: Persistent", Severity: widget.SeverityInfo, Visible: true,
	}, 20)
	assert.LessOrEqual(t, ansi.StringWidth(long), 20)
	assert.True(t, strings.HasSuffix(Strip(long), "…"))
}

func TestFormatter_CharCountAndTyping(t *testing.T) {
	f := NewFormatter(PlainTheme(), nil)
	assert.Equal(t, "850 characters", Strip(f.CharCount(widget.CountChars(strings.Repeat("x", 850)))))
	assert.Equal(t, "0 characters", Strip(f.CharCount(widget.CharCount{})))
	assert.Equal(t, "Bot ⣾ typing…", Strip(f.Typing("⣾")))
}

func TestSenderLabel(t *testing.T) {
	assert.Equal(t, "You", SenderLabel(widget.SenderUser))
	assert.Equal(t, "Bot", SenderLabel(widget.SenderBot))
	assert.Equal(t, "Error", SenderLabel(widget.SenderError))
}
