package widget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationSummary(t *testing.T) {
	tests := []struct {
		name   string
		config Configuration
		want   string
	}{
		{"defaults", DefaultConfiguration(), "Model: ChatGPT | Memory: Active"},
		{"gemini memoryless", Configuration{SelectedModel: ModelGemini, MemoryMode: MemoryMemoryless}, "Model: Gemini | Memory: Memoryless"},
		{"one-time context", Configuration{SelectedModel: ModelChatGPT, MemoryMode: MemoryActive, InitialContext: "x"}, "Model: ChatGPT | Memory: Active | Context: One-time"},
		{"persistent context", Configuration{SelectedModel: ModelGemini, MemoryMode: MemoryActive, InitialContext: "x", UseContextPersistently: true}, "Model: Gemini | Memory: Active | Context: Persistent"},
		{"persistent flag without context", Configuration{SelectedModel: ModelGemini, MemoryMode: MemoryActive, UseContextPersistently: true}, "Model: Gemini | Memory: Active"},
		{"unknown model", Configuration{SelectedModel: "claude", MemoryMode: MemoryActive}, "Model: claude | Memory: Active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.Summary())
		})
	}
}

func TestParseMemoryMode(t *testing.T) {
	mode, err := ParseMemoryMode(" Memoryless ")
	require.NoError(t, err)
	assert.Equal(t, MemoryMemoryless, mode)

	mode, err = ParseMemoryMode("active")
	require.NoError(t, err)
	assert.Equal(t, MemoryActive, mode)

	_, err = ParseMemoryMode("sometimes")
	assert.ErrorContains(t, err, "unknown memory mode")
}

func TestLabelFor(t *testing.T) {
	label, ok := LabelFor(ModelGemini)
	assert.True(t, ok)
	assert.Equal(t, "Gemini Pro", label)

	_, ok = LabelFor("claude")
	assert.False(t, ok)
}

func TestKnownModels_ReturnsCopy(t *testing.T) {
	models := KnownModels()
	models[0].Label = "changed"
	assert.Equal(t, "ChatGPT (GPT-3.5-turbo)", KnownModels()[0].Label)
}

func TestCountChars(t *testing.T) {
	tests := []struct {
		text string
		want CharCount
	}{
		{"", CharCount{0, CharLevelNormal}},
		{strings.Repeat("a", 800), CharCount{800, CharLevelNormal}},
		{strings.Repeat("a", 801), CharCount{801, CharLevelWarning}},
		{strings.Repeat("a", 900), CharCount{900, CharLevelWarning}},
		{strings.Repeat("a", 901), CharCount{901, CharLevelDanger}},
		{strings.Repeat("é", 850), CharCount{850, CharLevelWarning}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CountChars(tt.text), "len %d", len(tt.text))
	}
}

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		name  string
		open  bool
		width int
		want  Layout
	}{
		{"closed", false, 200, Layout{ConfigCollapsed: true, ChatExpanded: true, ToggleIcon: ToggleIconClosed, CompactToggleVisible: true}},
		{"closed narrow", false, 40, Layout{ConfigCollapsed: true, ChatExpanded: true, ToggleIcon: ToggleIconClosed, CompactToggleVisible: true}},
		{"open wide", true, 200, Layout{ToggleIcon: ToggleIconOpen}},
		{"open unknown width", true, 0, Layout{ToggleIcon: ToggleIconOpen}},
		{"open at threshold", true, 100, Layout{ToggleIcon: ToggleIconOpen, CompactToggleVisible: true}},
		{"open narrow", true, 60, Layout{ToggleIcon: ToggleIconOpen, CompactToggleVisible: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeLayout(tt.open, tt.width, DefaultCompactWidth))
		})
	}
}

func TestMessageIsError(t *testing.T) {
	assert.True(t, Message{Sender: SenderError}.IsError())
	assert.False(t, Message{Sender: SenderBot}.IsError())
}

func TestShowsWelcome(t *testing.T) {
	assert.True(t, ShowsWelcome(nil))
	assert.True(t, ShowsWelcome([]Message{{Sender: SenderError}}))
	assert.False(t, ShowsWelcome([]Message{{Sender: SenderError}, {Sender: SenderUser}}))
	assert.False(t, Snapshot{Transcript: []Message{{Sender: SenderBot}}}.Welcome())
}
