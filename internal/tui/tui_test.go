package tui

import (
	"context"
	"io"
	"strings"
	"testing"

	"flexchat/internal/chatapi"
	"flexchat/internal/clipboard"
	"flexchat/internal/prefs"
	"flexchat/internal/render"
	"flexchat/internal/testutils"
	"flexchat/internal/widget"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	model   Model
	widget  *widget.Widget
	backend *testutils.FakeBackend
	clip    *clipboard.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := testutils.NewFakeBackend()
	t.Cleanup(backend.Close)
	client, err := chatapi.NewClient(backend.URL())
	require.NoError(t, err)
	t.Cleanup(client.CloseIdleConnections)

	w, err := widget.New(widget.Options{
		Service:  client,
		Prefs:    prefs.NewMemoryStore(),
		Clock:    testutils.NewDeterministicClock().Now,
		Schedule: testutils.NewManualScheduler().Schedule,
		Logger:   log.New(io.Discard),
	})
	require.NoError(t, err)
	w.Initialize(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fallback := clipboard.NewMemory()
	m, err := New(ctx, Options{
		Widget:         w,
		Formatter:      render.NewFormatter(render.PlainTheme(), nil),
		Copier:         clipboard.NewCopier(nil, fallback),
		Logger:         log.New(io.Discard),
		SkipInitialize: true,
	})
	require.NoError(t, err)
	m.textarea.Cursor.SetMode(cursor.CursorStatic)

	return &harness{model: m, widget: w, backend: backend, clip: fallback}
}

// update feeds msg to the model and runs the returned commands to completion,
// feeding their messages back in.
func (h *harness) update(t *testing.T, msg tea.Msg) {
	t.Helper()
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	for _, out := range runCmd(cmd) {
		if _, quit := out.(tea.QuitMsg); quit {
			continue
		}
		next, _ = h.model.Update(out)
		h.model = next.(Model)
	}
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func (h *harness) resize(t *testing.T, width, height int) {
	t.Helper()
	h.update(t, tea.WindowSizeMsg{Width: width, Height: height})
}

func (h *harness) typeText(t *testing.T, text string) {
	t.Helper()
	h.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func (h *harness) press(t *testing.T, kt tea.KeyType) {
	t.Helper()
	h.update(t, tea.KeyMsg{Type: kt})
}

func (h *harness) view() string {
	return render.Strip(h.model.View())
}

func TestNew_RequiresWidgetAndFormatter(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)

	h := newHarness(t)
	_, err = New(context.Background(), Options{Widget: h.widget})
	assert.Error(t, err)
}

func TestView_BeforeFirstResize(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Starting flexchat…\n", h.model.View())
}

func TestResize_WideLayoutShowsPanelBesideChat(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	assert.Equal(t, 140-panelWidth, h.model.viewport.Width)
	assert.Equal(t, 40-chromeHeight, h.model.viewport.Height)

	view := h.view()
	assert.Contains(t, view, "Settings")
	assert.Contains(t, view, "● ChatGPT (GPT-3.5-turbo)")
	assert.Contains(t, view, "○ Gemini Pro")
	assert.Contains(t, view, render.WelcomeTitle)
	assert.Contains(t, view, widget.ToggleIconOpen+" settings")
	assert.Contains(t, view, h.widget.SessionID())
}

func TestResize_CompactLayoutStacksPanel(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 80, 40)

	assert.True(t, h.model.snap.Layout.CompactToggleVisible)
	assert.Equal(t, 80, h.model.viewport.Width)
	assert.Equal(t, 40-chromeHeight-compactPanelHeight, h.model.viewport.Height)
	assert.Contains(t, h.view(), "Model ChatGPT (GPT-3.5-turbo)")
}

func TestResize_ZeroDoesNotPanic(t *testing.T) {
	h := newHarness(t)
	assert.NotPanics(t, func() {
		h.resize(t, 0, 0)
		h.resize(t, -1, -1)
		_ = h.model.View()
	})
}

func TestToggleConfigKey(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	h.press(t, tea.KeyCtrlT)
	assert.False(t, h.widget.Snapshot().UI.IsConfigOpen)
	assert.Equal(t, 140, h.model.viewport.Width)
	view := h.view()
	assert.NotContains(t, view, "Settings")
	assert.Contains(t, view, widget.ToggleIconClosed+" settings")

	h.press(t, tea.KeyCtrlT)
	assert.True(t, h.widget.Snapshot().UI.IsConfigOpen)
	assert.Equal(t, 140-panelWidth, h.model.viewport.Width)
}

func TestTyping_UpdatesCharCount(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	h.typeText(t, "hello")
	snap := h.widget.Snapshot()
	assert.Equal(t, "hello", snap.Input)
	assert.Equal(t, 5, snap.CharCount.Count)
	assert.Contains(t, h.view(), "5 characters")
}

func TestSendKey(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	h.typeText(t, "hello")
	h.press(t, tea.KeyEnter)

	calls := h.backend.ChatCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "hello", calls[0].Message)
	assert.Equal(t, h.widget.SessionID(), calls[0].SessionID)

	assert.Empty(t, h.model.textarea.Value())
	snap := h.widget.Snapshot()
	assert.False(t, snap.UI.IsTyping)
	require.Len(t, snap.Transcript, 2)
	assert.Equal(t, "echo: hello", snap.Transcript[1].Content)

	view := h.view()
	assert.Contains(t, view, "You")
	assert.Contains(t, view, "echo: hello")
	assert.NotContains(t, view, render.WelcomeTitle)
}

func TestSendKey_CtrlS(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	h.typeText(t, "hi")
	h.press(t, tea.KeyCtrlS)
	assert.Len(t, h.backend.ChatCalls(), 1)
}

func TestSendKey_BlankIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	h.typeText(t, "   ")
	next, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	h.model = next.(Model)

	assert.Nil(t, cmd)
	assert.Empty(t, h.backend.ChatCalls())
	assert.Equal(t, "   ", h.model.textarea.Value())
}

func TestSendKey_WhileInFlightKeepsDraft(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	h.typeText(t, "first")
	next, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	h.model = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, h.model.snap.UI.IsTyping)
	assert.Contains(t, h.view(), "typing…")

	h.typeText(t, "second")
	next, again := h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	h.model = next.(Model)
	assert.Nil(t, again)
	assert.Equal(t, "second", h.model.textarea.Value())

	for _, msg := range runCmd(cmd) {
		next, _ = h.model.Update(msg)
		h.model = next.(Model)
	}
	assert.False(t, h.model.snap.UI.IsTyping)
	assert.Len(t, h.backend.ChatCalls(), 1)
}

func TestClearKey(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)
	h.typeText(t, "hello")
	h.press(t, tea.KeyEnter)

	h.press(t, tea.KeyCtrlL)

	assert.Equal(t, []string{h.widget.SessionID()}, h.backend.ClearCalls())
	assert.Empty(t, h.widget.Snapshot().Transcript)
	view := h.view()
	assert.Contains(t, view, render.WelcomeTitle)
	assert.Contains(t, view, "Conversation cleared")
}

func TestCycleModelKey(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	h.press(t, tea.KeyTab)
	assert.Equal(t, widget.ModelGemini, h.widget.Snapshot().Config.SelectedModel)
	assert.Contains(t, h.view(), "● Gemini Pro")

	h.press(t, tea.KeyTab)
	assert.Equal(t, widget.ModelChatGPT, h.widget.Snapshot().Config.SelectedModel)
}

func TestFlipMemoryAndPersistKeys(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	h.press(t, tea.KeyCtrlE)
	cfg := h.widget.Snapshot().Config
	assert.Equal(t, widget.MemoryMemoryless, cfg.MemoryMode)
	assert.Contains(t, h.view(), "Memoryless")

	h.press(t, tea.KeyCtrlE)
	assert.Equal(t, widget.MemoryActive, h.widget.Snapshot().Config.MemoryMode)

	h.press(t, tea.KeyCtrlP)
	assert.True(t, h.widget.Snapshot().Config.UseContextPersistently)
	h.press(t, tea.KeyCtrlP)
	assert.False(t, h.widget.Snapshot().Config.UseContextPersistently)
}

func TestEditContextKey(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)
	h.typeText(t, "draft message")

	h.press(t, tea.KeyCtrlO)
	assert.True(t, h.model.editingContext)
	assert.Empty(t, h.model.textarea.Value())
	assert.Contains(t, h.view(), "Editing initial context")
	assert.Contains(t, h.view(), "apply context")

	h.typeText(t, "You are terse")
	h.press(t, tea.KeyEnter)

	assert.False(t, h.model.editingContext)
	assert.Equal(t, "draft message", h.model.textarea.Value())
	assert.Empty(t, h.backend.ChatCalls(), "applying a context sends nothing")
	cfg := h.widget.Snapshot().Config
	assert.Equal(t, "You are terse", cfg.InitialContext)
	assert.Contains(t, h.view(), "You are terse")

	h.press(t, tea.KeyCtrlP)
	h.press(t, tea.KeyEnter)

	calls := h.backend.ChatCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "draft message", calls[0].Message)
	assert.Equal(t, "You are terse", calls[0].InitialContext)
	assert.True(t, calls[0].UseContextPersistently)
}

func TestEditContextKey_CancelKeepsContext(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)
	h.widget.SetInitialContext("keep me")

	h.press(t, tea.KeyCtrlO)
	assert.Equal(t, "keep me", h.model.textarea.Value())

	h.typeText(t, " and more")
	h.press(t, tea.KeyEsc)

	assert.False(t, h.model.editingContext)
	assert.Empty(t, h.model.textarea.Value())
	assert.Equal(t, "keep me", h.widget.Snapshot().Config.InitialContext)
}

func TestCopyKey(t *testing.T) {
	t.Run("no reply yet", func(t *testing.T) {
		h := newHarness(t)
		h.resize(t, 140, 40)

		h.press(t, tea.KeyCtrlY)
		st := h.widget.Snapshot().Status
		assert.Equal(t, widget.SeverityError, st.Severity)
		assert.Equal(t, errNoReply.Error(), st.Text)
	})

	t.Run("falls back to the session buffer", func(t *testing.T) {
		h := newHarness(t)
		h.resize(t, 140, 40)
		h.typeText(t, "hello")
		h.press(t, tea.KeyEnter)

		h.press(t, tea.KeyCtrlY)
		last, ok := h.clip.Last()
		require.True(t, ok)
		assert.Equal(t, "echo: hello", last)
		assert.Contains(t, h.widget.Snapshot().Status.Text, "kept 11 characters")
	})
}

func TestRefreshModelsKey(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)
	h.backend.SetModels("gemini")

	h.press(t, tea.KeyCtrlR)
	snap := h.widget.Snapshot()
	assert.Equal(t, widget.ModelGemini, snap.Config.SelectedModel)
	require.Len(t, snap.Models, 1)
	assert.NotContains(t, h.view(), "ChatGPT (GPT-3.5-turbo)")
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t)
	_, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWidgetChangesSignalRefresh(t *testing.T) {
	h := newHarness(t)
	h.resize(t, 140, 40)

	wait := h.model.waitForRefresh()
	h.widget.ShowStatus("Backend reconnected", widget.SeverityInfo)
	msg := wait()
	assert.IsType(t, refreshMsg{}, msg)

	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	assert.NotNil(t, cmd, "the listener is re-armed")
	assert.True(t, strings.Contains(h.view(), "Backend reconnected"))
}

func TestWaitForRefresh_ReturnsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	m, err := New(ctx, Options{
		Widget:         h.widget,
		Formatter:      render.NewFormatter(nil, nil),
		Logger:         log.New(io.Discard),
		Copier:         clipboard.NewCopier(nil, nil),
		SkipInitialize: true,
	})
	require.NoError(t, err)

	// drain any signal raised while the harness was set up
	select {
	case <-m.refresh:
	default:
	}
	cancel()
	assert.Nil(t, m.waitForRefresh()())
}

func TestInit_RunsInitialize(t *testing.T) {
	backend := testutils.NewFakeBackend()
	t.Cleanup(backend.Close)
	client, err := chatapi.NewClient(backend.URL())
	require.NoError(t, err)
	t.Cleanup(client.CloseIdleConnections)

	w, err := widget.New(widget.Options{
		Service:  client,
		Schedule: testutils.NewManualScheduler().Schedule,
		Logger:   log.New(io.Discard),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m, err := New(ctx, Options{
		Widget:    w,
		Formatter: render.NewFormatter(nil, nil),
		Logger:    log.New(io.Discard),
		Copier:    clipboard.NewCopier(nil, nil),
	})
	require.NoError(t, err)
	assert.True(t, m.initialize)

	batch, ok := m.Init()().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 3)

	msg := batch[2]()
	assert.IsType(t, initializedMsg{}, msg)
	assert.Equal(t, 1, backend.ModelCalls())

	_, cmd := m.Update(msg)
	assert.Nil(t, cmd, "only a widget signal re-arms the refresh listener")
}
