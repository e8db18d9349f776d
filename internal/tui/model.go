// Package tui provides the full-screen flexchat front end built on bubbletea.
// Keys are translated into widget actions; the widget pushes a refresh signal
// after every state change and the model re-reads its snapshot.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flexchat/internal/clipboard"
	"flexchat/internal/logger"
	"flexchat/internal/render"
	"flexchat/internal/widget"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

const (
	panelWidth   = 38
	inputHeight  = 3
	minChatWidth = 20
	// header, status, typing, input border (2), counter, help
	chromeHeight = 7 + inputHeight
)

const (
	messagePlaceholder = "Type your message here..."
	contextPlaceholder = "Context sent with your messages (empty clears it)"
)

var errNoReply = errors.New("no reply to copy yet")

// Options configures the TUI. Widget and Formatter are required.
type Options struct {
	Widget    *widget.Widget
	Formatter *render.Formatter
	Copier    *clipboard.Copier
	Logger    *log.Logger
	// SkipInitialize leaves preference restore and model discovery to the
	// caller instead of running them from Init.
	SkipInitialize bool
}

type (
	refreshMsg     struct{}
	initializedMsg struct{}
	sentMsg        struct{}
	actionMsg      struct {
		action widget.Action
		err    error
	}
)

// Model is the bubbletea model.
type Model struct {
	ctx        context.Context
	widget     *widget.Widget
	dispatcher *widget.Dispatcher
	formatter  *render.Formatter
	log        *log.Logger
	refresh    chan struct{}
	initialize bool

	keys        keyMap
	contextKeys contextKeyMap
	help        help.Model
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	// editingContext swaps the input box to the initial context; draft holds
	// the message typed before.
	editingContext bool
	draft          string

	snap   widget.Snapshot
	width  int
	height int
}

// New builds the model and subscribes it to widget changes. ctx bounds every
// request the model issues.
func New(ctx context.Context, opts Options) (Model, error) {
	if opts.Widget == nil {
		return Model{}, errors.New("widget is required")
	}
	if opts.Formatter == nil {
		return Model{}, errors.New("formatter is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewStyledLogger("TUI")
	}
	if opts.Copier == nil {
		opts.Copier = clipboard.NewCopier(clipboard.NewSystem(), nil)
	}

	keys := defaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = messagePlaceholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = opts.Formatter.Theme().Accent

	m := Model{
		ctx:        ctx,
		widget:     opts.Widget,
		dispatcher: widget.NewDispatcher(opts.Widget),
		formatter:  opts.Formatter,
		log:        opts.Logger,
		refresh:    make(chan struct{}, 1),
		initialize: !opts.SkipInitialize,
		keys:        keys,
		contextKeys: newContextKeyMap(keys),
		help:        help.New(),
		textarea:   ta,
		viewport:   viewport.New(0, 0),
		spinner:    sp,
	}
	m.registerCopy(opts.Copier)

	refresh := m.refresh
	opts.Widget.Subscribe(func(widget.Snapshot) {
		select {
		case refresh <- struct{}{}:
		default:
		}
	})

	m.syncSnapshot()
	return m, nil
}

func (m Model) registerCopy(copier *clipboard.Copier) {
	w := m.widget
	lg := m.log
	m.dispatcher.Register(widget.ActionCopy, func(context.Context, string) error {
		reply, ok := w.LastReply()
		if !ok {
			return errNoReply
		}
		n, err := copier.Copy(reply)
		var fallback *clipboard.FallbackError
		switch {
		case errors.As(err, &fallback):
			lg.Debug("Clipboard unavailable", "error", fallback.Reason)
			w.ShowStatus(fmt.Sprintf("Clipboard unavailable, kept %d characters in the session buffer", n), widget.SeverityInfo)
			return nil
		case err != nil:
			return err
		}
		w.ShowStatus(fmt.Sprintf("Copied %d characters to clipboard", n), widget.SeveritySuccess)
		return nil
	})
}

// Init starts the cursor blink, the refresh listener and, unless skipped,
// widget initialization.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.waitForRefresh()}
	if m.initialize {
		w, ctx := m.widget, m.ctx
		cmds = append(cmds, func() tea.Msg {
			w.Initialize(ctx)
			return initializedMsg{}
		})
	}
	return tea.Batch(cmds...)
}

// waitForRefresh blocks until the widget signals a change or ctx ends.
func (m Model) waitForRefresh() tea.Cmd {
	ch, done := m.refresh, m.ctx.Done()
	return func() tea.Msg {
		select {
		case <-ch:
			return refreshMsg{}
		case <-done:
			return nil
		}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = max(msg.Width, 0), max(msg.Height, 0)
		m.widget.SetViewportWidth(m.width)
		m.syncSnapshot()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshMsg:
		m.syncSnapshot()
		return m, m.waitForRefresh()

	case initializedMsg, sentMsg:
		m.syncSnapshot()
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.log.Debug("Action failed", "action", msg.action, "error", msg.err)
		}
		m.syncSnapshot()
		return m, nil

	case spinner.TickMsg:
		if !m.snap.UI.IsTyping {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var taCmd, vpCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editingContext {
		return m.handleContextKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		task, ok := m.widget.PrepareSend(m.textarea.Value())
		if !ok {
			return m, nil
		}
		m.textarea.Reset()
		m.syncSnapshot()
		ctx := m.ctx
		return m, tea.Batch(func() tea.Msg {
			task.Run(ctx)
			return sentMsg{}
		}, m.spinner.Tick)

	case key.Matches(msg, m.keys.Clear):
		return m, m.dispatchAsync(widget.ActionClear, "")

	case key.Matches(msg, m.keys.RefreshModels):
		return m, m.dispatchAsync(widget.ActionRefreshModels, "")

	case key.Matches(msg, m.keys.ToggleConfig):
		m.dispatch(widget.ActionToggleConfig, "")
		return m, nil

	case key.Matches(msg, m.keys.CycleModel):
		m.dispatch(widget.ActionCycleModel, "")
		return m, nil

	case key.Matches(msg, m.keys.FlipMemory):
		next := widget.MemoryMemoryless
		if m.snap.Config.MemoryMode == widget.MemoryMemoryless {
			next = widget.MemoryActive
		}
		m.dispatch(widget.ActionSetMemory, string(next))
		return m, nil

	case key.Matches(msg, m.keys.FlipPersist):
		next := "on"
		if m.snap.Config.UseContextPersistently {
			next = "off"
		}
		m.dispatch(widget.ActionSetPersistent, next)
		return m, nil

	case key.Matches(msg, m.keys.EditContext):
		m.draft = m.textarea.Value()
		m.editingContext = true
		m.textarea.Placeholder = contextPlaceholder
		m.textarea.SetValue(m.widget.Snapshot().Config.InitialContext)
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.dispatch(widget.ActionCopy, "")
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	before := m.textarea.Value()
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if after := m.textarea.Value(); after != before {
		m.widget.SetInput(after)
		m.syncSnapshot()
	}
	return m, cmd
}

// handleContextKey edits the initial context in the input box. Apply commits
// it through the dispatcher; both apply and cancel restore the message draft.
func (m Model) handleContextKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.contextKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.contextKeys.Apply):
		m.dispatch(widget.ActionSetContext, strings.TrimSpace(m.textarea.Value()))
		m.endContextEdit()
		return m, nil

	case key.Matches(msg, m.contextKeys.Cancel):
		m.endContextEdit()
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) endContextEdit() {
	m.editingContext = false
	m.textarea.Placeholder = messagePlaceholder
	m.textarea.SetValue(m.draft)
	m.draft = ""
}

// dispatch runs a local action. Failures go to the banner; network actions
// raise their own banners inside the widget.
func (m *Model) dispatch(action widget.Action, arg string) {
	if err := m.dispatcher.Dispatch(m.ctx, action, arg); err != nil {
		m.log.Debug("Action failed", "action", action, "error", err)
		m.widget.ShowStatus(err.Error(), widget.SeverityError)
	}
	m.syncSnapshot()
}

func (m Model) dispatchAsync(action widget.Action, arg string) tea.Cmd {
	d, ctx := m.dispatcher, m.ctx
	return func() tea.Msg {
		return actionMsg{action: action, err: d.Dispatch(ctx, action, arg)}
	}
}

// syncSnapshot re-reads widget state, resizes the panes and refills the
// transcript, following it to the bottom when rows were added or removed.
func (m *Model) syncSnapshot() {
	prevRows := len(m.snap.Transcript)
	m.snap = m.widget.Snapshot()
	m.resize()

	m.viewport.SetContent(m.formatter.Transcript(m.snap.Transcript, m.viewport.Width))
	if len(m.snap.Transcript) != prevRows {
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	chatWidth := m.width
	stacked := 0
	layout := m.snap.Layout
	if !layout.ConfigCollapsed {
		if layout.CompactToggleVisible {
			stacked = compactPanelHeight
		} else {
			chatWidth -= panelWidth
		}
	}
	chatWidth = max(chatWidth, minChatWidth)

	m.viewport.Width = chatWidth
	m.viewport.Height = max(m.height-chromeHeight-stacked, 1)
	m.textarea.SetWidth(max(chatWidth-2, 1))
	m.help.Width = m.width
}

// Run starts the program on the alternate screen and blocks until the user
// quits. In-flight requests are cancelled on return.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m, err := New(ctx, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
