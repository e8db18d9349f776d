// Package widget implements the chat controller shared by every front end.
// A Widget owns the session id, the chat configuration, the transcript and the
// UI flags, and turns user actions into calls against the chat backend.
// Rendering is left to observers registered with Subscribe.
package widget

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"flexchat/internal/chatapi"
	"flexchat/internal/logger"
	"flexchat/internal/prefs"

	"github.com/charmbracelet/log"
)

// ChatService is the slice of the backend API the widget needs.
type ChatService interface {
	Models(ctx context.Context) ([]string, error)
	Chat(ctx context.Context, req chatapi.ChatRequest) (*chatapi.ChatResponse, error)
	Clear(ctx context.Context, sessionID string) error
}

// UIState holds the two interaction flags.
type UIState struct {
	IsTyping     bool
	IsConfigOpen bool
}

// Options configures a Widget. Only Service is required.
type Options struct {
	Service      ChatService
	Prefs        prefs.Store
	Clock        func() time.Time
	Schedule     Scheduler
	StatusDelay  time.Duration
	CompactWidth int
	Logger       *log.Logger
}

// Snapshot is an immutable copy of the widget state handed to observers.
type Snapshot struct {
	SessionID  string
	Config     Configuration
	Models     []ModelOption
	Transcript []Message
	UI         UIState
	Layout     Layout
	Input      string
	CharCount  CharCount
	Status     Status
}

// Welcome reports whether the transcript shows the welcome placeholder.
func (s Snapshot) Welcome() bool {
	return ShowsWelcome(s.Transcript)
}

// ShowsWelcome reports whether msgs keep the welcome placeholder. Only user
// and bot messages replace it; error rows appear below it.
func ShowsWelcome(msgs []Message) bool {
	for _, msg := range msgs {
		if msg.Sender == SenderUser || msg.Sender == SenderBot {
			return false
		}
	}
	return true
}

// Widget is the chat controller. It is safe for concurrent use.
type Widget struct {
	service      ChatService
	prefs        prefs.Store
	now          func() time.Time
	schedule     Scheduler
	statusDelay  time.Duration
	compactWidth int
	log          *log.Logger

	mu         sync.Mutex
	sessionID  string
	config     Configuration
	models     []ModelOption
	ui         UIState
	width      int
	input      string
	transcript []Message
	status     Status
	observers  []func(Snapshot)
}

// New creates a widget with a fresh session id. Call Initialize before use.
func New(opts Options) (*Widget, error) {
	if opts.Service == nil {
		return nil, errors.New("chat service is required")
	}

	w := &Widget{
		service:      opts.Service,
		prefs:        opts.Prefs,
		now:          opts.Clock,
		schedule:     opts.Schedule,
		statusDelay:  opts.StatusDelay,
		compactWidth: opts.CompactWidth,
		log:          opts.Logger,
		config:       DefaultConfiguration(),
		models:       KnownModels(),
		ui:           UIState{IsConfigOpen: true},
	}
	if w.prefs == nil {
		w.prefs = prefs.NewMemoryStore()
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.schedule == nil {
		w.schedule = afterFuncScheduler
	}
	if w.statusDelay <= 0 {
		w.statusDelay = DefaultStatusDelay
	}
	if w.compactWidth <= 0 {
		w.compactWidth = DefaultCompactWidth
	}
	if w.log == nil {
		w.log = logger.NewStyledLogger("Widget")
	}

	w.sessionID = NewSessionID(w.now())
	w.log.Debug("Widget created", "session", w.sessionID)
	return w, nil
}

// SessionID returns the id sent with every API call.
func (w *Widget) SessionID() string {
	return w.sessionID
}

// Subscribe registers fn to receive a snapshot after every state change.
// Observers run outside the widget lock, on the goroutine that made the change.
func (w *Widget) Subscribe(fn func(Snapshot)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// Snapshot returns a copy of the current state.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Widget) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:  w.sessionID,
		Config:     w.config,
		Models:     slices.Clone(w.models),
		Transcript: slices.Clone(w.transcript),
		UI:         w.ui,
		Layout:     ComputeLayout(w.ui.IsConfigOpen, w.width, w.compactWidth),
		Input:      w.input,
		CharCount:  CountChars(w.input),
		Status:     w.status,
	}
}

// update applies fn under the lock and then notifies observers.
func (w *Widget) update(fn func()) {
	w.mu.Lock()
	fn()
	snap := w.snapshotLocked()
	observers := slices.Clone(w.observers)
	w.mu.Unlock()

	for _, observer := range observers {
		observer(snap)
	}
}

// Initialize restores persisted preferences and loads the model list. Model
// discovery failures only surface through the status banner.
func (w *Widget) Initialize(ctx context.Context) {
	w.restorePreferences()
	if err := w.RefreshModels(ctx); err != nil {
		w.log.Warn("Model discovery failed", "error", err)
	}
}

func (w *Widget) restorePreferences() {
	open, hasOpen, err := w.prefs.Get(prefs.KeyConfigOpen)
	if err != nil {
		w.log.Warn("Failed to read panel preference", "error", err)
		hasOpen = false
	}
	model, hasModel, err := w.prefs.Get(prefs.KeySelectedModel)
	if err != nil {
		w.log.Warn("Failed to read model preference", "error", err)
		hasModel = false
	}

	w.update(func() {
		if hasOpen {
			if v, perr := strconv.ParseBool(open); perr == nil {
				w.ui.IsConfigOpen = v
			}
		}
		if hasModel && model != "" {
			w.config.SelectedModel = ModelType(model)
		}
	})
}

// RefreshModels asks the backend which models are available and rebuilds the
// selector. The current selection is kept when still offered; otherwise the
// first offered model this client knows becomes selected.
func (w *Widget) RefreshModels(ctx context.Context) error {
	available, err := w.service.Models(ctx)
	if err != nil {
		w.ShowStatus(statusModelsFailed, SeverityError)
		return fmt.Errorf("failed to check available models: %w", err)
	}

	var summary string
	w.update(func() {
		options := make([]ModelOption, 0, len(knownModels))
		for _, m := range knownModels {
			if slices.Contains(available, string(m.ID)) {
				options = append(options, m)
			}
		}
		w.models = options

		if !slices.Contains(available, string(w.config.SelectedModel)) {
			if fallback, ok := firstKnown(available); ok {
				w.config.SelectedModel = fallback
			} else {
				w.log.Warn("Backend offers no known model", "models", available)
			}
		}
		summary = w.config.Summary()
	})

	w.log.Debug("Models refreshed", "models", available)
	w.ShowStatus(summary, SeverityInfo)
	return nil
}

func firstKnown(available []string) (ModelType, bool) {
	for _, id := range available {
		if _, ok := LabelFor(ModelType(id)); ok {
			return ModelType(id), true
		}
	}
	return "", false
}

// SendTask is one accepted send waiting to hit the network. Run must be
// called exactly once; it clears the typing flag on every exit path.
type SendTask struct {
	w   *Widget
	req chatapi.ChatRequest
}

// Message returns the trimmed text being sent.
func (t *SendTask) Message() string {
	return t.req.Message
}

// PrepareSend validates text and, when accepted, performs the synchronous
// half of a send: it appends the user message, clears the draft input and
// raises the typing flag. It returns false when text is blank or another send
// is still in flight; nothing changes in that case.
func (w *Widget) PrepareSend(text string) (*SendTask, bool) {
	message := strings.TrimSpace(text)
	if message == "" {
		return nil, false
	}

	accepted := false
	var req chatapi.ChatRequest
	w.update(func() {
		if w.ui.IsTyping {
			return
		}
		accepted = true
		w.transcript = append(w.transcript, Message{
			Content:   message,
			Sender:    SenderUser,
			Timestamp: w.now(),
		})
		w.input = ""
		w.ui.IsTyping = true
		req = chatapi.ChatRequest{
			SessionID:              w.sessionID,
			Message:                message,
			ModelType:              string(w.config.SelectedModel),
			MemoryMode:             string(w.config.MemoryMode),
			InitialContext:         w.config.InitialContext,
			UseContextPersistently: w.config.UseContextPersistently,
		}
	})

	if !accepted {
		w.log.Debug("Send ignored while another is in flight")
		return nil, false
	}
	return &SendTask{w: w, req: req}, true
}

// Run issues the chat request and records the outcome in the transcript.
func (t *SendTask) Run(ctx context.Context) {
	w := t.w
	var outcome *Message
	defer func() {
		w.update(func() {
			if outcome != nil {
				w.transcript = append(w.transcript, *outcome)
			}
			w.ui.IsTyping = false
		})
	}()

	resp, err := w.service.Chat(ctx, t.req)
	switch {
	case err == nil && resp == nil:
		err = errors.New("empty chat response")
		fallthrough
	case err != nil:
		w.log.Error("Failed to send message", "session", w.sessionID, "error", err)
		outcome = &Message{Content: sendFailureFallback, Sender: SenderError, Timestamp: w.now()}
	case resp.Error != "":
		w.log.Warn("Backend reported an error", "session", w.sessionID, "model", t.req.ModelType, "error", resp.Error)
		outcome = &Message{Content: resp.Error, Sender: SenderError, Timestamp: w.now()}
	case resp.Response != "":
		outcome = &Message{Content: resp.Response, Sender: SenderBot, Timestamp: w.now()}
	}
}

// SendMessage sends text and blocks until the outcome is in the transcript.
// It reports whether a request was issued.
func (w *Widget) SendMessage(ctx context.Context, text string) bool {
	task, ok := w.PrepareSend(text)
	if !ok {
		return false
	}
	task.Run(ctx)
	return true
}

// ClearConversation resets the backend session and the visible transcript.
// The transcript is reset whatever the backend answers.
func (w *Widget) ClearConversation(ctx context.Context) error {
	err := w.service.Clear(ctx, w.sessionID)

	w.update(func() {
		w.transcript = nil
	})

	if err != nil {
		w.log.Error("Failed to clear conversation", "session", w.sessionID, "error", err)
		w.ShowStatus(statusClearFailed, SeverityError)
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	w.ShowStatus(statusCleared, SeveritySuccess)
	return nil
}

// ToggleConfigPanel flips the configuration panel and persists the new state.
func (w *Widget) ToggleConfigPanel() {
	var open bool
	w.update(func() {
		w.ui.IsConfigOpen = !w.ui.IsConfigOpen
		open = w.ui.IsConfigOpen
	})

	if err := w.prefs.Set(prefs.KeyConfigOpen, strconv.FormatBool(open)); err != nil {
		w.log.Warn("Failed to persist panel preference", "error", err)
	}
}

// ShowStatus raises the banner. Each call schedules its own hide; earlier
// timers are not cancelled, so an older timer may hide a newer message.
func (w *Widget) ShowStatus(message string, severity Severity) {
	w.update(func() {
		w.status = Status{Text: message, Severity: severity, Visible: true}
	})
	w.schedule(w.statusDelay, func() {
		w.update(func() {
			w.status.Visible = false
		})
	})
}

// SetViewportWidth records the viewport width used for the layout.
func (w *Widget) SetViewportWidth(width int) {
	w.update(func() {
		w.width = width
	})
}

// SetInput records the draft input for the character counter.
func (w *Widget) SetInput(text string) {
	w.update(func() {
		w.input = text
	})
}

// SetModel selects a model. Ids not currently offered are rejected.
func (w *Widget) SetModel(id string) error {
	model := ModelType(strings.ToLower(strings.TrimSpace(id)))

	var summary string
	var err error
	w.update(func() {
		if !slices.ContainsFunc(w.models, func(m ModelOption) bool { return m.ID == model }) {
			err = fmt.Errorf("model %q is not available", id)
			return
		}
		w.config.SelectedModel = model
		summary = w.config.Summary()
	})
	if err != nil {
		return err
	}

	if perr := w.prefs.Set(prefs.KeySelectedModel, string(model)); perr != nil {
		w.log.Warn("Failed to persist model preference", "error", perr)
	}
	w.ShowStatus(summary, SeverityInfo)
	return nil
}

// CycleModel selects the next offered model, wrapping around.
func (w *Widget) CycleModel() error {
	snap := w.Snapshot()
	if len(snap.Models) == 0 {
		return errors.New("no models available")
	}
	next := snap.Models[0]
	for i, m := range snap.Models {
		if m.ID == snap.Config.SelectedModel {
			next = snap.Models[(i+1)%len(snap.Models)]
			break
		}
	}
	return w.SetModel(string(next.ID))
}

// SetMemoryMode switches between active and memoryless conversations.
func (w *Widget) SetMemoryMode(mode string) error {
	parsed, err := ParseMemoryMode(mode)
	if err != nil {
		return err
	}
	w.applyConfig(func(c *Configuration) { c.MemoryMode = parsed })
	return nil
}

// SetInitialContext sets the context text sent with messages.
func (w *Widget) SetInitialContext(text string) {
	w.applyConfig(func(c *Configuration) { c.InitialContext = text })
}

// SetUseContextPersistently chooses whether the context applies to every
// message or only the first.
func (w *Widget) SetUseContextPersistently(persistent bool) {
	w.applyConfig(func(c *Configuration) { c.UseContextPersistently = persistent })
}

func (w *Widget) applyConfig(fn func(*Configuration)) {
	var summary string
	w.update(func() {
		fn(&w.config)
		summary = w.config.Summary()
	})
	w.ShowStatus(summary, SeverityInfo)
}

// LastReply returns the newest bot message, if any.
func (w *Widget) LastReply() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := len(w.transcript) - 1; i >= 0; i-- {
		if w.transcript[i].Sender == SenderBot {
			return w.transcript[i].Content, true
		}
	}
	return "", false
}
