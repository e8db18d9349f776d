package widget

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Action names a user intent that front ends translate their input into.
type Action string

// Actions handled by the widget itself. Front ends register the rest
// (copy, help, quit) on the same dispatcher.
const (
	ActionSend          Action = "send"
	ActionClear         Action = "clear"
	ActionToggleConfig  Action = "toggle-config"
	ActionSetModel      Action = "set-model"
	ActionCycleModel    Action = "cycle-model"
	ActionSetMemory     Action = "set-memory"
	ActionSetContext    Action = "set-context"
	ActionSetPersistent Action = "set-persistent"
	ActionRefreshModels Action = "refresh-models"
	ActionCopy          Action = "copy"
	ActionHelp          Action = "help"
	ActionQuit          Action = "quit"
)

// ErrUnknownAction is returned by Dispatch for actions with no handler.
var ErrUnknownAction = errors.New("unknown action")

// Handler runs one action. arg carries the action's single argument, if any.
type Handler func(ctx context.Context, arg string) error

// Dispatcher maps actions to handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Action]Handler
}

// NewDispatcher returns a dispatcher preloaded with the widget's actions.
func NewDispatcher(w *Widget) *Dispatcher {
	d := &Dispatcher{handlers: make(map[Action]Handler)}

	d.Register(ActionSend, func(ctx context.Context, arg string) error {
		w.SendMessage(ctx, arg)
		return nil
	})
	d.Register(ActionClear, func(ctx context.Context, _ string) error {
		return w.ClearConversation(ctx)
	})
	d.Register(ActionToggleConfig, func(context.Context, string) error {
		w.ToggleConfigPanel()
		return nil
	})
	d.Register(ActionSetModel, func(_ context.Context, arg string) error {
		return w.SetModel(arg)
	})
	d.Register(ActionCycleModel, func(context.Context, string) error {
		return w.CycleModel()
	})
	d.Register(ActionSetMemory, func(_ context.Context, arg string) error {
		return w.SetMemoryMode(arg)
	})
	d.Register(ActionSetContext, func(_ context.Context, arg string) error {
		w.SetInitialContext(arg)
		return nil
	})
	d.Register(ActionSetPersistent, func(_ context.Context, arg string) error {
		persistent, err := parseSwitch(arg)
		if err != nil {
			return err
		}
		w.SetUseContextPersistently(persistent)
		return nil
	})
	d.Register(ActionRefreshModels, func(ctx context.Context, _ string) error {
		return w.RefreshModels(ctx)
	})

	return d
}

// Register binds h to action, replacing any previous handler.
func (d *Dispatcher) Register(action Action, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[action] = h
}

// Dispatch runs the handler bound to action.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action, arg string) error {
	d.mu.RLock()
	h, ok := d.handlers[action]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return h(ctx, arg)
}

// Actions lists the registered actions in name order.
func (d *Dispatcher) Actions() []Action {
	d.mu.RLock()
	defer d.mu.RUnlock()

	actions := make([]Action, 0, len(d.handlers))
	for a := range d.handlers {
		actions = append(actions, a)
	}
	slices.Sort(actions)
	return actions
}

// parseSwitch accepts on/off and yes/no alongside strconv booleans; an empty
// argument means on.
func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(arg))
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", arg)
	}
	return v, nil
}
