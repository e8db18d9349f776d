// Package shell provides the line-oriented flexchat front end. Plain lines are
// sent as chat messages; lines starting with a backslash are commands.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"flexchat/internal/clipboard"
	"flexchat/internal/logger"
	"flexchat/internal/output"
	"flexchat/internal/render"
	"flexchat/internal/widget"

	"github.com/abiosoft/readline"
	"github.com/charmbracelet/log"
)

// Prompt is the interactive prompt.
const Prompt = "flexchat> "

var errQuit = errors.New("quit")

// Options configures a Shell. Widget is required.
type Options struct {
	Widget    *widget.Widget
	Printer   *output.Printer
	Formatter *render.Formatter
	Copier    *clipboard.Copier
	Logger    *log.Logger

	// Stdin and Stdout default to the terminal. A non-nil Stdin is read as
	// plain lines without raw mode.
	Stdin  io.ReadCloser
	Stdout io.Writer
}

// Shell turns input lines into widget actions and prints what changed.
type Shell struct {
	widget     *widget.Widget
	dispatcher *widget.Dispatcher
	printer    *output.Printer
	formatter  *render.Formatter
	copier     *clipboard.Copier
	log        *log.Logger
	stdin      io.ReadCloser
	stdout     io.Writer

	printed int
}

// New creates a shell over an initialized widget.
func New(opts Options) (*Shell, error) {
	if opts.Widget == nil {
		return nil, errors.New("widget is required")
	}

	s := &Shell{
		widget:     opts.Widget,
		dispatcher: widget.NewDispatcher(opts.Widget),
		printer:    opts.Printer,
		formatter:  opts.Formatter,
		copier:     opts.Copier,
		log:        opts.Logger,
		stdin:      opts.Stdin,
		stdout:     opts.Stdout,
	}
	if s.printer == nil {
		s.printer = output.NewPrinter()
	}
	if s.formatter == nil {
		s.formatter = render.NewFormatter(nil, nil)
	}
	if s.copier == nil {
		s.copier = clipboard.NewCopier(clipboard.NewSystem(), nil)
	}
	if s.log == nil {
		s.log = logger.NewStyledLogger("Shell")
	}

	s.dispatcher.Register(widget.ActionCopy, s.copyLastReply)
	s.dispatcher.Register(widget.ActionHelp, func(context.Context, string) error {
		s.printHelp()
		return nil
	})
	s.dispatcher.Register(widget.ActionQuit, func(context.Context, string) error {
		return errQuit
	})

	s.printed = len(opts.Widget.Snapshot().Transcript)
	return s, nil
}

// Handle processes one input line and reports whether the shell should exit.
func (s *Shell) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, `\`) {
		if err := s.dispatcher.Dispatch(ctx, widget.ActionSend, line); err != nil {
			s.printer.Error(err.Error())
		}
		s.printNewRows()
		return false
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(line, `\`), " ")
	arg = strings.TrimSpace(arg)

	cmd, ok := lookupCommand(strings.ToLower(name))
	if !ok {
		s.printer.Error(fmt.Sprintf("Unknown command: \\%s", name))
		s.printer.Muted(`Type \help for available commands`)
		return false
	}

	if cmd.requiresArg && arg == "" {
		if cmd.showWithoutArg != nil {
			cmd.showWithoutArg(s)
			return false
		}
		s.printer.Error("Usage: " + cmd.usage)
		return false
	}

	var err error
	if cmd.action != "" {
		err = s.dispatcher.Dispatch(ctx, cmd.action, arg)
	}
	switch {
	case errors.Is(err, errQuit):
		return true
	case err != nil:
		s.log.Debug("Command failed", "action", cmd.action, "error", err)
		s.printer.Error(err.Error())
		return false
	}

	if cmd.after != nil {
		cmd.after(s)
	}
	return false
}

// printNewRows prints transcript rows added since the last call. User rows
// are skipped since the user just typed them.
func (s *Shell) printNewRows() {
	snap := s.widget.Snapshot()
	if len(snap.Transcript) < s.printed {
		s.printed = 0
	}
	for _, msg := range snap.Transcript[s.printed:] {
		switch msg.Sender {
		case widget.SenderUser:
		case widget.SenderError:
			s.printer.Error(msg.Content)
		default:
			s.printer.Println(s.formatter.Message(msg, 0))
		}
	}
	s.printed = len(snap.Transcript)
}

func (s *Shell) printStatus() {
	st := s.widget.Snapshot().Status
	if !st.Visible {
		return
	}
	switch st.Severity {
	case widget.SeveritySuccess:
		s.printer.Success(st.Text)
	case widget.SeverityError:
		s.printer.Error(st.Text)
	default:
		s.printer.Info(st.Text)
	}
}

func (s *Shell) printConfig() {
	snap := s.widget.Snapshot()
	cfg := snap.Config

	label, ok := widget.LabelFor(cfg.SelectedModel)
	if !ok {
		label = string(cfg.SelectedModel)
	}
	initial := cfg.InitialContext
	if initial == "" {
		initial = "(none)"
	}
	persistent := "off"
	if cfg.UseContextPersistently {
		persistent = "on"
	}

	s.printer.Accent("Configuration")
	s.printer.Println(fmt.Sprintf("  Model:      %s [%s]", label, cfg.SelectedModel))
	s.printer.Println(fmt.Sprintf("  Memory:     %s", cfg.MemoryMode))
	s.printer.Println(fmt.Sprintf("  Context:    %s", initial))
	s.printer.Println(fmt.Sprintf("  Persistent: %s", persistent))
	s.printer.Muted("  Session:    " + snap.SessionID)
}

func (s *Shell) printModels() {
	snap := s.widget.Snapshot()
	if len(snap.Models) == 0 {
		s.printer.Warning("No models available")
		return
	}
	s.printer.Accent("Models")
	for _, m := range snap.Models {
		marker := " "
		if m.ID == snap.Config.SelectedModel {
			marker = "*"
		}
		s.printer.Println(fmt.Sprintf("  %s %-8s %s", marker, m.ID, m.Label))
	}
}

func (s *Shell) printHelp() {
	s.printer.Accent("Commands")
	for _, cmd := range commandTable {
		s.printer.Println(fmt.Sprintf("  %-22s %s", cmd.usage, cmd.description))
	}
	s.printer.Muted("Anything else is sent as a chat message.")
}

func (s *Shell) copyLastReply(context.Context, string) error {
	reply, ok := s.widget.LastReply()
	if !ok {
		return errors.New("no reply to copy yet")
	}

	n, err := s.copier.Copy(reply)
	var fallback *clipboard.FallbackError
	switch {
	case errors.As(err, &fallback):
		s.log.Debug("Clipboard unavailable", "error", fallback.Reason)
		s.printer.Warning(fmt.Sprintf("Failed to copy to clipboard: %v", fallback.Reason))
		s.printer.Info(fmt.Sprintf("Kept %d characters in the session buffer", n))
		return nil
	case err != nil:
		return err
	}
	s.printer.Success(fmt.Sprintf("Copied %d characters to clipboard", n))
	return nil
}

// Completer offers backslash commands and model ids.
func (s *Shell) Completer() readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commandTable))
	for _, cmd := range commandTable {
		name := `\` + cmd.name
		switch cmd.action {
		case widget.ActionSetModel:
			items = append(items, readline.PcItem(name, readline.PcItemDynamic(func(string) []string {
				snap := s.widget.Snapshot()
				ids := make([]string, len(snap.Models))
				for i, m := range snap.Models {
					ids[i] = string(m.ID)
				}
				return ids
			})))
		case widget.ActionSetMemory:
			items = append(items, readline.PcItem(name,
				readline.PcItem(string(widget.MemoryActive)),
				readline.PcItem(string(widget.MemoryMemoryless))))
		case widget.ActionSetPersistent:
			items = append(items, readline.PcItem(name, readline.PcItem("on"), readline.PcItem("off")))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// Run reads lines until \exit, end of input, a second Ctrl+C or ctx is done.
// Lines reach Handle exactly as typed.
func (s *Shell) Run(ctx context.Context, historyFile string) error {
	cfg := &readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		AutoComplete:    s.Completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       `\exit`,
		Stdout:          s.stdout,
	}
	if s.stdin != nil {
		cfg.Stdin = s.stdin
		cfg.FuncIsTerminal = func() bool { return false }
		cfg.FuncMakeRaw = func() error { return nil }
		cfg.FuncExitRaw = func() error { return nil }
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("failed to start line editor: %w", err)
	}
	var closeOnce sync.Once
	closeEditor := func() { closeOnce.Do(func() { _ = rl.Close() }) }
	defer closeEditor()
	stop := context.AfterFunc(ctx, closeEditor)
	defer stop()

	s.printBanner()

	interrupts := 0
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			interrupts++
			if interrupts >= 2 {
				return nil
			}
			s.printer.Muted(`Press Ctrl+C again or type \exit to quit`)
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		interrupts = 0
		if s.Handle(ctx, line) {
			return nil
		}
	}
}

func (s *Shell) printBanner() {
	s.printer.Accent(render.WelcomeTitle)
	s.printer.Muted(`Type a message to chat, \help for commands, \exit to quit.`)
	s.printer.Info(s.widget.Snapshot().Config.Summary())
}
