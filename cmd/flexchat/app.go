package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flexchat/internal/chatapi"
	"flexchat/internal/clipboard"
	"flexchat/internal/config"
	"flexchat/internal/logger"
	"flexchat/internal/output"
	"flexchat/internal/prefs"
	"flexchat/internal/render"
	"flexchat/internal/shell"
	"flexchat/internal/tui"
	"flexchat/internal/widget"
)

// app holds the services one command run needs.
type app struct {
	settings  *config.Settings
	store     prefs.Store
	client    *chatapi.Client
	widget    *widget.Widget
	formatter *render.Formatter
	printer   *output.Printer
}

// loadSettings resolves configuration from flags, environment and files.
func loadSettings() (*config.Settings, error) {
	var opts []config.Option
	if configDir != "" {
		opts = append(opts, config.WithConfigDir(configDir))
	}
	return config.NewLoader(viper.GetViper(), opts...).Load()
}

// newApp wires settings into a client, a preference store and a widget.
// Output goes to out; color is decided from the terminal behind it.
func newApp(out io.Writer) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded",
		"server", settings.ServerURL,
		"prefs", settings.PrefsBackend,
		"config_file", settings.Paths.ConfigFileLoaded)

	var clientOpts []chatapi.Option
	if settings.RequestTimeout > 0 {
		clientOpts = append(clientOpts, chatapi.WithTimeout(settings.RequestTimeout))
	}
	client, err := chatapi.NewClient(settings.ServerURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	if settings.PrefsPath != "" {
		if err := os.MkdirAll(filepath.Dir(settings.PrefsPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create preference directory: %w", err)
		}
	}
	store, err := prefs.Open(settings.PrefsBackend, settings.PrefsPath)
	if err != nil {
		return nil, err
	}

	w, err := widget.New(widget.Options{
		Service:      client,
		Prefs:        store,
		StatusDelay:  settings.StatusDelay,
		CompactWidth: settings.CompactWidth,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	formatter, printer := newPresentation(settings, out)
	return &app{
		settings:  settings,
		store:     store,
		client:    client,
		widget:    w,
		formatter: formatter,
		printer:   printer,
	}, nil
}

// newPresentation picks the theme, the markdown renderer and the printer mode.
func newPresentation(settings *config.Settings, out io.Writer) (*render.Formatter, *output.Printer) {
	if testMode {
		return render.NewFormatter(render.PlainTheme(), nil),
			output.NewPrinter(output.WithWriter(out), output.PlainText())
	}

	profile := termenv.Ascii
	if f, ok := out.(*os.File); ok {
		profile = termenv.NewOutput(f).EnvColorProfile()
	}
	theme := render.NewRegistry().Resolve(settings.Theme, profile)

	var md *render.Markdown
	if theme.Glamour != "" {
		var err error
		if md, err = render.NewMarkdown(theme.Glamour, render.DefaultWordWrap); err != nil {
			logger.Warn("Markdown rendering disabled", "style", theme.Glamour, "error", err)
			md = nil
		}
	}

	opts := []output.Option{output.WithWriter(out), output.WithStyles(theme), output.WithColorProfile(profile)}
	if jsonOutput {
		opts = append(opts, output.JSON())
	}
	return render.NewFormatter(theme, md), output.NewPrinter(opts...)
}

func (a *app) Close() {
	a.client.CloseIdleConnections()
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close preference store", "error", err)
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Log lines would tear the full-screen layout; keep them in --log-file only.
	if err := logger.Configure(logLevel, logFile, true); err != nil {
		return err
	}

	a, err := newApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("Starting flexchat TUI", "server", a.settings.ServerURL, "session", a.widget.SessionID())
	return tui.Run(cmd.Context(), tui.Options{
		Widget:    a.widget,
		Formatter: a.formatter,
		Copier:    clipboard.NewCopier(clipboard.NewSystem(), nil),
	})
}

func runShell(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("Starting flexchat shell", "server", a.settings.ServerURL, "session", a.widget.SessionID())
	a.widget.Initialize(cmd.Context())

	sh, err := shell.New(shell.Options{
		Widget:    a.widget,
		Printer:   a.printer,
		Formatter: a.formatter,
		Copier:    clipboard.NewCopier(clipboard.NewSystem(), nil),
	})
	if err != nil {
		return err
	}

	history := ""
	if a.settings.Paths.ConfigDir != "" {
		history = filepath.Join(a.settings.Paths.ConfigDir, "history")
	}
	return sh.Run(cmd.Context(), history)
}

func runModels(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	models, err := a.client.Models(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(models) == 0 {
		a.printer.Warning("The backend offers no models")
		return nil
	}
	for _, id := range models {
		label, ok := widget.LabelFor(widget.ModelType(id))
		if !ok {
			label = "(unknown to this client)"
		}
		a.printer.Labeled(output.SemanticAccent, id, label)
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return errors.New("message must not be blank")
	}
	memory, err := widget.ParseMemoryMode(sendMemory)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	model := strings.ToLower(strings.TrimSpace(sendModel))
	if model == "" {
		model = a.defaultModel(cmd)
	}
	session := sendSession
	if session == "" {
		session = widget.NewSessionID(time.Now())
	}

	resp, err := a.client.Chat(cmd.Context(), chatapi.ChatRequest{
		SessionID:              session,
		Message:                message,
		ModelType:              model,
		MemoryMode:             string(memory),
		InitialContext:         sendContext,
		UseContextPersistently: sendPersistent,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if resp.Error != "" {
		a.printer.Error(resp.Error)
		return fmt.Errorf("backend reported an error for session %s", session)
	}

	if jsonOutput {
		a.printer.Labeled(output.SemanticBot, session, resp.Response)
		return nil
	}
	a.printer.Println(a.formatter.Message(widget.Message{Content: resp.Response, Sender: widget.SenderBot}, 0))
	a.printer.Muted("session: " + session)
	return nil
}

// defaultModel picks the first offered model this client knows, keeping the
// stored selection when it is still offered.
func (a *app) defaultModel(cmd *cobra.Command) string {
	stored, ok, err := a.store.Get(prefs.KeySelectedModel)
	if err != nil {
		logger.Debug("Failed to read model preference", "error", err)
	}

	models, err := a.client.Models(cmd.Context())
	if err != nil {
		logger.Debug("Model discovery failed, using fallback", "error", err)
		if ok && stored != "" {
			return stored
		}
		return string(widget.DefaultConfiguration().SelectedModel)
	}

	if ok && slices.Contains(models, stored) {
		return stored
	}
	for _, id := range models {
		if _, known := widget.LabelFor(widget.ModelType(id)); known {
			return id
		}
	}
	return string(widget.DefaultConfiguration().SelectedModel)
}

func runClear(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.client.Clear(cmd.Context(), clearSession); err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	a.printer.Success("Conversation cleared")
	return nil
}

