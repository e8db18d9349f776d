// Package main provides the flexchat CLI entry point.
// flexchat is a terminal client for a multi-model chat backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flexchat/internal/config"
	"flexchat/internal/logger"
	"flexchat/internal/version"
)

var (
	logLevel   string
	logFile    string
	testMode   bool
	jsonOutput bool
	configDir  string

	sendSession    string
	sendModel      string
	sendMemory     string
	sendContext    string
	sendPersistent bool
	clearSession   string
	detailed       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flexchat",
	Short: "flexchat - terminal client for the flexible chat backend",
	Long: `flexchat talks to a chat backend that routes messages to several language
models. It offers a full-screen interface, a line-oriented shell and one-shot
commands for scripting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI, // Default behavior is the full-screen interface
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the full-screen chat interface",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive line shell",
	Long:  `Start a readline shell. Plain lines are sent as messages; \help lists commands.`,
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the backend offers",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message and print the reply",
	Long: `Send one message and print the reply. Pass --session to continue an
earlier conversation; otherwise a new session id is generated and printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear a conversation on the backend",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if detailed {
			fmt.Fprintln(cmd.OutOrStdout(), version.Detailed())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	flags.BoolVar(&testMode, "test-mode", false, "Plain deterministic output")
	flags.BoolVar(&jsonOutput, "json", false, "Print one-shot command output as JSON lines")
	flags.StringVar(&configDir, "config-dir", "", "Configuration directory [default: $XDG_CONFIG_HOME/flexchat]")
	flags.String("server-url", config.DefaultServerURL, "Chat backend base URL")
	flags.Duration("request-timeout", 0, "Per-request timeout (0 disables)")
	flags.String("prefs-backend", "file", "Preference store (file|sqlite|memory)")
	flags.String("prefs-path", "", "Preference store location")
	flags.String("theme", config.DefaultTheme, "Color theme (dark|light|default|plain)")
	flags.Int("compact-width", config.DefaultCompactWidth, "Width at or below which the compact layout is used")
	flags.Duration("status-delay", config.DefaultStatusDelay, "How long status banners stay visible")

	// Bind flags to viper
	bindings := map[string]string{
		"log-level":              "log-level",
		"log-file":               "log-file",
		"test-mode":              "test-mode",
		config.KeyServerURL:      "server-url",
		config.KeyRequestTimeout: "request-timeout",
		config.KeyPrefsBackend:   "prefs-backend",
		config.KeyPrefsPath:      "prefs-path",
		config.KeyTheme:          "theme",
		config.KeyCompactWidth:   "compact-width",
		config.KeyStatusDelay:    "status-delay",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	sendCmd.Flags().StringVar(&sendSession, "session", "", "Session id to continue")
	sendCmd.Flags().StringVar(&sendModel, "model", "", "Model id [default: first offered]")
	sendCmd.Flags().StringVar(&sendMemory, "memory", "active", "Memory mode (active|memoryless)")
	sendCmd.Flags().StringVar(&sendContext, "context", "", "Initial context")
	sendCmd.Flags().BoolVar(&sendPersistent, "persistent", false, "Apply the context to every message")

	clearCmd.Flags().StringVar(&clearSession, "session", "", "Session id to clear")
	_ = clearCmd.MarkFlagRequired("session")

	versionCmd.Flags().BoolVar(&detailed, "detailed", false, "Include build details")

	rootCmd.AddCommand(tuiCmd, shellCmd, modelsCmd, sendCmd, clearCmd, versionCmd)

	// Configure logger before any command execution
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile, testMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}
