package shell

import (
	"flexchat/internal/widget"

	"github.com/abiosoft/ishell/v2"
)

// command is one backslash command. Commands without an action only run after.
type command struct {
	name        string
	usage       string
	description string
	aliases     []string
	action      widget.Action
	requiresArg bool
	// showWithoutArg runs instead of an error when a required argument is missing.
	showWithoutArg func(*Shell)
	after          func(*Shell)
}

var commandTable = []command{
	{name: "clear", usage: `\clear`, description: "Clear the conversation", action: widget.ActionClear, after: (*Shell).afterClear},
	{name: "config", usage: `\config`, description: "Toggle the configuration panel", action: widget.ActionToggleConfig, after: (*Shell).afterToggle},
	{name: "model", usage: `\model <id>`, description: "Select a model", action: widget.ActionSetModel, requiresArg: true, showWithoutArg: (*Shell).printModels, after: (*Shell).printStatus},
	{name: "memory", usage: `\memory <mode>`, description: "Set memory mode (active|memoryless)", action: widget.ActionSetMemory, requiresArg: true, after: (*Shell).printStatus},
	{name: "context", usage: `\context [text]`, description: "Set the initial context (empty clears it)", action: widget.ActionSetContext, after: (*Shell).printStatus},
	{name: "persist", usage: `\persist on|off`, description: "Apply the context to every message", action: widget.ActionSetPersistent, requiresArg: true, after: (*Shell).printStatus},
	{name: "models", usage: `\models`, description: "Refresh and list available models", action: widget.ActionRefreshModels, after: (*Shell).printModels},
	{name: "copy", usage: `\copy`, description: "Copy the last reply to the clipboard", action: widget.ActionCopy},
	{name: "status", usage: `\status`, description: "Show the current configuration", after: (*Shell).printConfig},
	{name: "help", usage: `\help`, description: "Show this help", action: widget.ActionHelp, aliases: []string{"?"}},
	{name: "exit", usage: `\exit`, description: "Quit", action: widget.ActionQuit, aliases: []string{"quit", "q"}},
}

// commandTree resolves names and aliases. Its commands carry no Func; the
// shell runs them through the dispatcher.
var commandTree = func() *ishell.Cmd {
	root := &ishell.Cmd{}
	for _, cmd := range commandTable {
		root.AddCmd(&ishell.Cmd{Name: cmd.name, Aliases: cmd.aliases, Help: cmd.description})
	}
	return root
}()

func lookupCommand(name string) (command, bool) {
	found, rest := commandTree.FindCmd([]string{name})
	if found == nil || len(rest) > 0 {
		return command{}, false
	}
	for _, cmd := range commandTable {
		if cmd.name == found.Name {
			return cmd, true
		}
	}
	return command{}, false
}

func (s *Shell) afterClear() {
	s.printed = 0
	s.printStatus()
}

func (s *Shell) afterToggle() {
	if s.widget.Snapshot().UI.IsConfigOpen {
		s.printConfig()
		return
	}
	s.printer.Muted("Configuration panel hidden")
}
