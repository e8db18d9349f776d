package widget

import (
	"fmt"
	"strings"
)

// ModelType identifies a backend chat model.
type ModelType string

// Known models, in selector order.
const (
	ModelChatGPT ModelType = "chatgpt"
	ModelGemini  ModelType = "gemini"
)

// MemoryMode tells the backend whether to keep conversation history.
type MemoryMode string

// Memory modes accepted by the backend.
const (
	MemoryActive     MemoryMode = "active"
	MemoryMemoryless MemoryMode = "memoryless"
)

// ModelOption is one entry of the model selector.
type ModelOption struct {
	ID    ModelType
	Label string
}

var knownModels = []ModelOption{
	{ID: ModelChatGPT, Label: "ChatGPT (GPT-3.5-turbo)"},
	{ID: ModelGemini, Label: "Gemini Pro"},
}

var shortModelNames = map[ModelType]string{
	ModelChatGPT: "ChatGPT",
	ModelGemini:  "Gemini",
}

// KnownModels returns the models this client can label, in selector order.
func KnownModels() []ModelOption {
	return append([]ModelOption(nil), knownModels...)
}

// LabelFor returns the display label for id, or false for unknown ids.
func LabelFor(id ModelType) (string, bool) {
	for _, m := range knownModels {
		if m.ID == id {
			return m.Label, true
		}
	}
	return "", false
}

// ParseMemoryMode validates a memory mode name.
func ParseMemoryMode(s string) (MemoryMode, error) {
	switch MemoryMode(strings.ToLower(strings.TrimSpace(s))) {
	case MemoryActive:
		return MemoryActive, nil
	case MemoryMemoryless:
		return MemoryMemoryless, nil
	default:
		return "", fmt.Errorf("unknown memory mode %q (expected active or memoryless)", s)
	}
}

// Configuration holds the user-editable chat settings sent with every message.
type Configuration struct {
	SelectedModel          ModelType
	MemoryMode             MemoryMode
	InitialContext         string
	UseContextPersistently bool
}

// DefaultConfiguration returns the settings a fresh widget starts with.
func DefaultConfiguration() Configuration {
	return Configuration{
		SelectedModel: ModelChatGPT,
		MemoryMode:    MemoryActive,
	}
}

// Summary renders the one-line description shown in the info banner after a
// settings change, e.g. "Model: Gemini | Memory: Active | Context: Persistent".
func (c Configuration) Summary() string {
	model, ok := shortModelNames[c.SelectedModel]
	if !ok {
		model = string(c.SelectedModel)
	}

	memory := "Active"
	if c.MemoryMode == MemoryMemoryless {
		memory = "Memoryless"
	}

	summary := fmt.Sprintf("Model: %s | Memory: %s", model, memory)
	if c.InitialContext != "" {
		if c.UseContextPersistently {
			summary += " | Context: Persistent"
		} else {
			summary += " | Context: One-time"
		}
	}
	return summary
}
