package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Printer writes role-tagged lines in plain, styled or JSON form.
// It is safe for concurrent use.
type Printer struct {
	mu            sync.Mutex
	styleProvider StyleProvider
	writer        io.Writer
	mode          Mode
	forcePlain    bool
	silent        bool
	prefix        string
}

// NewPrinter returns a printer writing to os.Stdout unless options say
// otherwise.
func NewPrinter(options ...Option) *Printer {
	p := &Printer{writer: os.Stdout, mode: ModeAuto}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Print writes text as is, without a newline.
func (p *Printer) Print(text string) { p.write(SemanticPlain, "", text, false) }

// Printf formats and writes text without a newline.
func (p *Printer) Printf(format string, args ...any) {
	p.write(SemanticPlain, "", fmt.Sprintf(format, args...), false)
}

// Println writes text followed by a newline.
func (p *Printer) Println(text string) { p.write(SemanticPlain, "", text, true) }

func (p *Printer) Info(text string)    { p.write(SemanticInfo, "", text, true) }
func (p *Printer) Success(text string) { p.write(SemanticSuccess, "", text, true) }
func (p *Printer) Warning(text string) { p.write(SemanticWarning, "", text, true) }
func (p *Printer) Error(text string)   { p.write(SemanticError, "", text, true) }
func (p *Printer) User(text string)    { p.write(SemanticUser, "", text, true) }
func (p *Printer) Bot(text string)     { p.write(SemanticBot, "", text, true) }
func (p *Printer) Muted(text string)   { p.write(SemanticMuted, "", text, true) }
func (p *Printer) Accent(text string)  { p.write(SemanticAccent, "", text, true) }

// Labeled writes "label: text" with only the label styled, so text may be
// pre-rendered. JSON output carries the label as its own field.
func (p *Printer) Labeled(semantic SemanticType, label, text string) {
	p.write(semantic, label, text, true)
}

func (p *Printer) write(semantic SemanticType, label, text string, newline bool) {
	if p.silent {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var line string
	if p.mode == ModeJSON {
		line = encodeJSON(semantic, label, text)
	} else {
		line = p.format(semantic, label, text)
		if newline && !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
	}

	_, _ = io.WriteString(p.writer, p.prefix+line)
}

func (p *Printer) format(semantic SemanticType, label, text string) string {
	styled := p.stylable()
	provider := Plain
	if styled {
		provider = p.styleProvider
	}
	style := provider.GetStyle(string(semantic))

	if label == "" {
		return style.Render(text)
	}
	if !styled {
		return label + ": " + text
	}
	return style.Render(label) + ": " + text
}

func encodeJSON(semantic SemanticType, label, text string) string {
	record := map[string]string{"type": string(semantic), "message": text}
	if label != "" {
		record["label"] = label
	}
	data, err := json.Marshal(record)
	if err != nil {
		return text + "\n"
	}
	return string(data) + "\n"
}

// SetWriter changes the destination.
func (p *Printer) SetWriter(writer io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = writer
}

// SetStyleProvider swaps the style provider; nil disables styling.
func (p *Printer) SetStyleProvider(provider StyleProvider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.styleProvider = provider
}

// IsStylable reports whether output will carry styles.
func (p *Printer) IsStylable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stylable()
}

func (p *Printer) stylable() bool {
	return !p.forcePlain && p.mode != ModePlain &&
		p.styleProvider != nil && p.styleProvider.IsAvailable()
}
