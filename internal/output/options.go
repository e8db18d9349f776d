package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Option configures a Printer.
type Option func(*Printer)

// WithStyles sets the style provider. Unavailable providers are ignored.
func WithStyles(provider StyleProvider) Option {
	return func(p *Printer) {
		if provider != nil && provider.IsAvailable() {
			p.styleProvider = provider
		}
	}
}

// WithWriter sets the destination. The default is os.Stdout.
func WithWriter(writer io.Writer) Option {
	return func(p *Printer) {
		if writer != nil {
			p.writer = writer
		}
	}
}

// WithMode sets the output mode.
func WithMode(mode Mode) Option {
	return func(p *Printer) {
		p.mode = mode
	}
}

// WithColorProfile styles output unless the terminal profile has no colors.
func WithColorProfile(profile termenv.Profile) Option {
	if profile == termenv.Ascii {
		return PlainText()
	}
	return WithMode(ModeStyled)
}

// PlainText ignores any style provider and uses Plain prefixes. Tests use it
// for deterministic output.
func PlainText() Option {
	return func(p *Printer) {
		p.mode = ModePlain
		p.forcePlain = true
	}
}

// JSON writes one {"type","message"[,"label"]} object per line.
func JSON() Option {
	return WithMode(ModeJSON)
}

// Silent drops all output.
func Silent() Option {
	return func(p *Printer) {
		p.silent = true
	}
}

// WithPrefix prepends prefix to every write.
func WithPrefix(prefix string) Option {
	return func(p *Printer) {
		p.prefix = prefix
	}
}
