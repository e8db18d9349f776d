package widget

import (
	"time"
	"unicode/utf8"
)

// Sender tells who produced a transcript entry.
type Sender string

// Transcript senders. SenderError marks inline error rows.
const (
	SenderUser  Sender = "user"
	SenderBot   Sender = "bot"
	SenderError Sender = "error"
)

// Message is one row of the visible transcript.
type Message struct {
	Content   string
	Sender    Sender
	Timestamp time.Time
}

// IsError reports whether the row is an inline error.
func (m Message) IsError() bool {
	return m.Sender == SenderError
}

// Thresholds for the input character counter.
const (
	CharCountWarning = 800
	CharCountDanger  = 900
)

// CharLevel classifies the draft input length.
type CharLevel string

// Character counter levels.
const (
	CharLevelNormal  CharLevel = "normal"
	CharLevelWarning CharLevel = "warning"
	CharLevelDanger  CharLevel = "danger"
)

// CharCount is the live counter shown under the input.
type CharCount struct {
	Count int
	Level CharLevel
}

// CountChars measures text for the input counter.
func CountChars(text string) CharCount {
	n := utf8.RuneCountInString(text)
	level := CharLevelNormal
	switch {
	case n > CharCountDanger:
		level = CharLevelDanger
	case n > CharCountWarning:
		level = CharLevelWarning
	}
	return CharCount{Count: n, Level: level}
}
