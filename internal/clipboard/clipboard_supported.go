//go:build !linux

package clipboard

import (
	"bytes"
	"fmt"

	"golang.design/x/clipboard"
)

const clipboardAvailable = true

func initClipboard() error {
	return clipboard.Init()
}

// writeToClipboard copies text and reads it back, since the library reports
// no write errors of its own.
func writeToClipboard(text string) error {
	data := []byte(text)
	clipboard.Write(clipboard.FmtText, data)
	if !bytes.Equal(clipboard.Read(clipboard.FmtText), data) {
		return fmt.Errorf("%w: clipboard content did not change", ErrUnavailable)
	}
	return nil
}
