//go:build linux

package clipboard

// clipboardAvailable is false on Linux, where the clipboard library needs cgo
// and a running X11 server.
const clipboardAvailable = false

func initClipboard() error {
	return ErrUnavailable
}

func writeToClipboard(string) error {
	return ErrUnavailable
}
