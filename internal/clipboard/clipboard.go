// Package clipboard copies retrieved citations to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"strings"

	sysclip "github.com/atotto/clipboard"
)

// ErrClipboardUnavailable is returned when no clipboard utility was found.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// writeAll is replaced in tests.
var writeAll = sysclip.WriteAll

// IsAvailable reports whether a clipboard utility (pbcopy, xclip, xsel,
// wl-copy) was found at startup.
func IsAvailable() bool {
	return !sysclip.Unsupported
}

// Copy places text on the clipboard with surrounding blank lines removed.
func Copy(text string) error {
	if !IsAvailable() {
		return ErrClipboardUnavailable
	}
	if err := writeAll(strings.Trim(text, "\n")); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}
