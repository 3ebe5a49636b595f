package artifact

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Viewer launches a PDF reader on downloaded artifacts.
type Viewer struct {
	reader string
	goos   string
}

// NewViewer returns a viewer for the named reader; "" means the system default.
func NewViewer(reader string) *Viewer {
	if reader == "" {
		reader = "system"
	}
	return &Viewer{reader: reader, goos: runtime.GOOS}
}

// Open starts the reader on path without waiting for it to exit.
func (v *Viewer) Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening PDF: %w", err)
	}
	argv, err := v.command(path)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", argv[0], err)
	}
	return cmd.Process.Release()
}

func (v *Viewer) command(path string) ([]string, error) {
	switch v.goos {
	case "darwin":
		switch v.reader {
		case "skim":
			return []string{"open", "-a", "Skim", path}, nil
		case "preview":
			return []string{"open", "-a", "Preview", path}, nil
		case "system":
			return []string{"open", path}, nil
		}
	case "linux", "freebsd", "openbsd":
		switch v.reader {
		case "zathura", "evince", "okular":
			return []string{v.reader, path}, nil
		case "system":
			return []string{"xdg-open", path}, nil
		}
	default:
		return nil, fmt.Errorf("opening PDFs is not supported on %s", v.goos)
	}
	return nil, fmt.Errorf("pdf_reader %q is not available on %s", v.reader, v.goos)
}
