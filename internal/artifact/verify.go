package artifact

import (
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF indicates a file does not parse as a PDF document.
var ErrNotPDF = errors.New("not a valid PDF")

// Verify opens path as a PDF and returns its page count.
// arXiv answers some requests with an HTML page instead of the document;
// those fail here with ErrNotPDF.
func Verify(path string) (pages int, err error) {
	defer func() {
		// the parser panics on some malformed inputs
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("%w: %v", ErrNotPDF, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	n := r.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("%w: no pages", ErrNotPDF)
	}
	return n, nil
}
