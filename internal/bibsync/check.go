package bibsync

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aykhuss/inspire/internal/artifact"
	"github.com/aykhuss/inspire/internal/bibstore"
	"github.com/aykhuss/inspire/internal/bibtex"
)

// FetchArtifact resolves key against the source and downloads its PDF.
func (e *Engine) FetchArtifact(ctx context.Context, key string, overwrite bool) (*artifact.Download, error) {
	if e.fetcher == nil {
		return nil, ErrNoFetcher
	}
	rec, err := e.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.fetcher.Fetch(ctx, rec, e.ArtifactPath(key), overwrite)
}

// BadArtifact is a PDF that exists but failed verification.
type BadArtifact struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// CheckReport describes the consistency of the bibliography and PDF directory.
type CheckReport struct {
	Path        string            `json:"path"`
	State       string            `json:"state"`
	Entries     int               `json:"entries"`
	Duplicates  []string          `json:"duplicates,omitempty"`
	Skipped     []bibtex.Fragment `json:"skipped,omitempty"`
	MissingPDFs []string          `json:"missing_pdfs,omitempty"`
	BadPDFs     []BadArtifact     `json:"bad_pdfs,omitempty"`
}

// OK reports whether the check found nothing to fix.
func (r *CheckReport) OK() bool {
	return r.State == bibstore.Clean.String() && len(r.Duplicates) == 0 && len(r.Skipped) == 0 &&
		len(r.MissingPDFs) == 0 && len(r.BadPDFs) == 0
}

// Check inspects the bibliography without modifying anything. With a
// fetcher configured it also looks for missing PDFs, and with verify set
// it opens every PDF found.
func (e *Engine) Check(verify bool) (*CheckReport, error) {
	report := &CheckReport{Path: e.store.Path()}

	state, err := e.store.State()
	if err != nil {
		return nil, err
	}
	report.State = state.String()

	if _, err := os.Stat(e.store.Path()); err != nil {
		return nil, fmt.Errorf("checking bibliography: %w", err)
	}
	res, err := e.store.Entries()
	if err != nil {
		return nil, err
	}
	report.Skipped = res.Skipped

	keys, dups := uniqueKeys(res.Keys())
	report.Entries = len(keys)
	report.Duplicates = dups

	if e.fetcher == nil {
		return report, nil
	}
	for _, key := range keys {
		path := e.ArtifactPath(key)
		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("checking PDF: %w", err)
			}
			report.MissingPDFs = append(report.MissingPDFs, key)
			continue
		}
		if !verify {
			continue
		}
		if _, err := artifact.Verify(path); err != nil {
			report.BadPDFs = append(report.BadPDFs, BadArtifact{Key: key, Path: path, Error: err.Error()})
		}
	}
	return report, nil
}
