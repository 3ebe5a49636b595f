package bibsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/aykhuss/inspire/internal/artifact"
	"github.com/aykhuss/inspire/internal/bibstore"
	"github.com/aykhuss/inspire/internal/inspire"
)

// Entry outcomes reported by Add.
const (
	EntryAdded  = "added"
	EntryExists = "exists" // Key already in the bibliography
)

// PDF outcomes reported by Add.
const (
	PDFDownloaded = "downloaded"
	PDFKept       = "kept"    // File existed and re-download was declined
	PDFFailed     = "failed"  // See the item warning
	PDFSkipped    = "skipped" // PDFs not requested
)

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// AddOptions controls Add.
type AddOptions struct {
	// FetchArtifacts downloads the PDF for each record.
	FetchArtifacts bool

	// Confirm is asked whether to overwrite an existing PDF. Nil declines.
	Confirm ConfirmFunc
}

// AddItem is the outcome for one record.
type AddItem struct {
	Key     string `json:"key"`
	Entry   string `json:"entry"`
	PDF     string `json:"pdf"`
	PDFPath string `json:"pdf_path,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// AddReport summarizes Add.
type AddReport struct {
	Recovery bibstore.Recovery `json:"recovery"`
	Items    []AddItem         `json:"items"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// Add appends the bibtex entries of records that are not yet in the file
// and optionally fetches their PDFs. Keys already present are reported,
// not appended. A pending backup is reconciled first so appended entries
// cannot be lost to a later restore.
func (e *Engine) Add(ctx context.Context, records []inspire.Record, opts AddOptions) (*AddReport, error) {
	report := &AddReport{Items: make([]AddItem, 0, len(records))}
	if opts.FetchArtifacts && e.fetcher == nil {
		return report, ErrNoFetcher
	}

	recovery, err := e.store.RecoverIfNeeded()
	if err != nil {
		return report, fmt.Errorf("recovering backup: %w", err)
	}
	report.Recovery = recovery

	for i, rec := range records {
		key := rec.Key()
		item := AddItem{Key: key, PDF: PDFSkipped}

		text, err := e.source.Retrieve(ctx, rec, inspire.FormatBibTeX)
		if err != nil {
			return report, fmt.Errorf("retrieving %q: %w", key, err)
		}

		switch err := e.store.Append(key, text); {
		case err == nil:
			item.Entry = EntryAdded
		case errors.Is(err, bibstore.ErrDuplicateKey):
			item.Entry = EntryExists
			e.logger.Info("entry found in database", "key", key)
		default:
			return report, err
		}

		if opts.FetchArtifacts {
			e.fetchOne(ctx, rec, opts.Confirm, &item, &report.Warnings)
		}

		report.Items = append(report.Items, item)
		e.report(i+1, len(records), key)
	}
	return report, nil
}

// fetchOne downloads the PDF for rec, asking before overwriting.
func (e *Engine) fetchOne(ctx context.Context, rec inspire.Record, confirm ConfirmFunc, item *AddItem, warnings *[]Warning) {
	dest := e.ArtifactPath(item.Key)
	item.PDFPath = dest

	_, err := e.fetcher.Fetch(ctx, rec, dest, false)
	if errors.Is(err, artifact.ErrArtifactExists) {
		if confirm == nil || !confirm(fmt.Sprintf("%q already exists. re-download?", dest)) {
			item.PDF = PDFKept
			return
		}
		_, err = e.fetcher.Fetch(ctx, rec, dest, true)
	}
	if err != nil {
		item.PDF = PDFFailed
		item.Warning = err.Error()
		e.warn(warnings, item.Key, "downloading PDF", err)
		return
	}
	item.PDF = PDFDownloaded
}
