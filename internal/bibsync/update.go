package bibsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/aykhuss/inspire/internal/bibstore"
	"github.com/aykhuss/inspire/internal/bibtex"
	"github.com/aykhuss/inspire/internal/inspire"
)

// UpdateOptions controls a full update.
type UpdateOptions struct {
	// RefreshArtifacts re-downloads the PDF of every key, overwriting.
	RefreshArtifacts bool

	// DropSkipped rewrites the file even when the scanner skipped
	// fragments, losing them. Without it such a file aborts the update
	// before anything is touched.
	DropSkipped bool
}

// UpdateReport summarizes a full update. It is returned alongside an
// error so callers can show how far the update got.
type UpdateReport struct {
	Recovery   bibstore.Recovery `json:"recovery"`
	Keys       int               `json:"keys"`
	Updated    []string          `json:"updated"`
	Duplicates []string          `json:"duplicates,omitempty"`
	Skipped    []bibtex.Fragment `json:"skipped,omitempty"`
	Artifacts  []string          `json:"artifacts,omitempty"`
	Warnings   []Warning         `json:"warnings,omitempty"`
	Committed  bool              `json:"committed"`
}

// Header returns the header line written at the top of a rewritten file.
func (e *Engine) Header() string {
	return fmt.Sprintf("# updated by %s on %s", e.tool, e.now().Format(HeaderTimeFormat))
}

// Run rebuilds the bibliography so every existing key reflects the source.
//
// A pending backup is reconciled first. Then the key list is captured, the
// file is backed up and truncated to a header, and each key is re-resolved
// and appended in the captured order under the record's canonical key. A
// key that does not resolve to exactly one record aborts the run with an
// *AmbiguityError; source and file errors abort too. On abort the backup
// stays in place and the next Run restores it. PDF failures with
// RefreshArtifacts are per-key warnings.
//
// Fragments the scanner skips would be lost by the rewrite, so a file with
// any aborts with ErrSkippedEntries before the backup is taken unless
// DropSkipped is set.
func (e *Engine) Run(ctx context.Context, opts UpdateOptions) (*UpdateReport, error) {
	report := &UpdateReport{}
	if opts.RefreshArtifacts && e.fetcher == nil {
		return report, ErrNoFetcher
	}

	recovery, err := e.store.RecoverIfNeeded()
	if err != nil {
		return report, fmt.Errorf("recovering backup: %w", err)
	}
	report.Recovery = recovery
	if recovery.Action != bibstore.RecoveryNone {
		e.logger.Info("reconciled leftover backup",
			"action", recovery.Action, "backup_keys", recovery.BackupKeys, "live_keys", recovery.LiveKeys)
	}

	entries, err := e.store.Entries()
	if err != nil {
		return report, err
	}
	report.Skipped = entries.Skipped
	if len(entries.Skipped) > 0 {
		if !opts.DropSkipped {
			return report, fmt.Errorf("%w: %d fragments (first at byte %d: %s)",
				ErrSkippedEntries, len(entries.Skipped), entries.Skipped[0].Offset, entries.Skipped[0].Reason)
		}
		for _, f := range entries.Skipped {
			e.warn(&report.Warnings, f.Key, fmt.Sprintf("dropping entry at byte %d", f.Offset), errors.New(f.Reason))
		}
	}
	keys, dups := uniqueKeys(entries.Keys())
	for _, k := range dups {
		e.logger.Warn("duplicate key in bibliography, keeping first entry", "key", k)
	}
	report.Keys = len(keys)
	report.Duplicates = dups
	report.Updated = make([]string, 0, len(keys))

	if err := e.store.BeginRewrite(); err != nil {
		return report, fmt.Errorf("backing up bibliography: %w", err)
	}
	if err := e.store.WriteHeader(e.Header()); err != nil {
		return report, err
	}

	for i, key := range keys {
		rec, err := e.resolve(ctx, key)
		if err != nil {
			return report, err
		}

		text, err := e.source.Retrieve(ctx, rec, inspire.FormatBibTeX)
		if err != nil {
			return report, fmt.Errorf("retrieving %q: %w", key, err)
		}
		// the entry text carries the canonical key, not necessarily the queried one
		canonical := rec.Key()
		if err := e.store.Append(canonical, text); err != nil {
			if !errors.Is(err, bibstore.ErrDuplicateKey) {
				return report, err
			}
			e.warn(&report.Warnings, key, fmt.Sprintf("entry already rewritten as %s", canonical), err)
			e.report(i+1, len(keys), key)
			continue
		}
		report.Updated = append(report.Updated, canonical)

		if opts.RefreshArtifacts {
			dl, err := e.fetcher.Fetch(ctx, rec, e.ArtifactPath(canonical), true)
			if err != nil {
				e.warn(&report.Warnings, key, "refreshing PDF", err)
			} else {
				report.Artifacts = append(report.Artifacts, dl.Path)
			}
		}

		e.report(i+1, len(keys), key)
	}

	if err := e.store.CommitRewrite(); err != nil {
		return report, err
	}
	report.Committed = true
	return report, nil
}

// resolve looks key up as an exact-match query and requires exactly one
// returned record to carry it.
func (e *Engine) resolve(ctx context.Context, key string) (inspire.Record, error) {
	res, err := e.source.Query(ctx, key, inspire.SortMostRecent, 1)
	if err != nil {
		return inspire.Record{}, fmt.Errorf("querying %q: %w", key, err)
	}

	var matches []inspire.Record
	for _, rec := range res.Records {
		if rec.HasKey(key) {
			matches = append(matches, rec)
		}
	}
	if len(matches) != 1 {
		return inspire.Record{}, &AmbiguityError{Key: key, Matches: len(matches), Total: res.Total}
	}
	return matches[0], nil
}

// uniqueKeys drops repeated keys, keeping first-seen order.
func uniqueKeys(keys []string) (unique, dups []string) {
	seen := make(map[string]bool, len(keys))
	unique = make([]string, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			dups = append(dups, k)
			continue
		}
		seen[k] = true
		unique = append(unique, k)
	}
	return unique, dups
}
