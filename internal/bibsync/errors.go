package bibsync

import (
	"errors"
	"fmt"
)

var (
	// ErrAmbiguousResolution indicates a key did not resolve to exactly one record.
	ErrAmbiguousResolution = errors.New("citation key did not resolve to exactly one record")

	// ErrNoFetcher indicates PDF handling was requested without a fetcher.
	ErrNoFetcher = errors.New("no artifact fetcher configured")

	// ErrSkippedEntries indicates an update would drop fragments the
	// scanner could not parse.
	ErrSkippedEntries = errors.New("bibliography has entries the scanner cannot parse")
)

// AmbiguityError reports how a key failed to resolve.
type AmbiguityError struct {
	Key     string
	Matches int // Records carrying the key
	Total   int // Hits reported by the source
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("resolving %q: %d matching records (%d hits)", e.Key, e.Matches, e.Total)
}

func (e *AmbiguityError) Unwrap() error {
	return ErrAmbiguousResolution
}
