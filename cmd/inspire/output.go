package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aykhuss/inspire/internal/artifact"
	"github.com/aykhuss/inspire/internal/arxiv"
	"github.com/aykhuss/inspire/internal/bibstore"
	"github.com/aykhuss/inspire/internal/bibsync"
	"github.com/aykhuss/inspire/internal/config"
	"github.com/aykhuss/inspire/internal/inspire"
	"github.com/aykhuss/inspire/internal/selector"
)

// Title truncation lengths by context
const (
	ListTitleMaxLen   = 70 // Used in local search results
	StatusTitleMaxLen = 60 // Used in add/update summaries
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if jsonOutput {
		outputJSON(ErrorResponse{Error: msg, Code: code})
	} else {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	os.Exit(code)
}

// exitCodeFor maps an error to the exit code of its class.
func exitCodeFor(err error) int {
	var apiErr *inspire.APIError
	switch {
	case errors.Is(err, selector.ErrCancelled):
		return ExitCancelled
	case errors.Is(err, bibsync.ErrAmbiguousResolution),
		errors.Is(err, bibsync.ErrSkippedEntries),
		errors.Is(err, bibstore.ErrDuplicateKey),
		errors.Is(err, arxiv.ErrUnresolvableIdentifier),
		errors.Is(err, artifact.ErrArtifactExists),
		errors.Is(err, artifact.ErrNotPDF):
		return ExitDataError
	case errors.Is(err, bibstore.ErrBackupExists),
		errors.Is(err, bibstore.ErrNoBackup),
		errors.Is(err, bibsync.ErrNoFetcher),
		errors.Is(err, os.ErrNotExist):
		return ExitConfigError
	case errors.As(err, &apiErr),
		errors.Is(err, inspire.ErrRateLimited),
		errors.Is(err, inspire.ErrNetworkError),
		errors.Is(err, inspire.ErrInvalidResponse),
		errors.Is(err, inspire.ErrFormatUnavailable),
		errors.Is(err, artifact.ErrTransfer):
		return ExitAPIError
	}
	return ExitError
}

// exitWithErr exits with the code exitCodeFor picks for err.
func exitWithErr(err error, format string, args ...interface{}) {
	exitWithError(exitCodeFor(err), format+": %v", append(args, err)...)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Path   string         `json:"path"`
	Config *config.Config `json:"config"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// printWarnings lists per-key warnings on stderr.
func printWarnings(warnings []bibsync.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Key, w.Message)
	}
}
