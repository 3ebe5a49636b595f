// Package artifact downloads the PDF companion of a literature record.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/aykhuss/inspire/internal/arxiv"
	"github.com/aykhuss/inspire/internal/inspire"
)

const (
	// DefaultInterval is the delay between downloads per arXiv guidelines.
	DefaultInterval = 3 * time.Second

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 2 * time.Minute
)

var (
	// ErrArtifactExists indicates the destination exists and overwrite was not requested.
	ErrArtifactExists = errors.New("artifact already exists")

	// ErrTransfer indicates the download itself failed.
	ErrTransfer = errors.New("artifact transfer failed")
)

// Download describes a completed fetch.
type Download struct {
	Key   string `json:"key"`
	ID    string `json:"arxiv_id"`
	URL   string `json:"url"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
	Pages int    `json:"pages,omitempty"` // Set when verification is enabled
}

// Fetcher downloads artifacts over HTTP.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	verify     bool
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = hc
	}
}

// WithBaseURL sets the PDF URL prefix (for testing or mirrors).
func WithBaseURL(u string) Option {
	return func(f *Fetcher) {
		f.baseURL = u
	}
}

// WithInterval sets the minimum delay between downloads.
// A non-positive interval disables limiting.
func WithInterval(d time.Duration) Option {
	return func(f *Fetcher) {
		if d <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithVerify enables checking that downloaded bytes parse as a PDF.
func WithVerify(verify bool) Option {
	return func(f *Fetcher) {
		f.verify = verify
	}
}

// WithLogger sets the logger for download tracing.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultInterval), 1),
		baseURL:    arxiv.DefaultPDFBase,
		userAgent:  inspire.DefaultUserAgent,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URLFor returns the download URL for a record.
func (f *Fetcher) URLFor(rec inspire.Record) (string, error) {
	id, err := arxiv.Resolve(rec.Eprints)
	if err != nil {
		return "", fmt.Errorf("%q: %w", rec.Key(), err)
	}
	return arxiv.PDFURL(f.baseURL, id), nil
}

// Fetch downloads the record's PDF to dest.
//
// If dest exists and overwrite is false it fails with ErrArtifactExists.
// A record without an arXiv identifier fails with arxiv.ErrUnresolvableIdentifier.
// The body is written to a temp file next to dest and renamed into place,
// so a failed transfer leaves any existing dest untouched.
func (f *Fetcher) Fetch(ctx context.Context, rec inspire.Record, dest string, overwrite bool) (*Download, error) {
	if _, err := os.Stat(dest); err == nil && !overwrite {
		return nil, fmt.Errorf("%w: %s", ErrArtifactExists, dest)
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking %s: %w", dest, err)
	}

	id, err := arxiv.Resolve(rec.Eprints)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", rec.Key(), err)
	}
	u := arxiv.PDFURL(f.baseURL, id)

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	f.logger.Debug("downloading PDF", "key", rec.Key(), "url", u, "dest", dest)
	n, pages, err := f.download(ctx, u, dest)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("downloaded PDF", "key", rec.Key(), "bytes", n)

	return &Download{Key: rec.Key(), ID: id, URL: u, Path: dest, Bytes: n, Pages: pages}, nil
}

// download streams u into dest through a temp file. The page count is
// only known when verification is enabled.
func (f *Fetcher) download(ctx context.Context, u, dest string) (int64, int, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, 0, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("%w: %s: http %s", ErrTransfer, u, resp.Status)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*.pdf")
	if err != nil {
		return 0, 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		tmpFile.Close()
		return 0, 0, fmt.Errorf("%w: %s: %v", ErrTransfer, u, err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, 0, fmt.Errorf("closing temp file: %w", err)
	}

	pages := 0
	if f.verify {
		if pages, err = Verify(tmpPath); err != nil {
			return 0, 0, fmt.Errorf("%s: %w", u, err)
		}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, 0, fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return n, pages, nil
}
