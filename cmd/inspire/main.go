// Package main provides the inspire CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aykhuss/inspire/internal/artifact"
	"github.com/aykhuss/inspire/internal/bibstore"
	"github.com/aykhuss/inspire/internal/bibsync"
	"github.com/aykhuss/inspire/internal/config"
	"github.com/aykhuss/inspire/internal/inspire"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// jsonOutput prints machine-readable results instead of text
	jsonOutput bool

	// verbose enables debug logging on stderr
	verbose bool

	logger = slog.Default()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "inspire",
	Short: "Search INSPIRE-HEP and keep a BibTeX bibliography in sync",
	Long: `inspire searches the INSPIRE-HEP literature database and manages a local
BibTeX bibliography together with the arXiv PDFs of its entries.

  inspire search a Huss and t jets        # show matching records
  inspire search -b a Huss and t jets     # add selected records to the bibliography
  inspire update --pdf                    # refresh every entry (and PDF) from INSPIRE

Settings live in ~/.config/inspire/config.yml (see 'inspire config').`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// a missing .env is fine
		_ = godotenv.Load()
		logger = newLogger(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config %s: %v", config.Path(), err)
	}
	return cfg
}

// newClient builds the INSPIRE client for cfg.
func newClient(cfg *config.Config) *inspire.Client {
	opts := []inspire.ClientOption{
		inspire.WithLogger(logger),
		inspire.WithUserAgent("inspire/" + Version),
	}
	if cfg.APIURL != "" {
		opts = append(opts, inspire.WithBaseURL(cfg.APIURL))
	}
	return inspire.NewClient(opts...)
}

// newEngine builds a sync engine over bibPath. PDFs are enabled when the
// config names a PDF directory.
func newEngine(cfg *config.Config, bibPath string, opts ...bibsync.Option) *bibsync.Engine {
	base := []bibsync.Option{
		bibsync.WithLogger(logger),
		bibsync.WithClock(time.Now),
	}
	if cfg.PDFDir != "" {
		fetcher := artifact.NewFetcher(
			artifact.WithLogger(logger),
			artifact.WithUserAgent("inspire/"+Version),
			artifact.WithVerify(true),
		)
		base = append(base, bibsync.WithFetcher(fetcher, cfg.PDFDir))
	}
	return bibsync.New(bibstore.New(bibPath), newClient(cfg), append(base, opts...)...)
}
