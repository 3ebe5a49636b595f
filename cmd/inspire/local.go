package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aykhuss/inspire/internal/config"
	"github.com/aykhuss/inspire/internal/display"
	"github.com/aykhuss/inspire/internal/index"
	"github.com/aykhuss/inspire/internal/inspire"
)

// IndexFile is the index file name under cache_dir.
const IndexFile = "index.db"

var (
	localBib   string
	localLimit int
	localShow  bool
)

func init() {
	localCmd.Flags().StringVarP(&localBib, "bib", "b", "", "Bibliography file to search (default from config)")
	localCmd.Flags().IntVar(&localLimit, "limit", 20, "Maximum results to return")
	localCmd.Flags().BoolVarP(&localShow, "show", "s", false, "Print the full BibTeX entries")
	rootCmd.AddCommand(localCmd)
}

var localCmd = &cobra.Command{
	Use:   "local <terms...>",
	Short: "Full-text search of the local bibliography",
	Long: `Search keys, titles, authors and the raw text of the local bibliography.

The file is indexed into SQLite on every call (in memory, or under
cache_dir when configured); all terms must match.

Examples:
  inspire local antenna subtraction
  inspire local -s Huss:2020abc`,
	Args: cobra.MinimumNArgs(1),
	Run:  runLocal,
}

// LocalResponse is the response for the local command.
type LocalResponse struct {
	Query   string      `json:"query"`
	Indexed int         `json:"indexed"`
	Hits    []index.Hit `json:"hits"`
}

func runLocal(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	bibPath := cfg.BibFile
	if localBib != "" {
		bibPath = config.ExpandPath(localBib)
	}
	if _, err := os.Stat(bibPath); err != nil {
		exitWithErr(err, "reading bibliography")
	}

	dsn := index.Memory
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
			exitWithError(ExitConfigError, "creating cache_dir: %v", err)
		}
		dsn = filepath.Join(cfg.CacheDir, IndexFile)
	}

	db, err := index.Open(dsn)
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	defer db.Close()

	n, err := db.Rebuild(bibPath)
	if err != nil {
		exitWithError(ExitDataError, "indexing %s: %v", bibPath, err)
	}
	logger.Debug("indexed bibliography", "path", bibPath, "entries", n)

	query := strings.Join(args, " ")
	hits, err := db.Search(query, localLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if jsonOutput {
		outputJSON(LocalResponse{Query: query, Indexed: n, Hits: hits})
		return
	}

	if len(hits) == 0 {
		outputHuman("no matches among %d entries\n", n)
		return
	}
	color := stdoutIsTerminal()
	for _, h := range hits {
		if localShow {
			text, err := db.Get(h.Key)
			if err != nil {
				exitWithError(ExitError, "%v", err)
			}
			if err := display.Write(os.Stdout, "\n"+text, inspire.FormatBibTeX, color); err != nil {
				exitWithError(ExitError, "writing output: %v", err)
			}
			continue
		}
		outputHuman("%s\n", h.Key)
		if h.Title != "" {
			outputHuman("  %s\n", truncateString(h.Title, ListTitleMaxLen))
		}
		if h.Author != "" {
			outputHuman("  %s\n", truncateString(h.Author, ListTitleMaxLen))
		}
	}
}
