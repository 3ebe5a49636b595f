package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aykhuss/inspire/internal/bibsync"
	"github.com/aykhuss/inspire/internal/clipboard"
	"github.com/aykhuss/inspire/internal/config"
	"github.com/aykhuss/inspire/internal/display"
	"github.com/aykhuss/inspire/internal/inspire"
	"github.com/aykhuss/inspire/internal/selector"
)

// Placeholders used when -b or -d is given without a value.
const (
	bibFromConfig     = "<bib_file>"
	displayFromConfig = "<display>"
)

var (
	searchSort     string
	searchSize     int
	searchPageSize int
	searchBib      string
	searchDisplay  string
	searchAll      bool
	searchNoPDF    bool
	searchCopy     bool
)

func init() {
	searchCmd.Flags().StringVar(&searchSort, "sort", string(inspire.SortMostRecent), "Sort order: mostrecent or mostcited")
	searchCmd.Flags().IntVar(&searchSize, "size", 0, "Number of records to retrieve (default from config)")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 0, "Records per selection page (default from config)")
	searchCmd.Flags().StringVarP(&searchBib, "bib", "b", "", "Add selected records to a bibliography file (default from config)")
	searchCmd.Flags().Lookup("bib").NoOptDefVal = bibFromConfig
	searchCmd.Flags().StringVarP(&searchDisplay, "display", "d", "", "Display selected records in a format: "+strings.Join(inspire.ValidFormats, ", "))
	searchCmd.Flags().Lookup("display").NoOptDefVal = displayFromConfig
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "Select every record without prompting")
	searchCmd.Flags().BoolVar(&searchNoPDF, "no-pdf", false, "Do not download PDFs when adding")
	searchCmd.Flags().BoolVarP(&searchCopy, "copy", "c", false, "Copy the displayed records to the clipboard")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search INSPIRE and display or add records",
	Long: `Search the INSPIRE literature database.

The query uses INSPIRE search syntax, e.g. "a Huss and t jets" or
"texkey Huss:2020abc". When several records match, a selection list is
shown (use --all to take every record).

Without -b the selected records are printed in the display format.
With -b they are appended to the bibliography unless their key is already
present, and their arXiv PDFs are downloaded to the configured pdf_dir.
A file other than the configured bib_file is given as -b=<file>.

Examples:
  inspire search a Huss and t jets
  inspire search --sort mostcited -d bibtex t antenna subtraction
  inspire search -c -d=latex-us texkey Huss:2020abc
  inspire search -b eprint 2012.14267
  inspire search -b=~/paper/refs.bib a Gehrmann and date 2023`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSearch,
}

// SearchItem is one displayed record.
type SearchItem struct {
	Key    string `json:"key"`
	Format string `json:"format"`
	Text   string `json:"text"`
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query    string             `json:"query"`
	Total    int                `json:"total"`
	Returned int                `json:"returned"`
	Selected int                `json:"selected"`
	Records  []SearchItem       `json:"records,omitempty"`
	Added    *bibsync.AddReport `json:"added,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sort, err := inspire.ParseSort(searchSort)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	size := cfg.Size
	if searchSize > 0 {
		size = searchSize
	}
	pageSize := cfg.PageSize
	if searchPageSize > 0 {
		pageSize = searchPageSize
	}

	addMode := cmd.Flags().Changed("bib")
	format := ""
	if !addMode || cmd.Flags().Changed("display") {
		format = cfg.Display
		if searchDisplay != "" && searchDisplay != displayFromConfig {
			format = searchDisplay
		}
		if err := inspire.ValidateFormat(format); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	query := strings.Join(args, " ")
	client := newClient(cfg)
	res, err := client.Query(ctx, query, sort, size)
	if err != nil {
		exitWithErr(err, "searching %q", query)
	}
	if !jsonOutput {
		fmt.Fprintf(os.Stderr, "total: %d; size: %d\n", res.Total, len(res.Records))
	}

	records, err := bibsync.Select(res.Records, searchPicker(cfg, pageSize))
	if err != nil {
		exitWithErr(err, "selecting records")
	}

	resp := SearchResponse{
		Query:    query,
		Total:    res.Total,
		Returned: len(res.Records),
		Selected: len(records),
	}

	if format != "" {
		color := !jsonOutput && stdoutIsTerminal()
		var copied []string
		for _, rec := range records {
			text, err := client.Retrieve(ctx, rec, format)
			if err != nil {
				exitWithErr(err, "fetching %s for %q", format, rec.Key())
			}
			copied = append(copied, text)
			if jsonOutput {
				resp.Records = append(resp.Records, SearchItem{Key: rec.Key(), Format: format, Text: text})
				continue
			}
			if err := display.Write(os.Stdout, "\n"+text, format, color); err != nil {
				exitWithError(ExitError, "writing output: %v", err)
			}
		}
		if searchCopy && len(copied) > 0 {
			if err := clipboard.Copy(strings.Join(copied, "\n")); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			} else if !jsonOutput {
				fmt.Fprintf(os.Stderr, "copied %d records to the clipboard\n", len(copied))
			}
		}
	}

	if addMode {
		resp.Added = addRecords(ctx, cfg, records)
	}

	if jsonOutput {
		outputJSON(resp)
	}
}

// searchPicker returns the interactive picker, or a non-interactive one
// honoring --all.
func searchPicker(cfg *config.Config, pageSize int) bibsync.Picker {
	if searchAll {
		return nil
	}
	if isInteractive() {
		return selector.Picker(selector.IO{In: os.Stdin, Out: os.Stderr}, cfg.MaxNumAuthors, pageSize)
	}
	return func(records []inspire.Record) ([]int, error) {
		return nil, fmt.Errorf("%d records match and stdin is not a terminal; refine the query or pass --all", len(records))
	}
}

// addRecords appends records to the bibliography named by -b.
func addRecords(ctx context.Context, cfg *config.Config, records []inspire.Record) *bibsync.AddReport {
	bibPath := cfg.BibFile
	if searchBib != "" && searchBib != bibFromConfig {
		bibPath = config.ExpandPath(searchBib)
	}

	engine := newEngine(cfg, bibPath)
	opts := bibsync.AddOptions{FetchArtifacts: cfg.PDFDir != "" && !searchNoPDF}
	if isInteractive() {
		opts.Confirm = selector.Confirm(selector.IO{In: os.Stdin, Out: os.Stderr})
	}

	report, err := engine.Add(ctx, records, opts)
	if err != nil {
		exitWithErr(err, "adding to %s", bibPath)
	}

	if !jsonOutput {
		for _, item := range report.Items {
			switch item.Entry {
			case bibsync.EntryExists:
				outputHuman("entry %q found in database\n", item.Key)
			default:
				outputHuman("added %q to %s\n", item.Key, bibPath)
			}
			switch item.PDF {
			case bibsync.PDFDownloaded:
				outputHuman("  pdf: %s\n", item.PDFPath)
			case bibsync.PDFKept:
				outputHuman("  pdf: kept existing %s\n", item.PDFPath)
			}
		}
		printWarnings(report.Warnings)
	}
	return report
}
