package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/protlab/protannot/internal/annotate"
	"github.com/protlab/protannot/internal/blastmap"
	"github.com/protlab/protannot/internal/duckdb"
	"github.com/protlab/protannot/internal/keywords"
	"github.com/protlab/protannot/internal/output"
	"github.com/protlab/protannot/internal/report"
)

// annotateOptions collects the flags shared by annotate and report.
type annotateOptions struct {
	datPath      string
	duckdbPath   string
	keywordsPath string
	blastMapPath string
	species      string
	tiebreak     string
	withKeywords bool
	withGO       bool
	withPathways bool
	withMGI      bool
	verbose      bool
}

func (o *annotateOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.datPath, "dat", "", "Swiss-Prot DAT file (plain or gzipped)")
	fs.StringVar(&o.duckdbPath, "duckdb", "", "Annotate from a converted DuckDB database instead of a DAT file")
	fs.StringVar(&o.keywordsPath, "keywords", "", "Keyword list file (default: keywlist.txt next to the DAT file)")
	fs.StringVar(&o.blastMapPath, "blast-map", "", "BLAST ortholog mapping table (optional)")
	fs.StringVar(&o.species, "species", viper.GetString("species"), "Comma-separated species filter: human, mouse, arabidopsis")
	fs.StringVar(&o.tiebreak, "tiebreak", viper.GetString("ortholog.tiebreak"), "Best-ortholog tie-break rule: identity-evalue or score")
	fs.BoolVar(&o.withKeywords, "kw", true, "Include keyword columns")
	fs.BoolVar(&o.withGO, "go", true, "Include GO term columns")
	fs.BoolVar(&o.withPathways, "pathways", true, "Include pathway columns")
	fs.BoolVar(&o.withMGI, "mgi", false, "Include MGI columns (mouse)")
	fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
}

// buildRows runs the shared accession -> OutputRow pipeline.
func (o *annotateOptions) buildRows(queriesPath string) ([]annotate.OutputRow, *keywords.Catalog, bool, error) {
	logger := newLogger(o.verbose)
	defer logger.Sync()

	queries, err := loadQueries(queriesPath)
	if err != nil {
		return nil, nil, false, err
	}
	if len(queries) == 0 {
		return nil, nil, false, fmt.Errorf("no query accessions in %s", queriesPath)
	}
	fmt.Fprintf(os.Stderr, "Read %d query accessions\n", len(queries))

	// Annotation source: DuckDB store or DAT-backed in-memory index.
	var source annotate.RecordSource
	switch {
	case o.duckdbPath != "":
		store, err := duckdb.Open(o.duckdbPath)
		if err != nil {
			return nil, nil, false, err
		}
		defer store.Close()
		store.SetLogger(logger)
		count, err := store.RecordCount()
		if err != nil {
			return nil, nil, false, fmt.Errorf("query duckdb store: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Using DuckDB store %s (%d records)\n", o.duckdbPath, count)
		source = store
	case o.datPath != "":
		idx, err := loadIndex(o.datPath, splitSpecies(o.species), logger)
		if err != nil {
			return nil, nil, false, err
		}
		source = idx
	default:
		return nil, nil, false, fmt.Errorf("either --dat or --duckdb is required")
	}

	// Keyword catalog: optional, lookup degrades to uncategorized terms.
	var catalog *keywords.Catalog
	if o.withKeywords {
		path := o.keywordsPath
		if path == "" && o.datPath != "" {
			path = filepath.Join(filepath.Dir(o.datPath), "keywlist.txt")
		}
		if path != "" {
			catalog, err = keywords.Load(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: keyword list not loaded (%v); keyword categories unavailable\n", err)
				catalog = nil
			} else {
				catalog.SetLogger(logger)
				fmt.Fprintf(os.Stderr, "Loaded %d keyword terms in %d categories\n",
					catalog.Len(), len(catalog.Categories()))
			}
		}
	}

	// Optional BLAST ortholog mapping.
	var mapping *blastmap.Mapping
	if o.blastMapPath != "" {
		mapper := blastmap.NewMapper()
		mapper.SetLogger(logger)
		mapper.SetBetter(blastmap.ByName(o.tiebreak))
		mapping, err = mapper.LoadTable(o.blastMapPath)
		if err != nil {
			return nil, nil, false, err
		}
		fmt.Fprintf(os.Stderr, "Loaded BLAST mapping for %d queries (%d rows skipped)\n",
			mapping.Len(), mapping.SkippedRows())
	}

	joiner := annotate.NewJoiner(source)
	joiner.SetLogger(logger)
	if catalog != nil {
		joiner.SetCatalog(catalog)
	}

	rows, stats := joiner.Join(queries, mapping)
	fmt.Fprintf(os.Stderr, "Annotated %d accessions (%d lookups failed)\n",
		stats.Resolved+stats.Unresolved, stats.Unresolved)

	return rows, catalog, mapping != nil, nil
}

func runAnnotate(args []string) int {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)

	opts := &annotateOptions{}
	opts.register(fs)

	var (
		outputFile string
		reportsDir string
	)
	fs.StringVar(&outputFile, "o", "", "Output file (default: stdout)")
	fs.StringVar(&outputFile, "output", "", "Output file (default: stdout)")
	fs.StringVar(&reportsDir, "reports", "", "Also write per-term summary reports to this directory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Add Swiss-Prot annotations to a list of protein accessions.

Usage:
  protannot annotate [options] <accession-list>

Arguments:
  <accession-list>  File with one query accession per line (use '-' for stdin)

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  protannot annotate --dat sprot_3species.dat.gz accessions.txt
  protannot annotate --dat sprot_3species.dat.gz --species mouse --mgi accessions.txt
  protannot annotate --dat sprot_3species.dat.gz --blast-map blast_map.txt accessions.txt
  protannot annotate --duckdb annotations.duckdb -o annotated.tsv accessions.txt
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: accession list argument required\n\n")
		fs.Usage()
		return ExitUsage
	}

	rows, catalog, mapped, err := opts.buildRows(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	out := os.Stdout
	if outputFile != "" {
		out, err = os.Create(outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			return ExitError
		}
		defer out.Close()
	}

	wopts := output.Options{
		BlastMap: mapped,
		Keywords: opts.withKeywords,
		GOTerms:  opts.withGO,
		Pathways: opts.withPathways,
		MGI:      opts.withMGI || strings.Contains(strings.ToLower(opts.species), "mouse"),
	}
	if catalog != nil {
		wopts.CategoryColumns = catalog.CategoryColumns()
	}

	if err := output.NewTabWriter(out, wopts).WriteAll(rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		return ExitError
	}

	if reportsDir != "" {
		if err := writeReports(rows, catalog, reportsDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing reports: %v\n", err)
			return ExitError
		}
	}

	return ExitSuccess
}

func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ExitOnError)

	opts := &annotateOptions{}
	opts.register(fs)

	var reportsDir string
	fs.StringVar(&reportsDir, "dir", ".", "Directory to write report files to")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Write per-term keyword, GO, and pathway summary reports for a list of
protein accessions, without the per-protein annotation table.

Usage:
  protannot report [options] <accession-list>

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: accession list argument required\n\n")
		fs.Usage()
		return ExitUsage
	}

	rows, catalog, _, err := opts.buildRows(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	if err := writeReports(rows, catalog, reportsDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing reports: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func writeReports(rows []annotate.OutputRow, catalog *keywords.Catalog, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}
	w := report.NewWriter(dir, catalog, viper.GetInt("reports.min_frequency"))
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Reports written to %s\n", dir)
	return nil
}
