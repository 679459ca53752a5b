// Package main provides the protannot command-line tool.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/protlab/protannot/internal/dat"
	"github.com/protlab/protannot/internal/index"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("protannot version %s (%s) built %s\n", version, commit, date)
		return ExitSuccess
	}

	initConfig()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return ExitUsage
	}

	switch args[0] {
	case "annotate":
		return runAnnotate(args[1:])
	case "parse":
		return runParse(args[1:])
	case "filter":
		return runFilter(args[1:])
	case "convert":
		return runConvert(args[1:])
	case "report":
		return runReport(args[1:])
	case "config":
		return runConfig(args[1:])
	case "help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printUsage()
		return ExitUsage
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `protannot - UniProt Swiss-Prot protein annotator

Usage:
  protannot [options] <command> [arguments]

Commands:
  annotate    Add Swiss-Prot annotations to a list of protein accessions
  parse       Parse a DAT file into a cached annotation index
  filter      Extract selected species from a full Swiss-Prot DAT file
  convert     Export a parsed annotation index to a DuckDB database
  report      Write per-term keyword/GO/pathway summary reports
  config      Manage protannot configuration
  help        Show this help message

Global Options:
  --version   Show version information

Examples:
  # Parse a DAT file once (writes a reload snapshot next to it)
  protannot parse sprot_3species.dat.gz

  # Annotate a list of accessions with keywords, GO terms, and pathways
  protannot annotate --dat sprot_3species.dat.gz --species mouse accessions.txt

  # Bootstrap non-model-organism proteins through a BLAST ortholog map
  protannot annotate --dat sprot_3species.dat.gz --blast-map map.txt accessions.txt

For more information on a command, use:
  protannot <command> --help
`)
}

// initConfig wires up the optional ~/.protannot.yaml config file. Flags
// override config values; a missing file is fine.
func initConfig() {
	viper.SetConfigName(".protannot")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetDefault("species", "")
	viper.SetDefault("ortholog.tiebreak", "identity-evalue")
	viper.SetDefault("reports.min_frequency", 2)
	viper.SetDefault("cache.disabled", false)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: could not read config file: %v\n", err)
		}
	}
}

// newLogger builds the stderr logger the library packages log through.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadIndex builds the annotation index for a DAT file, restoring it from
// the snapshot next to the file when the snapshot is still fresh. Freshness
// covers the requested organism filter as well as the file identity: a
// snapshot of a filtered build must never answer for a different filter.
// The snapshot is purely a speed-up beyond that; a failed write only costs
// the next reload.
func loadIndex(datPath string, species []string, logger *zap.Logger) (*index.Index, error) {
	identity, err := index.IdentityOf(datPath)
	if err != nil {
		return nil, err
	}

	filter := dat.TaxIDsForSpecies(species...)
	snapPath := index.SnapshotPath(datPath)
	useCache := !viper.GetBool("cache.disabled")

	if useCache {
		idx, err := index.Load(snapPath, identity, filter)
		if err == nil {
			fmt.Fprintf(os.Stderr, "Restored %d records from snapshot %s\n", idx.Len(), filepath.Base(snapPath))
			return idx, nil
		}
		var stale *index.IdentityMismatchError
		if errors.As(err, &stale) {
			fmt.Fprintf(os.Stderr, "Snapshot is stale, re-parsing DAT file\n")
		} else if !os.IsNotExist(err) {
			logger.Warn("could not read snapshot", zap.Error(err))
		}
	}

	tok, err := dat.NewTokenizer(datPath)
	if err != nil {
		return nil, err
	}
	defer tok.Close()

	parser := dat.NewParser()
	parser.SetAllowedTaxIDs(filter...)

	idx, err := index.Build(tok, parser, identity, logger)
	if err != nil {
		return nil, err
	}

	stats := idx.Provenance().Stats
	fmt.Fprintf(os.Stderr, "Parsed %d records (%d skipped, %d filtered)\n",
		stats.Entries, stats.Skipped, stats.Filtered)

	if useCache {
		if err := index.Save(idx, snapPath); err != nil {
			// Non-fatal: the parse succeeded, only the next reload is slower.
			fmt.Fprintf(os.Stderr, "Warning: could not save snapshot: %v\n", err)
		}
	}

	return idx, nil
}

// loadQueries reads query accessions from a file ("-" for stdin), one per
// line, skipping header-like lines and blank lines, and trimming the
// "_family" suffix some result files append.
func loadQueries(path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open accession list: %w", err)
		}
		defer f.Close()
		r = f
	}

	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		acc := fields[0]
		lower := strings.ToLower(acc)
		if strings.HasPrefix(lower, "accession") || lower == "acc" {
			continue
		}
		acc = strings.TrimSuffix(acc, "_family")
		queries = append(queries, acc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read accession list: %w", err)
	}
	return queries, nil
}

// splitSpecies turns a comma-separated species flag into a name list.
func splitSpecies(s string) []string {
	if s == "" {
		return nil
	}
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
