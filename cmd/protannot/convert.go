package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/protlab/protannot/internal/duckdb"
)

func runConvert(args []string) int {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)

	var (
		species string
		verbose bool
	)
	fs.StringVar(&species, "species", viper.GetString("species"), "Comma-separated species filter: human, mouse, arabidopsis")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Convert a Swiss-Prot DAT file into a DuckDB database that annotate can
query directly, without loading the whole index into memory.

Usage:
  protannot convert [options] <dat-file> <duckdb-file>

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  protannot convert sprot_3species.dat.gz annotations.duckdb
  protannot convert --species human sprot_3species.dat.gz human.duckdb
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "Error: DAT file and DuckDB file arguments required\n\n")
		fs.Usage()
		return ExitUsage
	}
	dbPath := fs.Arg(1)

	logger := newLogger(verbose)
	defer logger.Sync()

	idx, err := loadIndex(fs.Arg(0), splitSpecies(species), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	// DuckDB will not overwrite an existing database cleanly.
	if _, err := os.Stat(dbPath); err == nil {
		if err := os.Remove(dbPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing existing database: %v\n", err)
			return ExitError
		}
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	defer store.Close()
	store.SetLogger(logger)

	if err := store.ExportIndex(idx); err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting index: %v\n", err)
		return ExitError
	}

	count, err := store.RecordCount()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", count, dbPath)
	return ExitSuccess
}
