package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

func runParse(args []string) int {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)

	var (
		species string
		verbose bool
	)
	fs.StringVar(&species, "species", viper.GetString("species"), "Comma-separated species filter: human, mouse, arabidopsis")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Parse a Swiss-Prot DAT file into the annotation index and write its
snapshot next to the source file, so later runs skip the parse.

Usage:
  protannot parse [options] <dat-file>

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  protannot parse sprot_3species.dat.gz
  protannot parse --species human,mouse sprot_3species.dat.gz
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: DAT file argument required\n\n")
		fs.Usage()
		return ExitUsage
	}

	logger := newLogger(verbose)
	defer logger.Sync()

	idx, err := loadIndex(fs.Arg(0), splitSpecies(species), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	prov := idx.Provenance()
	fmt.Printf("Source:    %s (%d bytes, modified %s)\n",
		prov.Source.Name, prov.Source.Size, prov.Source.ModTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("Built:     %s (build %s)\n", prov.BuiltAt.Format("2006-01-02 15:04:05"), prov.BuildID)
	fmt.Printf("Tax IDs:   %v\n", prov.TaxIDs)
	fmt.Printf("Entries:   %d\n", prov.Stats.Entries)
	fmt.Printf("Filtered:  %d\n", prov.Stats.Filtered)
	fmt.Printf("Skipped:   %d\n", prov.Stats.Skipped)
	fmt.Printf("Malformed: %d\n", prov.Stats.Malformed)
	fmt.Printf("Truncated: %d\n", prov.Stats.Truncated)

	return ExitSuccess
}
