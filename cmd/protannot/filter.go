package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/protlab/protannot/internal/dat"
)

func runFilter(args []string) int {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)

	var species string
	fs.StringVar(&species, "species", viper.GetString("species"), "Comma-separated species to keep: human, mouse, arabidopsis")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Filter a full Swiss-Prot DAT file down to the entries of selected
species, writing a smaller DAT file that parses much faster.

Usage:
  protannot filter [options] <dat-file> <output-file>

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  protannot filter --species human,mouse,arabidopsis uniprot_sprot.dat.gz sprot_3species.dat.gz
  protannot filter --species mouse uniprot_sprot.dat.gz sprot_mouse.dat.gz
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "Error: input and output file arguments required\n\n")
		fs.Usage()
		return ExitUsage
	}

	keep, err := speciesKeepSet(species)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitUsage
	}

	tok, err := dat.NewTokenizer(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	defer tok.Close()

	out, err := os.Create(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		return ExitError
	}
	defer out.Close()

	var w io.Writer = out
	var gz *gzip.Writer
	if strings.HasSuffix(fs.Arg(1), ".gz") {
		gz = gzip.NewWriter(out)
		w = gz
	}

	var total, kept int
	for {
		block, err := tok.Next()
		if block == nil && err == nil {
			break
		}
		if err != nil {
			// Keep only complete, well-formed entries in the filtered file.
			continue
		}
		total++
		if !blockMatchesTaxID(block, keep) {
			continue
		}
		kept++
		for _, line := range block.Lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
				return ExitError
			}
		}
		if _, err := fmt.Fprintln(w, "//"); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			return ExitError
		}
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error finalizing output: %v\n", err)
			return ExitError
		}
	}

	fmt.Fprintf(os.Stderr, "Kept %d of %d entries\n", kept, total)
	return ExitSuccess
}

// speciesKeepSet resolves a comma-separated species list to the set of tax
// IDs to keep. An empty list is an error: filtering with no species would
// silently produce an empty DAT file.
func speciesKeepSet(species string) (map[string]bool, error) {
	names := splitSpecies(species)
	if len(names) == 0 {
		return nil, fmt.Errorf("no species selected; pass --species (e.g. --species human,mouse,arabidopsis) or set a default with protannot config set species")
	}
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		taxID, ok := dat.SpeciesTaxIDs[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown species %q", name)
		}
		keep[taxID] = true
	}
	return keep, nil
}

// blockMatchesTaxID reports whether the entry's OX line carries one of the
// wanted NCBI tax IDs.
func blockMatchesTaxID(block *dat.EntryBlock, keep map[string]bool) bool {
	for _, line := range block.Lines {
		if !strings.HasPrefix(line, "OX   ") {
			continue
		}
		rest := strings.TrimPrefix(line, "OX   ")
		if i := strings.Index(rest, "NCBI_TaxID="); i >= 0 {
			taxID := rest[i+len("NCBI_TaxID="):]
			if j := strings.IndexAny(taxID, "; "); j >= 0 {
				taxID = taxID[:j]
			}
			return keep[taxID]
		}
	}
	return false
}
