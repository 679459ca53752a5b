// Package report inverts per-protein annotation rows into per-term summary
// tables and writes the frequency report files.
package report

import (
	"strings"

	"github.com/protlab/protannot/internal/annotate"
)

// Category selects which annotation field a summary inverts.
type Category string

const (
	CategoryKeyword      Category = "keywords"
	CategoryGOMolecular  Category = "go-molecular-function"
	CategoryGOBiological Category = "go-biological-process"
	CategoryGOCellular   Category = "go-cellular-component"
	CategoryPathway      Category = "pathways"
)

// TermSummary pairs one term with the proteins bearing it, in row order.
type TermSummary struct {
	Term       string
	Accessions []string
}

// Frequency returns the number of proteins bearing the term.
func (t TermSummary) Frequency() int {
	return len(t.Accessions)
}

// Aggregate inverts the per-protein rows into per-term summaries for one
// category. Terms appear in order of first appearance across the rows;
// rows without a resolved record contribute nothing. The result is
// deterministic for a given row sequence.
func Aggregate(rows []annotate.OutputRow, category Category) []TermSummary {
	byTerm := make(map[string]int)
	var summaries []TermSummary

	for i := range rows {
		row := &rows[i]
		if row.Record == nil {
			continue
		}
		ident := row.Record.EntryName
		if ident == "" {
			ident = row.Record.Accession
		}

		for _, term := range rowTerms(row, category) {
			idx, seen := byTerm[term]
			if !seen {
				idx = len(summaries)
				byTerm[term] = idx
				summaries = append(summaries, TermSummary{Term: term})
			}
			summaries[idx].Accessions = append(summaries[idx].Accessions, ident)
		}
	}

	return summaries
}

func rowTerms(row *annotate.OutputRow, category Category) []string {
	var joined string
	switch category {
	case CategoryKeyword:
		return row.Record.Keywords
	case CategoryGOMolecular:
		joined = row.GOMolecular
	case CategoryGOBiological:
		joined = row.GOBiological
	case CategoryGOCellular:
		joined = row.GOCellular
	case CategoryPathway:
		joined = row.ReactomeText
	}
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "; ")
}
