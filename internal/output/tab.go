// Package output provides annotation row formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/protlab/protannot/internal/annotate"
)

// Options selects which column groups an annotation table carries.
type Options struct {
	BlastMap bool // ortholog accession + match metadata columns
	Keywords bool // keyword list + per-category columns
	GOTerms  bool
	Pathways bool
	MGI      bool // mouse gene index columns

	// CategoryColumns are the keyword category labels from the catalog;
	// only used when Keywords is set.
	CategoryColumns []string
}

// missing is the placeholder for empty cells, matching the report files
// downstream consumers already parse.
const missing = "na"

// TabWriter writes annotation rows in tab-delimited form.
type TabWriter struct {
	w       *bufio.Writer
	opts    Options
	columns []string
}

// NewTabWriter creates a tab-delimited row writer with the given column
// selection.
func NewTabWriter(w io.Writer, opts Options) *TabWriter {
	tw := &TabWriter{w: bufio.NewWriter(w), opts: opts}

	tw.columns = []string{"Index"}
	if opts.BlastMap {
		tw.columns = append(tw.columns, "Ortholog Accession", "Identity", "Score", "E-Value")
	}
	tw.columns = append(tw.columns,
		"Primary Protein Name",
		"Alternative Protein Names",
		"Identifier",
		"Accession",
		"Other Accessions",
		"UniProt Gene Name",
		"Other Gene Synonyms",
		"Species Name",
		"Taxonomy Number",
		"Sequence Length",
		"UniProt Link",
	)
	if opts.MGI {
		tw.columns = append(tw.columns, "MGI Accession", "MGI Gene Name", "MGI Link")
	}
	if opts.Keywords {
		tw.columns = append(tw.columns, "Key Words")
		for _, cat := range opts.CategoryColumns {
			tw.columns = append(tw.columns, "KW: "+cat)
		}
	}
	if opts.GOTerms {
		tw.columns = append(tw.columns, "GO: Biological Process", "GO: Cellular Component", "GO: Molecular Function")
	}
	if opts.Pathways {
		tw.columns = append(tw.columns, "CC Pathway", "Reactome Pathway")
	}

	return tw
}

// Columns returns the header labels in output order.
func (tw *TabWriter) Columns() []string {
	return tw.columns
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single annotation row. Rows without a resolved record
// still come out, with every annotation cell set to the placeholder.
func (tw *TabWriter) Write(row *annotate.OutputRow) error {
	cells := []string{row.Query}

	if tw.opts.BlastMap {
		if row.Match != nil {
			cells = append(cells,
				row.Ortholog,
				fmt.Sprintf("%.1f", row.Match.Identity),
				fmt.Sprintf("%.1f", row.Match.Score),
				fmt.Sprintf("%.2g", row.Match.EValue),
			)
		} else {
			cells = append(cells, missing, missing, missing, missing)
		}
	}

	r := row.Record
	if r == nil {
		for len(cells) < len(tw.columns) {
			cells = append(cells, missing)
		}
		_, err := tw.w.WriteString(strings.Join(cells, "\t") + "\n")
		return err
	}

	cells = append(cells,
		na(r.Name),
		na(strings.Join(r.OtherNames, "; ")),
		na(r.EntryName),
		na(r.Accession),
		na(strings.Join(r.OtherAccessions, "; ")),
		quoted(r.Gene),
		na(strings.Join(r.OtherGenes, "; ")),
		na(r.Species),
		na(r.TaxID),
		fmt.Sprintf("%d", r.SequenceLength),
		uniprotLink(r.Accession),
	)

	if tw.opts.MGI {
		cells = append(cells, na(r.MGIAccession), quoted(r.MGIGene), mgiLink(r.MGIAccession))
	}
	if tw.opts.Keywords {
		cells = append(cells, na(row.Keywords))
		for i := range tw.opts.CategoryColumns {
			if i < len(row.KeywordColumns) {
				cells = append(cells, na(row.KeywordColumns[i]))
			} else {
				cells = append(cells, missing)
			}
		}
	}
	if tw.opts.GOTerms {
		cells = append(cells, na(row.GOBiological), na(row.GOCellular), na(row.GOMolecular))
	}
	if tw.opts.Pathways {
		cells = append(cells, na(row.CCPathway), na(row.ReactomeText))
	}

	_, err := tw.w.WriteString(strings.Join(cells, "\t") + "\n")
	return err
}

// WriteAll writes the header and every row, then flushes.
func (tw *TabWriter) WriteAll(rows []annotate.OutputRow) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for i := range rows {
		if err := tw.Write(&rows[i]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Flush flushes buffered output.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func na(s string) string {
	if s == "" {
		return missing
	}
	return s
}

// quoted wraps gene names in an ="..." formula so spreadsheets do not
// mangle names like MARCH1 into dates.
func quoted(s string) string {
	if s == "" {
		return missing
	}
	return fmt.Sprintf(`="%s"`, s)
}

func uniprotLink(acc string) string {
	if acc == "" {
		return missing
	}
	return fmt.Sprintf(`=hyperlink("http://www.uniprot.org/uniprot/%s", "%s")`, acc, acc)
}

func mgiLink(acc string) string {
	if acc == "" {
		return missing
	}
	return fmt.Sprintf(`=HYPERLINK("http://www.informatics.jax.org/marker/%s", "%s")`, acc, acc)
}
