package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/protlab/protannot/internal/annotate"
	"github.com/protlab/protannot/internal/keywords"
)

// Report file names, one per summary category group.
const (
	KeywordReportFile = "keyword_report.txt"
	PathwayReportFile = "pathway_report.txt"
	GOReportFile      = "GOTerms_report.txt"
)

// Writer renders per-term summary tables to report files.
type Writer struct {
	dir     string
	catalog *keywords.Catalog
	minFreq int
	now     func() time.Time
}

// NewWriter creates a report writer targeting dir. Terms with frequency
// below minFreq are left out of the files; the original reports used 2.
func NewWriter(dir string, catalog *keywords.Catalog, minFreq int) *Writer {
	if minFreq < 1 {
		minFreq = 1
	}
	return &Writer{dir: dir, catalog: catalog, minFreq: minFreq, now: time.Now}
}

// sortByFrequency orders summaries by descending frequency, keeping
// first-appearance order between equals.
func sortByFrequency(summaries []TermSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Frequency() > summaries[j].Frequency()
	})
}

// WriteKeywordReport aggregates and writes the keyword frequency report.
func (w *Writer) WriteKeywordReport(rows []annotate.OutputRow) error {
	summaries := Aggregate(rows, CategoryKeyword)
	sortByFrequency(summaries)

	return w.writeFile(KeywordReportFile, func(out io.Writer) error {
		fmt.Fprintf(out, "KeyWord Report generated on: %s\n", w.now().Format(time.ANSIC))
		fmt.Fprintf(out, "Total number of key words was: %d\n\n", len(summaries))
		fmt.Fprintln(out, strings.Join([]string{"Keyword", "Category", "Description", "Synonyms", "Frequency", "Proteins"}, "\t"))

		for _, s := range summaries {
			if s.Frequency() < w.minFreq {
				continue
			}
			category, definition, synonyms := "", "", ""
			if w.catalog != nil {
				if term, ok := w.catalog.Term(s.Term); ok {
					category = term.Category
					definition = term.Definition
					synonyms = strings.Join(term.Synonyms, "; ")
				}
			}
			fmt.Fprintln(out, strings.Join([]string{
				s.Term, category, definition, synonyms,
				fmt.Sprintf("%d", s.Frequency()),
				strings.Join(s.Accessions, "; "),
			}, "\t"))
		}
		return nil
	})
}

// WritePathwayReport aggregates and writes the Reactome pathway report.
func (w *Writer) WritePathwayReport(rows []annotate.OutputRow) error {
	summaries := Aggregate(rows, CategoryPathway)
	sortByFrequency(summaries)

	return w.writeFile(PathwayReportFile, func(out io.Writer) error {
		fmt.Fprintf(out, "Pathway Report generated on: %s\n", w.now().Format(time.ANSIC))
		fmt.Fprintf(out, "Total number of pathways was: %d\n\n", len(summaries))
		fmt.Fprintln(out, strings.Join([]string{"Identifier", "Description", "Link", "Frequency", "Proteins"}, "\t"))

		for _, s := range summaries {
			if s.Frequency() < w.minFreq {
				continue
			}
			desc, id := splitTerm(s.Term)
			link := fmt.Sprintf(`=hyperlink("http://www.reactome.org/content/detail/%s", "%s")`, id, id)
			fmt.Fprintln(out, strings.Join([]string{
				id, desc, link, fmt.Sprintf("%d", s.Frequency()), strings.Join(s.Accessions, "; "),
			}, "\t"))
		}
		return nil
	})
}

// WriteGOReport aggregates and writes the GO term report, one section per
// aspect.
func (w *Writer) WriteGOReport(rows []annotate.OutputRow) error {
	sections := []struct {
		label    string
		category Category
	}{
		{"GO: Biological Process", CategoryGOBiological},
		{"GO: Cellular Component", CategoryGOCellular},
		{"GO: Molecular Function", CategoryGOMolecular},
	}

	return w.writeFile(GOReportFile, func(out io.Writer) error {
		fmt.Fprintf(out, "GO Term Report generated on: %s\n", w.now().Format(time.ANSIC))

		for _, section := range sections {
			summaries := Aggregate(rows, section.category)
			sortByFrequency(summaries)

			fmt.Fprintf(out, "\n\nTotal number of %s terms was: %d\n\n", section.label, len(summaries))
			fmt.Fprintln(out, strings.Join([]string{"Identifier", "Description", "Link", "Frequency", "Proteins"}, "\t"))

			for _, s := range summaries {
				if s.Frequency() < w.minFreq {
					continue
				}
				desc, id := splitTerm(s.Term)
				link := fmt.Sprintf(`=hyperlink("http://amigo.geneontology.org/amigo/term/%s", "%s")`, id, id)
				fmt.Fprintln(out, strings.Join([]string{
					id, desc, link, fmt.Sprintf("%d", s.Frequency()), strings.Join(s.Accessions, "; "),
				}, "\t"))
			}
		}
		return nil
	})
}

// WriteAll writes the keyword, pathway, and GO reports.
func (w *Writer) WriteAll(rows []annotate.OutputRow) error {
	if err := w.WriteKeywordReport(rows); err != nil {
		return err
	}
	if err := w.WritePathwayReport(rows); err != nil {
		return err
	}
	return w.WriteGOReport(rows)
}

func (w *Writer) writeFile(name string, fill func(io.Writer) error) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", name, err)
	}

	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush report %s: %w", name, err)
	}
	return f.Close()
}

// splitTerm splits a "description {identifier}" term into its parts.
func splitTerm(term string) (desc, id string) {
	before, after, found := strings.Cut(term, "{")
	if !found {
		return term, ""
	}
	return strings.TrimSpace(before), strings.TrimSuffix(after, "}")
}
