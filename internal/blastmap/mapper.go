// Package blastmap loads BLAST ortholog-mapping tables and resolves query
// accessions to their best-matching orthologs.
package blastmap

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Candidate is one BLAST hit for a query accession.
type Candidate struct {
	Ortholog string  // hit accession
	Identity float64 // percent identity
	Score    float64 // alignment score
	EValue   float64
}

// Better compares two candidates and reports whether a should rank ahead
// of b. The selection rule for real mapping data is not nailed down, so it
// is injectable; ties under the comparator keep first-seen order.
type Better func(a, b Candidate) bool

// IdentityEValue is the default tie-break: highest percent identity, then
// lowest e-value.
func IdentityEValue(a, b Candidate) bool {
	if a.Identity != b.Identity {
		return a.Identity > b.Identity
	}
	return a.EValue < b.EValue
}

// ScoreFirst ranks by alignment score, then lowest e-value.
func ScoreFirst(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.EValue < b.EValue
}

// ByName returns the named comparator ("identity-evalue" or "score"), or
// the default when the name is unknown.
func ByName(name string) Better {
	if strings.EqualFold(name, "score") {
		return ScoreFirst
	}
	return IdentityEValue
}

// RowError reports one malformed mapping-table row. Rows with errors are
// skipped and counted, never fatal.
type RowError struct {
	Line    int
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("mapping table row %d: %s", e.Line, e.Message)
}

// Mapping holds the loaded table: query accession -> candidates sorted best
// first. At most one candidate per query is ever designated best.
type Mapping struct {
	candidates map[string][]Candidate
	skipped    int
}

// Mapper loads mapping tables.
type Mapper struct {
	better Better
	logger *zap.Logger
}

// NewMapper creates a mapper with the default tie-break rule.
func NewMapper() *Mapper {
	return &Mapper{better: IdentityEValue, logger: zap.NewNop()}
}

// SetBetter overrides the candidate comparison rule.
func (m *Mapper) SetBetter(better Better) {
	if better != nil {
		m.better = better
	}
}

// SetLogger sets the logger used for skipped-row warnings.
func (m *Mapper) SetLogger(l *zap.Logger) {
	m.logger = l
}

// LoadTable reads a delimited mapping table with columns
// (query accession, ortholog accession, identity%, score, e-value).
// Plain and gzipped input are both accepted. A header row is recognized
// and ignored; malformed rows are skipped with a warning and counted.
func (m *Mapper) LoadTable(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping table: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return m.Parse(reader)
}

// Parse reads mapping-table content from a reader. Blank lines and
// "#" comment lines (blastp -outfmt 7 writes these) are ignored.
func (m *Mapper) Parse(r io.Reader) (*Mapping, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	mapping := &Mapping{candidates: make(map[string][]Candidate)}
	lineNum := 0
	dataSeen := false

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) == 1 {
			fields = strings.Fields(line)
		}

		if isHeaderRow(fields) {
			continue
		}

		query, cand, err := parseRow(fields)
		if err != nil {
			// Preamble lines before the table proper are not data faults.
			if !dataSeen && len(fields) < 5 {
				continue
			}
			mapping.skipped++
			m.logger.Warn("skipping mapping row",
				zap.Int("line", lineNum),
				zap.Error(&RowError{Line: lineNum, Message: err.Error()}))
			continue
		}

		dataSeen = true
		mapping.candidates[query] = append(mapping.candidates[query], cand)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan mapping table: %w", err)
	}

	for query := range mapping.candidates {
		cands := mapping.candidates[query]
		sort.SliceStable(cands, func(i, j int) bool {
			return m.better(cands[i], cands[j])
		})
	}

	return mapping, nil
}

func isHeaderRow(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(fields[0])
	return strings.Contains(first, "query") || strings.Contains(first, "accession")
}

func parseRow(fields []string) (string, Candidate, error) {
	if len(fields) < 5 {
		return "", Candidate{}, fmt.Errorf("expected 5 columns, found %d", len(fields))
	}

	query := strings.TrimSpace(fields[0])
	cand := Candidate{Ortholog: strings.TrimSpace(fields[1])}
	if query == "" || cand.Ortholog == "" {
		return "", Candidate{}, fmt.Errorf("empty accession column")
	}

	var err error
	if cand.Identity, err = strconv.ParseFloat(strings.TrimSuffix(fields[2], "%"), 64); err != nil {
		return "", Candidate{}, fmt.Errorf("invalid identity %q", fields[2])
	}
	if cand.Score, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return "", Candidate{}, fmt.Errorf("invalid score %q", fields[3])
	}
	if cand.EValue, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return "", Candidate{}, fmt.Errorf("invalid e-value %q", fields[4])
	}

	return query, cand, nil
}

// Best returns the top-ranked candidate for a query accession, trying the
// same alternate key forms the annotation lookup uses: the compound
// db|acc|name parts and a version-stripped accession.
func (mp *Mapping) Best(query string) (*Candidate, bool) {
	keys := []string{query}
	if parts := strings.Split(query, "|"); len(parts) == 3 {
		keys = append(keys, parts[1], parts[2])
	} else if before, _, found := strings.Cut(query, "."); found {
		keys = append(keys, before)
	}
	for _, k := range keys {
		if cands, ok := mp.candidates[k]; ok && len(cands) > 0 {
			best := cands[0]
			return &best, true
		}
	}
	return nil, false
}

// Resolve maps each query accession to its best match, or nil when the
// query has no hit in the table. Missing queries pass through unannotated;
// they are not errors.
func (mp *Mapping) Resolve(queries []string) map[string]*Candidate {
	out := make(map[string]*Candidate, len(queries))
	for _, q := range queries {
		if best, ok := mp.Best(q); ok {
			out[q] = best
		} else {
			out[q] = nil
		}
	}
	return out
}

// Len returns the number of distinct query accessions in the mapping.
func (mp *Mapping) Len() int {
	return len(mp.candidates)
}

// SkippedRows returns the count of malformed rows dropped during load.
func (mp *Mapping) SkippedRows() int {
	return mp.skipped
}
