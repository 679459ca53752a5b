// Package annotate joins query accession lists against a parsed annotation
// source, producing one output row per query.
package annotate

import (
	"strings"

	"go.uber.org/zap"

	"github.com/protlab/protannot/internal/blastmap"
	"github.com/protlab/protannot/internal/dat"
	"github.com/protlab/protannot/internal/keywords"
)

// RecordSource is the lookup interface the joiner annotates from. Both the
// in-memory index and the DuckDB store implement it.
type RecordSource interface {
	Resolve(key string) (*dat.ProteinRecord, bool)
}

// OutputRow is one annotated result. Query echoes the input accession so
// the caller can realign rows 1:1 with its original order; unresolved
// queries keep their row with empty annotation fields.
type OutputRow struct {
	Query    string
	Ortholog string              // resolved ortholog accession, "" without a mapping hit
	Match    *blastmap.Candidate // BLAST match metadata when a mapping was used
	Record   *dat.ProteinRecord  // nil when the lookup failed

	Keywords       string   // full keyword list, semicolon-joined
	KeywordColumns []string // per-category keyword buckets (catalog order)
	GOMolecular    string
	GOBiological   string
	GOCellular     string
	ReactomeText   string
	CCPathway      string
}

// JoinStats counts lookup outcomes for one join call.
type JoinStats struct {
	Resolved   int
	Unresolved int
}

// Joiner joins query accessions against a RecordSource, optionally routing
// each query through a BLAST ortholog mapping first.
type Joiner struct {
	source  RecordSource
	catalog *keywords.Catalog
	logger  *zap.Logger
}

// NewJoiner creates a joiner over the given annotation source.
func NewJoiner(source RecordSource) *Joiner {
	return &Joiner{source: source, logger: zap.NewNop()}
}

// SetCatalog supplies the keyword catalog used to fill the per-category
// keyword columns. Without a catalog the columns stay empty.
func (j *Joiner) SetCatalog(c *keywords.Catalog) {
	j.catalog = c
}

// SetLogger sets the logger for failed-lookup warnings.
func (j *Joiner) SetLogger(l *zap.Logger) {
	j.logger = l
}

// Join produces exactly one OutputRow per input query, in input order,
// duplicates and unknown accessions included. When a mapping is supplied
// the lookup key is the query's best-ortholog accession (falling back to
// the query itself for queries with no hit); otherwise the query accession.
func (j *Joiner) Join(queries []string, mapping *blastmap.Mapping) ([]OutputRow, JoinStats) {
	rows := make([]OutputRow, 0, len(queries))
	stats := JoinStats{}

	for _, query := range queries {
		row := OutputRow{Query: query}

		lookupKey := query
		if mapping != nil {
			if best, ok := mapping.Best(query); ok {
				row.Ortholog = best.Ortholog
				row.Match = best
				lookupKey = best.Ortholog
			}
		}

		record, ok := j.source.Resolve(lookupKey)
		if !ok {
			stats.Unresolved++
			j.logger.Warn("failed annotation lookup",
				zap.String("query", query),
				zap.String("key", lookupKey))
			rows = append(rows, row)
			continue
		}
		stats.Resolved++

		row.Record = record
		row.Keywords = strings.Join(record.Keywords, "; ")
		if j.catalog != nil {
			row.KeywordColumns = j.catalog.Categorize(record.Keywords)
		}
		row.GOMolecular = record.GOText(dat.AspectMolecularFunction)
		row.GOBiological = record.GOText(dat.AspectBiologicalProcess)
		row.GOCellular = record.GOText(dat.AspectCellularComponent)
		row.ReactomeText = record.PathwayText()
		row.CCPathway = record.CCPathway

		rows = append(rows, row)
	}

	return rows, stats
}
