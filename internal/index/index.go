// Package index builds and queries the in-memory accession -> annotation
// mapping parsed from a Swiss-Prot DAT file.
package index

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/protlab/protannot/internal/dat"
)

// SourceIdentity identifies the DAT file an index was built from. All three
// components must match for a cache snapshot to be considered fresh.
type SourceIdentity struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// IdentityOf stats a file and returns its identity.
func IdentityOf(path string) (SourceIdentity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SourceIdentity{}, fmt.Errorf("stat source file: %w", err)
	}
	return SourceIdentity{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Equal reports whether two identities match exactly.
func (s SourceIdentity) Equal(o SourceIdentity) bool {
	return s.Name == o.Name && s.Size == o.Size && s.ModTime.Equal(o.ModTime)
}

// BuildStats counts the per-entry events of one build. Skip and drop events
// accumulate here instead of aborting the stream.
type BuildStats struct {
	Entries   int `json:"entries"`   // records indexed
	Skipped   int `json:"skipped"`   // entries dropped for missing mandatory fields
	Filtered  int `json:"filtered"`  // entries outside the organism allow-list
	Malformed int `json:"malformed"` // structural tokenizer faults recovered
	Truncated int `json:"truncated"` // unterminated entries at end of input
}

// Provenance describes where an index came from. Filter is the organism
// allow-list the build was requested with (nil for an unfiltered build);
// TaxIDs is the organism set actually observed in the records. Both matter:
// a snapshot built under one filter must not answer for another.
type Provenance struct {
	Source  SourceIdentity `json:"source"`
	BuiltAt time.Time      `json:"built_at"`
	BuildID string         `json:"build_id"`
	Filter  []string       `json:"filter,omitempty"`
	TaxIDs  []string       `json:"tax_ids"`
	Stats   BuildStats     `json:"stats"`
}

// Index is the accession -> ProteinRecord mapping. Records are additionally
// reachable by entry name and by the compound db|acc|name FASTA form.
// An Index is read-only once built.
type Index struct {
	records    map[string]*dat.ProteinRecord
	accessions []string // primary accessions, parse order
	prov       Provenance
}

// ErrEmptyInput is returned when a build consumes the whole stream without
// finding a single parseable entry.
var ErrEmptyInput = errors.New("no parseable entries in input")

// Build consumes the tokenizer through the parser into a new Index.
//
// Per-entry faults (malformed framing, missing mandatory fields, truncation
// at EOF) are logged, counted in the returned provenance stats, and never
// abort the build; only I/O faults and a completely unparseable input do.
func Build(tok *dat.Tokenizer, parser *dat.Parser, source SourceIdentity, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	idx := &Index{records: make(map[string]*dat.ProteinRecord)}
	stats := BuildStats{}
	taxIDs := make(map[string]bool)

	for {
		block, err := tok.Next()

		var malformed *dat.MalformedEntryError
		var truncated *dat.TruncatedEntryError
		switch {
		case err == nil:
		case errors.As(err, &malformed):
			stats.Malformed++
			logger.Warn("skipping malformed entry", zap.Error(err))
			if block == nil {
				continue
			}
		case errors.As(err, &truncated):
			stats.Truncated++
			logger.Warn("keeping truncated entry at end of input", zap.Error(err))
		default:
			return nil, err
		}
		if block == nil {
			break
		}

		record, err := parser.Parse(block)
		if err != nil {
			var missing *dat.MissingFieldError
			if errors.As(err, &missing) {
				stats.Skipped++
				logger.Warn("dropping entry with missing mandatory field",
					zap.String("entry", missing.EntryName),
					zap.String("field", missing.Field),
					zap.Int("line", block.StartLine))
				continue
			}
			return nil, err
		}
		if record == nil {
			stats.Filtered++
			continue
		}

		idx.add(record)
		stats.Entries++
		if record.TaxID != "" {
			taxIDs[record.TaxID] = true
		}
	}

	if stats.Entries == 0 {
		return nil, fmt.Errorf("%w (skipped %d, filtered %d)", ErrEmptyInput, stats.Skipped, stats.Filtered)
	}

	ids := make([]string, 0, len(taxIDs))
	for id := range taxIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	idx.prov = Provenance{
		Source:  source,
		BuiltAt: time.Now(),
		BuildID: uuid.NewString(),
		Filter:  parser.AllowedTaxIDs(),
		TaxIDs:  ids,
		Stats:   stats,
	}
	return idx, nil
}

func (idx *Index) add(r *dat.ProteinRecord) {
	idx.records[r.Accession] = r
	if r.EntryName != "" {
		idx.records[r.EntryName] = r
	}
	idx.records[r.FastaAccession()] = r
	idx.accessions = append(idx.accessions, r.Accession)
}

// Lookup returns the record for an exact accession, entry name, or compound
// FASTA accession key.
func (idx *Index) Lookup(key string) (*dat.ProteinRecord, bool) {
	r, ok := idx.records[key]
	return r, ok
}

// Resolve looks a key up under the forms seen in real result files: the key
// itself, the entry-name and accession parts of a db|acc|name compound, and
// a version-stripped NCBI/Ensembl form ("XP_123.1" -> "XP_123").
func (idx *Index) Resolve(key string) (*dat.ProteinRecord, bool) {
	if r, ok := idx.records[key]; ok {
		return r, true
	}
	if parts := strings.Split(key, "|"); len(parts) == 3 {
		if r, ok := idx.records[parts[2]]; ok {
			return r, true
		}
		if r, ok := idx.records[parts[1]]; ok {
			return r, true
		}
	} else if before, _, found := strings.Cut(key, "."); found {
		if r, ok := idx.records[before]; ok {
			return r, true
		}
	}
	return nil, false
}

// Len returns the number of protein records in the index.
func (idx *Index) Len() int {
	return len(idx.accessions)
}

// Accessions returns the primary accessions in parse order.
func (idx *Index) Accessions() []string {
	return idx.accessions
}

// Provenance returns the index build metadata.
func (idx *Index) Provenance() Provenance {
	return idx.prov
}
