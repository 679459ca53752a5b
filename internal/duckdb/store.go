// Package duckdb provides a DuckDB-backed store for parsed protein
// annotation records, usable both as an export target and as an
// annotation source for joins.
package duckdb

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/protlab/protannot/internal/dat"
	"github.com/protlab/protannot/internal/index"
)

// Store wraps a DuckDB database holding protein records.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (or creates) a DuckDB database file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Store{db: db, path: path, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger for lookup failures.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the record tables.
func (s *Store) CreateSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			accession VARCHAR PRIMARY KEY,
			entry_name VARCHAR,
			db VARCHAR,
			name VARCHAR,
			other_names VARCHAR,
			other_accessions VARCHAR,
			flags VARCHAR,
			gene VARCHAR,
			other_genes VARCHAR,
			species VARCHAR,
			tax_id VARCHAR,
			seq_length INTEGER,
			keywords VARCHAR,
			cc_pathway VARCHAR,
			mgi_accession VARCHAR,
			mgi_gene VARCHAR
		);

		CREATE TABLE IF NOT EXISTS go_terms (
			accession VARCHAR,
			ord INTEGER,
			go_id VARCHAR,
			aspect VARCHAR,
			description VARCHAR,
			PRIMARY KEY (accession, ord)
		);

		CREATE TABLE IF NOT EXISTS pathways (
			accession VARCHAR,
			ord INTEGER,
			pathway_id VARCHAR,
			description VARCHAR,
			PRIMARY KEY (accession, ord)
		);

		CREATE INDEX IF NOT EXISTS idx_records_entry ON records(entry_name);
		CREATE INDEX IF NOT EXISTS idx_records_tax ON records(tax_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertRecord inserts one record and its cross-references.
func (s *Store) InsertRecord(r *dat.ProteinRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO records (accession, entry_name, db, name, other_names,
		                     other_accessions, flags, gene, other_genes,
		                     species, tax_id, seq_length, keywords,
		                     cc_pathway, mgi_accession, mgi_gene)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Accession, r.EntryName, r.DB, r.Name,
		strings.Join(r.OtherNames, "; "),
		strings.Join(r.OtherAccessions, "; "),
		strings.Join(r.Flags, "; "),
		r.Gene, strings.Join(r.OtherGenes, "; "),
		r.Species, r.TaxID, r.SequenceLength,
		strings.Join(r.Keywords, "; "),
		r.CCPathway, r.MGIAccession, r.MGIGene)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", r.Accession, err)
	}

	for i, g := range r.GOTerms {
		_, err := s.db.Exec(`
			INSERT INTO go_terms (accession, ord, go_id, aspect, description)
			VALUES (?, ?, ?, ?, ?)
		`, r.Accession, i, g.ID, g.Aspect, g.Description)
		if err != nil {
			return fmt.Errorf("insert go term %s/%s: %w", r.Accession, g.ID, err)
		}
	}

	for i, p := range r.Pathways {
		_, err := s.db.Exec(`
			INSERT INTO pathways (accession, ord, pathway_id, description)
			VALUES (?, ?, ?, ?)
		`, r.Accession, i, p.ID, p.Description)
		if err != nil {
			return fmt.Errorf("insert pathway %s/%s: %w", r.Accession, p.ID, err)
		}
	}

	return nil
}

// ExportIndex writes every record of an index into the store, creating the
// schema first.
func (s *Store) ExportIndex(idx *index.Index) error {
	if err := s.CreateSchema(); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	for _, acc := range idx.Accessions() {
		r, ok := idx.Lookup(acc)
		if !ok {
			continue
		}
		if err := s.InsertRecord(r); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a record by accession or entry name, nil when absent.
func (s *Store) Get(key string) (*dat.ProteinRecord, error) {
	row := s.db.QueryRow(`
		SELECT accession, entry_name, db, name, other_names, other_accessions,
		       flags, gene, other_genes, species, tax_id, seq_length,
		       keywords, cc_pathway, mgi_accession, mgi_gene
		FROM records
		WHERE accession = ? OR entry_name = ?
	`, key, key)

	r := &dat.ProteinRecord{}
	var otherNames, otherAccs, flags, otherGenes, keywords sql.NullString
	var ccPathway, mgiAcc, mgiGene sql.NullString
	err := row.Scan(
		&r.Accession, &r.EntryName, &r.DB, &r.Name, &otherNames, &otherAccs,
		&flags, &r.Gene, &otherGenes, &r.Species, &r.TaxID, &r.SequenceLength,
		&keywords, &ccPathway, &mgiAcc, &mgiGene,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	r.OtherNames = splitJoined(otherNames.String)
	r.OtherAccessions = splitJoined(otherAccs.String)
	r.Flags = splitJoined(flags.String)
	r.OtherGenes = splitJoined(otherGenes.String)
	r.Keywords = splitJoined(keywords.String)
	r.CCPathway = ccPathway.String
	r.MGIAccession = mgiAcc.String
	r.MGIGene = mgiGene.String

	if err := s.loadGOTerms(r); err != nil {
		return nil, err
	}
	if err := s.loadPathways(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve implements the annotate.RecordSource lookup, trying the same
// alternate key forms the in-memory index accepts.
func (s *Store) Resolve(key string) (*dat.ProteinRecord, bool) {
	keys := []string{key}
	if parts := strings.Split(key, "|"); len(parts) == 3 {
		keys = append(keys, parts[2], parts[1])
	} else if before, _, found := strings.Cut(key, "."); found {
		keys = append(keys, before)
	}

	for _, k := range keys {
		r, err := s.Get(k)
		if err != nil {
			s.logger.Warn("duckdb lookup failed", zap.String("key", k), zap.Error(err))
			return nil, false
		}
		if r != nil {
			return r, true
		}
	}
	return nil, false
}

// RecordCount returns the number of records in the store.
func (s *Store) RecordCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

func (s *Store) loadGOTerms(r *dat.ProteinRecord) error {
	rows, err := s.db.Query(`
		SELECT go_id, aspect, description
		FROM go_terms
		WHERE accession = ?
		ORDER BY ord
	`, r.Accession)
	if err != nil {
		return fmt.Errorf("query go terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g dat.GOTerm
		if err := rows.Scan(&g.ID, &g.Aspect, &g.Description); err != nil {
			return fmt.Errorf("scan go term: %w", err)
		}
		r.GOTerms = append(r.GOTerms, g)
	}
	return rows.Err()
}

func (s *Store) loadPathways(r *dat.ProteinRecord) error {
	rows, err := s.db.Query(`
		SELECT pathway_id, description
		FROM pathways
		WHERE accession = ?
		ORDER BY ord
	`, r.Accession)
	if err != nil {
		return fmt.Errorf("query pathways: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p dat.Pathway
		if err := rows.Scan(&p.ID, &p.Description); err != nil {
			return fmt.Errorf("scan pathway: %w", err)
		}
		r.Pathways = append(r.Pathways, p)
	}
	return rows.Err()
}

func splitJoined(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "; ")
}
