// Package keywords provides parsing of the UniProt controlled-vocabulary
// keyword list (keywlist.txt) and categorization of record keywords.
package keywords

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Uncategorized is the bucket for keywords found in DAT entries but absent
// from the catalog. DAT and keyword-list releases drift; an unknown keyword
// is logged, never fatal.
const Uncategorized = "Uncategorized"

// Term is one controlled-vocabulary keyword definition.
type Term struct {
	Name       string            // ID (or IC for category records) line
	Accession  string            // AC line, e.g. "KW-0002"
	Definition string            // DE lines, space-joined
	Synonyms   []string          // SY lines
	GOMappings map[string]string // GO line cross-references, GO id -> term text
	Category   string            // CA line; one of the ten catalog categories
}

// Catalog holds the parsed keyword list, keyed by keyword name and by
// catalog accession.
type Catalog struct {
	byName      map[string]*Term
	byAccession map[string]*Term
	categories  []string

	logger *zap.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byName:      make(map[string]*Term),
		byAccession: make(map[string]*Term),
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger used for unrecognized-keyword warnings.
func (c *Catalog) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Load parses a keywlist.txt file into the catalog.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyword list: %w", err)
	}
	defer f.Close()

	c := NewCatalog()
	if err := c.Parse(f); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse reads keywlist.txt content: //-delimited records of five-character
// coded lines (ID/IC, AC, DE, SY, GO, CA). The document preamble before the
// first record carries no codes and falls through untouched.
func (c *Catalog) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	blocks := make(map[string][]string)
	seenRecord := false

	flush := func() {
		if !seenRecord {
			return
		}
		if term := termFromBlocks(blocks); term != nil {
			c.add(term)
		}
		blocks = make(map[string][]string)
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")

		if strings.HasPrefix(line, "ID   ") || strings.HasPrefix(line, "IC   ") {
			seenRecord = true
		}
		if strings.HasPrefix(line, "//") {
			flush()
			continue
		}
		if len(line) < 5 {
			continue
		}
		key, value := line[:5], strings.TrimRight(line[5:], " ")
		blocks[key] = append(blocks[key], value)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan keyword list: %w", err)
	}
	flush()

	if len(c.byName) == 0 {
		return fmt.Errorf("keyword list contained no records")
	}

	c.rebuildCategories()
	return nil
}

// termFromBlocks assembles one Term from a record's coded line blocks.
func termFromBlocks(blocks map[string][]string) *Term {
	term := &Term{GOMappings: make(map[string]string)}

	if ids := blocks["ID   "]; len(ids) > 0 {
		term.Name = strings.TrimSuffix(ids[0], ".")
	} else if ics := blocks["IC   "]; len(ics) > 0 {
		// category records define themselves with an IC line
		term.Name = strings.TrimSuffix(ics[0], ".")
		term.Category = term.Name
	}
	if term.Name == "" {
		return nil
	}

	if acs := blocks["AC   "]; len(acs) > 0 {
		term.Accession = acs[0]
	}
	term.Definition = strings.Join(blocks["DE   "], " ")
	for _, sy := range blocks["SY   "] {
		for _, s := range strings.Split(sy, ";") {
			if s = strings.TrimSuffix(strings.TrimSpace(s), "."); s != "" {
				term.Synonyms = append(term.Synonyms, s)
			}
		}
	}
	for _, goLine := range blocks["GO   "] {
		// "GO   GO:0005212; structural constituent of eye lens"
		for _, part := range strings.Split(goLine, "GO:") {
			if part == "" {
				continue
			}
			id, rest, ok := strings.Cut(part, ";")
			if !ok {
				continue
			}
			term.GOMappings["GO:"+id] = strings.TrimSpace(rest)
		}
	}
	if cas := blocks["CA   "]; len(cas) > 0 && term.Category == "" {
		term.Category = strings.TrimSuffix(cas[0], ".")
	}

	return term
}

func (c *Catalog) add(term *Term) {
	c.byName[term.Name] = term
	if term.Accession != "" {
		c.byAccession[term.Accession] = term
	}
}

func (c *Catalog) rebuildCategories() {
	seen := make(map[string]bool)
	for _, term := range c.byName {
		if term.Category != "" {
			seen[term.Category] = true
		}
	}
	c.categories = make([]string, 0, len(seen))
	for cat := range seen {
		c.categories = append(c.categories, cat)
	}
	sort.Strings(c.categories)
}

// Term returns the term with the given keyword name or catalog accession.
func (c *Catalog) Term(key string) (*Term, bool) {
	if t, ok := c.byName[key]; ok {
		return t, true
	}
	t, ok := c.byAccession[key]
	return t, ok
}

// Len returns the number of terms in the catalog.
func (c *Catalog) Len() int {
	return len(c.byName)
}

// Categories returns the sorted category names seen in the catalog.
// Current keywlist.txt releases define exactly ten.
func (c *Catalog) Categories() []string {
	return c.categories
}

// CategoryColumns returns the column labels for per-category keyword output:
// the sorted categories followed by the Uncategorized bucket.
func (c *Catalog) CategoryColumns() []string {
	return append(append([]string{}, c.categories...), Uncategorized)
}

// Categorize buckets a record's keywords by catalog category, in the order
// of CategoryColumns. Keywords within a bucket are sorted; unrecognized
// keywords land in the Uncategorized bucket and are logged.
func (c *Catalog) Categorize(recordKeywords []string) []string {
	buckets := make(map[string][]string)
	for _, kw := range recordKeywords {
		term, ok := c.byName[kw]
		if !ok {
			c.logger.Warn("unrecognized keyword", zap.String("keyword", kw))
			buckets[Uncategorized] = append(buckets[Uncategorized], kw)
			continue
		}
		buckets[term.Category] = append(buckets[term.Category], kw)
	}

	columns := c.CategoryColumns()
	out := make([]string, len(columns))
	for i, cat := range columns {
		kws := buckets[cat]
		sort.Strings(kws)
		out[i] = strings.Join(kws, "; ")
	}
	return out
}
