package dat

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Well-known NCBI taxonomy IDs for the species presets.
const (
	TaxIDHuman       = "9606"
	TaxIDMouse       = "10090"
	TaxIDArabidopsis = "3702"
)

// SpeciesTaxIDs maps the species preset names to their taxonomy IDs.
var SpeciesTaxIDs = map[string]string{
	"human":       TaxIDHuman,
	"mouse":       TaxIDMouse,
	"arabidopsis": TaxIDArabidopsis,
}

// evidence code annotations embedded in DE/GN/KW/CC lines, e.g. " {ECO:0000255|PROSITE-ProRule:PRU10023}"
var ecoPattern = regexp.MustCompile(` \{?ECO:.*[},]`)

// Keywords that annotate nearly every reviewed record and carry no
// information for downstream summaries.
var excludedKeywords = map[string]bool{
	"Reference proteome":        true,
	"Complete proteome":         true,
	"Direct protein sequencing": true,
}

// Parser converts raw entry blocks into ProteinRecords.
//
// An organism allow-list of taxonomy IDs can be set; entries outside the
// list are skipped without error (Parse returns nil, nil). An empty list
// accepts every organism.
type Parser struct {
	allowTaxIDs map[string]bool
}

// NewParser creates a parser that accepts all organisms.
func NewParser() *Parser {
	return &Parser{}
}

// SetAllowedTaxIDs restricts parsing to entries whose OX taxonomy ID is in
// the given set. Passing no IDs clears the filter.
func (p *Parser) SetAllowedTaxIDs(taxIDs ...string) {
	if len(taxIDs) == 0 {
		p.allowTaxIDs = nil
		return
	}
	p.allowTaxIDs = make(map[string]bool, len(taxIDs))
	for _, id := range taxIDs {
		p.allowTaxIDs[id] = true
	}
}

// SetSpecies is a convenience wrapper around SetAllowedTaxIDs for the
// named presets (human, mouse, arabidopsis). Unknown names are ignored.
func (p *Parser) SetSpecies(names ...string) {
	p.SetAllowedTaxIDs(TaxIDsForSpecies(names...)...)
}

// TaxIDsForSpecies resolves species preset names to their taxonomy IDs,
// sorted. Unknown names are ignored; no names yields nil.
func TaxIDsForSpecies(names ...string) []string {
	var ids []string
	for _, n := range names {
		if id, ok := SpeciesTaxIDs[strings.ToLower(n)]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AllowedTaxIDs returns the active organism allow-list, sorted; nil when
// the parser accepts every organism.
func (p *Parser) AllowedTaxIDs() []string {
	if p.allowTaxIDs == nil {
		return nil
	}
	ids := make([]string, 0, len(p.allowTaxIDs))
	for id := range p.allowTaxIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Parse extracts a ProteinRecord from one raw entry block.
//
// It returns (nil, nil) when the entry's organism is outside the allow-list.
// A missing accession or sequence length yields a *MissingFieldError and the
// entry should be dropped; any other unknown line types are ignored.
func (p *Parser) Parse(block *EntryBlock) (*ProteinRecord, error) {
	groups := groupByPrefix(block.Lines)

	r := &ProteinRecord{}
	r.EntryName, r.DB = parseIDLine(groups["ID"])
	r.TaxID = parseOXLine(groups["OX"])

	// Organism filter comes first so unwanted species cost one map lookup,
	// not a full field extraction.
	if p.allowTaxIDs != nil && !p.allowTaxIDs[r.TaxID] {
		return nil, nil
	}

	r.Accession, r.OtherAccessions = parseACLines(groups["AC"])
	if r.Accession == "" {
		return nil, &MissingFieldError{Field: "AC", EntryName: r.EntryName}
	}

	var ok bool
	r.SequenceLength, ok = parseSQLine(groups["SQ"])
	if !ok {
		return nil, &MissingFieldError{Field: "SQ", EntryName: r.EntryName}
	}

	r.Name, r.OtherNames, r.Flags = parseDELines(groups["DE"])
	r.Gene, r.OtherGenes = parseGNLines(groups["GN"])
	r.Species = parseOSLine(groups["OS"])
	r.Keywords = parseKWLines(groups["KW"])
	r.GOTerms = parseGOLines(groups["DR"])
	r.Pathways = parseReactomeLines(groups["DR"])
	r.CCPathway = parseCCPathway(groups["CC"])
	r.MGIAccession, r.MGIGene = parseMGILine(groups["DR"])

	return r, nil
}

// groupByPrefix collects entry lines by their two-letter line code,
// preserving order within each group. Lines without a recognizable
// "XX   " code are ignored (forward-compatible with format growth).
func groupByPrefix(lines []string) map[string][]string {
	groups := make(map[string][]string)
	for _, line := range lines {
		if len(line) < 5 || line[2:5] != "   " {
			continue
		}
		key := line[0:2]
		if !isUpperAlpha(key) {
			continue
		}
		groups[key] = append(groups[key], line)
	}
	return groups
}

func isUpperAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// content strips the five-character line code from a DAT line.
func content(line string) string {
	if len(line) <= 5 {
		return ""
	}
	return line[5:]
}

func stripECO(line string) string {
	return ecoPattern.ReplaceAllString(line, "")
}

// parseIDLine extracts the entry name and database flag from the ID line.
// "Reviewed" entries are Swiss-Prot ("sp"), everything else TrEMBL ("tr").
func parseIDLine(lines []string) (name, db string) {
	if len(lines) == 0 {
		return "", ""
	}
	fields := strings.Fields(content(lines[0]))
	if len(fields) == 0 {
		return "", ""
	}
	name = fields[0]
	db = "tr"
	if len(fields) > 1 && strings.TrimSuffix(fields[1], ";") == "Reviewed" {
		db = "sp"
	}
	return name, db
}

// parseACLines splits the accession list across all AC lines; the first
// accession is primary, the rest secondary.
func parseACLines(lines []string) (primary string, others []string) {
	var all []string
	for _, line := range lines {
		for _, acc := range strings.Split(content(line), ";") {
			if acc = strings.TrimSpace(acc); acc != "" {
				all = append(all, acc)
			}
		}
	}
	if len(all) == 0 {
		return "", nil
	}
	return all[0], all[1:]
}

// parseDELines walks the DE block collecting the primary name, alternative
// names, short-name parentheticals, and Flags.
func parseDELines(lines []string) (name string, otherNames, flags []string) {
	var shortNames []string

	attach := func() {
		if len(shortNames) == 0 {
			return
		}
		suffix := " (" + strings.Join(shortNames, "; ") + ")"
		if len(otherNames) > 0 {
			otherNames[len(otherNames)-1] += suffix
		} else if name != "" {
			name += suffix
		}
		shortNames = nil
	}

	for _, line := range lines {
		text := stripECO(content(line))
		switch {
		case strings.Contains(text, "RecName:"):
			if _, after, ok := strings.Cut(text, "Full="); ok {
				name = strings.TrimSuffix(after, ";")
			}
		case strings.Contains(text, "AltName:"):
			attach()
			if _, after, ok := strings.Cut(text, "Full="); ok {
				otherNames = append(otherNames, strings.TrimSuffix(after, ";"))
			} else if _, after, ok := strings.Cut(text, "AltName:"); ok {
				otherNames = append(otherNames, strings.TrimSuffix(strings.TrimSpace(after), ";"))
			}
		case strings.Contains(text, "Flags:"):
			_, after, _ := strings.Cut(text, ":")
			for _, f := range strings.Split(after, ";") {
				if f = strings.TrimSpace(f); f != "" {
					flags = append(flags, f)
				}
			}
		case strings.Contains(text, "Short="):
			if _, after, ok := strings.Cut(text, "Short="); ok {
				shortNames = append(shortNames, strings.TrimSuffix(after, ";"))
			}
		}
	}
	attach()

	return name, otherNames, flags
}

// parseGNLines extracts the gene name and synonyms from the first GN line.
func parseGNLines(lines []string) (gene string, others []string) {
	if len(lines) == 0 {
		return "", nil
	}
	text := content(stripECO(lines[0]))
	parts := strings.Split(text, ";")
	gene = strings.TrimSpace(strings.Replace(parts[0], "Name=", "", 1))
	for _, part := range parts {
		if strings.Contains(part, "Synonyms") {
			syn := strings.Replace(part, "Synonyms=", "", 1)
			for _, g := range strings.Split(syn, ",") {
				if g = strings.TrimSpace(g); g != "" {
					others = append(others, g)
				}
			}
		}
	}
	return gene, others
}

func parseOSLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSuffix(content(lines[0]), ".")
}

// parseOXLine extracts the NCBI taxonomy ID from "OX   NCBI_TaxID=9606;".
func parseOXLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	_, after, ok := strings.Cut(stripECO(lines[0]), "=")
	if !ok {
		return ""
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimSuffix(fields[0], ";")
}

// parseSQLine extracts the residue count from "SQ   SEQUENCE   607 AA; ...".
func parseSQLine(lines []string) (int, bool) {
	if len(lines) == 0 {
		return 0, false
	}
	fields := strings.Fields(content(lines[0]))
	if len(fields) < 2 || fields[0] != "SEQUENCE" {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseKWLines joins the keyword list across continuation lines, strips
// evidence codes, and drops the excluded non-informative keywords.
func parseKWLines(lines []string) []string {
	var kws []string
	for _, line := range lines {
		text := content(stripECO(line))
		for _, kw := range strings.Split(text, ";") {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			if excludedKeywords[strings.ReplaceAll(kw, ".", "")] {
				continue
			}
			kws = append(kws, kw)
		}
	}
	if len(kws) > 0 {
		kws[len(kws)-1] = strings.TrimSuffix(kws[len(kws)-1], ".")
	}
	return kws
}

// parseGOLines extracts GO cross-references from DR lines:
// "DR   GO; GO:0005737; C:cytoplasm; IDA:UniProtKB."
func parseGOLines(lines []string) []GOTerm {
	var terms []GOTerm
	for _, line := range lines {
		if !strings.HasPrefix(line, "DR   GO;") {
			continue
		}
		parts := strings.Split(line, "; ")
		if len(parts) < 3 || len(parts[2]) < 2 {
			continue
		}
		terms = append(terms, GOTerm{
			ID:          parts[1],
			Aspect:      parts[2][0:1],
			Description: parts[2][2:],
		})
	}
	return terms
}

// parseReactomeLines extracts Reactome cross-references from DR lines:
// "DR   Reactome; R-HSA-8856825; Cargo recognition for clathrin-mediated endocytosis."
func parseReactomeLines(lines []string) []Pathway {
	var pathways []Pathway
	for _, line := range lines {
		if !strings.HasPrefix(line, "DR   Reactome;") {
			continue
		}
		parts := strings.Split(stripECO(line), ";")
		if len(parts) < 3 {
			continue
		}
		pathways = append(pathways, Pathway{
			ID:          strings.TrimSpace(parts[1]),
			Description: strings.TrimSuffix(strings.TrimSpace(parts[2]), "."),
		})
	}
	return pathways
}

// parseMGILine extracts the first MGI cross-reference:
// "DR   MGI; MGI:87991; Alb."
func parseMGILine(lines []string) (acc, gene string) {
	for _, line := range lines {
		if !strings.HasPrefix(line, "DR   MGI;") {
			continue
		}
		parts := strings.Split(content(line), ";")
		if len(parts) < 3 {
			return "", ""
		}
		acc = strings.TrimSpace(parts[1])
		gene = strings.TrimSuffix(strings.TrimSpace(parts[2]), ".")
		return acc, gene
	}
	return "", ""
}

// parseCCPathway collects the free text of the first CC -!- PATHWAY block,
// joining wrapped lines with spaces and de-hyphenating wrap breaks.
func parseCCPathway(lines []string) string {
	var b strings.Builder
	inPathway := false
	for _, line := range lines {
		text := stripECO(line)
		switch {
		case strings.Contains(text, "-!- PATHWAY:"):
			inPathway = true
			_, after, _ := strings.Cut(text, "-!- PATHWAY: ")
			b.WriteString(after)
		case inPathway && (strings.Contains(text, "-!-") || strings.Contains(text, "----------")):
			return strings.TrimSpace(b.String())
		case inPathway:
			cont := strings.TrimSpace(content(text))
			if cont == "" || cont == "." {
				continue
			}
			if s := b.String(); strings.HasSuffix(s, "-") {
				// wrapped hyphenation: rejoin without a space
				b.WriteString(cont)
			} else {
				b.WriteString(" ")
				b.WriteString(cont)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
