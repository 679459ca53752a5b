// Package dat provides UniProt Swiss-Prot DAT flat-file parsing functionality.
package dat

import (
	"fmt"
	"strings"
)

// GO aspect codes as they appear in DR GO lines.
const (
	AspectMolecularFunction = "F"
	AspectBiologicalProcess = "P"
	AspectCellularComponent = "C"
)

// GOTerm is a single Gene Ontology cross-reference from a DR GO line.
type GOTerm struct {
	ID          string `json:"id"`     // GO accession, e.g. "GO:0005737"
	Aspect      string `json:"aspect"` // "F", "P", or "C"
	Description string `json:"description"`
}

// String formats the term the way the annotation rows render it.
func (g GOTerm) String() string {
	return fmt.Sprintf("%s {%s}", g.Description, g.ID)
}

// Pathway is a single Reactome cross-reference from a DR Reactome line.
type Pathway struct {
	ID          string `json:"id"` // Reactome accession, e.g. "R-HSA-8856825"
	Description string `json:"description"`
}

// String formats the pathway the way the annotation rows render it.
func (p Pathway) String() string {
	return fmt.Sprintf("%s {%s}", p.Description, p.ID)
}

// ProteinRecord holds the annotation fields extracted from one DAT entry.
// Accession is the primary key and never changes after parsing.
type ProteinRecord struct {
	EntryName       string    `json:"entry_name"` // ID line identifier, e.g. "ALBU_HUMAN"
	DB              string    `json:"db"`         // "sp" (Reviewed) or "tr"
	Accession       string    `json:"accession"`  // primary accession
	OtherAccessions []string  `json:"other_accessions,omitempty"`
	Name            string    `json:"name"` // primary protein name from DE RecName
	OtherNames      []string  `json:"other_names,omitempty"`
	Flags           []string  `json:"flags,omitempty"`
	Gene            string    `json:"gene,omitempty"`
	OtherGenes      []string  `json:"other_genes,omitempty"`
	Species         string    `json:"species"` // OS line
	TaxID           string    `json:"tax_id"`  // OX line NCBI_TaxID
	SequenceLength  int       `json:"sequence_length"`
	Keywords        []string  `json:"keywords,omitempty"`
	GOTerms         []GOTerm  `json:"go_terms,omitempty"`
	Pathways        []Pathway `json:"pathways,omitempty"`
	CCPathway       string    `json:"cc_pathway,omitempty"` // CC -!- PATHWAY free text

	// Mouse-specific extension fields from DR MGI lines.
	MGIAccession string `json:"mgi_accession,omitempty"`
	MGIGene      string `json:"mgi_gene,omitempty"`
}

// FastaAccession returns the compound db|accession|entry-name form used in
// UniProt FASTA headers, e.g. "sp|P02768|ALBU_HUMAN".
func (r *ProteinRecord) FastaAccession() string {
	return strings.Join([]string{r.DB, r.Accession, r.EntryName}, "|")
}

// GOByAspect returns the record's GO terms with the given aspect code,
// preserving DR line order.
func (r *ProteinRecord) GOByAspect(aspect string) []GOTerm {
	var terms []GOTerm
	for _, g := range r.GOTerms {
		if g.Aspect == aspect {
			terms = append(terms, g)
		}
	}
	return terms
}

// GOText joins the descriptions of one aspect's terms into a single
// semicolon-separated string.
func (r *ProteinRecord) GOText(aspect string) string {
	terms := r.GOByAspect(aspect)
	parts := make([]string, len(terms))
	for i, g := range terms {
		parts[i] = g.String()
	}
	return strings.Join(parts, "; ")
}

// PathwayText joins the Reactome cross-references into a single string.
func (r *ProteinRecord) PathwayText() string {
	parts := make([]string, len(r.Pathways))
	for i, p := range r.Pathways {
		parts[i] = p.String()
	}
	return strings.Join(parts, "; ")
}
