package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keywlistSample = `----------------------------------------------------------------------
        UniProt Knowledgebase:
          Controlled vocabulary of keywords
----------------------------------------------------------------------
ID   2Fe-2S.
AC   KW-0001
DE   Protein which contains at least one 2Fe-2S iron-sulfur cluster: 2 iron
DE   atoms complexed to 2 inorganic sulfides and 4 sulfur atoms of
DE   cysteines from the protein.
SY   [2Fe-2S] cluster; [Fe2S2] cluster; 2 iron, 2 sulfur cluster binding.
GO   GO:0051537; 2 iron, 2 sulfur cluster binding
CA   Ligand.
//
ID   Acetylation.
AC   KW-0007
DE   Protein which is posttranslationally modified by the attachment of at
DE   least one acetyl group.
GO   GO:0006473; protein acetylation
CA   PTM.
//
ID   Glycoprotein.
AC   KW-0325
DE   Protein with covalently bound glycan group(s).
CA   PTM.
//
IC   Ligand.
AC   KW-9993
DE   Keywords assigned to proteins because they bind, are associated with,
DE   or whose activity is dependent of some molecule.
//
IC   PTM.
AC   KW-9991
DE   Keywords assigned to proteins because their sequence can differ from
DE   the sequence of the mature protein.
//
`

func loadSample(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	require.NoError(t, c.Parse(strings.NewReader(keywlistSample)))
	return c
}

func TestCatalog_Parse(t *testing.T) {
	c := loadSample(t)

	assert.Equal(t, 5, c.Len())

	term, ok := c.Term("2Fe-2S")
	require.True(t, ok)
	assert.Equal(t, "KW-0001", term.Accession)
	assert.Equal(t, "Ligand", term.Category)
	assert.Contains(t, term.Definition, "iron-sulfur cluster")
	assert.Equal(t, []string{"[2Fe-2S] cluster", "[Fe2S2] cluster", "2 iron, 2 sulfur cluster binding"}, term.Synonyms)
	assert.Equal(t, "2 iron, 2 sulfur cluster binding", term.GOMappings["GO:0051537"])
}

func TestCatalog_LookupByAccession(t *testing.T) {
	c := loadSample(t)

	term, ok := c.Term("KW-0007")
	require.True(t, ok)
	assert.Equal(t, "Acetylation", term.Name)

	_, ok = c.Term("KW-0000")
	assert.False(t, ok)
}

func TestCatalog_CategoryRecords(t *testing.T) {
	c := loadSample(t)

	// IC records are categories that define themselves.
	term, ok := c.Term("Ligand")
	require.True(t, ok)
	assert.Equal(t, "Ligand", term.Category)
	assert.Equal(t, "KW-9993", term.Accession)
}

func TestCatalog_Categories(t *testing.T) {
	c := loadSample(t)

	assert.Equal(t, []string{"Ligand", "PTM"}, c.Categories())
	assert.Equal(t, []string{"Ligand", "PTM", Uncategorized}, c.CategoryColumns())
}

func TestCatalog_Categorize(t *testing.T) {
	c := loadSample(t)

	got := c.Categorize([]string{"Glycoprotein", "2Fe-2S", "Acetylation", "Made-up keyword"})

	// Order follows CategoryColumns: Ligand, PTM, Uncategorized.
	require.Len(t, got, 3)
	assert.Equal(t, "2Fe-2S", got[0])
	assert.Equal(t, "Acetylation; Glycoprotein", got[1])
	assert.Equal(t, "Made-up keyword", got[2])
}

func TestCatalog_CategorizeEmpty(t *testing.T) {
	c := loadSample(t)

	got := c.Categorize(nil)
	require.Len(t, got, 3)
	for _, col := range got {
		assert.Empty(t, col)
	}
}

func TestCatalog_ParseEmpty(t *testing.T) {
	c := NewCatalog()
	err := c.Parse(strings.NewReader("no records here\n"))
	assert.Error(t, err)
}
