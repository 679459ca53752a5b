package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protlab/protannot/internal/keywords"
)

func testCatalog(t *testing.T) *keywords.Catalog {
	t.Helper()
	text := `ID   Secreted.
AC   KW-0964
DE   Protein secreted into the cell surroundings.
CA   Cellular component.
//
ID   Glycoprotein.
AC   KW-0325
DE   Protein with covalently bound glycan group(s).
SY   Glycosylated protein.
CA   PTM.
//
`
	c := keywords.NewCatalog()
	require.NoError(t, c.Parse(strings.NewReader(text)))
	return c
}

func readReport(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestWriteKeywordReport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testCatalog(t), 2)
	require.NoError(t, w.WriteKeywordReport(testRows()))

	content := readReport(t, dir, KeywordReportFile)
	assert.Contains(t, content, "Total number of key words was: 2")
	assert.Contains(t, content, "Keyword\tCategory\tDescription\tSynonyms\tFrequency\tProteins")

	// Both keywords reach the minimum frequency of 2 and carry catalog data.
	assert.Contains(t, content, "Secreted\tCellular component\tProtein secreted into the cell surroundings.\t\t2\tALBU_HUMAN; Q00001")
	assert.Contains(t, content, "Glycoprotein\tPTM\tProtein with covalently bound glycan group(s).\tGlycosylated protein\t2\tALBU_HUMAN; ALBU_MOUSE")
}

func TestWriteKeywordReport_MinFrequency(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testCatalog(t), 3)
	require.NoError(t, w.WriteKeywordReport(testRows()))

	content := readReport(t, dir, KeywordReportFile)
	// The total counts every term; the table only lists frequent ones.
	assert.Contains(t, content, "Total number of key words was: 2")
	assert.NotContains(t, content, "Secreted\t")
	assert.NotContains(t, content, "Glycoprotein\t")
}

func TestWriteKeywordReport_NoCatalog(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil, 1)
	require.NoError(t, w.WriteKeywordReport(testRows()))

	content := readReport(t, dir, KeywordReportFile)
	assert.Contains(t, content, "Secreted\t\t\t\t2\t")
}

func TestWritePathwayReport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil, 1)
	require.NoError(t, w.WritePathwayReport(testRows()))

	content := readReport(t, dir, PathwayReportFile)
	assert.Contains(t, content, "Total number of pathways was: 1")
	assert.Contains(t, content, "R-HSA-114608\tPlatelet degranulation\t")
	assert.Contains(t, content, `=hyperlink("http://www.reactome.org/content/detail/R-HSA-114608", "R-HSA-114608")`)
	assert.Contains(t, content, "ALBU_HUMAN; ALBU_MOUSE")
}

func TestWriteGOReport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil, 1)
	require.NoError(t, w.WriteGOReport(testRows()))

	content := readReport(t, dir, GOReportFile)
	assert.Contains(t, content, "Total number of GO: Molecular Function terms was: 2")
	assert.Contains(t, content, "Total number of GO: Biological Process terms was: 0")
	assert.Contains(t, content, "Total number of GO: Cellular Component terms was: 0")
	assert.Contains(t, content, "GO:0003677\tDNA binding\t")
	assert.Contains(t, content, `=hyperlink("http://amigo.geneontology.org/amigo/term/GO:0003677", "GO:0003677")`)
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testCatalog(t), 1)
	require.NoError(t, w.WriteAll(testRows()))

	for _, name := range []string{KeywordReportFile, PathwayReportFile, GOReportFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestNewWriter_MinFrequencyFloor(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil, 0)
	require.NoError(t, w.WriteKeywordReport(testRows()))

	// A zero or negative threshold is raised to 1, so singleton terms stay.
	content := readReport(t, dir, KeywordReportFile)
	assert.Contains(t, content, "Secreted\t")
}
