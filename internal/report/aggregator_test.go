package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protlab/protannot/internal/annotate"
	"github.com/protlab/protannot/internal/dat"
)

func testRows() []annotate.OutputRow {
	return []annotate.OutputRow{
		{
			Query:        "P02768",
			Record:       &dat.ProteinRecord{EntryName: "ALBU_HUMAN", Accession: "P02768", Keywords: []string{"Secreted", "Glycoprotein"}},
			GOMolecular:  "DNA binding {GO:0003677}",
			ReactomeText: "Platelet degranulation {R-HSA-114608}",
		},
		{
			Query:  "UNKNOWN",
			Record: nil, // unresolved rows contribute nothing
		},
		{
			Query:        "P07724",
			Record:       &dat.ProteinRecord{EntryName: "ALBU_MOUSE", Accession: "P07724", Keywords: []string{"Glycoprotein"}},
			GOMolecular:  "DNA binding {GO:0003677}; toxin activity {GO:0090729}",
			ReactomeText: "Platelet degranulation {R-HSA-114608}",
		},
		{
			Query:  "Q00001",
			Record: &dat.ProteinRecord{Accession: "Q00001", Keywords: []string{"Secreted"}},
		},
	}
}

func TestAggregate_Keywords(t *testing.T) {
	summaries := Aggregate(testRows(), CategoryKeyword)

	// First-appearance order across rows.
	require.Len(t, summaries, 2)
	assert.Equal(t, "Secreted", summaries[0].Term)
	assert.Equal(t, "Glycoprotein", summaries[1].Term)

	// Proteins are identified by entry name, falling back to accession.
	assert.Equal(t, []string{"ALBU_HUMAN", "Q00001"}, summaries[0].Accessions)
	assert.Equal(t, []string{"ALBU_HUMAN", "ALBU_MOUSE"}, summaries[1].Accessions)
	assert.Equal(t, 2, summaries[0].Frequency())
}

func TestAggregate_GOMolecular(t *testing.T) {
	summaries := Aggregate(testRows(), CategoryGOMolecular)

	require.Len(t, summaries, 2)
	assert.Equal(t, "DNA binding {GO:0003677}", summaries[0].Term)
	assert.Equal(t, 2, summaries[0].Frequency())
	assert.Equal(t, "toxin activity {GO:0090729}", summaries[1].Term)
	assert.Equal(t, 1, summaries[1].Frequency())
}

func TestAggregate_Pathways(t *testing.T) {
	summaries := Aggregate(testRows(), CategoryPathway)

	require.Len(t, summaries, 1)
	assert.Equal(t, "Platelet degranulation {R-HSA-114608}", summaries[0].Term)
	assert.Equal(t, []string{"ALBU_HUMAN", "ALBU_MOUSE"}, summaries[0].Accessions)
}

func TestAggregate_EmptyCategory(t *testing.T) {
	summaries := Aggregate(testRows(), CategoryGOCellular)
	assert.Empty(t, summaries)
}

func TestAggregate_NoRows(t *testing.T) {
	assert.Empty(t, Aggregate(nil, CategoryKeyword))
}

func TestSortByFrequency(t *testing.T) {
	summaries := []TermSummary{
		{Term: "rare", Accessions: []string{"A"}},
		{Term: "common", Accessions: []string{"A", "B", "C"}},
		{Term: "also-rare", Accessions: []string{"B"}},
	}
	sortByFrequency(summaries)

	assert.Equal(t, "common", summaries[0].Term)
	// Equal frequencies keep first-appearance order.
	assert.Equal(t, "rare", summaries[1].Term)
	assert.Equal(t, "also-rare", summaries[2].Term)
}

func TestSplitTerm(t *testing.T) {
	tests := []struct {
		term     string
		wantDesc string
		wantID   string
	}{
		{"DNA binding {GO:0003677}", "DNA binding", "GO:0003677"},
		{"Platelet degranulation {R-HSA-114608}", "Platelet degranulation", "R-HSA-114608"},
		{"no identifier", "no identifier", ""},
	}
	for _, tt := range tests {
		desc, id := splitTerm(tt.term)
		assert.Equal(t, tt.wantDesc, desc)
		assert.Equal(t, tt.wantID, id)
	}
}
