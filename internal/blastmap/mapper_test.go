package blastmap

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mappingTable = `query	ortholog	identity	score	evalue
XP_006507580.1	P02768	95.0	1250	1e-10
XP_006507580.1	P07724	95.0	1180	1e-40
XP_006507580.1	Q00001	90.0	1500	1e-5
NP_000477.1	P02768	100.0	1300	0.0
`

func TestParse_BestByIdentityEValue(t *testing.T) {
	mapping, err := NewMapper().Parse(strings.NewReader(mappingTable))
	require.NoError(t, err)

	assert.Equal(t, 2, mapping.Len())
	assert.Zero(t, mapping.SkippedRows())

	// Identity 95.0 twice and 90.0 once: the tie breaks on lowest e-value.
	best, ok := mapping.Best("XP_006507580.1")
	require.True(t, ok)
	assert.Equal(t, "P07724", best.Ortholog)
	assert.Equal(t, 95.0, best.Identity)
	assert.Equal(t, 1e-40, best.EValue)
}

func TestParse_BestByScore(t *testing.T) {
	m := NewMapper()
	m.SetBetter(ScoreFirst)

	mapping, err := m.Parse(strings.NewReader(mappingTable))
	require.NoError(t, err)

	best, ok := mapping.Best("XP_006507580.1")
	require.True(t, ok)
	assert.Equal(t, "Q00001", best.Ortholog)
	assert.Equal(t, 1500.0, best.Score)
}

func TestParse_TieKeepsFirstSeen(t *testing.T) {
	table := `A0001	P11111	95.0	1000	1e-20
A0001	P22222	95.0	1000	1e-20
`
	mapping, err := NewMapper().Parse(strings.NewReader(table))
	require.NoError(t, err)

	best, ok := mapping.Best("A0001")
	require.True(t, ok)
	assert.Equal(t, "P11111", best.Ortholog, "full ties keep table order")
}

func TestParse_SkipsMalformedRows(t *testing.T) {
	table := `A0001	P11111	95.0	1000	1e-20
A0002	P22222	not-a-number	900	1e-10
A0003	P33333	90.0	800	bad-evalue
A0004	P44444	85.0%	700	1e-5
`
	mapping, err := NewMapper().Parse(strings.NewReader(table))
	require.NoError(t, err)

	assert.Equal(t, 2, mapping.SkippedRows())
	assert.Equal(t, 2, mapping.Len())

	// Percent signs on identity are tolerated.
	best, ok := mapping.Best("A0004")
	require.True(t, ok)
	assert.Equal(t, 85.0, best.Identity)
}

func TestParse_PreambleAndHeader(t *testing.T) {
	table := `# BLASTP 2.13.0+
# Fields: query, subject, identity, score, evalue
Query Accession	Subject	Identity	Score	EValue
A0001	P11111	95.0	1000	1e-20
`
	mapping, err := NewMapper().Parse(strings.NewReader(table))
	require.NoError(t, err)

	assert.Equal(t, 1, mapping.Len())
	assert.Zero(t, mapping.SkippedRows(), "preamble lines are not data faults")
}

func TestParse_WhitespaceDelimited(t *testing.T) {
	table := "A0001 P11111 95.0 1000 1e-20\n"
	mapping, err := NewMapper().Parse(strings.NewReader(table))
	require.NoError(t, err)

	best, ok := mapping.Best("A0001")
	require.True(t, ok)
	assert.Equal(t, "P11111", best.Ortholog)
}

func TestBest_AlternateKeyForms(t *testing.T) {
	mapping, err := NewMapper().Parse(strings.NewReader(mappingTable))
	require.NoError(t, err)

	// Version-stripped form: the table key carries the version suffix, so
	// the exact key matches first; a versionless lookup must still resolve.
	table := "NP_000477	P02768	100.0	1300	0.0\n"
	mapping2, err := NewMapper().Parse(strings.NewReader(table))
	require.NoError(t, err)

	best, ok := mapping2.Best("NP_000477.1")
	require.True(t, ok)
	assert.Equal(t, "P02768", best.Ortholog)

	// Compound FASTA form falls back to its accession and entry-name parts.
	table = "P02768	Q56789	88.0	900	1e-30\n"
	mapping3, err := NewMapper().Parse(strings.NewReader(table))
	require.NoError(t, err)

	best, ok = mapping3.Best("sp|P02768|ALBU_HUMAN")
	require.True(t, ok)
	assert.Equal(t, "Q56789", best.Ortholog)

	_, ok = mapping.Best("UNKNOWN")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	mapping, err := NewMapper().Parse(strings.NewReader(mappingTable))
	require.NoError(t, err)

	got := mapping.Resolve([]string{"NP_000477.1", "MISSING"})
	require.Len(t, got, 2)
	require.NotNil(t, got["NP_000477.1"])
	assert.Equal(t, "P02768", got["NP_000477.1"].Ortholog)
	assert.Nil(t, got["MISSING"], "unmapped queries pass through as nil, not errors")
}

func TestByName(t *testing.T) {
	a := Candidate{Identity: 90, Score: 1500, EValue: 1e-5}
	b := Candidate{Identity: 95, Score: 1000, EValue: 1e-10}

	assert.False(t, ByName("identity-evalue")(a, b))
	assert.True(t, ByName("score")(a, b))
	assert.False(t, ByName("unknown rule")(a, b), "unknown names fall back to the default")
	assert.False(t, ByName("SCORE")(b, a), "comparator names are case-insensitive")
}

func TestLoadTable_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(mappingTable))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	mapping, err := NewMapper().LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2, mapping.Len())
}

func TestRowError(t *testing.T) {
	err := &RowError{Line: 3, Message: "invalid score \"abc\""}
	assert.Equal(t, `mapping table row 3: invalid score "abc"`, err.Error())
}
