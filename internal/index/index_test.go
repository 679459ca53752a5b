package index

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protlab/protannot/internal/dat"
)

const threeEntryDAT = `ID   ALBU_HUMAN              Reviewed;         609 AA.
AC   P02768; B2R9C0;
GN   Name=ALB;
OS   Homo sapiens (Human).
OX   NCBI_TaxID=9606;
KW   Disease variant; Secreted.
SQ   SEQUENCE   609 AA;  69367 MW;  94A9D1F6CAB3AC8F CRC64;
//
ID   ALBU_MOUSE              Reviewed;         608 AA.
AC   P07724;
GN   Name=Alb;
OS   Mus musculus (Mouse).
OX   NCBI_TaxID=10090;
SQ   SEQUENCE   608 AA;  68693 MW;  AF330CBB5B9AD634 CRC64;
//
ID   ALBU_BOVIN              Reviewed;         607 AA.
AC   P02769;
OS   Bos taurus (Bovine).
OX   NCBI_TaxID=9913;
SQ   SEQUENCE   607 AA;  69294 MW;  8CF7794AEF2B2F33 CRC64;
//
`

func buildFrom(t *testing.T, text string, species ...string) *Index {
	t.Helper()

	tok := dat.NewTokenizerFromReader(strings.NewReader(text))
	parser := dat.NewParser()
	if len(species) > 0 {
		parser.SetSpecies(species...)
	}

	idx, err := Build(tok, parser, SourceIdentity{Name: "test.dat", Size: int64(len(text))}, nil)
	require.NoError(t, err)
	return idx
}

func TestBuild(t *testing.T) {
	idx := buildFrom(t, threeEntryDAT)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"P02768", "P07724", "P02769"}, idx.Accessions())

	stats := idx.Provenance().Stats
	assert.Equal(t, 3, stats.Entries)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.Filtered)

	assert.Equal(t, []string{"10090", "9606", "9913"}, idx.Provenance().TaxIDs)
	assert.NotEmpty(t, idx.Provenance().BuildID)
	assert.False(t, idx.Provenance().BuiltAt.IsZero())
}

func TestBuild_OrganismFilter(t *testing.T) {
	idx := buildFrom(t, threeEntryDAT, "human", "mouse")

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 1, idx.Provenance().Stats.Filtered)
	assert.Equal(t, []string{"10090", "9606"}, idx.Provenance().Filter)

	_, ok := idx.Lookup("P02769")
	assert.False(t, ok, "bovine entry should be filtered out")
}

func TestBuild_SkipsEntriesWithMissingFields(t *testing.T) {
	input := threeEntryDAT + `ID   NOSQ_HUMAN              Reviewed;         100 AA.
AC   P99999;
OX   NCBI_TaxID=9606;
//
`
	idx := buildFrom(t, input)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 1, idx.Provenance().Stats.Skipped)
}

func TestBuild_CountsStructuralFaults(t *testing.T) {
	// A stray terminator, then a valid entry, then truncation at EOF.
	input := "//\n" + threeEntryDAT + `ID   CUT_HUMAN               Reviewed;         100 AA.
AC   P88888;
OX   NCBI_TaxID=9606;
SQ   SEQUENCE   100 AA;  11111 MW;  0000000000000000 CRC64;
`
	idx := buildFrom(t, input)

	stats := idx.Provenance().Stats
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 1, stats.Truncated)
	// The truncated entry still carried every mandatory field, so it is kept.
	assert.Equal(t, 4, stats.Entries)

	_, ok := idx.Lookup("P88888")
	assert.True(t, ok)
}

func TestBuild_EmptyInput(t *testing.T) {
	tok := dat.NewTokenizerFromReader(strings.NewReader(""))
	_, err := Build(tok, dat.NewParser(), SourceIdentity{}, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestBuild_AllFiltered(t *testing.T) {
	tok := dat.NewTokenizerFromReader(strings.NewReader(threeEntryDAT))
	parser := dat.NewParser()
	parser.SetAllowedTaxIDs("0000")

	_, err := Build(tok, parser, SourceIdentity{}, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestIndex_Lookup(t *testing.T) {
	idx := buildFrom(t, threeEntryDAT)

	tests := []struct {
		key  string
		want string
	}{
		{"P02768", "ALBU_HUMAN"},
		{"ALBU_HUMAN", "ALBU_HUMAN"},
		{"sp|P02768|ALBU_HUMAN", "ALBU_HUMAN"},
		{"P07724", "ALBU_MOUSE"},
	}
	for _, tt := range tests {
		r, ok := idx.Lookup(tt.key)
		require.True(t, ok, "Lookup(%q)", tt.key)
		assert.Equal(t, tt.want, r.EntryName)
	}

	_, ok := idx.Lookup("B2R9C0")
	assert.False(t, ok, "secondary accessions are not lookup keys")
}

func TestIndex_Resolve(t *testing.T) {
	idx := buildFrom(t, threeEntryDAT)

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"plain accession", "P02768", "ALBU_HUMAN"},
		{"compound by entry name", "xx|XXXXXX|ALBU_MOUSE", "ALBU_MOUSE"},
		{"compound by accession", "sp|P02769|UNKNOWN_NAME", "ALBU_BOVIN"},
		{"versioned accession", "P02768.2", "ALBU_HUMAN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := idx.Resolve(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, r.EntryName)
		})
	}

	_, ok := idx.Resolve("Q00000")
	assert.False(t, ok)
}

func TestSourceIdentity_Equal(t *testing.T) {
	a := SourceIdentity{Name: "x.dat", Size: 10}
	assert.True(t, a.Equal(SourceIdentity{Name: "x.dat", Size: 10}))
	assert.False(t, a.Equal(SourceIdentity{Name: "x.dat", Size: 11}))
	assert.False(t, a.Equal(SourceIdentity{Name: "y.dat", Size: 10}))
}

func TestBuild_IOErrorAborts(t *testing.T) {
	// Tokenizer over a reader that fails mid-stream must abort the build.
	r := &failingReader{data: []byte("ID   ALBU_HUMAN              Reviewed;         609 AA.\n")}
	tok := dat.NewTokenizerFromReader(r)

	_, err := Build(tok, dat.NewParser(), SourceIdentity{}, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyInput))
}

type failingReader struct {
	data []byte
	pos  int
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, errors.New("disk gone")
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}
