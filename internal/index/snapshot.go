package index

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"

	"github.com/protlab/protannot/internal/dat"
)

// snapshotVersion is bumped whenever the envelope or record layout changes;
// older snapshots then read as stale and trigger a full re-parse.
const snapshotVersion = 1

// SnapshotSuffix is appended to the DAT file path to name its snapshot.
const SnapshotSuffix = ".annotations.json.gz"

// SnapshotPath returns the default snapshot location for a DAT file.
func SnapshotPath(datPath string) string {
	return datPath + SnapshotSuffix
}

// IdentityMismatchError reports a snapshot whose embedded source identity
// or organism filter does not match the current run. It is always a cache
// miss, never a partial hit.
type IdentityMismatchError struct {
	Want       SourceIdentity
	Got        SourceIdentity
	WantFilter []string
	GotFilter  []string
}

func (e *IdentityMismatchError) Error() string {
	if !sameFilter(e.WantFilter, e.GotFilter) {
		return fmt.Sprintf("snapshot is stale: built with organism filter %v, current filter is %v",
			e.GotFilter, e.WantFilter)
	}
	return fmt.Sprintf("snapshot is stale: built from %s (%d bytes, %s), file is now %s (%d bytes, %s)",
		e.Got.Name, e.Got.Size, e.Got.ModTime.Format("2006-01-02 15:04:05"),
		e.Want.Name, e.Want.Size, e.Want.ModTime.Format("2006-01-02 15:04:05"))
}

// sameFilter compares two sorted tax-ID lists.
func sameFilter(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// snapshotEnvelope is the on-disk form: gzip-compressed JSON with the build
// provenance (and therefore the source identity) alongside the records.
type snapshotEnvelope struct {
	Version    int                  `json:"version"`
	Provenance Provenance           `json:"provenance"`
	Records    []*dat.ProteinRecord `json:"records"`
}

// Save writes a snapshot of the index to path. The write goes to a
// temporary file first so a crash never leaves a half-written snapshot
// behind. Failures here lose only the next reload's speed-up, so callers
// report them as warnings.
func Save(idx *Index, path string) error {
	env := snapshotEnvelope{
		Version:    snapshotVersion,
		Provenance: idx.prov,
		Records:    make([]*dat.ProteinRecord, 0, idx.Len()),
	}
	for _, acc := range idx.accessions {
		env.Records = append(env.Records, idx.records[acc])
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(&env); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load restores an index from a snapshot, but only when the snapshot's
// embedded source identity exactly matches want AND it was built under the
// same sorted organism allow-list (nil for unfiltered). A filtered build
// answering for a different filter would change query results, not just
// latency, so any mismatch (including a snapshot format version change)
// returns an *IdentityMismatchError; a missing snapshot file surfaces as
// the underlying not-exist error. Both are cache misses for the caller.
func Load(path string, want SourceIdentity, filter []string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer gz.Close()

	var env snapshotEnvelope
	if err := json.NewDecoder(gz).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	if env.Version != snapshotVersion || !env.Provenance.Source.Equal(want) ||
		!sameFilter(filter, env.Provenance.Filter) {
		return nil, &IdentityMismatchError{
			Want:       want,
			Got:        env.Provenance.Source,
			WantFilter: filter,
			GotFilter:  env.Provenance.Filter,
		}
	}

	idx := &Index{records: make(map[string]*dat.ProteinRecord, len(env.Records))}
	for _, r := range env.Records {
		idx.add(r)
	}
	idx.prov = env.Provenance
	return idx, nil
}
