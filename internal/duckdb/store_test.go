package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-snpgenie/internal/feature"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRows() []feature.Row {
	return []feature.Row{
		{Source: "alpha", Sequence: "MN908947.3_SARS-CoV-2", Record: feature.Record{Name: "ORF1ab", Kind: feature.KindGene, Start: 266, End: 21555}},
		{Source: "alpha", Sequence: "MN908947.3_SARS-CoV-2", Record: feature.Record{Name: "ORF1ab_polyprotein", Kind: feature.KindCDS, Start: 266, End: 13468, FrameShift: true}},
		{Source: "alpha", Sequence: "MN908947.3_SARS-CoV-2", Record: feature.Record{Name: "nsp1", Kind: feature.KindCDSFrameShift, Start: 266, End: 805, ExtraKind: "mat_peptide"}},
		{Source: "beta", Sequence: "OK091006.1_isolate", Record: feature.Record{Name: "S", Kind: feature.KindCDS, Start: 25384, End: 21563}},
	}
}

// --- Feature tests ---

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Empty(t, s.Path())
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "features.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteFeatures(sampleRows()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.FeatureCount()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestWriteAndQueryFeatures(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteFeatures(sampleRows()))

	rows, err := s.CodingFeatures("MN908947.3_SARS-CoV-2")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, sampleRows()[1], rows[0])
	assert.Equal(t, sampleRows()[2], rows[1])

	rows, err = s.CodingFeatures("OK091006.1_isolate")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(25384), rows[0].Start)

	rows, err = s.CodingFeatures("unknown")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteFeaturesKeepsOrder(t *testing.T) {
	s := openInMemory(t)
	rows := sampleRows()
	require.NoError(t, s.WriteFeatures(rows[:2]))
	require.NoError(t, s.WriteFeatures(rows[2:]))
	require.NoError(t, s.WriteFeatures(nil))

	table, err := s.Table()
	require.NoError(t, err)
	assert.Equal(t, rows, table.Rows)
}

func TestReplaceFeatures(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteFeatures(sampleRows()))

	replacement := &feature.Table{Rows: sampleRows()[3:]}
	require.NoError(t, s.ReplaceFeatures(replacement))

	table, err := s.Table()
	require.NoError(t, err)
	assert.Equal(t, replacement.Rows, table.Rows)

	require.NoError(t, s.ClearFeatures())
	n, err := s.FeatureCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreMatchesTable(t *testing.T) {
	s := openInMemory(t)
	table := &feature.Table{Rows: sampleRows()}
	require.NoError(t, s.ReplaceFeatures(table))

	for _, seq := range []string{"MN908947.3_SARS-CoV-2", "OK091006.1_isolate"} {
		want, err := table.CodingFeatures(seq)
		require.NoError(t, err)
		got, err := s.CodingFeatures(seq)
		require.NoError(t, err)
		assert.Equal(t, want, got, seq)
	}
}

// --- Source file fingerprint tests ---

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Feature table file-alpha.txt")
	require.NoError(t, os.WriteFile(path, []byte(">Feature x\n"), 0644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, fp.Path)
	assert.Equal(t, int64(11), fp.Size)

	_, err = StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSourceFiles(t *testing.T) {
	s := openInMemory(t)
	mod := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)

	a := FileFingerprint{Path: "b/sequence_alpha.txt", Size: 10, ModTime: mod}
	b := FileFingerprint{Path: "a/Feature table file-alpha.txt", Size: 20, ModTime: mod}
	require.NoError(t, s.RecordSourceFile(a, "sequence"))
	require.NoError(t, s.RecordSourceFile(b, "feature"))

	// re-recording replaces the entry
	b.Size = 21
	require.NoError(t, s.RecordSourceFile(b, "feature"))

	files, err := s.SourceFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a/Feature table file-alpha.txt", files[0].Path)
	assert.Equal(t, int64(21), files[0].Size)
	assert.Equal(t, "feature", files[0].Role)
	assert.True(t, mod.Equal(files[1].ModTime))

	require.NoError(t, s.ClearSourceFiles())
	files, err = s.SourceFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFresh(t *testing.T) {
	s := openInMemory(t)
	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := FileFingerprint{Path: "x", Size: 1, ModTime: mod}
	b := FileFingerprint{Path: "y", Size: 2, ModTime: mod}

	fresh, err := s.Fresh([]FileFingerprint{a})
	require.NoError(t, err)
	assert.False(t, fresh, "empty store is never fresh")

	require.NoError(t, s.RecordSourceFile(a, "feature"))
	require.NoError(t, s.RecordSourceFile(b, "sequence"))

	tests := []struct {
		name string
		fps  []FileFingerprint
		want bool
	}{
		{"same files", []FileFingerprint{b, a}, true},
		{"missing file", []FileFingerprint{a}, false},
		{"extra file", []FileFingerprint{a, b, {Path: "z", ModTime: mod}}, false},
		{"size changed", []FileFingerprint{a, {Path: "y", Size: 3, ModTime: mod}}, false},
		{"modified", []FileFingerprint{a, {Path: "y", Size: 2, ModTime: mod.Add(time.Second)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Fresh(tt.fps)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
