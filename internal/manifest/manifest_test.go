package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(`# sample -> reference
1@/data/refs/ref_Homo_sapiens_host.fa

 2 @ references/ref_bat.fa
`))
	require.NoError(t, err)
	assert.Equal(t, Manifest{
		"1": "/data/refs/ref_Homo_sapiens_host.fa",
		"2": "references/ref_bat.fa",
	}, m)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no separator", "1 /data/ref.fa\n"},
		{"empty key", "@/data/ref.fa\n"},
		{"empty path", "1@\n"},
		{"conflicting key", "1@a.fa\n1@b.fa\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLookup(t *testing.T) {
	m := Manifest{"7": "ref.fa"}

	p, err := m.Lookup("7")
	require.NoError(t, err)
	assert.Equal(t, "ref.fa", p)

	_, err = m.Lookup("8")
	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "8", lookupErr.Key)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "manifest.txt")
	require.NoError(t, os.WriteFile(plain, []byte("3@ref3.fa\n"), 0644))

	yml := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("\"3\": ref3.fa\n\"4\": ref4.fa\n"), 0644))

	m, err := Load(plain)
	require.NoError(t, err)
	assert.Equal(t, Manifest{"3": "ref3.fa"}, m)

	m, err = Load(yml)
	require.NoError(t, err)
	assert.Equal(t, Manifest{"3": "ref3.fa", "4": "ref4.fa"}, m)

	_, err = Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
