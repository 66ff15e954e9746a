package emit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReference(t *testing.T) {
	dir := t.TempDir()
	refs := filepath.Join(dir, "references")
	require.NoError(t, os.MkdirAll(refs, 0755))

	literal := filepath.Join(dir, "ref_a.fa")
	require.NoError(t, os.WriteFile(literal, []byte(">a\nACGT\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(refs, "ref_b.fa"), []byte(">b\nACGT\n"), 0644))

	got, err := ResolveReference(literal, refs)
	require.NoError(t, err)
	assert.Equal(t, literal, got)

	got, err = ResolveReference("/elsewhere/ref_b.fa", refs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(refs, "ref_b.fa"), got)

	_, err = ResolveReference("/elsewhere/ref_c.fa", refs)
	var missing *MissingReferenceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "/elsewhere/ref_c.fa", missing.Path)
	assert.Equal(t, []string{"/elsewhere/ref_c.fa", filepath.Join(refs, "ref_c.fa")}, missing.Tried)

	_, err = ResolveReference("", refs)
	assert.True(t, errors.As(err, &missing))

	// directories are not references
	_, err = ResolveReference(refs, "")
	assert.True(t, errors.As(err, &missing))
}
