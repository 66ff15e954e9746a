package emit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-snpgenie/internal/fasta"
	"github.com/inodb/vibe-snpgenie/internal/feature"
	"github.com/inodb/vibe-snpgenie/internal/manifest"
)

func testFeatures() *feature.Table {
	return &feature.Table{Rows: []feature.Row{
		{Source: "k", Sequence: "seqA", Record: feature.Record{Name: "geneA", Kind: feature.KindGene, Start: 1, End: 30}},
		{Source: "k", Sequence: "seqA", Record: feature.Record{Name: "protA_(p1)", Kind: feature.KindCDS, Start: 1, End: 30}},
		{Source: "k", Sequence: "seqA", Record: feature.Record{Name: "protB", Kind: feature.KindCDSFrameShift, Start: 60, End: 40}},
		{Source: "k", Sequence: "seqB", Record: feature.Record{Name: "protC", Kind: feature.KindCDS, Start: 5, End: 9}},
	}}
}

func vcfText(reference, chrom string) string {
	text := "##fileformat=VCFv4.2\n"
	if reference != "" {
		text += "##reference=file://" + reference + "\n"
	}
	text += "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"
	if chrom != "" {
		text += chrom + "\t10\t.\tA\tT\t.\tPASS\t.\n"
	}
	return text
}

type fixture struct {
	vcfDir string
	refs   string
	out    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		vcfDir: filepath.Join(root, "snpgenie_input"),
		refs:   filepath.Join(root, "references"),
		out:    filepath.Join(root, "out"),
	}
	require.NoError(t, os.MkdirAll(f.vcfDir, 0755))
	require.NoError(t, os.MkdirAll(f.refs, 0755))
	require.NoError(t, os.MkdirAll(f.out, 0755))
	require.NoError(t, fasta.WriteFile(filepath.Join(f.refs, "ref_host.fa"),
		fasta.Entry{ID: "seqA", Letters: "ACGTACGTAC"},
		fasta.Entry{ID: "seqB", Desc: "second", Letters: "GGGGCCCC"},
	))
	return f
}

func (f fixture) write(t *testing.T, name, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.vcfDir, name), []byte(text), 0644))
}

func TestEmitter_EmitDir(t *testing.T) {
	f := newFixture(t)
	f.write(t, "VCFs1_SEQ1.vcf", vcfText("/gone/ref_host.fa", "seqA"))
	f.write(t, "VCFs1_SEQ2.vcf", vcfText("/gone/ref_host.fa", "seqZ"))
	f.write(t, "VCFs2_SEQ1.vcf", vcfText("/gone/ref_other.fa", "seqB"))
	f.write(t, "VCFs3_SEQ1.vcf", vcfText("/gone/ref_host.fa", ""))
	f.write(t, "notes.txt", "ignored")

	e := NewEmitter(testFeatures().Coding())
	e.SetReferencesDir(f.refs)
	sum, err := e.EmitDir(f.vcfDir, f.out)
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Processed)
	assert.Equal(t, 2, sum.Written)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.Failed)

	var notFound *SequenceNotFoundError
	var missing *MissingReferenceError
	assert.True(t, errors.As(sum.Errors()[0], &notFound))
	assert.Equal(t, "seqZ", notFound.Sequence)
	assert.True(t, errors.As(sum.Errors()[1], &missing))

	gtf, err := os.ReadFile(filepath.Join(f.out, "VCFs1_SEQ1.gtf"))
	require.NoError(t, err)
	assert.Equal(t,
		"VCFs1_SEQ1.vcf\tPython\tCDS\t1\t30\t.\t+\t0\tgene_id \"protA_p1\";\n"+
			"VCFs1_SEQ1.vcf\tPython\tCDS\t60\t40\t.\t-\t0\tgene_id \"protB\";\n",
		string(gtf))

	ref, err := fasta.ReadFile(filepath.Join(f.out, "VCFs1_SEQ1.fasta"))
	require.NoError(t, err)
	require.Len(t, ref, 1)
	assert.Equal(t, "seqA", ref[0].ID)
	assert.Equal(t, "ACGTACGTAC", ref[0].Letters)

	_, err = os.Stat(filepath.Join(f.out, "VCFs3_SEQ1.gtf"))
	assert.True(t, os.IsNotExist(err))
}

func TestEmitter_Manifest(t *testing.T) {
	f := newFixture(t)
	f.write(t, "VCF1024_SEQ2.vcf", vcfText("", "seqB"))
	f.write(t, "VCF2048_SEQ1.vcf", vcfText(filepath.Join(f.refs, "ref_host.fa"), "seqA"))

	e := NewEmitter(testFeatures())
	e.SetReferencesDir(f.refs)
	e.SetManifest(manifest.Manifest{"1024": "/remote/ref_host.fa"})

	res, err := e.EmitFile(filepath.Join(f.vcfDir, "VCF1024_SEQ2.vcf"), f.out)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "seqB", res.Sequence)
	assert.Equal(t, filepath.Join(f.refs, "ref_host.fa"), res.Reference)
	assert.Equal(t, 1, res.Features)

	ref, err := fasta.ReadFile(res.FASTA)
	require.NoError(t, err)
	require.Len(t, ref, 1)
	assert.Equal(t, "second", ref[0].Desc)

	// the manifest wins over the embedded reference line
	_, err = e.EmitFile(filepath.Join(f.vcfDir, "VCF2048_SEQ1.vcf"), f.out)
	var lookup *manifest.LookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, "2048", lookup.Key)
}

func TestEmitter_NoReferenceLine(t *testing.T) {
	f := newFixture(t)
	f.write(t, "plain.vcf", vcfText("", "seqA"))

	_, err := NewEmitter(testFeatures()).EmitFile(filepath.Join(f.vcfDir, "plain.vcf"), f.out)
	var missing *MissingReferenceError
	assert.True(t, errors.As(err, &missing))
}

func TestManifestKey(t *testing.T) {
	assert.Equal(t, "1024", ManifestKey("VCF1024_SEQ3.vcf"))
	assert.Equal(t, "sample_7", ManifestKey("sample_7.vcf"))
}
