package vcf

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRead(t *testing.T, text string) *Container {
	t.Helper()
	c, err := ReadContainer(strings.NewReader(text))
	require.NoError(t, err)
	return c
}

func TestSplitByContig(t *testing.T) {
	parts, err := SplitByContig(mustRead(t, twoContigVCF))
	require.NoError(t, err)
	require.Len(t, parts, 2)

	assert.Equal(t, 1, parts[0].Index)
	assert.Equal(t, "MN908947.3", parts[0].Chrom)
	assert.Equal(t, []string{
		"##fileformat=VCFv4.2",
		"##source=lofreq call",
		"##reference=file:///data/ref_Homo_sapiens_host.fa",
		"##contig=<ID=MN908947.3,length=29903>",
		`##INFO=<ID=DP,Number=1,Type=Integer,Description="Raw Depth">`,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
	}, parts[0].Container.Header)
	assert.Len(t, parts[0].Container.Records, 2)

	assert.Equal(t, 2, parts[1].Index)
	assert.Equal(t, "##contig=<ID=OK091006.1,length=29836>", parts[1].Container.Header[3])
	assert.Len(t, parts[1].Container.Header, 6)
	assert.Equal(t, []string{"OK091006.1\t3037\t.\tC\tT\t49314\tPASS\tDP=1611"}, parts[1].Container.Records)
}

func TestSplitByContig_NoReferenceLine(t *testing.T) {
	c := mustRead(t, "##fileformat=VCFv4.2\n##contig=<ID=chr1,length=10>\n#CHROM\tPOS\nchr1\t1\n")

	parts, err := SplitByContig(c)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, []string{
		"##fileformat=VCFv4.2",
		"##contig=<ID=chr1,length=10>",
		"#CHROM\tPOS",
	}, parts[0].Container.Header)
}

func TestSplitByContig_EmptyContigKeepsIndex(t *testing.T) {
	c := mustRead(t, `##reference=file://ref.fa
##contig=<ID=a,length=10>
##contig=<ID=b,length=10>
##contig=<ID=c,length=10>
#CHROM	POS
c	5
`)
	parts, err := SplitByContig(c)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.True(t, parts[0].Container.Empty())
	assert.True(t, parts[1].Container.Empty())
	assert.Equal(t, 3, parts[2].Index)
	assert.False(t, parts[2].Container.Empty())
}

func TestSplitByContig_Undeclared(t *testing.T) {
	c := mustRead(t, "##contig=<ID=chr1,length=10>\n#CHROM\tPOS\nchr1\t1\nchr2\t5\n")

	_, err := SplitByContig(c)
	var undeclared *UndeclaredContigError
	require.True(t, errors.As(err, &undeclared))
	assert.Equal(t, "chr2", undeclared.Chrom)
	assert.Equal(t, 2, undeclared.Line)
}

func TestSplitBySequence(t *testing.T) {
	c := mustRead(t, "##source=VarScan2\n#CHROM\tPOS\nb\t1\na\t2\nb\t3\n")

	parts := SplitBySequence(c)
	require.Len(t, parts, 2)
	assert.Equal(t, Part{Index: 1, Chrom: "b", Container: &Container{
		Header:  []string{"##source=VarScan2", "#CHROM\tPOS"},
		Records: []string{"b\t1", "b\t3"},
	}}, parts[0])
	assert.Equal(t, "a", parts[1].Chrom)
	assert.Equal(t, c.Header, parts[1].Container.Header)

	// headers are independent copies
	parts[0].Container.Header[0] = "changed"
	assert.Equal(t, "##source=VarScan2", c.Header[0])
}

func TestSplitBySequence_Empty(t *testing.T) {
	assert.Empty(t, SplitBySequence(mustRead(t, "#CHROM\tPOS\n")))
}

// Concatenating the data lines of all parts gives back the input data
// lines, in the input's order within each sequence.
func TestSplit_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		split func(*Container) ([]Part, error)
		text  string
	}{
		{
			name:  "contig",
			split: SplitByContig,
			text:  twoContigVCF,
		},
		{
			name: "sequence",
			split: func(c *Container) ([]Part, error) {
				return SplitBySequence(c), nil
			},
			text: "#CHROM\tPOS\nx\t1\ny\t2\nx\t3\nz\t4\ny\t5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustRead(t, tt.text)
			parts, err := tt.split(c)
			require.NoError(t, err)

			var joined []string
			for _, p := range parts {
				for _, rec := range p.Container.Records {
					assert.Equal(t, p.Chrom, RecordChrom(rec))
				}
				joined = append(joined, p.Container.Records...)
			}
			assert.ElementsMatch(t, c.Records, joined)

			for _, p := range parts {
				var want []string
				for _, rec := range c.Records {
					if RecordChrom(rec) == p.Chrom {
						want = append(want, rec)
					}
				}
				assert.Equal(t, want, p.Container.Records)
			}
		})
	}
}

func TestPartFileName(t *testing.T) {
	name := PartFileName("sample_1", 3)
	assert.Equal(t, "VCFsample_1_SEQ3.vcf", name)

	stem, index, ok := ParsePartFileName(name)
	require.True(t, ok)
	assert.Equal(t, "sample_1", stem)
	assert.Equal(t, 3, index)

	_, _, ok = ParsePartFileName("sample_1.vcf")
	assert.False(t, ok)
}
