package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	line := "MN908947.3\t241\t.\tC\tT\t.\tPASS\tDP=50;AD=12\tDP:AD\t50:12"

	v, err := ParseVariant(line)
	require.NoError(t, err)

	assert.Equal(t, "MN908947.3", v.Chrom)
	assert.Equal(t, int64(241), v.Pos)
	assert.Equal(t, "C", v.Ref)
	assert.Equal(t, "T", v.Alt)
	assert.Equal(t, "PASS", v.Filter)
	assert.Equal(t, "DP:AD", v.Format)
	assert.Equal(t, "50:12", v.Sample)
	assert.Equal(t, line, v.String())
}

func TestParseVariant_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few columns", "chr1\t100\t.\tA\tT\t.\tPASS\t."},
		{"too many columns", "chr1\t100\t.\tA\tT\t.\tPASS\t.\tDP\t1\t2"},
		{"bad position", "chr1\tx\t.\tA\tT\t.\tPASS\t.\tDP\t1"},
		{"space separated", "chr1 100 . A T . PASS . DP 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVariant(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestVariant_SampleValue(t *testing.T) {
	v := &Variant{Format: "GT:DP:AD", Sample: "1:50:12"}

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"GT", "1", true},
		{"DP", "50", true},
		{"AD", "12", true},
		{"FREQ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := v.SampleValue(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	short := &Variant{Format: "DP:AD", Sample: "50"}
	_, ok := short.SampleValue("AD")
	assert.False(t, ok)
}

func TestVariant_WithSampleValue(t *testing.T) {
	v := &Variant{Chrom: "chr1", Format: "DP:AD", Sample: "50:12"}

	out, err := v.WithSampleValue("AD", "38,12")
	require.NoError(t, err)
	assert.Equal(t, "50:38,12", out.Sample)
	assert.Equal(t, "50:12", v.Sample, "original must not change")

	_, err = v.WithSampleValue("GT", "1")
	assert.Error(t, err)
}
