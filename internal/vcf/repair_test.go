package vcf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairAlleleDepth(t *testing.T) {
	c := &Container{
		Header: []string{"##fileformat=VCFv4.2", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1"},
		Records: []string{
			"chr1\t100\t.\tA\tT\t.\tPASS\tDP=50\tDP:AD\t50:12",
			"chr1\t200\t.\tG\tC\t.\tPASS\tDP=30\tGT:AD:DP\t1:30:30",
		},
	}

	out, stats, errs := RepairAlleleDepth(c)
	assert.Empty(t, errs)
	assert.Equal(t, RepairStats{Repaired: 2}, stats)
	assert.Equal(t, c.Header, out.Header)
	assert.Equal(t, []string{
		"chr1\t100\t.\tA\tT\t.\tPASS\tDP=50\tDP:AD\t50:38,12",
		"chr1\t200\t.\tG\tC\t.\tPASS\tDP=30\tGT:AD:DP\t1:0,30:30",
	}, out.Records)

	// input is not modified
	assert.Equal(t, "chr1\t100\t.\tA\tT\t.\tPASS\tDP=50\tDP:AD\t50:12", c.Records[0])
}

func TestRepairAlleleDepth_Idempotence(t *testing.T) {
	c := &Container{Records: []string{"chr1\t100\t.\tA\tT\t.\tPASS\t.\tDP:AD\t50:12"}}

	once, stats, errs := RepairAlleleDepth(c)
	require.Empty(t, errs)
	require.Equal(t, 1, stats.Repaired)

	twice, stats, errs := RepairAlleleDepth(once)
	require.Empty(t, errs)
	assert.Equal(t, RepairStats{AlreadyNormalized: 1}, stats)
	assert.Equal(t, once.Records, twice.Records)
	assert.Equal(t, "chr1\t100\t.\tA\tT\t.\tPASS\t.\tDP:AD\t50:38,12", twice.Records[0])
}

func TestRepairAlleleDepth_Unrecognized(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"eight columns", "chr1\t100\t.\tA\tT\t.\tPASS\tDP=50"},
		{"no DP", "chr1\t100\t.\tA\tT\t.\tPASS\t.\tGT:AD\t1:12"},
		{"no AD", "chr1\t100\t.\tA\tT\t.\tPASS\t.\tGT:DP\t1:50"},
		{"short sample", "chr1\t100\t.\tA\tT\t.\tPASS\t.\tDP:AD\t50"},
		{"non-integer DP", "chr1\t100\t.\tA\tT\t.\tPASS\t.\tDP:AD\t.:12"},
		{"non-integer AD", "chr1\t100\t.\tA\tT\t.\tPASS\t.\tDP:AD\t50:x"},
		{"AD above DP", "chr1\t100\t.\tA\tT\t.\tPASS\t.\tDP:AD\t10:12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Container{Records: []string{
				"chr1\t1\t.\tA\tT\t.\tPASS\t.\tDP:AD\t5:1",
				tt.line,
			}}

			out, stats, errs := RepairAlleleDepth(c)
			assert.Equal(t, RepairStats{Repaired: 1, Dropped: 1}, stats)
			assert.Equal(t, []string{"chr1\t1\t.\tA\tT\t.\tPASS\t.\tDP:AD\t5:4,1"}, out.Records)

			require.Len(t, errs, 1)
			var unrecognized *UnrecognizedRecordError
			require.True(t, errors.As(errs[0], &unrecognized))
			assert.Equal(t, 2, unrecognized.Line)
			assert.Equal(t, tt.line, unrecognized.Record)
		})
	}
}
