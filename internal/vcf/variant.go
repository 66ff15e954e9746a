package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// Number of columns of a single-sample VCF data line:
// 8 mandatory columns, FORMAT and one sample.
const singleSampleColumns = 10

// Variant is one data line of a single-sample VCF.
type Variant struct {
	Chrom  string // sequence ID
	Pos    int64  // 1-based position
	ID     string
	Ref    string
	Alt    string
	Qual   string
	Filter string
	Info   string
	Format string // colon-separated field order of Sample
	Sample string
}

// ParseVariant parses a tab-separated single-sample data line.
func ParseVariant(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != singleSampleColumns {
		return nil, fmt.Errorf("expected %d columns, found %d", singleSampleColumns, len(fields))
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid position: %s", fields[1])
	}

	return &Variant{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    fields[4],
		Qual:   fields[5],
		Filter: fields[6],
		Info:   fields[7],
		Format: fields[8],
		Sample: fields[9],
	}, nil
}

// String formats the variant as a tab-separated data line.
func (v *Variant) String() string {
	return strings.Join([]string{
		v.Chrom,
		strconv.FormatInt(v.Pos, 10),
		v.ID,
		v.Ref,
		v.Alt,
		v.Qual,
		v.Filter,
		v.Info,
		v.Format,
		v.Sample,
	}, "\t")
}

// SampleValue returns the sample value of a FORMAT key.
func (v *Variant) SampleValue(key string) (string, bool) {
	i := formatIndex(v.Format, key)
	values := strings.Split(v.Sample, ":")
	if i < 0 || i >= len(values) {
		return "", false
	}
	return values[i], true
}

// WithSampleValue returns a copy of v with the sample value of key replaced.
func (v *Variant) WithSampleValue(key, value string) (*Variant, error) {
	i := formatIndex(v.Format, key)
	values := strings.Split(v.Sample, ":")
	if i < 0 || i >= len(values) {
		return nil, fmt.Errorf("FORMAT key %s not in sample", key)
	}
	values[i] = value

	out := *v
	out.Sample = strings.Join(values, ":")
	return &out, nil
}

func formatIndex(format, key string) int {
	for i, k := range strings.Split(format, ":") {
		if k == key {
			return i
		}
	}
	return -1
}
