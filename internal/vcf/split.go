package vcf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	contigPrefix     = "##contig"
	columnLinePrefix = "#CHROM"
)

var contigPattern = regexp.MustCompile(`^##contig=<ID=([^,]+),length=\d+>`)

// Part is the slice of a container that belongs to one sequence.
type Part struct {
	Index     int // 1-based discovery order within the source file
	Chrom     string
	Container *Container
}

// PartFileName names the output file of part index split from a file with
// the given stem.
func PartFileName(stem string, index int) string {
	return fmt.Sprintf("VCF%s_SEQ%d.vcf", stem, index)
}

// partNamePattern matches names produced by PartFileName.
var partNamePattern = regexp.MustCompile(`^VCF(.+)_SEQ(\d+)\.vcf$`)

// ParsePartFileName returns the stem and index encoded in a part file name.
func ParsePartFileName(name string) (stem string, index int, ok bool) {
	m := partNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], index, true
}

// UndeclaredContigError reports a data line whose sequence was never
// declared by a ##contig header line.
type UndeclaredContigError struct {
	Chrom string
	Line  int // 1-based position among the data lines
}

func (e *UndeclaredContigError) Error() string {
	return fmt.Sprintf("data line %d: sequence %q not declared by a ##contig line", e.Line, e.Chrom)
}

// SplitByContig splits a container whose sequences are declared by
// ##contig lines. One part is returned per declared contig, in declaration
// order, including parts without data lines. Each part's header is the
// non-contig header with that contig's line inserted after ##reference, or
// before #CHROM when there is no ##reference line.
func SplitByContig(c *Container) ([]Part, error) {
	var (
		meta     []string
		contigs  []string
		lines    = make(map[string]string)
		insertAt = -1
	)
	for _, line := range c.Header {
		if m := contigPattern.FindStringSubmatch(line); m != nil {
			id := m[1]
			if _, dup := lines[id]; !dup {
				contigs = append(contigs, id)
				lines[id] = line
			}
			continue
		}
		if strings.HasPrefix(line, contigPrefix) {
			// ##contig lines without a length are kept as plain metadata
			meta = append(meta, line)
			continue
		}
		if strings.HasPrefix(line, referencePrefix) {
			insertAt = len(meta) + 1
		}
		if insertAt < 0 && strings.HasPrefix(line, columnLinePrefix) {
			insertAt = len(meta)
		}
		meta = append(meta, line)
	}
	if insertAt < 0 {
		insertAt = len(meta)
	}

	parts := make([]Part, len(contigs))
	byChrom := make(map[string]*Container, len(contigs))
	for i, id := range contigs {
		header := make([]string, 0, len(meta)+1)
		header = append(header, meta[:insertAt]...)
		header = append(header, lines[id])
		header = append(header, meta[insertAt:]...)

		pc := &Container{Header: header}
		parts[i] = Part{Index: i + 1, Chrom: id, Container: pc}
		byChrom[id] = pc
	}

	for i, rec := range c.Records {
		chrom := RecordChrom(rec)
		pc, ok := byChrom[chrom]
		if !ok {
			return nil, &UndeclaredContigError{Chrom: chrom, Line: i + 1}
		}
		pc.Records = append(pc.Records, rec)
	}
	return parts, nil
}

// SplitBySequence splits a container without contig declarations. Every
// part shares the full header verbatim; sequences are discovered from the
// data lines in first-sight order.
func SplitBySequence(c *Container) []Part {
	var parts []Part
	index := make(map[string]int)
	for _, rec := range c.Records {
		chrom := RecordChrom(rec)
		i, ok := index[chrom]
		if !ok {
			i = len(parts)
			index[chrom] = i
			header := make([]string, len(c.Header))
			copy(header, c.Header)
			parts = append(parts, Part{
				Index:     i + 1,
				Chrom:     chrom,
				Container: &Container{Header: header},
			})
		}
		parts[i].Container.Records = append(parts[i].Container.Records, rec)
	}
	return parts
}
