package emit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inodb/vibe-snpgenie/internal/feature"
)

// gtfSource is the source column of every emitted GTF line.
const gtfSource = "Python"

var nameCleaner = strings.NewReplacer("(", "", ")", "")

// Strand derives the strand from coordinate order.
func Strand(start, end int64) string {
	if end > start {
		return "+"
	}
	return "-"
}

// GTFLine formats one feature row as a GTF CDS line whose seqname is the
// VCF file name.
func GTFLine(vcfName string, r feature.Row) string {
	return strings.Join([]string{
		vcfName,
		gtfSource,
		"CDS",
		fmt.Sprint(r.Start),
		fmt.Sprint(r.End),
		".",
		Strand(r.Start, r.End),
		"0",
		fmt.Sprintf(`gene_id "%s";`, nameCleaner.Replace(r.Name)),
	}, "\t")
}

// WriteGTF writes one line per row.
func WriteGTF(w io.Writer, vcfName string, rows []feature.Row) error {
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		if _, err := bw.WriteString(GTFLine(vcfName, r) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteGTFFile writes the GTF lines for rows to a new file at path.
func WriteGTFFile(path, vcfName string, rows []feature.Row) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create GTF file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close GTF file: %w", cerr)
		}
	}()
	return WriteGTF(f, vcfName, rows)
}
