// Package vcf reads, splits and normalizes VCF files.
package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

const (
	headerPrefix    = "#"
	referencePrefix = "##reference"
)

// referencePattern captures the path of a "##reference=file://<path>" line.
var referencePattern = regexp.MustCompile(`^##reference=file://(.+)$`)

// Container is a whole VCF file held in memory: header lines (meta lines and
// the #CHROM line) followed by data lines, all without line terminators.
type Container struct {
	Header  []string
	Records []string
}

// ReadContainerFile reads the VCF at path.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func ReadContainerFile(path string) (*Container, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}
	defer file.Close()

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read vcf header: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		return ReadContainer(gz)
	}

	return ReadContainer(file)
}

// ReadContainer reads a VCF from r. Header lines must precede data lines;
// blank lines are skipped.
func ReadContainer(r io.Reader) (*Container, error) {
	reader := bufio.NewReader(r)
	c := &Container{}
	lineNumber := 0

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			lineNumber++
			line = strings.TrimRight(line, "\r\n")
			switch {
			case line == "":
			case strings.HasPrefix(line, headerPrefix):
				if len(c.Records) > 0 {
					return nil, &ParseError{
						Line:    lineNumber,
						Message: "header line after data lines",
					}
				}
				c.Header = append(c.Header, line)
			default:
				c.Records = append(c.Records, line)
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read vcf line: %w", err)
		}
	}

	return c, nil
}

// Empty reports whether the container has no data lines.
func (c *Container) Empty() bool {
	return len(c.Records) == 0
}

// ReferencePath returns the path of the "##reference=file://" line, if any.
func (c *Container) ReferencePath() (string, bool) {
	for _, line := range c.Header {
		if m := referencePattern.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// FirstChrom returns the sequence ID of the first data line.
func (c *Container) FirstChrom() (string, bool) {
	if len(c.Records) == 0 {
		return "", false
	}
	return RecordChrom(c.Records[0]), true
}

// RecordChrom returns the first whitespace-separated column of a data line.
func RecordChrom(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// WriteTo writes the header and data lines, each terminated by a newline.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, lines := range [][]string{c.Header, c.Records} {
		for _, line := range lines {
			n, err := bw.WriteString(line + "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, bw.Flush()
}

// WriteFile writes the container to a new file at path.
func (c *Container) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vcf file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close vcf file: %w", cerr)
		}
	}()
	_, err = c.WriteTo(f)
	return err
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
