// Package fasta reads and writes sequence collections in FASTA format.
package fasta

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	biofasta "github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// LineWidth is the number of letters per sequence line when writing.
const LineWidth = 60

// Entry is one sequence of a collection.
type Entry struct {
	ID      string // header text up to the first space
	Desc    string // header text after the first space
	Letters string
}

// Description returns the full header text without the leading '>'.
func (e Entry) Description() string {
	if e.Desc == "" {
		return e.ID
	}
	return e.ID + " " + e.Desc
}

// Read parses every sequence from r in encounter order.
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry
	err := Scan(r, func(e Entry) bool {
		entries = append(entries, e)
		return true
	})
	return entries, err
}

// Scan calls fn for each sequence in r until fn returns false.
func Scan(r io.Reader, fn func(Entry) bool) error {
	sc := seqio.NewScanner(biofasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		if !fn(Entry{ID: s.ID, Desc: s.Desc, Letters: lettersToString(s.Seq)}) {
			return nil
		}
	}
	if err := sc.Error(); err != nil {
		return fmt.Errorf("scan FASTA: %w", err)
	}
	return nil
}

// ReadFile parses every sequence in the file at path.
// Files ending in .gz are decompressed.
func ReadFile(path string) ([]Entry, error) {
	var entries []Entry
	err := ScanFile(path, func(e Entry) bool {
		entries = append(entries, e)
		return true
	})
	return entries, err
}

// ScanFile is Scan over the file at path.
func ScanFile(path string, fn func(Entry) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return Scan(reader, fn)
}

// Find returns the first sequence in the file at path whose ID equals id.
func Find(path, id string) (Entry, bool, error) {
	var found Entry
	var ok bool
	err := ScanFile(path, func(e Entry) bool {
		if e.ID == id {
			found, ok = e, true
			return false
		}
		return true
	})
	return found, ok, err
}

// Write serializes entries to w.
func Write(w io.Writer, entries ...Entry) error {
	fw := biofasta.NewWriter(w, LineWidth)
	for _, e := range entries {
		s := linear.NewSeq(e.ID, alphabet.BytesToLetters([]byte(e.Letters)), alphabet.DNAredundant)
		s.Desc = e.Desc
		if _, err := fw.Write(s); err != nil {
			return fmt.Errorf("write sequence %s: %w", e.ID, err)
		}
	}
	return nil
}

// WriteFile writes entries to a new file at path.
func WriteFile(path string, entries ...Entry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create FASTA file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close FASTA file: %w", cerr)
		}
	}()
	return Write(f, entries...)
}

func lettersToString(l alphabet.Letters) string {
	b := make([]byte, len(l))
	for i, c := range l {
		b[i] = byte(c)
	}
	return string(b)
}
