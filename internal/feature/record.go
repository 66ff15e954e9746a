// Package feature parses NCBI feature tables and joins them into one
// table keyed by sequence name.
package feature

import (
	"fmt"
	"strings"
)

// Kind classifies a feature-table record.
type Kind string

const (
	KindGene Kind = "gene"
	KindCDS  Kind = "CDS"
	// KindCDSFrameShift marks a named coding feature whose kind token was
	// missing or neither gene nor CDS. A segment whose qualifier never arrived keeps
	// KindCDS and is flagged by Record.FrameShift instead, so each marker
	// has a single cause.
	KindCDSFrameShift Kind = "CDS_fs"
)

// Record is one feature parsed from a feature table.
// SourceIndex is the position of the ">Feature" block in its file.
type Record struct {
	SourceIndex int
	Name        string
	Kind        Kind
	Start       int64
	End         int64
	ExtraKind   string // kind token other than gene or CDS, if any
	FrameShift  bool   // coordinate line was followed by another coordinate line
}

// IsCoding reports whether the record takes part in GTF emission.
func (r Record) IsCoding() bool {
	return r.Kind != KindGene
}

// Row is a record resolved to the sequence it annotates.
type Row struct {
	Source   string // annotation source key
	Sequence string // sequence description, whitespace collapsed to '_'
	Record
}

// UnresolvedSequenceIndexError is reported when a record's block index has no
// matching sequence in the source's sequence collection.
type UnresolvedSequenceIndexError struct {
	Source string
	Index  int
	Count  int // sequences available in the source
}

func (e *UnresolvedSequenceIndexError) Error() string {
	return fmt.Sprintf("feature source %s: block %d has no sequence (%d sequences)", e.Source, e.Index, e.Count)
}

// collapseSpace replaces every run of whitespace with a single underscore.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), "_")
}
