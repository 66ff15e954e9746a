package feature

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column names of the persisted feature table.
const (
	ColSource     = "source"
	ColSequence   = "sequence"
	ColName       = "name"
	ColKind       = "kind"
	ColStart      = "start"
	ColEnd        = "end"
	ColExtraKind  = "extra_kind"
	ColFrameShift = "frame_shift"
)

// Columns is the column order of the persisted feature table.
var Columns = []string{ColSource, ColSequence, ColName, ColKind, ColStart, ColEnd, ColExtraKind, ColFrameShift}

// loadOptions keep every cell as the literal string that was written.
var loadOptions = []dataframe.LoadOption{
	dataframe.DetectTypes(false),
	dataframe.DefaultType(series.String),
	dataframe.NaNValues(nil),
}

// frameShiftMarker is written in the frame_shift column of marked rows.
const frameShiftMarker = "frame_shift"

// Table is the unified feature table of all annotation sources.
type Table struct {
	Rows []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Coding returns a table without gene rows.
func (t *Table) Coding() *Table {
	out := &Table{Rows: make([]Row, 0, len(t.Rows))}
	for _, r := range t.Rows {
		if r.IsCoding() {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// CodingFeatures returns the non-gene rows annotating sequence, in table order.
func (t *Table) CodingFeatures(sequence string) ([]Row, error) {
	var rows []Row
	for _, r := range t.Rows {
		if r.Sequence == sequence && r.IsCoding() {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// Records returns the table as string records, header first.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, append([]string(nil), Columns...))
	for _, r := range t.Rows {
		fs := ""
		if r.FrameShift {
			fs = frameShiftMarker
		}
		records = append(records, []string{
			r.Source,
			r.Sequence,
			r.Name,
			string(r.Kind),
			strconv.FormatInt(r.Start, 10),
			strconv.FormatInt(r.End, 10),
			r.ExtraKind,
			fs,
		})
	}
	return records
}

// WriteCSV writes the table as comma-separated text with a header line.
func (t *Table) WriteCSV(w io.Writer) error {
	if len(t.Rows) == 0 {
		_, err := io.WriteString(w, strings.Join(Columns, ",")+"\n")
		return err
	}

	df := dataframe.LoadRecords(t.Records(), loadOptions...)
	if df.Err != nil {
		return fmt.Errorf("build feature dataframe: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write feature table: %w", err)
	}
	return nil
}

// WriteFile writes the table to a new CSV file at path.
func (t *Table) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create feature table: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close feature table: %w", cerr)
		}
	}()
	return t.WriteCSV(f)
}

// ReadTableCSV reads a table written by WriteCSV.
func ReadTableCSV(r io.Reader) (*Table, error) {
	return readTable(r, false)
}

// LoadCodingTable reads the feature table at path, dropping gene rows.
func LoadCodingTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature table: %w", err)
	}
	defer f.Close()

	return readTable(f, true)
}

func readTable(r io.Reader, codingOnly bool) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feature table: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	if err := checkColumns(records[0]); err != nil {
		return nil, err
	}
	// dataframes cannot be built from a header alone
	if len(records) == 1 {
		return tableFromRecords(records)
	}

	df := dataframe.LoadRecords(records, loadOptions...).Select(Columns)
	if df.Err != nil {
		return nil, fmt.Errorf("read feature table: %w", df.Err)
	}

	if codingOnly {
		df = df.Filter(dataframe.F{
			Colname:    ColKind,
			Comparator: series.Neq,
			Comparando: string(KindGene),
		})
		if df.Err != nil {
			return nil, fmt.Errorf("filter gene rows: %w", df.Err)
		}
	}

	return tableFromRecords(df.Records())
}

func checkColumns(header []string) error {
	have := make(map[string]bool, len(header))
	for _, name := range header {
		have[name] = true
	}
	for _, c := range Columns {
		if !have[c] {
			return fmt.Errorf("feature table: missing column %q", c)
		}
	}
	return nil
}

// tableFromRecords builds rows from records whose header carries Columns.
func tableFromRecords(records [][]string) (*Table, error) {
	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}

	t := &Table{Rows: make([]Row, 0, len(records)-1)}
	for n, rec := range records[1:] {
		start, err := strconv.ParseInt(rec[idx[ColStart]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("feature table row %d: invalid start %q", n+1, rec[idx[ColStart]])
		}
		end, err := strconv.ParseInt(rec[idx[ColEnd]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("feature table row %d: invalid end %q", n+1, rec[idx[ColEnd]])
		}

		t.Rows = append(t.Rows, Row{
			Source:   rec[idx[ColSource]],
			Sequence: rec[idx[ColSequence]],
			Record: Record{
				Name:       rec[idx[ColName]],
				Kind:       Kind(rec[idx[ColKind]]),
				Start:      start,
				End:        end,
				ExtraKind:  rec[idx[ColExtraKind]],
				FrameShift: rec[idx[ColFrameShift]] != "",
			},
		})
	}
	return t, nil
}
