package vcf

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column positions of a VarScan tabular row.
const (
	varScanChrom = iota
	varScanPosition
	varScanRef
	varScanVar
	varScanFilter
	varScanMetrics
	varScanColumns
)

// varScanSelection keeps the columns a VCF record is built from, dropping
// any trailing per-sample columns.
var varScanSelection = []int{
	varScanChrom, varScanPosition, varScanRef, varScanVar, varScanFilter, varScanMetrics,
}

// varScanLineColumn carries each row's line number in the source table
// through the filters so rejected rows can be reported.
const varScanLineColumn = "source_line"

// Positions of the depth values inside the colon-joined metrics column,
// e.g. "1:50:12:24%" gives DP=50 and AD=12,24%.
const (
	metricsDP       = 1
	metricsADFirst  = 2
	metricsADSecond = 3
)

// varScanMetaLines is the fixed metadata header of a converted file.
// The reference path is filled in by ConvertVarScan.
var varScanMetaLines = []string{
	"##fileformat=VCFv4.2",
	"##source=VarScan2",
	"##reference=file://%s",
	`##INFO=<ID=DP,Number=1,Type=Integer,Description="Total depth of quality bases">`,
	`##INFO=<ID=AD,Number=R,Type=String,Description="Depth of reference-supporting and variant-supporting bases">`,
	`##FILTER=<ID=PASS,Description="All filters passed">`,
	`##FILTER=<ID=str10,Description="Less than 10% or more than 90% of variant supporting reads on one strand">`,
	`##FORMAT=<ID=DP,Number=1,Type=Integer,Description="Read depth">`,
	`##FORMAT=<ID=AD,Number=R,Type=String,Description="Allele depths">`,
}

var columnLineFields = []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO", "FORMAT"}

// ConvertVarScan converts VarScan tabular output (with a header row) into a
// single-sample VCF. Rows that cannot be converted are dropped and returned
// as *UnrecognizedRecordError; a table that cannot be read at all is an
// error.
func ConvertVarScan(r io.Reader, sample, reference string) (*Container, []error, error) {
	c := &Container{Header: varScanHeader(sample, reference)}

	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.LazyQuotes = true
	records, err := tsv.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read varscan table: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read varscan table: missing header row")
	}
	if len(records[0]) < varScanColumns {
		return nil, nil, fmt.Errorf("varscan table has %d columns, need %d", len(records[0]), varScanColumns)
	}
	if len(records) == 1 {
		return c, nil, nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	lines := make([]int, df.Nrow())
	for i := range lines {
		lines[i] = i + 2 // header row is line 1
	}
	df = df.Select(varScanSelection).
		Mutate(series.New(lines, series.Int, varScanLineColumn))
	if df.Err != nil {
		return nil, nil, fmt.Errorf("load varscan table: %w", df.Err)
	}

	usable := df.
		Filter(dataframe.F{Colidx: varScanPosition, Comparator: series.CompFunc, Comparando: validPosition}).
		Filter(dataframe.F{Colidx: varScanMetrics, Comparator: series.CompFunc, Comparando: completeMetrics})
	rejected := df.Filter(
		dataframe.F{Colidx: varScanPosition, Comparator: series.CompFunc, Comparando: negate(validPosition)},
		dataframe.F{Colidx: varScanMetrics, Comparator: series.CompFunc, Comparando: negate(completeMetrics)},
	)
	if usable.Err != nil {
		return nil, nil, fmt.Errorf("filter varscan table: %w", usable.Err)
	}
	if rejected.Err != nil {
		return nil, nil, fmt.Errorf("filter varscan table: %w", rejected.Err)
	}

	for _, row := range usable.Records()[1:] {
		line, err := varScanRecord(row)
		if err != nil {
			return nil, nil, fmt.Errorf("convert varscan row %s: %w", row[varScanColumns], err)
		}
		c.Records = append(c.Records, line)
	}

	var errs []error
	for _, row := range rejected.Records()[1:] {
		_, reason := varScanRecord(row)
		if reason == nil {
			continue
		}
		n, _ := strconv.Atoi(row[varScanColumns])
		errs = append(errs, &UnrecognizedRecordError{
			Line:   n,
			Record: strings.Join(row[:varScanColumns], "\t"),
			Reason: reason.Error(),
		})
	}
	return c, errs, nil
}

// validPosition reports whether a position cell holds an integer.
func validPosition(e series.Element) bool {
	_, err := strconv.ParseInt(e.String(), 10, 64)
	return err == nil
}

// completeMetrics reports whether a metrics cell carries both depth values.
func completeMetrics(e series.Element) bool {
	return strings.Count(e.String(), ":") >= metricsADSecond
}

func negate(f func(series.Element) bool) func(series.Element) bool {
	return func(e series.Element) bool { return !f(e) }
}

func varScanHeader(sample, reference string) []string {
	header := make([]string, 0, len(varScanMetaLines)+1)
	for _, line := range varScanMetaLines {
		if strings.HasPrefix(line, referencePrefix) {
			line = fmt.Sprintf(line, reference)
		}
		header = append(header, line)
	}
	columns := append(append([]string(nil), columnLineFields...), sample)
	return append(header, strings.Join(columns, "\t"))
}

func varScanRecord(row []string) (string, error) {
	pos, err := strconv.ParseInt(row[varScanPosition], 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid position: %s", row[varScanPosition])
	}

	metrics := strings.Split(row[varScanMetrics], ":")
	if len(metrics) <= metricsADSecond {
		return "", fmt.Errorf("metrics %q have %d fields, need %d", row[varScanMetrics], len(metrics), metricsADSecond+1)
	}
	dp := metrics[metricsDP]
	ad := metrics[metricsADFirst] + "," + metrics[metricsADSecond]

	v := Variant{
		Chrom:  row[varScanChrom],
		Pos:    pos,
		ID:     ".",
		Ref:    row[varScanRef],
		Alt:    row[varScanVar],
		Qual:   ".",
		Filter: row[varScanFilter],
		Info:   fmt.Sprintf("DP=%s;AD=%s", dp, ad),
		Format: "DP:AD",
		Sample: dp + ":" + ad,
	}
	return v.String(), nil
}
