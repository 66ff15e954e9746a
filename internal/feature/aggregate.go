package feature

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-snpgenie/internal/fasta"
	"github.com/inodb/vibe-snpgenie/internal/report"
)

// Annotation directory naming: "Feature table file-<key>.txt" pairs with
// "sequence_<key>.txt".
const (
	featureFilePrefix  = "Feature table file-"
	sequenceFilePrefix = "sequence_"
	sourceFileSuffix   = ".txt"
)

// Source is one annotation source: a feature table and the sequence
// collection whose order its ">Feature" blocks follow.
type Source struct {
	Key          string
	FeaturePath  string
	SequencePath string // empty when no sequence file was found
}

// DiscoverSources pairs the feature-table and sequence files in dir.
// Sources are returned sorted by key.
func DiscoverSources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read annotation directory: %w", err)
	}

	features := make(map[string]string)
	sequences := make(map[string]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		switch {
		case strings.HasPrefix(name, featureFilePrefix):
			key := strings.TrimSuffix(strings.TrimPrefix(name, featureFilePrefix), sourceFileSuffix)
			features[key] = filepath.Join(dir, name)
		case strings.HasPrefix(name, sequenceFilePrefix):
			key := strings.TrimSuffix(strings.TrimPrefix(name, sequenceFilePrefix), sourceFileSuffix)
			sequences[key] = filepath.Join(dir, name)
		}
	}

	sources := make([]Source, 0, len(features))
	for key, path := range features {
		sources = append(sources, Source{Key: key, FeaturePath: path, SequencePath: sequences[key]})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Key < sources[j].Key })
	return sources, nil
}

// Aggregator joins the feature tables of several sources into one Table.
type Aggregator struct {
	logger *zap.Logger
	parser *Parser
}

// NewAggregator creates an aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		logger: zap.NewNop(),
		parser: NewParser(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (a *Aggregator) SetLogger(l *zap.Logger) {
	a.logger = l
	a.parser.SetLogger(l)
}

// AggregateDir discovers the sources in dir and aggregates them.
func (a *Aggregator) AggregateDir(dir string) (*Table, *report.Summary, error) {
	sources, err := DiscoverSources(dir)
	if err != nil {
		return nil, nil, err
	}
	t, sum := a.Aggregate(sources)
	return t, sum, nil
}

// Aggregate parses and resolves every source in order. A source that cannot
// be read is recorded in the summary and left out of the table.
func (a *Aggregator) Aggregate(sources []Source) (*Table, *report.Summary) {
	sum := report.New("features")
	t := &Table{}
	owner := make(map[string]string) // sequence -> source key

	for _, src := range sources {
		sum.Processed++

		rows, err := a.aggregateSource(src)
		if err != nil {
			a.logger.Error("cannot aggregate feature source",
				zap.String("source", src.Key), zap.Error(err))
			sum.Fail(src.Key, err)
			continue
		}
		if len(rows) == 0 {
			sum.Skipped++
			continue
		}
		sum.Written++

		seen := make(map[string]bool)
		for _, r := range rows {
			if seen[r.Sequence] {
				continue
			}
			seen[r.Sequence] = true
			if prev, dup := owner[r.Sequence]; dup {
				a.logger.Warn("sequence annotated by more than one source",
					zap.String("sequence", r.Sequence),
					zap.String("source", src.Key),
					zap.String("first_source", prev))
				continue
			}
			owner[r.Sequence] = src.Key
		}

		t.Rows = append(t.Rows, rows...)
	}

	return t, sum
}

func (a *Aggregator) aggregateSource(src Source) ([]Row, error) {
	if src.SequencePath == "" {
		return nil, fmt.Errorf("no sequence file for feature source %q", src.Key)
	}

	f, err := os.Open(src.FeaturePath)
	if err != nil {
		return nil, fmt.Errorf("open feature table: %w", err)
	}
	defer f.Close()

	records, err := a.parser.Parse(f)
	if err != nil {
		return nil, err
	}

	entries, err := fasta.ReadFile(src.SequencePath)
	if err != nil {
		return nil, err
	}
	descriptions := make([]string, len(entries))
	for i, e := range entries {
		descriptions[i] = e.Description()
	}

	rows, unresolved := Resolve(src.Key, records, descriptions)
	for _, err := range unresolved {
		a.logger.Warn("dropping feature row", zap.String("source", src.Key), zap.Error(err))
	}

	a.logger.Info("aggregated feature source",
		zap.String("source", src.Key),
		zap.Int("records", len(records)),
		zap.Int("rows", len(rows)),
		zap.Int("sequences", len(entries)))

	return rows, nil
}

// Resolve maps each record's block index to the description of the sequence
// at the same position. Records whose index has no sequence are left out and
// reported as *UnresolvedSequenceIndexError.
func Resolve(key string, records []Record, descriptions []string) ([]Row, []error) {
	byIndex := make(map[int]string, len(descriptions))
	for i, d := range descriptions {
		byIndex[i] = collapseSpace(d)
	}

	rows := make([]Row, 0, len(records))
	var errs []error
	for _, rec := range records {
		seq, ok := byIndex[rec.SourceIndex]
		if !ok {
			errs = append(errs, &UnresolvedSequenceIndexError{Source: key, Index: rec.SourceIndex, Count: len(descriptions)})
			continue
		}
		resolved := rec
		resolved.Name = collapseSpace(rec.Name)
		rows = append(rows, Row{Source: key, Sequence: seq, Record: resolved})
	}
	return rows, errs
}
