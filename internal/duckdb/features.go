package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-snpgenie/internal/feature"
)

// WriteFeatures batch-inserts feature rows using the Appender API.
// Rows keep their order relative to rows already stored.
func (s *Store) WriteFeatures(rows []feature.Row) error {
	if len(rows) == 0 {
		return nil
	}

	offset, err := s.FeatureCount()
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "features")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, r := range rows {
		if err := appender.AppendRow(
			offset+int64(i), r.Source, r.Sequence, r.Name, string(r.Kind),
			r.Start, r.End, r.ExtraKind, r.FrameShift,
		); err != nil {
			return fmt.Errorf("append feature: %w", err)
		}
	}

	return appender.Flush()
}

// ReplaceFeatures clears the stored features and writes the rows of t.
func (s *Store) ReplaceFeatures(t *feature.Table) error {
	if err := s.ClearFeatures(); err != nil {
		return fmt.Errorf("clear features: %w", err)
	}
	return s.WriteFeatures(t.Rows)
}

// ClearFeatures removes all stored features.
func (s *Store) ClearFeatures() error {
	_, err := s.db.Exec("DELETE FROM features")
	return err
}

// FeatureCount returns the number of stored feature rows.
func (s *Store) FeatureCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM features").Scan(&n); err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return n, nil
}

// CodingFeatures returns the non-gene features of a sequence in table order.
func (s *Store) CodingFeatures(sequence string) ([]feature.Row, error) {
	rows, err := s.db.Query(`SELECT
		source_key, sequence, name, kind, start_pos, end_pos, extra_kind, frame_shift
		FROM features
		WHERE sequence=? AND kind<>?
		ORDER BY row_order`, sequence, string(feature.KindGene))
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	return scanFeatures(rows)
}

// Table returns every stored feature row in table order.
func (s *Store) Table() (*feature.Table, error) {
	rows, err := s.db.Query(`SELECT
		source_key, sequence, name, kind, start_pos, end_pos, extra_kind, frame_shift
		FROM features
		ORDER BY row_order`)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	out, err := scanFeatures(rows)
	if err != nil {
		return nil, err
	}
	return &feature.Table{Rows: out}, nil
}

// scanFeatures scans rows into feature rows.
func scanFeatures(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]feature.Row, error) {
	var out []feature.Row
	for rows.Next() {
		var r feature.Row
		var kind string
		if err := rows.Scan(
			&r.Source, &r.Sequence, &r.Name, &kind,
			&r.Start, &r.End, &r.ExtraKind, &r.FrameShift,
		); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		r.Kind = feature.Kind(kind)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate features: %w", err)
	}
	return out, nil
}
