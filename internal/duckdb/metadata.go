package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func formatModTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// RecordSourceFile stores the fingerprint of a file the features were
// built from, replacing any earlier entry for the same path.
func (s *Store) RecordSourceFile(fp FileFingerprint, role string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO source_files VALUES (?, ?, ?, ?)`,
		fp.Path, role, fp.Size, formatModTime(fp.ModTime))
	if err != nil {
		return fmt.Errorf("record source file %s: %w", fp.Path, err)
	}
	return nil
}

// ClearSourceFiles removes all stored fingerprints.
func (s *Store) ClearSourceFiles() error {
	_, err := s.db.Exec("DELETE FROM source_files")
	return err
}

// SourceFile is a stored fingerprint with the role the file played.
type SourceFile struct {
	FileFingerprint
	Role string
}

// SourceFiles returns the stored fingerprints ordered by path.
func (s *Store) SourceFiles() ([]SourceFile, error) {
	rows, err := s.db.Query(`SELECT path, role, size, mod_time FROM source_files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query source files: %w", err)
	}
	defer rows.Close()

	var out []SourceFile
	for rows.Next() {
		var fp SourceFile
		var modTime string
		if err := rows.Scan(&fp.Path, &fp.Role, &fp.Size, &modTime); err != nil {
			return nil, fmt.Errorf("scan source file: %w", err)
		}
		fp.ModTime, err = time.Parse(time.RFC3339Nano, modTime)
		if err != nil {
			return nil, fmt.Errorf("parse mod time of %s: %w", fp.Path, err)
		}
		out = append(out, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source files: %w", err)
	}
	return out, nil
}

// Fresh reports whether the stored fingerprints are exactly fps, meaning
// the stored features were built from these files as they are now.
func (s *Store) Fresh(fps []FileFingerprint) (bool, error) {
	stored := make(map[string]string)
	rows, err := s.db.Query(`SELECT path, size, mod_time FROM source_files`)
	if err != nil {
		return false, fmt.Errorf("query source files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path, modTime string
		var size int64
		if err := rows.Scan(&path, &size, &modTime); err != nil {
			return false, fmt.Errorf("scan source file: %w", err)
		}
		stored[path] = fmt.Sprintf("%d@%s", size, modTime)
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	if len(stored) == 0 || len(stored) != len(fps) {
		return false, nil
	}
	for _, fp := range fps {
		if stored[fp.Path] != fmt.Sprintf("%d@%s", fp.Size, formatModTime(fp.ModTime)) {
			return false, nil
		}
	}
	return true, nil
}
