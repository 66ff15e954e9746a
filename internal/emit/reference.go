package emit

import (
	"fmt"
	"os"
	"path/filepath"
)

// MissingReferenceError is returned when a reference file exists neither
// at its recorded path nor in the local references directory.
type MissingReferenceError struct {
	Path  string
	Tried []string
}

func (e *MissingReferenceError) Error() string {
	if e.Path == "" {
		return "no reference path recorded"
	}
	return fmt.Sprintf("reference %s not found (tried %v)", e.Path, e.Tried)
}

// SequenceNotFoundError is returned when a reference file does not hold
// the sequence a VCF was called against.
type SequenceNotFoundError struct {
	Sequence  string
	Reference string
}

func (e *SequenceNotFoundError) Error() string {
	return fmt.Sprintf("sequence %s not found in %s", e.Sequence, e.Reference)
}

// ResolveReference returns path if it exists, otherwise the file with the
// same base name inside referencesDir.
func ResolveReference(path, referencesDir string) (string, error) {
	if path == "" {
		return "", &MissingReferenceError{}
	}

	tried := []string{path}
	if fileExists(path) {
		return path, nil
	}
	if referencesDir != "" {
		local := filepath.Join(referencesDir, filepath.Base(path))
		tried = append(tried, local)
		if fileExists(local) {
			return local, nil
		}
	}
	return "", &MissingReferenceError{Path: path, Tried: tried}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
