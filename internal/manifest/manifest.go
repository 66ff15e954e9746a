// Package manifest maps variant-file IDs to reference FASTA paths.
//
// Two layouts are accepted. The plain layout has one "key@path" pair per
// line; blank lines and lines starting with '#' are ignored. Files ending in
// .yaml or .yml hold a mapping of key to path.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest maps a variant-file ID to the reference path it was called against.
type Manifest map[string]string

// LookupError is returned when an ID has no manifest entry.
type LookupError struct {
	Key string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("manifest has no entry for %q", e.Key)
}

// Lookup returns the reference path for key.
func (m Manifest) Lookup(key string) (string, error) {
	p, ok := m[key]
	if !ok {
		return "", &LookupError{Key: key}
	}
	return p, nil
}

// Load reads the manifest at path, choosing the layout from its extension.
func Load(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return Parse(f)
	}
}

// Parse reads the "key@path" layout.
func Parse(r io.Reader) (Manifest, error) {
	m := make(Manifest)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "@")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("manifest line %d: expected key@path, got %q", lineNum, line)
		}
		if prev, dup := m[key]; dup && prev != value {
			return nil, fmt.Errorf("manifest line %d: key %q already maps to %s", lineNum, key, prev)
		}
		m[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	return m, nil
}

// ParseYAML reads the YAML mapping layout.
func ParseYAML(r io.Reader) (Manifest, error) {
	m := make(Manifest)
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if err == io.EOF {
			return m, nil
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
