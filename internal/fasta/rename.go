package fasta

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-snpgenie/internal/report"
)

// SequencePrefix marks sequence collection files in an annotation directory.
const SequencePrefix = "sequence"

// hostPattern captures the three-word host name that follows the closing
// bracket of an NCBI virus description, e.g. "...]_Homo_sapiens_..." .
var hostPattern = regexp.MustCompile(`^.+\]_?([a-zA-Z]+_[a-zA-Z]+_[a-zA-Z]+)_.+`)

// Renamer rewrites sequence IDs to their full description and groups the
// sequences into one reference file per host.
type Renamer struct {
	logger *zap.Logger
}

// NewRenamer creates a renamer.
func NewRenamer() *Renamer {
	return &Renamer{logger: zap.NewNop()}
}

// SetLogger sets the logger for warning and info messages.
func (r *Renamer) SetLogger(l *zap.Logger) {
	r.logger = l
}

// RenameID returns the ID a sequence is written under: its full description
// with spaces replaced by underscores.
func RenameID(e Entry) string {
	return strings.Join(strings.Fields(e.Description()), "_")
}

// IsSequenceFile reports whether path names a sequence collection file of
// an annotation directory.
func IsSequenceFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), SequencePrefix)
}

// HostOf extracts the host name from a renamed sequence ID.
func HostOf(id string) (string, bool) {
	m := hostPattern.FindStringSubmatch(id)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ReferenceFileName is the name of the reference file written for a host.
func ReferenceFileName(host string) string {
	return fmt.Sprintf("ref_%s.fa", host)
}

// RenameDir reads every sequence file in inputDir and writes one
// ref_<host>.fa per host into outputDir.
func (r *Renamer) RenameDir(inputDir, outputDir string) (*report.Summary, error) {
	sum := report.New("rename")

	dirEntries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read annotation directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create reference directory: %w", err)
	}

	byHost := make(map[string][]Entry)
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !IsSequenceFile(name) {
			continue
		}
		sum.Processed++

		entries, err := ReadFile(filepath.Join(inputDir, name))
		if err != nil {
			r.logger.Error("cannot read sequence file", zap.String("file", name), zap.Error(err))
			sum.Fail(name, err)
			continue
		}

		for _, e := range entries {
			id := RenameID(e)
			host, ok := HostOf(id)
			if !ok {
				r.logger.Warn("no host in sequence description, skipping",
					zap.String("file", name), zap.String("id", id))
				continue
			}
			byHost[host] = append(byHost[host], Entry{ID: id, Letters: e.Letters})
		}
	}

	hosts := make([]string, 0, len(byHost))
	for h := range byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	for _, h := range hosts {
		path := filepath.Join(outputDir, ReferenceFileName(h))
		if err := WriteFile(path, byHost[h]...); err != nil {
			r.logger.Error("cannot write reference file", zap.String("file", path), zap.Error(err))
			sum.Fail(path, err)
			continue
		}
		sum.Written++
		r.logger.Info("wrote reference file",
			zap.String("file", path), zap.Int("sequences", len(byHost[h])))
	}

	return sum, nil
}
