package vcf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-snpgenie/internal/report"
)

// Mode selects how the input files of a split are shaped.
type Mode string

const (
	// ModeGeneric splits VCFs whose sequences are declared by ##contig lines.
	ModeGeneric Mode = "generic"
	// ModeCallerARaw converts VarScan tabular output before splitting.
	ModeCallerARaw Mode = "caller-a-raw"
	// ModeCallerANormalized repairs allele depths before a generic split.
	ModeCallerANormalized Mode = "caller-a-normalized"
	// ModeCallerB splits VCFs without contig declarations.
	ModeCallerB Mode = "caller-b"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeGeneric, ModeCallerARaw, ModeCallerANormalized, ModeCallerB}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown split mode %q (want one of generic, caller-a-raw, caller-a-normalized, caller-b)", s)
}

// Splitter writes one VCF per sequence for every input file of a directory.
type Splitter struct {
	logger    *zap.Logger
	mode      Mode
	reference string
}

// NewSplitter creates a splitter for the given input mode.
func NewSplitter(mode Mode) *Splitter {
	return &Splitter{
		logger: zap.NewNop(),
		mode:   mode,
	}
}

// SetLogger sets the logger for warning and info messages.
func (s *Splitter) SetLogger(l *zap.Logger) {
	s.logger = l
}

// SetReference sets the reference path written into VCFs converted from
// tabular input.
func (s *Splitter) SetReference(path string) {
	s.reference = path
}

// Accepts reports whether name is an input file for the splitter's mode.
func (s *Splitter) Accepts(name string) bool {
	if s.mode == ModeCallerARaw {
		return hasAnySuffix(name, tableSuffixes)
	}
	return hasAnySuffix(name, vcfSuffixes)
}

// SplitDir splits every accepted file of inputDir into outputDir.
// A failed file is recorded in the summary and does not stop the batch.
func (s *Splitter) SplitDir(inputDir, outputDir string) (*report.Summary, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read vcf directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	sum := report.New("split")
	for _, de := range entries {
		if de.IsDir() || !s.Accepts(de.Name()) {
			continue
		}
		sum.Processed++

		path := filepath.Join(inputDir, de.Name())
		written, err := s.SplitFile(path, outputDir)
		if err != nil {
			s.logger.Error("split failed", zap.String("file", path), zap.Error(err))
			sum.Fail(de.Name(), err)
			continue
		}
		if written == 0 {
			sum.Skipped++
		}
		sum.Written += written
	}
	return sum, nil
}

// SplitFile splits one input file into outputDir and returns the number of
// files written. Sequences without data lines are not written.
func (s *Splitter) SplitFile(path, outputDir string) (int, error) {
	stem := Stem(filepath.Base(path))

	parts, err := s.parts(path, stem)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, p := range parts {
		if p.Container.Empty() {
			s.logger.Debug("no variants for sequence",
				zap.String("file", path),
				zap.String("chrom", p.Chrom))
			continue
		}
		out := filepath.Join(outputDir, PartFileName(stem, p.Index))
		if err := p.Container.WriteFile(out); err != nil {
			return written, err
		}
		written++
	}
	s.logger.Info("split vcf",
		zap.String("file", path),
		zap.Int("sequences", len(parts)),
		zap.Int("written", written))
	return written, nil
}

func (s *Splitter) parts(path, stem string) ([]Part, error) {
	if s.mode == ModeCallerARaw {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open varscan file: %w", err)
		}
		defer f.Close()

		c, errs, err := ConvertVarScan(f, stem, s.reference)
		if err != nil {
			return nil, err
		}
		s.logUnrecognized(path, errs)
		return SplitBySequence(c), nil
	}

	c, err := ReadContainerFile(path)
	if err != nil {
		return nil, err
	}

	switch s.mode {
	case ModeCallerB:
		return SplitBySequence(c), nil
	case ModeCallerANormalized:
		repaired, stats, errs := RepairAlleleDepth(c)
		s.logUnrecognized(path, errs)
		s.logger.Debug("repaired allele depths",
			zap.String("file", path),
			zap.Int("repaired", stats.Repaired),
			zap.Int("already_normalized", stats.AlreadyNormalized),
			zap.Int("dropped", stats.Dropped))
		c = repaired
	}
	return SplitByContig(c)
}

func (s *Splitter) logUnrecognized(path string, errs []error) {
	for _, err := range errs {
		s.logger.Warn("dropped record", zap.String("file", path), zap.Error(err))
	}
}

// Stem returns a file name without its directory, a trailing .gz and its
// extension.
func Stem(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, ".gz")
	return strings.TrimSuffix(name, filepath.Ext(name))
}
