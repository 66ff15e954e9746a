package vcf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-snpgenie/internal/report"
)

// Input file suffixes.
var (
	tableSuffixes = []string{".txt", ".tsv"}
	vcfSuffixes   = []string{".vcf", ".vcf.gz"}
)

// Normalizer rewrites variant caller output into standard VCF without
// splitting it.
type Normalizer struct {
	logger    *zap.Logger
	reference string
}

// NewNormalizer creates a normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{logger: zap.NewNop()}
}

// SetLogger sets the logger for warning and info messages.
func (n *Normalizer) SetLogger(l *zap.Logger) {
	n.logger = l
}

// SetReference sets the reference path written into converted VCFs.
func (n *Normalizer) SetReference(path string) {
	n.reference = path
}

// ConvertDir converts every VarScan table (.txt or .tsv) in inputDir into
// <stem>.vcf in outputDir.
func (n *Normalizer) ConvertDir(inputDir, outputDir string) (*report.Summary, error) {
	return n.eachFile("convert", inputDir, outputDir, tableSuffixes, n.ConvertFile)
}

// ConvertFile converts one VarScan table into a VCF at out.
func (n *Normalizer) ConvertFile(in, out string) error {
	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open varscan file: %w", err)
	}
	defer f.Close()

	c, errs, err := ConvertVarScan(f, Stem(in), n.reference)
	if err != nil {
		return err
	}
	n.logDropped(in, errs)
	n.logger.Info("converted varscan table",
		zap.String("file", in),
		zap.Int("records", len(c.Records)),
		zap.Int("dropped", len(errs)))
	return c.WriteFile(out)
}

// RepairDir repairs the allele depths of every VCF in inputDir into
// <stem>.vcf in outputDir.
func (n *Normalizer) RepairDir(inputDir, outputDir string) (*report.Summary, error) {
	return n.eachFile("normalize", inputDir, outputDir, vcfSuffixes, n.RepairFile)
}

// RepairFile repairs the allele depths of one VCF into out.
func (n *Normalizer) RepairFile(in, out string) error {
	c, err := ReadContainerFile(in)
	if err != nil {
		return err
	}

	repaired, stats, errs := RepairAlleleDepth(c)
	n.logDropped(in, errs)
	if stats.AlreadyNormalized > 0 {
		n.logger.Warn("allele depths already normalized",
			zap.String("file", in),
			zap.Int("records", stats.AlreadyNormalized))
	}
	n.logger.Info("repaired allele depths",
		zap.String("file", in),
		zap.Int("repaired", stats.Repaired),
		zap.Int("dropped", stats.Dropped))
	return repaired.WriteFile(out)
}

func (n *Normalizer) eachFile(step, inputDir, outputDir string, suffixes []string, fn func(in, out string) error) (*report.Summary, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	sum := report.New(step)
	for _, de := range entries {
		if de.IsDir() || !hasAnySuffix(de.Name(), suffixes) {
			continue
		}
		sum.Processed++

		in := filepath.Join(inputDir, de.Name())
		out := filepath.Join(outputDir, Stem(de.Name())+".vcf")
		if err := fn(in, out); err != nil {
			n.logger.Error(step+" failed", zap.String("file", in), zap.Error(err))
			sum.Fail(de.Name(), err)
			continue
		}
		sum.Written++
	}
	return sum, nil
}

func (n *Normalizer) logDropped(path string, errs []error) {
	for _, err := range errs {
		n.logger.Warn("dropped record", zap.String("file", path), zap.Error(err))
	}
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
