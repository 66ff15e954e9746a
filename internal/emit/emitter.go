// Package emit writes the GTF annotation and single-sequence reference
// FASTA that accompany each per-sequence VCF.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-snpgenie/internal/fasta"
	"github.com/inodb/vibe-snpgenie/internal/feature"
	"github.com/inodb/vibe-snpgenie/internal/manifest"
	"github.com/inodb/vibe-snpgenie/internal/report"
	"github.com/inodb/vibe-snpgenie/internal/vcf"
)

// FeatureSource provides the coding features of a sequence.
type FeatureSource interface {
	CodingFeatures(sequence string) ([]feature.Row, error)
}

// Result describes the files written for one VCF.
type Result struct {
	VCF       string
	Sequence  string
	Reference string // resolved reference file
	GTF       string
	FASTA     string
	Features  int
}

// Emitter writes <stem>.gtf and <stem>.fasta for every VCF of a directory.
type Emitter struct {
	logger        *zap.Logger
	features      FeatureSource
	manifest      manifest.Manifest
	referencesDir string
}

// NewEmitter creates an emitter reading features from fs.
func NewEmitter(fs FeatureSource) *Emitter {
	return &Emitter{
		logger:        zap.NewNop(),
		features:      fs,
		referencesDir: "references",
	}
}

// SetLogger sets the logger for warning and info messages.
func (e *Emitter) SetLogger(l *zap.Logger) {
	e.logger = l
}

// SetManifest makes the emitter take reference paths from m instead of the
// ##reference line of each VCF.
func (e *Emitter) SetManifest(m manifest.Manifest) {
	e.manifest = m
}

// SetReferencesDir sets the local directory searched by base name when a
// reference path does not exist.
func (e *Emitter) SetReferencesDir(dir string) {
	e.referencesDir = dir
}

// EmitDir processes every .vcf file of inputDir. A file that fails is
// recorded in the summary and does not stop the batch.
func (e *Emitter) EmitDir(inputDir, outputDir string) (*report.Summary, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read vcf directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	sum := report.New("emit")
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".vcf") {
			continue
		}
		sum.Processed++

		path := filepath.Join(inputDir, de.Name())
		res, err := e.EmitFile(path, outputDir)
		if err != nil {
			e.logger.Error("emit failed", zap.String("file", path), zap.Error(err))
			sum.Fail(de.Name(), err)
			continue
		}
		if res == nil {
			sum.Skipped++
			continue
		}
		sum.Written += 2
	}
	return sum, nil
}

// EmitFile writes the GTF and reference FASTA for the VCF at path. It
// returns a nil Result when the VCF has no data lines.
func (e *Emitter) EmitFile(path, outputDir string) (*Result, error) {
	c, err := vcf.ReadContainerFile(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	sequence, ok := c.FirstChrom()
	if !ok {
		e.logger.Warn("vcf has no variants, skipping", zap.String("file", path))
		return nil, nil
	}

	refPath, err := e.referencePath(name, c)
	if err != nil {
		return nil, err
	}
	resolved, err := ResolveReference(refPath, e.referencesDir)
	if err != nil {
		return nil, err
	}

	rows, err := e.features.CodingFeatures(sequence)
	if err != nil {
		return nil, fmt.Errorf("look up features of %s: %w", sequence, err)
	}
	if len(rows) == 0 {
		e.logger.Warn("no coding features for sequence",
			zap.String("file", path),
			zap.String("sequence", sequence))
	}

	entry, found, err := fasta.Find(resolved, sequence)
	if err != nil {
		return nil, fmt.Errorf("read reference: %w", err)
	}
	if !found {
		return nil, &SequenceNotFoundError{Sequence: sequence, Reference: resolved}
	}

	stem := vcf.Stem(name)
	res := &Result{
		VCF:       path,
		Sequence:  sequence,
		Reference: resolved,
		GTF:       filepath.Join(outputDir, stem+".gtf"),
		FASTA:     filepath.Join(outputDir, stem+".fasta"),
		Features:  len(rows),
	}
	if err := WriteGTFFile(res.GTF, name, rows); err != nil {
		return nil, err
	}
	if err := fasta.WriteFile(res.FASTA, entry); err != nil {
		return nil, err
	}

	e.logger.Info("emitted annotation",
		zap.String("file", path),
		zap.String("sequence", sequence),
		zap.String("reference", resolved),
		zap.Int("features", len(rows)))
	return res, nil
}

// referencePath returns the manifest entry for the VCF when a manifest is
// set, otherwise its ##reference path.
func (e *Emitter) referencePath(name string, c *vcf.Container) (string, error) {
	if e.manifest != nil {
		return e.manifest.Lookup(ManifestKey(name))
	}
	p, _ := c.ReferencePath()
	return p, nil
}

// ManifestKey returns the manifest key of a VCF file name: the source stem
// of a split part (VCF<stem>_SEQ<n>.vcf), otherwise the file stem.
func ManifestKey(name string) string {
	if stem, _, ok := vcf.ParsePartFileName(name); ok {
		return stem
	}
	return vcf.Stem(name)
}
