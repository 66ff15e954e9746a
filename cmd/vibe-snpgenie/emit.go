package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-snpgenie/internal/duckdb"
	"github.com/inodb/vibe-snpgenie/internal/emit"
	"github.com/inodb/vibe-snpgenie/internal/feature"
	"github.com/inodb/vibe-snpgenie/internal/manifest"
	"github.com/inodb/vibe-snpgenie/internal/report"
)

func newEmitCmd() *cobra.Command {
	var inputDir string

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Write GTF and reference FASTA for each per-sequence VCF",
		Long: `For every .vcf in the input directory write <stem>.gtf with the coding
features of its sequence and <stem>.fasta with that sequence extracted from
its reference. The reference path comes from the ##reference line, or from
--manifest when given (keyed by the <stem> of VCF<stem>_SEQ<n>.vcf). Paths
that do not exist are looked up by base name in the references directory.`,
		Example: `  vibe-snpgenie emit
  vibe-snpgenie emit --input snpgenie_input --features full_feature_tab.csv
  vibe-snpgenie emit --manifest refs.txt --references-dir references
  vibe-snpgenie emit --db features.duckdb`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"output":         "output.dir",
				"features":       "features.table",
				"db":             "features.db",
				"manifest":       "manifest",
				"references-dir": "references.dir",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir := viper.GetString("output.dir")
			if inputDir == "" {
				inputDir = outputDir
			}
			sum, err := runEmit(emitOptions{
				inputDir:      inputDir,
				outputDir:     outputDir,
				featureTable:  viper.GetString("features.table"),
				featureDB:     viper.GetString("features.db"),
				manifestPath:  viper.GetString("manifest"),
				referencesDir: viper.GetString("references.dir"),
			})
			if err != nil {
				return err
			}
			return finish(cmd.OutOrStdout(), sum)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&inputDir, "input", "i", "", "Directory of per-sequence VCFs (default: the output directory)")
	f.StringP("output", "o", viper.GetString("output.dir"), "Directory to write GTF and FASTA files to")
	f.String("features", viper.GetString("features.table"), "Feature table CSV")
	f.String("db", viper.GetString("features.db"), "DuckDB feature store to read instead of the CSV")
	f.String("manifest", viper.GetString("manifest"), "Manifest of key@reference-path lines, or a YAML mapping")
	f.String("references-dir", viper.GetString("references.dir"), "Local directory searched for missing references")

	return cmd
}

type emitOptions struct {
	inputDir      string
	outputDir     string
	featureTable  string
	featureDB     string
	manifestPath  string
	referencesDir string
}

func runEmit(opts emitOptions) (*report.Summary, error) {
	var source emit.FeatureSource
	if opts.featureDB != "" {
		store, err := duckdb.Open(opts.featureDB)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		source = store
		logger.Info("reading features from store", zap.String("db", opts.featureDB))
	} else {
		table, err := feature.LoadCodingTable(opts.featureTable)
		if err != nil {
			return nil, err
		}
		source = table
		logger.Info("loaded feature table",
			zap.String("path", opts.featureTable),
			zap.Int("coding_rows", table.Len()))
	}

	e := emit.NewEmitter(source)
	e.SetLogger(logger)
	e.SetReferencesDir(opts.referencesDir)
	if opts.manifestPath != "" {
		m, err := manifest.Load(opts.manifestPath)
		if err != nil {
			return nil, err
		}
		e.SetManifest(m)
		logger.Info("loaded manifest",
			zap.String("path", opts.manifestPath),
			zap.Int("entries", len(m)))
	}
	return e.EmitDir(opts.inputDir, opts.outputDir)
}
