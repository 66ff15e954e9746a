package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-snpgenie/internal/duckdb"
	"github.com/inodb/vibe-snpgenie/internal/fasta"
	"github.com/inodb/vibe-snpgenie/internal/feature"
	"github.com/inodb/vibe-snpgenie/internal/report"
)

func newFeaturesCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Aggregate feature tables into one CSV",
		Long: `Parse every "Feature table file-<key>.txt" in the annotations directory,
resolve its records against "sequence_<key>.txt" and write the unified
feature table as CSV. With --db the table is also stored in DuckDB and
the step is skipped when no source file changed since the last run.`,
		Example: `  vibe-snpgenie features
  vibe-snpgenie features --annotations-dir annotation_files --output full_feature_tab.csv
  vibe-snpgenie features --db features.duckdb`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"annotations-dir": "annotations.dir",
				"output":          "features.table",
				"db":              "features.db",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := runFeatures(
				viper.GetString("annotations.dir"),
				viper.GetString("features.table"),
				viper.GetString("features.db"),
				force,
			)
			if err != nil {
				return err
			}
			return finish(cmd.OutOrStdout(), sum)
		},
	}

	f := cmd.Flags()
	f.String("annotations-dir", viper.GetString("annotations.dir"), "Directory of feature tables and sequence files")
	f.StringP("output", "o", viper.GetString("features.table"), "Feature table CSV to write")
	f.String("db", viper.GetString("features.db"), "DuckDB file to store the features in (optional)")
	f.BoolVar(&force, "force", false, "Rebuild even if the DuckDB store is up to date")

	return cmd
}

func runFeatures(annotationsDir, tablePath, dbPath string, force bool) (*report.Summary, error) {
	sources, err := feature.DiscoverSources(annotationsDir)
	if err != nil {
		return nil, err
	}

	var store *duckdb.Store
	var fps []duckdb.FileFingerprint
	if dbPath != "" {
		store, err = duckdb.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		fps = sourceFingerprints(sources)
		if !force {
			fresh, err := store.Fresh(fps)
			if err != nil {
				return nil, err
			}
			if fresh && fileExists(tablePath) {
				logger.Info("feature store is up to date", zap.String("db", dbPath))
				sum := report.New("features")
				sum.Skipped = len(sources)
				return sum, nil
			}
		}
	}

	agg := feature.NewAggregator()
	agg.SetLogger(logger)
	table, sum := agg.Aggregate(sources)

	if err := table.WriteFile(tablePath); err != nil {
		return nil, err
	}
	logger.Info("wrote feature table",
		zap.String("path", tablePath),
		zap.Int("rows", table.Len()))

	if store != nil {
		if err := saveFeatures(store, table, fps); err != nil {
			return nil, err
		}
		logger.Info("stored features", zap.String("db", dbPath))
	}
	return sum, nil
}

func saveFeatures(store *duckdb.Store, table *feature.Table, fps []duckdb.FileFingerprint) error {
	if err := store.ReplaceFeatures(table); err != nil {
		return err
	}
	if err := store.ClearSourceFiles(); err != nil {
		return fmt.Errorf("clear source files: %w", err)
	}
	for _, fp := range fps {
		role := "feature"
		if fasta.IsSequenceFile(fp.Path) {
			role = "sequence"
		}
		if err := store.RecordSourceFile(fp, role); err != nil {
			return err
		}
	}
	return nil
}

// sourceFingerprints stats every file of the sources. Files that cannot be
// stated are left out, which makes the store look stale.
func sourceFingerprints(sources []feature.Source) []duckdb.FileFingerprint {
	var fps []duckdb.FileFingerprint
	for _, src := range sources {
		for _, path := range []string{src.FeaturePath, src.SequencePath} {
			if path == "" {
				continue
			}
			fp, err := duckdb.StatFile(path)
			if err != nil {
				logger.Debug("cannot stat source file", zap.String("file", path), zap.Error(err))
				continue
			}
			fps = append(fps, fp)
		}
	}
	return fps
}

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Write one reference FASTA per host",
		Long: `Read every sequence_* file in the annotations directory, rename each
sequence to its full description (spaces become underscores) and write the
sequences grouped by host as ref_<host>.fa into the references directory.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"annotations-dir": "annotations.dir",
				"references-dir":  "references.dir",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r := fasta.NewRenamer()
			r.SetLogger(logger)
			sum, err := r.RenameDir(viper.GetString("annotations.dir"), viper.GetString("references.dir"))
			if err != nil {
				return err
			}
			return finish(cmd.OutOrStdout(), sum)
		},
	}

	f := cmd.Flags()
	f.String("annotations-dir", viper.GetString("annotations.dir"), "Directory of sequence_* files")
	f.String("references-dir", viper.GetString("references.dir"), "Directory to write ref_<host>.fa files to")

	return cmd
}

// finish prints the summary and turns per-file failures into an error.
func finish(w io.Writer, sum *report.Summary) error {
	if _, err := sum.WriteTo(w); err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%s: %d of %d files failed", sum.Step, sum.Failed, sum.Processed)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
