package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-snpgenie/internal/fasta"
	"github.com/inodb/vibe-snpgenie/internal/report"
)

func newPipelineCmd() *cobra.Command {
	var (
		rename bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run features, split and emit in sequence",
		Long: `Run the whole preparation: aggregate the feature tables, optionally write
per-host references, split the variant files and emit GTF and FASTA for
every per-sequence VCF. A step whose files partly failed does not stop the
next step; the command fails at the end if any file failed.`,
		Example: `  vibe-snpgenie run
  vibe-snpgenie run --rename --mode caller-b --input vcf_files`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"annotations-dir": "annotations.dir",
				"features":        "features.table",
				"db":              "features.db",
				"input":           "vcf.input",
				"output":          "output.dir",
				"mode":            "vcf.mode",
				"reference":       "vcf.reference",
				"manifest":        "manifest",
				"references-dir":  "references.dir",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			total := report.New("run")

			step := func(sum *report.Summary, err error) error {
				if err != nil {
					return err
				}
				if _, err := sum.WriteTo(out); err != nil {
					return err
				}
				total.Merge(sum)
				return nil
			}

			if err := step(runFeatures(
				viper.GetString("annotations.dir"),
				viper.GetString("features.table"),
				viper.GetString("features.db"),
				force,
			)); err != nil {
				return fmt.Errorf("features: %w", err)
			}

			if rename {
				r := fasta.NewRenamer()
				r.SetLogger(logger)
				if err := step(r.RenameDir(viper.GetString("annotations.dir"), viper.GetString("references.dir"))); err != nil {
					return fmt.Errorf("rename: %w", err)
				}
			}

			if err := step(runSplit(
				viper.GetString("vcf.input"),
				viper.GetString("output.dir"),
				viper.GetString("vcf.mode"),
				viper.GetString("vcf.reference"),
			)); err != nil {
				return fmt.Errorf("split: %w", err)
			}

			if err := step(runEmit(emitOptions{
				inputDir:      viper.GetString("output.dir"),
				outputDir:     viper.GetString("output.dir"),
				featureTable:  viper.GetString("features.table"),
				featureDB:     viper.GetString("features.db"),
				manifestPath:  viper.GetString("manifest"),
				referencesDir: viper.GetString("references.dir"),
			})); err != nil {
				return fmt.Errorf("emit: %w", err)
			}

			if total.Failed > 0 {
				logger.Error("pipeline finished with failures", zap.Error(total.Err()))
				return fmt.Errorf("%d files failed", total.Failed)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.String("annotations-dir", viper.GetString("annotations.dir"), "Directory of feature tables and sequence files")
	f.String("features", viper.GetString("features.table"), "Feature table CSV to write and read")
	f.String("db", viper.GetString("features.db"), "DuckDB feature store (optional)")
	f.StringP("input", "i", viper.GetString("vcf.input"), "Directory of variant files")
	f.StringP("output", "o", viper.GetString("output.dir"), "Directory for per-sequence VCF, GTF and FASTA files")
	f.StringP("mode", "m", viper.GetString("vcf.mode"), "Input shape: generic, caller-a-raw, caller-a-normalized, caller-b")
	f.String("reference", viper.GetString("vcf.reference"), "Reference path recorded in VCFs converted from tabular input")
	f.String("manifest", viper.GetString("manifest"), "Manifest of key@reference-path lines, or a YAML mapping")
	f.String("references-dir", viper.GetString("references.dir"), "Directory of reference FASTA files")
	f.BoolVar(&rename, "rename", false, "Write ref_<host>.fa files into the references directory first")
	f.BoolVar(&force, "force", false, "Rebuild the feature store even if it is up to date")

	return cmd
}
