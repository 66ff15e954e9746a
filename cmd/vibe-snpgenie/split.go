package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-snpgenie/internal/report"
	"github.com/inodb/vibe-snpgenie/internal/vcf"
)

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split variant files into one VCF per sequence",
		Long: `Split every variant file of the input directory into VCF<stem>_SEQ<n>.vcf
files, one per sequence with at least one variant.

Modes:
  generic              VCFs declaring their sequences with ##contig lines
  caller-a-raw         VarScan tabular output (.txt/.tsv), converted first
  caller-a-normalized  VCFs whose single-value AD is repaired first
  caller-b             VCFs without ##contig lines`,
		Example: `  vibe-snpgenie split --input vcf_files --output snpgenie_input
  vibe-snpgenie split --mode caller-a-raw --reference /data/ref.fa --input varscan`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"input":     "vcf.input",
				"output":    "output.dir",
				"mode":      "vcf.mode",
				"reference": "vcf.reference",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := runSplit(
				viper.GetString("vcf.input"),
				viper.GetString("output.dir"),
				viper.GetString("vcf.mode"),
				viper.GetString("vcf.reference"),
			)
			if err != nil {
				return err
			}
			return finish(cmd.OutOrStdout(), sum)
		},
	}

	f := cmd.Flags()
	f.StringP("input", "i", viper.GetString("vcf.input"), "Directory of variant files")
	f.StringP("output", "o", viper.GetString("output.dir"), "Directory to write per-sequence VCFs to")
	f.StringP("mode", "m", viper.GetString("vcf.mode"), "Input shape: generic, caller-a-raw, caller-a-normalized, caller-b")
	f.String("reference", viper.GetString("vcf.reference"), "Reference path recorded in VCFs converted from tabular input")

	return cmd
}

func runSplit(inputDir, outputDir, modeName, reference string) (*report.Summary, error) {
	mode, err := vcf.ParseMode(modeName)
	if err != nil {
		return nil, &usageError{err}
	}
	s := vcf.NewSplitter(mode)
	s.SetLogger(logger)
	s.SetReference(reference)
	return s.SplitDir(inputDir, outputDir)
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert VarScan tabular output to VCF",
		Long: `Convert every VarScan table (.txt/.tsv) of the input directory into
<stem>.vcf with DP and AD in INFO and FORMAT. DP is the second and AD the
third and fourth value of the colon-joined metrics column.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"input":     "vcf.input",
				"output":    "output.dir",
				"reference": "vcf.reference",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n := vcf.NewNormalizer()
			n.SetLogger(logger)
			n.SetReference(viper.GetString("vcf.reference"))
			sum, err := n.ConvertDir(viper.GetString("vcf.input"), viper.GetString("output.dir"))
			if err != nil {
				return err
			}
			return finish(cmd.OutOrStdout(), sum)
		},
	}

	f := cmd.Flags()
	f.StringP("input", "i", viper.GetString("vcf.input"), "Directory of VarScan tables")
	f.StringP("output", "o", viper.GetString("output.dir"), "Directory to write VCFs to")
	f.String("reference", viper.GetString("vcf.reference"), "Reference path recorded in the ##reference line")

	return cmd
}

func newNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Repair single-value allele depths",
		Long: `Rewrite the sample AD of every VCF in the input directory from the
alternate count alone to "ref,alt" with ref = DP - AD. Records that already
carry two values are left unchanged; records without integer DP and AD are
dropped with a warning.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"input":  "vcf.input",
				"output": "output.dir",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n := vcf.NewNormalizer()
			n.SetLogger(logger)
			sum, err := n.RepairDir(viper.GetString("vcf.input"), viper.GetString("output.dir"))
			if err != nil {
				return err
			}
			return finish(cmd.OutOrStdout(), sum)
		},
	}

	f := cmd.Flags()
	f.StringP("input", "i", viper.GetString("vcf.input"), "Directory of VCFs")
	f.StringP("output", "o", viper.GetString("output.dir"), "Directory to write repaired VCFs to")

	return cmd
}
