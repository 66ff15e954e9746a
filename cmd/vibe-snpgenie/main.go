// Package main provides the vibe-snpgenie command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// configName is the base name of the config file in the home directory.
const configName = ".vibe-snpgenie"

// logger is replaced by the root command before any subcommand runs.
var logger = zap.NewNop()

// usageError marks errors caused by bad command-line input.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	_ = logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(os.Stderr, "Run 'vibe-snpgenie --help' for usage.\n")
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	setDefaults()

	cmd := &cobra.Command{
		Use:   "vibe-snpgenie",
		Short: "Prepare SNPGenie inputs from variant calls and feature tables",
		Long: `vibe-snpgenie turns NCBI feature tables, reference sequences and variant
calls into the per-sequence VCF, GTF and FASTA files SNPGenie expects.`,
		Example: `  # Everything at once, with the default directory layout
  vibe-snpgenie run

  # Step by step
  vibe-snpgenie features --annotations-dir annotation_files
  vibe-snpgenie rename --annotations-dir annotation_files --references-dir references
  vibe-snpgenie split --mode generic --input vcf_files --output snpgenie_input
  vibe-snpgenie emit --input snpgenie_input`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			l, err := newLogger(viper.GetString("log.level"), viper.GetString("log.format"))
			if err != nil {
				return &usageError{err}
			}
			logger = l
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ~/"+configName+".yaml)")
	pf.String("log-level", viper.GetString("log.level"), "Log level: debug, info, warn, error")
	pf.String("log-format", viper.GetString("log.format"), "Log format: console, json")
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))

	cmd.AddCommand(newFeaturesCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newSplitCmd())
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newEmitCmd())
	cmd.AddCommand(newPipelineCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-snpgenie version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// setDefaults registers the default value of every config key.
func setDefaults() {
	viper.SetDefault("annotations.dir", "annotation_files")
	viper.SetDefault("features.table", "full_feature_tab.csv")
	viper.SetDefault("features.db", "")
	viper.SetDefault("vcf.input", "vcf_files")
	viper.SetDefault("vcf.mode", "generic")
	viper.SetDefault("vcf.reference", "")
	viper.SetDefault("output.dir", "snpgenie_input")
	viper.SetDefault("references.dir", "references")
	viper.SetDefault("manifest", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
}

// initConfig reads the config file and environment. A missing default
// config file is not an error; a missing explicit one is.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SNPGENIE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// defaultConfigPath is where config set writes when no config file is in use.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// bindFlags binds command flags to config keys. Called when the command
// runs, since several commands share a key.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}
