package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-snpgenie/internal/vcf"
)

// configKeys documents every key the commands read.
var configKeys = map[string]string{
	"annotations.dir": "directory of feature tables and sequence_* files",
	"features.table":  "unified feature table CSV",
	"features.db":     "DuckDB feature store (empty: CSV only)",
	"vcf.input":       "directory of variant files to split",
	"vcf.mode":        "split mode: generic, caller-a-raw, caller-a-normalized, caller-b",
	"vcf.reference":   "reference path written into converted VarScan VCFs",
	"output.dir":      "directory for per-sequence VCF, GTF and FASTA files",
	"references.dir":  "local directory searched for references by base name",
	"manifest":        "manifest of key@reference-path lines or YAML mapping",
	"log.level":       "debug, info, warn or error",
	"log.format":      "console or json",
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-snpgenie configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.vibe-snpgenie.yaml.
Every key can also be set through the environment, e.g. SNPGENIE_OUTPUT_DIR.`,
		Example: `  vibe-snpgenie config                          # show effective config
  vibe-snpgenie config set vcf.mode caller-b     # split VCFs without ##contig lines
  vibe-snpgenie config get references.dir        # get a value
  vibe-snpgenie config keys                      # list known keys`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigKeysCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List configuration keys",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			keys := make([]string, 0, len(configKeys))
			for k := range configKeys {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", k, configKeys[k])
			}
		},
	}
}

func runConfigShow(w io.Writer) error {
	if f := viper.ConfigFileUsed(); f != "" {
		fmt.Fprintf(w, "# Config file: %s\n", f)
	} else {
		fmt.Fprintf(w, "# No config file. Defaults shown; write one with: vibe-snpgenie config set <key> <value>\n")
	}

	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func runConfigSet(w io.Writer, key, value string) error {
	key = strings.ToLower(key)
	if _, ok := configKeys[key]; !ok {
		return &usageError{fmt.Errorf("unknown config key %q (see: vibe-snpgenie config keys)", key)}
	}
	if err := validateConfigValue(key, value); err != nil {
		return &usageError{err}
	}
	viper.Set(key, value)

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		var err error
		if cfgFile, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func validateConfigValue(key, value string) error {
	switch key {
	case "vcf.mode":
		_, err := vcf.ParseMode(value)
		return err
	case "log.level":
		switch value {
		case "debug", "info", "warn", "error":
			return nil
		}
		return fmt.Errorf("invalid log level %q", value)
	case "log.format":
		if value != "console" && value != "json" {
			return fmt.Errorf("invalid log format %q", value)
		}
	}
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	if !viper.IsSet(key) {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, viper.Get(key))
	return nil
}
