package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pcmdi/climwrangle/internal/projectconfig"
	"github.com/pcmdi/climwrangle/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate " + projectconfig.FileName,
	}

	cmd.AddCommand(newConfigValidateCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a config file against the schema",
		Long: `Check a config file against the embedded JSON schema and the value rules
applied when it is loaded. Without a path, ` + projectconfig.FileName + ` in the
current directory is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: configValidateE,
	}
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func configValidateE(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		path = projectconfig.FileName
	}

	problems, err := validation.ValidateConfigFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return err
	}
	// Schema-valid files still go through the loader's value rules.
	if len(problems) == 0 {
		if _, err := projectconfig.LoadFile(path); err != nil {
			problems = append(problems, err.Error())
		}
	}

	out := cmd.OutOrStdout()
	if len(problems) > 0 {
		fmt.Fprintf(out, "❌ %s\n", filepath.Clean(path)) //nolint:errcheck
		for _, p := range problems {
			fmt.Fprintf(out, "   %s\n", p) //nolint:errcheck
		}
		return fmt.Errorf("%s has %d problem(s)", path, len(problems))
	}

	fmt.Fprintf(out, "✅ %s is valid\n", filepath.Clean(path)) //nolint:errcheck
	return nil
}
