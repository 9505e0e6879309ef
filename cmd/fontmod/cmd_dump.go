package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"fontmod/internal/codemod"
	"fontmod/internal/config"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the syntax tree of a layout",
	Long: `Parses a layout with the grammar fontmod would use and prints the
tree-sitter S-expression. Useful when a layout is not rewritten as expected.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default fontmod.yaml",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing config")
}

func runDump(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sexp, err := codemod.DumpTree(ctx, src, codemod.LanguageForPath(args[0]))
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sexp)
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}
	abs, _ := filepath.Abs(configPath)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", abs)
	return nil
}
