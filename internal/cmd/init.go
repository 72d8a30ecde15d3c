package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luatgf/luatgf/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .luatgf/config.yaml",
	Long: `Create the .luatgf directory in the current directory and write the
default configuration to .luatgf/config.yaml.

luatgf finds this file by walking up from the working directory, so one
config covers a whole project tree.

Examples:
  luatgf init`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	path, err := config.SaveDefault(cwd)
	if err != nil {
		return err
	}

	relPath, err := filepath.Rel(cwd, path)
	if err != nil {
		relPath = path
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", relPath)

	return nil
}
