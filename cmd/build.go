package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/kinbranch/internal/genealogy"
	"github.com/agentic-research/kinbranch/internal/ingest"
)

var buildCmd = &cobra.Command{
	Use:   "build [dataset] [output.db]",
	Short: "Build a kinbranch SQLite store from a JSON dataset file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		output := args[1]

		_ = os.Remove(output) // Overwrite
		writer, err := genealogy.NewSQLiteWriter(output)
		if err != nil {
			return err
		}

		im := ingest.NewImporter(osfs.New(filepath.Dir(source)), logger)

		start := time.Now()
		fmt.Fprintf(cmd.OutOrStdout(), "Building %s from %s...\n", output, args[0])
		stats, err := im.Import(cmd.Context(), filepath.Base(source), writer)
		if err != nil {
			_ = writer.Close()
			return err
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("finalize %s: %w", output, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d individuals and %d families (%d trees) in %v.\n",
			stats.Individuals, stats.Families, len(stats.Trees), time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
