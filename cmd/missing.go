package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umn-ldmx/ldmx-batch/internal/batch"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

var missingCmd = &cobra.Command{
	Use:   "missing DIR|FILE...",
	Short: "Print the run numbers missing from a set of output files",
	Long: `Print every run number between the smallest and largest run found that
has no file, one per line.

Run numbers are read from file names of the form <anything>_run_<number>.root.
Directories contribute all of their entries. Paths that do not exist are skipped
with a warning.`,
	Example: `  ldmx-batch missing /hdfs/cms/user/me/ldmx/ecal_pn/v12
  ldmx-batch missing sample_run_1.root sample_run_4.root`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMissing,
}

func init() {
	rootCmd.AddCommand(missingCmd)
}

func runMissing(cmd *cobra.Command, args []string) error {
	names, err := batch.CollectNames(args, func(arg string) {
		utils.PrintWarning("%s does not exist, skipping", utils.StylePath(arg))
	})
	if err != nil {
		return err
	}

	missing, err := batch.MissingRuns(names)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range missing {
		fmt.Fprintln(out, r)
	}
	return nil
}
