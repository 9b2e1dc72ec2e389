package cmd

import (
	"github.com/spf13/cobra"

	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

var (
	rmAll  bool
	rmHeld bool
)

var rmCmd = &cobra.Command{
	Use:   "rm (--all | --held)",
	Short: "Remove your jobs from the queue",
	Example: `  ldmx-batch rm --held
  ldmx-batch rm --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		if rmAll {
			if err := utils.PauseBefore(cmd.Context(), "remove all of your jobs"); err != nil {
				return quitIsOK(err)
			}
			err = m.RemoveAll(cmd.Context())
		} else {
			err = m.RemoveHeld(cmd.Context())
		}
		if err != nil {
			return err
		}
		utils.PrintSuccess("Removed")
		return nil
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release all of your held jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		if err := m.ReleaseAll(cmd.Context()); err != nil {
			return err
		}
		utils.PrintSuccess("Released")
		return nil
	},
}

var banCmd = &cobra.Command{
	Use:   "ban MACHINE",
	Short: "Keep your queued jobs off a machine",
	Long: `Add a requirement excluding MACHINE to each of your jobs still in the queue.
Give the short machine name, e.g. scorpion43.`,
	Example: `  ldmx-batch ban scorpion43`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		n, err := m.BanMachine(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		utils.PrintSuccess("Banned %s from %s jobs", utils.StyleName(args[0]), utils.StyleNumber(n))
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolVar(&rmAll, "all", false, "Remove all of your jobs")
	rmCmd.Flags().BoolVar(&rmHeld, "held", false, "Remove your held jobs")
	rmCmd.MarkFlagsOneRequired("all", "held")
	rmCmd.MarkFlagsMutuallyExclusive("all", "held")

	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(banCmd)
}
