package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

// configKeysCompletion returns config keys for shell completion
func configKeysCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.Keys, cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) == 1 {
		return configValueCompletion(args[0]), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configValueCompletion returns suggested values for a config key
func configValueCompletion(key string) []string {
	switch key {
	case "submit.max_memory", "submit.max_disk":
		return []string{"1G", "2G", "4G", "8G"}
	case "submit.files_per_job":
		return []string{"1", "5", "10", "20"}
	case "submit.sleep":
		return []string{"0", "5", "30", "60"}
	case "machine_domain":
		return []string{"spa.umn.edu"}
	default:
		return nil
	}
}

// getConfigEnvVars returns the environment variable names overriding each key, sorted.
func getConfigEnvVars() []string {
	vars := make([]string, 0, len(config.Keys))
	for _, key := range config.Keys {
		vars = append(vars, "LDMX_BATCH_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}
	sort.Strings(vars)
	return vars
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ldmx-batch configuration",
	Long: `Manage ldmx-batch configuration settings.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (LDMX_BATCH_*)
  3. User config file (~/.config/ldmx-batch/config.yaml)
  4. System config file (/etc/ldmx-batch/config.yaml)
  5. Site defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "%s %s\n\n", utils.StyleTitle("Config file:"), utils.StylePath(used))
		} else {
			fmt.Fprintf(out, "%s %s (use 'ldmx-batch config init' to create)\n\n",
				utils.StyleTitle("Config file:"), utils.StyleWarning("none"))
		}

		g := config.Global
		fmt.Fprintln(out, utils.StyleTitle("Site:"))
		fmt.Fprintf(out, "  user:            %s\n", g.User)
		fmt.Fprintf(out, "  hdfs_dir:        %s\n", utils.StylePath(g.HdfsDir))
		fmt.Fprintf(out, "  local_dir:       %s\n", utils.StylePath(g.LocalDir))
		fmt.Fprintf(out, "  scratch_root:    %s\n", utils.StylePath(g.ScratchRoot))
		fmt.Fprintf(out, "  machine_domain:  %s\n", g.MachineDomain)
		fmt.Fprintf(out, "  condor_group:    %s\n", g.CondorGroup)
		fmt.Fprintf(out, "  banned_machines: %s\n", strings.Join(g.BannedMachines, ", "))
		fmt.Fprintf(out, "  run_script:      %s\n", utils.StylePath(g.RunScript))
		if g.SchedulerBin != "" {
			fmt.Fprintf(out, "  scheduler_bin:   %s\n", utils.StylePath(g.SchedulerBin))
		} else {
			fmt.Fprintf(out, "  scheduler_bin:   %s\n", utils.StyleInfo("(PATH lookup)"))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, utils.StyleTitle("Submit defaults:"))
		fmt.Fprintf(out, "  files_per_job:   %d\n", g.Submit.FilesPerJob)
		fmt.Fprintf(out, "  max_num_jobs:    %d\n", g.Submit.MaxNumJobs)
		fmt.Fprintf(out, "  max_memory:      %s\n", g.Submit.MaxMemory)
		fmt.Fprintf(out, "  max_disk:        %s\n", g.Submit.MaxDisk)
		fmt.Fprintf(out, "  sleep:           %d\n", g.Submit.Sleep)
		fmt.Fprintln(out)

		fmt.Fprintln(out, utils.StyleTitle("Machine check (--check-n-pick):"))
		fmt.Fprintf(out, "  host_prefix:     %s\n", g.Pick.HostPrefix)
		fmt.Fprintf(out, "  count:           %d\n", g.Pick.Count)
		fmt.Fprintf(out, "  check_cmd:       %s\n", g.Pick.CheckCmd)

		var overrides []string
		for _, env := range getConfigEnvVars() {
			if v, ok := os.LookupEnv(env); ok {
				overrides = append(overrides, fmt.Sprintf("  %s=%s", env, v))
			}
		}
		if len(overrides) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, utils.StyleTitle("Environment overrides:"))
			for _, o := range overrides {
				fmt.Fprintln(out, o)
			}
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the user config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.GetUserConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print one configuration value",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: configKeysCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isConfigKey(args[0]) {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), viper.Get(args[0]))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the user config file",
	Example: `  ldmx-batch config set submit.max_memory 8G
  ldmx-batch config set banned_machines caffeine,zebra01,scorpion6`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: configKeysCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !isConfigKey(key) {
			return fmt.Errorf("unknown config key %q", key)
		}
		switch key {
		case "submit.max_memory", "submit.max_disk":
			if _, err := utils.ParseSizeToKB(value); err != nil {
				return err
			}
			viper.Set(key, value)
		case "banned_machines":
			viper.Set(key, utils.SplitList(value))
		default:
			viper.Set(key, value)
		}
		if err := config.SaveConfig(); err != nil {
			return err
		}
		utils.PrintSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to the user config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.GetUserConfigPath()
		if err != nil {
			return err
		}
		if utils.FileExists(p) {
			if err := utils.PauseBefore(cmd.Context(), "overwrite "+p); err != nil {
				return quitIsOK(err)
			}
		}
		if err := config.SaveConfig(); err != nil {
			return err
		}
		utils.PrintSuccess("Config written to %s", utils.StylePath(p))
		return nil
	},
}

func isConfigKey(key string) bool {
	for _, k := range config.Keys {
		if k == key {
			return true
		}
	}
	return false
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configGetCmd, configSetCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
