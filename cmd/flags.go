package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

// sizeValue is a pflag.Value holding a memory or disk size such as "4G".
type sizeValue string

var _ pflag.Value = (*sizeValue)(nil)

func (s *sizeValue) String() string { return string(*s) }

func (s *sizeValue) Set(v string) error {
	if _, err := utils.ParseSizeToKB(v); err != nil {
		return err
	}
	*s = sizeValue(strings.ToUpper(strings.TrimSpace(v)))
	return nil
}

func (s *sizeValue) Type() string { return "size" }

// sizeCompletion suggests common sizes.
func sizeCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"1G", "2G", "4G", "8G", "16G"}, cobra.ShellCompDirectiveNoFileComp
}

// ldmxVersionCompletion lists the installed ldmx-sw versions.
func ldmxVersionCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	entries, err := os.ReadDir(filepath.Join(config.Global.LocalDir, "stable-installs"))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), toComplete) {
			versions = append(versions, e.Name())
		}
	}
	return versions, cobra.ShellCompDirectiveNoFileComp
}

// resolveEnvScript picks the environment script from -e or -l.
func resolveEnvScript(envScript, ldmxVersion string) (string, error) {
	if envScript != "" {
		return filepath.Abs(envScript)
	}
	return config.EnvScriptForVersion(ldmxVersion), nil
}

// quitIsOK turns a quit at a prompt into a clean exit.
func quitIsOK(err error) error {
	if errors.Is(err, utils.ErrQuit) {
		utils.PrintMessage("Nothing done")
		return nil
	}
	return err
}
