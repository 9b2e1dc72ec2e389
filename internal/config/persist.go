package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file
const ConfigType = "yaml"

// AppName names the config directories and the environment prefix.
const AppName = "ldmx-batch"

// Keys lists every recognized configuration key.
var Keys = []string{
	"hdfs_dir",
	"local_dir",
	"scratch_root",
	"machine_domain",
	"condor_group",
	"banned_machines",
	"run_script",
	"scheduler_bin",
	"submit.files_per_job",
	"submit.max_num_jobs",
	"submit.max_memory",
	"submit.max_disk",
	"submit.sleep",
	"pick.host_prefix",
	"pick.count",
	"pick.check_cmd",
}

// InitViper initializes Viper with search paths and defaults taken from Global.
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (LDMX_BATCH_*)
// 3. User config file (~/.config/ldmx-batch/config.yaml)
// 4. System config file (/etc/ldmx-batch/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, AppName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, "."+AppName))
	}
	viper.AddConfigPath(filepath.Join("/etc", AppName))

	viper.SetEnvPrefix("LDMX_BATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setDefaults mirrors Global into viper so `config show` and `config init`
// see the same values the commands use.
func setDefaults() {
	viper.SetDefault("hdfs_dir", Global.HdfsDir)
	viper.SetDefault("local_dir", Global.LocalDir)
	viper.SetDefault("scratch_root", Global.ScratchRoot)
	viper.SetDefault("machine_domain", Global.MachineDomain)
	viper.SetDefault("condor_group", Global.CondorGroup)
	viper.SetDefault("banned_machines", Global.BannedMachines)
	viper.SetDefault("run_script", Global.RunScript)
	viper.SetDefault("scheduler_bin", "")

	viper.SetDefault("submit.files_per_job", Global.Submit.FilesPerJob)
	viper.SetDefault("submit.max_num_jobs", Global.Submit.MaxNumJobs)
	viper.SetDefault("submit.max_memory", Global.Submit.MaxMemory)
	viper.SetDefault("submit.max_disk", Global.Submit.MaxDisk)
	viper.SetDefault("submit.sleep", Global.Submit.Sleep)

	viper.SetDefault("pick.host_prefix", Global.Pick.HostPrefix)
	viper.SetDefault("pick.count", Global.Pick.Count)
	viper.SetDefault("pick.check_cmd", Global.Pick.CheckCmd)
}

// LoadFromViper copies resolved viper values into Global.
func LoadFromViper() {
	if v := viper.GetString("hdfs_dir"); v != "" {
		Global.HdfsDir = v
	}
	if v := viper.GetString("local_dir"); v != "" {
		Global.LocalDir = v
	}
	if v := viper.GetString("scratch_root"); v != "" {
		Global.ScratchRoot = v
	}
	if v := viper.GetString("machine_domain"); v != "" {
		Global.MachineDomain = v
	}
	if v := viper.GetString("condor_group"); v != "" {
		Global.CondorGroup = v
	}
	if viper.IsSet("banned_machines") {
		// A comma separated env var arrives as one string.
		var banned []string
		for _, m := range viper.GetStringSlice("banned_machines") {
			banned = append(banned, strings.FieldsFunc(m, func(r rune) bool { return r == ',' || r == ' ' })...)
		}
		Global.BannedMachines = banned
	}
	if v := viper.GetString("run_script"); v != "" {
		Global.RunScript = v
	}
	Global.SchedulerBin = viper.GetString("scheduler_bin")

	if v := viper.GetInt("submit.files_per_job"); v > 0 {
		Global.Submit.FilesPerJob = v
	}
	if v := viper.GetInt("submit.max_num_jobs"); v > 0 {
		Global.Submit.MaxNumJobs = v
	}
	if v := viper.GetString("submit.max_memory"); v != "" {
		Global.Submit.MaxMemory = v
	}
	if v := viper.GetString("submit.max_disk"); v != "" {
		Global.Submit.MaxDisk = v
	}
	if viper.IsSet("submit.sleep") {
		Global.Submit.Sleep = viper.GetInt("submit.sleep")
	}

	if v := viper.GetString("pick.host_prefix"); v != "" {
		Global.Pick.HostPrefix = v
	}
	if v := viper.GetInt("pick.count"); v > 0 {
		Global.Pick.Count = v
	}
	if v := viper.GetString("pick.check_cmd"); v != "" {
		Global.Pick.CheckCmd = v
	}
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "."+AppName, ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, AppName, ConfigFilename+"."+ConfigType), nil
}

// SaveConfig writes the current viper settings to the user config file
func SaveConfig() error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
