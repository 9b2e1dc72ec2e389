package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func setupConfigHome(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("USER", "tester")
	return home
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("USER", "tester")
	LoadDefaults("/opt/ldmx-batch/bin/ldmx-batch")

	if Global.HdfsDir != "/hdfs/cms/user/tester/ldmx" {
		t.Errorf("HdfsDir = %q", Global.HdfsDir)
	}
	if Global.ScratchRoot != "/export/scratch/users/tester" {
		t.Errorf("ScratchRoot = %q", Global.ScratchRoot)
	}
	if Global.RunScript != "/opt/ldmx-batch/bin/run_fire.sh" {
		t.Errorf("RunScript = %q", Global.RunScript)
	}
	if got := EnvScriptForVersion("v3.0.0"); got != "/local/cms/user/tester/ldmx/stable-installs/v3.0.0/setup.sh" {
		t.Errorf("EnvScriptForVersion = %q", got)
	}
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	home := setupConfigHome(t)
	LoadDefaults("/opt/bin/ldmx-batch")

	dir := filepath.Join(home, ".config", AppName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `hdfs_dir: /data/tester
banned_machines:
  - zebra09
submit:
  files_per_job: 3
  sleep: 0
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := InitViper(); err != nil {
		t.Fatalf("InitViper unexpected error: %v", err)
	}
	LoadFromViper()

	if Global.HdfsDir != "/data/tester" {
		t.Errorf("HdfsDir = %q; want /data/tester", Global.HdfsDir)
	}
	if diff := cmp.Diff([]string{"zebra09"}, Global.BannedMachines); diff != "" {
		t.Errorf("BannedMachines mismatch (-want +got):\n%s", diff)
	}
	if Global.Submit.FilesPerJob != 3 {
		t.Errorf("FilesPerJob = %d; want 3", Global.Submit.FilesPerJob)
	}
	if Global.Submit.Sleep != 0 {
		t.Errorf("Sleep = %d; want 0", Global.Submit.Sleep)
	}
	if Global.Submit.MaxMemory != "4G" {
		t.Errorf("MaxMemory = %q; want default 4G", Global.Submit.MaxMemory)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	setupConfigHome(t)
	LoadDefaults("/opt/bin/ldmx-batch")
	t.Setenv("LDMX_BATCH_CONDOR_GROUP", "testgroup")
	t.Setenv("LDMX_BATCH_SUBMIT_MAX_MEMORY", "2G")

	if err := InitViper(); err != nil {
		t.Fatalf("InitViper unexpected error: %v", err)
	}
	LoadFromViper()

	if Global.CondorGroup != "testgroup" {
		t.Errorf("CondorGroup = %q; want testgroup", Global.CondorGroup)
	}
	if Global.Submit.MaxMemory != "2G" {
		t.Errorf("MaxMemory = %q; want 2G", Global.Submit.MaxMemory)
	}
}

func TestSaveConfig(t *testing.T) {
	home := setupConfigHome(t)
	LoadDefaults("/opt/bin/ldmx-batch")
	if err := InitViper(); err != nil {
		t.Fatal(err)
	}
	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig unexpected error: %v", err)
	}
	path, err := GetUserConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".config", AppName, "config.yaml"); path != want {
		t.Errorf("GetUserConfigPath = %q; want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}
