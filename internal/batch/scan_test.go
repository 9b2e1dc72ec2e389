package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func TestListRootFiles(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	touch(t, filepath.Join(first, "b.root"))
	touch(t, filepath.Join(first, "a.root"))
	touch(t, filepath.Join(first, "notes.txt"))
	touch(t, filepath.Join(second, "c.root"))
	if err := os.Mkdir(filepath.Join(second, "sub.root"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ListRootFiles([]string{first, second})
	if err != nil {
		t.Fatalf("ListRootFiles unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(first, "a.root"),
		filepath.Join(first, "b.root"),
		filepath.Join(second, "c.root"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListRootFiles mismatch (-want +got):\n%s", diff)
	}
}

func TestListRootFilesMissingDir(t *testing.T) {
	if _, err := ListRootFiles([]string{"/nonexistent/input/dir"}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestCollectNames(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "x_run_1.root"))
	single := filepath.Join(t.TempDir(), "x_run_4.root")
	touch(t, single)

	var skipped []string
	got, err := CollectNames([]string{dir, single, "/nonexistent"}, func(arg string) {
		skipped = append(skipped, arg)
	})
	if err != nil {
		t.Fatalf("CollectNames unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"x_run_1.root", single}, got); diff != "" {
		t.Errorf("CollectNames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/nonexistent"}, skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}

	missing, err := MissingRuns(got)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{2, 3}, missing); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
}
