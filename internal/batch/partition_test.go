package batch

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPartitionProperties(t *testing.T) {
	for length := 0; length <= 23; length++ {
		items := make([]string, length)
		for i := range items {
			items[i] = fmt.Sprintf("f%02d.root", i)
		}
		for n := 1; n <= 7; n++ {
			groups, err := Partition(items, n)
			if err != nil {
				t.Fatalf("Partition(len=%d, n=%d) unexpected error: %v", length, n, err)
			}

			wantGroups := (length + n - 1) / n
			if len(groups) != wantGroups {
				t.Errorf("Partition(len=%d, n=%d) = %d groups; want %d", length, n, len(groups), wantGroups)
			}

			var joined []string
			for i, g := range groups {
				if i < len(groups)-1 && len(g) != n {
					t.Errorf("group %d has %d items; want %d", i, len(g), n)
				}
				if len(g) == 0 || len(g) > n {
					t.Errorf("group %d has %d items; want 1..%d", i, len(g), n)
				}
				joined = append(joined, g...)
			}
			if !slices.Equal(joined, items) {
				t.Errorf("Partition(len=%d, n=%d) does not reproduce its input", length, n)
			}
		}
	}
}

func TestPartitionRejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := Partition([]int{1, 2}, n); !errors.Is(err, ErrInvalidGroupSize) {
			t.Errorf("Partition(n=%d) error = %v; want ErrInvalidGroupSize", n, err)
		}
	}
}

func TestPartitionGroupsDoNotAlias(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	groups, err := Partition(items, 2)
	if err != nil {
		t.Fatal(err)
	}
	groups[0] = append(groups[0], 99)
	if items[2] != 3 {
		t.Fatalf("appending to a group overwrote the input: %v", items)
	}
}

func TestPartitionFiles(t *testing.T) {
	files := []string{"/d/a.root", "/d/b.root", "/d/c.root"}
	got, err := PartitionFiles(files, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/d/a.root /d/b.root", "/d/c.root"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PartitionFiles mismatch (-want +got):\n%s", diff)
	}
}
