package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataExt is the extension of the event files jobs read and write.
const DataExt = ".root"

// ListRootFiles returns the absolute paths of the data files inside each directory.
// Directories are visited in the given order, entries in lexical order.
func ListRootFiles(dirs []string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to list input directory %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), DataExt) {
				continue
			}
			files = append(files, filepath.Join(abs, e.Name()))
		}
	}
	return files, nil
}

// CollectNames expands the arguments of the missing-run listing: directories
// contribute their entry names, files contribute themselves. Anything else is
// reported through skip and ignored.
func CollectNames(args []string, skip func(arg string)) ([]string, error) {
	var names []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			if skip != nil {
				skip(arg)
			}
			continue
		}
		if info.IsDir() {
			dn, err := dirNames(arg)
			if err != nil {
				return nil, err
			}
			names = append(names, dn...)
			continue
		}
		names = append(names, arg)
	}
	return names, nil
}
