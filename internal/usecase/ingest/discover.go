package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/shortlist/internal/domain"
)

// discover lists files with the given extension directly inside folder, sorted by name.
// Matching is case-insensitive and subdirectories are not descended into.
func discover(folder, ext string) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", folder, domain.ErrFolderNotFound)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", folder, domain.ErrFolderNotFound)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", folder, domain.ErrFolderNotFound, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		paths = append(paths, filepath.Join(folder, e.Name()))
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s files in %s: %w", ext, folder, domain.ErrNoDocuments)
	}
	return paths, nil
}
