package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var documentCategories = []string{"runbooks", "postmortems", "changelogs"}

// LoadDocuments scans the data directory for markdown reference documents,
// grouped by category subdirectory. Missing categories are skipped.
func LoadDocuments(dir string) ([]Document, error) {
	docs := make([]Document, 0)

	for _, category := range documentCategories {
		categoryDir := filepath.Join(dir, category)
		entries, err := os.ReadDir(categoryDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", categoryDir, err)
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			path := filepath.Join(categoryDir, name)
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			docs = append(docs, Document{
				ID:      category + "/" + strings.TrimSuffix(name, ".md"),
				Content: string(content),
				Metadata: map[string]string{
					"type":     category,
					"source":   path,
					"filename": name,
				},
			})
		}
	}

	return docs, nil
}
