// Package embedded provides access to embedded theme configuration files.
package embedded

import (
	"embed"
	"path"
	"strings"
)

//go:embed themes/*.yaml
var themeFS embed.FS

// ThemeFiles returns the raw YAML of every embedded theme keyed by theme name.
func ThemeFiles() (map[string][]byte, error) {
	entries, err := themeFS.ReadDir("themes")
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := themeFS.ReadFile(path.Join("themes", entry.Name()))
		if err != nil {
			return nil, err
		}
		files[strings.TrimSuffix(entry.Name(), ".yaml")] = data
	}
	return files, nil
}
