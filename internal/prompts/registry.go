// Package prompts holds versioned prompt templates embedded into the binary.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed v1/*.txt
var templateFS embed.FS

var (
	mu     sync.Mutex
	loaded = make(map[string]*template.Template)
)

// Format renders the named prompt template for the given version with data.
func Format(name, version string, data any) (string, error) {
	tmpl, err := load(name, version)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt %s/%s: %w", version, name, err)
	}
	return sb.String(), nil
}

func load(name, version string) (*template.Template, error) {
	key := version + "/" + name

	mu.Lock()
	defer mu.Unlock()

	if tmpl, ok := loaded[key]; ok {
		return tmpl, nil
	}
	raw, err := templateFS.ReadFile(fmt.Sprintf("%s/%s.txt", version, name))
	if err != nil {
		return nil, fmt.Errorf("prompt not found: %s/%s: %w", version, name, err)
	}
	tmpl, err := template.New(key).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s/%s: %w", version, name, err)
	}
	loaded[key] = tmpl
	return tmpl, nil
}

// Available lists prompt names for a version, sorted by the embed FS order.
func Available(version string) []string {
	entries, err := templateFS.ReadDir(version)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".txt"))
	}
	return names
}
