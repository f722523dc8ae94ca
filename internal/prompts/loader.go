// Package prompts holds the LLM prompt templates. Each embedded JSON file maps prompt
// keys to text/template bodies, parsed once on first use.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

type prompt struct {
	raw  string
	tmpl *template.Template
}

var (
	loadOnce sync.Once
	registry map[string]map[string]prompt
	loadErr  error
)

func load() (map[string]map[string]prompt, error) {
	loadOnce.Do(func() {
		registry, loadErr = parseAll(promptFiles)
	})
	return registry, loadErr
}

// parseAll reads every *.json file in fsys. A template that fails to parse fails the whole set.
func parseAll(fsys fs.FS) (map[string]map[string]prompt, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt files: %w", err)
	}

	all := make(map[string]map[string]prompt, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}

		var bodies map[string]string
		if err := json.Unmarshal(data, &bodies); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}

		file := make(map[string]prompt, len(bodies))
		for key, body := range bodies {
			tmpl, err := template.New(path.Join(name, key)).Option("missingkey=error").Parse(body)
			if err != nil {
				return nil, fmt.Errorf("failed to parse prompt %s/%s: %w", name, key, err)
			}
			file[key] = prompt{raw: body, tmpl: tmpl}
		}
		all[name] = file
	}
	return all, nil
}

func lookup(filename, key string) (prompt, error) {
	all, err := load()
	if err != nil {
		return prompt{}, err
	}
	file, ok := all[filename]
	if !ok {
		return prompt{}, fmt.Errorf("prompt file %s not found", filename)
	}
	p, ok := file[key]
	if !ok {
		return prompt{}, fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return p, nil
}

// Get returns the unrendered template text of a prompt.
func Get(filename, key string) (string, error) {
	p, err := lookup(filename, key)
	if err != nil {
		return "", err
	}
	return p.raw, nil
}

// Render executes a prompt with data. Placeholders missing from a map are an error.
func Render(filename, key string, data any) (string, error) {
	p, err := lookup(filename, key)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s/%s: %w", filename, key, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Keys returns the prompt keys in filename, sorted.
func Keys(filename string) ([]string, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	file, ok := all[filename]
	if !ok {
		return nil, fmt.Errorf("prompt file %s not found", filename)
	}

	keys := make([]string, 0, len(file))
	for key := range file {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
