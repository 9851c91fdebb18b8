package buildconfig

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Metafile is the part of esbuild's metafile needed to map entries to their
// emitted files. Output paths are rewritten to be relative to the output
// directory, slash separated.
type Metafile struct {
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileOutput describes one emitted file.
type MetafileOutput struct {
	Bytes      int64            `json:"bytes"`
	Imports    []MetafileImport `json:"imports"`
	EntryPoint string           `json:"entryPoint"`
	CSSBundle  string           `json:"cssBundle"`
}

// MetafileImport is an import from one output file to another.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

// ParseMetafile decodes esbuild's metafile. workDir is the build's working
// directory, which esbuild makes all paths relative to.
func ParseMetafile(data, workDir, outDir string) (*Metafile, error) {
	var raw Metafile
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	rel := func(p string) string {
		if p == "" {
			return ""
		}
		r, err := filepath.Rel(outDir, filepath.Join(workDir, filepath.FromSlash(p)))
		if err != nil {
			return filepath.ToSlash(p)
		}
		return filepath.ToSlash(r)
	}
	meta := &Metafile{Outputs: make(map[string]MetafileOutput, len(raw.Outputs))}
	for path, out := range raw.Outputs {
		imports := make([]MetafileImport, 0, len(out.Imports))
		for _, imp := range out.Imports {
			if !imp.External {
				imp.Path = rel(imp.Path)
			}
			imports = append(imports, imp)
		}
		out.Imports = imports
		out.CSSBundle = rel(out.CSSBundle)
		meta.Outputs[rel(path)] = out
	}
	return meta, nil
}

// EntryOutput returns the output file built from the given entry input.
func (m *Metafile) EntryOutput(input string) (string, MetafileOutput, bool) {
	input = filepath.ToSlash(input)
	for path, out := range m.Outputs {
		if out.EntryPoint == input && strings.HasSuffix(path, ".js") {
			return path, out, true
		}
	}
	return "", MetafileOutput{}, false
}

// StaticChunks returns every chunk statically imported by path, transitively,
// in first-seen order.
func (m *Metafile) StaticChunks(path string) []string {
	var chunks []string
	visited := map[string]bool{path: true}
	var walk func(string)
	walk = func(p string) {
		for _, imp := range m.Outputs[p].Imports {
			if imp.External || imp.Kind != "import-statement" || visited[imp.Path] {
				continue
			}
			visited[imp.Path] = true
			chunks = append(chunks, imp.Path)
			walk(imp.Path)
		}
	}
	walk(path)
	return chunks
}
