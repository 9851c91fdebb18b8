// Package templates renders the per-entry mustache templates that the server
// uses to embed bundled assets into its pages.
package templates

import (
	"sort"
	"strings"

	"tools/html_build/buildconfig"
)

// FaviconPrefix is the compiled asset key prefix of a style's favicon.
const FaviconPrefix = "assets/favicon."

// Asset is one compiled output file.
type Asset struct {
	Bytes int64
}

// Entrypoint lists the files emitted for one entry, relative to the output
// directory.
type Entrypoint struct {
	JS     string
	Chunks []string
	CSS    []string
}

// Compilation is the state of a finished build as seen by templates.
type Compilation struct {
	Assets      map[string]Asset
	Entrypoints map[string]Entrypoint
	Options     buildconfig.Config
}

// NewCompilation collects assets and entrypoints from a parsed metafile.
func NewCompilation(meta *buildconfig.Metafile, cfg buildconfig.Config) *Compilation {
	c := &Compilation{
		Assets:      make(map[string]Asset, len(meta.Outputs)),
		Entrypoints: make(map[string]Entrypoint, len(cfg.Entries)),
		Options:     cfg,
	}
	for path, out := range meta.Outputs {
		c.Assets[path] = Asset{Bytes: out.Bytes}
	}
	for _, e := range cfg.Entries {
		path, out, ok := meta.EntryOutput(e.Input)
		if !ok {
			continue
		}
		ep := Entrypoint{JS: path, Chunks: meta.StaticChunks(path)}
		if out.CSSBundle != "" {
			ep.CSS = append(ep.CSS, out.CSSBundle)
		}
		c.Entrypoints[e.Name] = ep
	}
	return c
}

// AssetKeys returns the compiled asset keys in sorted order.
func (c *Compilation) AssetKeys() []string {
	keys := make([]string, 0, len(c.Assets))
	for k := range c.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Favicon returns the first compiled asset key starting with FaviconPrefix.
func (c *Compilation) Favicon() (string, bool) {
	for _, key := range c.AssetKeys() {
		if strings.HasPrefix(key, FaviconPrefix) {
			return key, true
		}
	}
	return "", false
}
