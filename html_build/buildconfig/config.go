// Package buildconfig holds the build configuration for the HTML bundle.
//
// A Config is a plain value. It is never mutated in place: every change is a
// Transform that takes a Config and returns a new one, and Apply runs a list
// of transforms in the order given.
package buildconfig

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/evanw/esbuild/pkg/api"
)

// DefaultOutput is the output directory relative to the project root.
const DefaultOutput = "../../../build/generated/src/main/resources/de/ii/ogcapi/html"

// DefaultPublicPath is the URL prefix emitted assets are served under. The
// placeholder is substituted by the server when it renders a template.
const DefaultPublicPath = "{{urlPrefix}}/ogcapi-html"

// ChunksAll enables code splitting across all chunk types.
const ChunksAll = "all"

// EntryPoint names one bundler entry and its input file, relative to the
// source root.
type EntryPoint struct {
	Name  string
	Input string
}

// CacheGroup pulls modules shared by at least MinChunks entries into the
// chunk called Name.
type CacheGroup struct {
	Name      string
	MinChunks int
}

// SplitChunks is the chunk splitting policy.
type SplitChunks struct {
	RuntimeChunk  string
	Chunks        string
	DefaultGroups bool
	CacheGroups   []CacheGroup
}

// FontRule routes matching files through the file loader.
type FontRule struct {
	Extensions []string
	Test       *regexp.Regexp
}

// Matches reports whether an import path is handled by the font rule.
func (r FontRule) Matches(path string) bool {
	return r.Test != nil && r.Test.MatchString(path)
}

// CompileRule lowers extra syntax features for sources whose absolute path
// matches one of the Include patterns.
type CompileRule struct {
	Include []*regexp.Regexp
	Lower   []string
}

// Filter returns a single esbuild filter matching any include pattern.
func (r CompileRule) Filter() string {
	if len(r.Include) == 0 {
		return ""
	}
	filter := ""
	for i, re := range r.Include {
		if i > 0 {
			filter += "|"
		}
		filter += "(?:" + re.String() + ")"
	}
	return filter
}

// Supported returns the esbuild feature overrides that force lowering.
func (r CompileRule) Supported() map[string]bool {
	m := make(map[string]bool, len(r.Lower))
	for _, feature := range r.Lower {
		m[feature] = false
	}
	return m
}

// Config is the complete build configuration.
type Config struct {
	Root        string
	SourceRoot  string
	Output      string
	PublicPath  string
	Target      api.Target
	Minify      bool
	Define      map[string]string
	Entries     []EntryPoint
	SplitChunks SplitChunks
	Font        FontRule
	Performance Performance
	Compile     CompileRule
}

// Default returns the base configuration for a project rooted at root.
// Entries, chunking, fonts, budgets and compile patches are added by
// transforms.
func Default(root string) Config {
	src := filepath.Join(root, "src")
	return Config{
		Root:       root,
		SourceRoot: src,
		Output:     DefaultOutput,
		PublicPath: DefaultPublicPath,
		Target:     api.ES2020,
		Define:     map[string]string{},
		Compile: CompileRule{
			Include: []*regexp.Regexp{sourceInclude(src)},
		},
	}
}

// OutputDir returns the absolute output directory.
func (c Config) OutputDir() string {
	if filepath.IsAbs(c.Output) {
		return c.Output
	}
	dir, err := filepath.Abs(filepath.Join(c.Root, c.Output))
	if err != nil {
		return filepath.Join(c.Root, c.Output)
	}
	return dir
}

// Validate checks that the configuration can be expressed as esbuild options.
func (c Config) Validate() error {
	if len(c.Entries) == 0 {
		return fmt.Errorf("no entry points configured")
	}
	for _, g := range c.SplitChunks.CacheGroups {
		// esbuild always extracts code shared by two or more entry points
		if g.MinChunks != 2 {
			return fmt.Errorf("cache group %q: minChunks %d is not supported, only 2", g.Name, g.MinChunks)
		}
	}
	if c.SplitChunks.DefaultGroups {
		return fmt.Errorf("default cache groups are not supported")
	}
	return c.Performance.validate()
}

// clone returns a copy that shares no slices or maps with c.
func (c Config) clone() Config {
	out := c
	out.Define = make(map[string]string, len(c.Define))
	for k, v := range c.Define {
		out.Define[k] = v
	}
	out.Entries = slices.Clone(c.Entries)
	out.SplitChunks.CacheGroups = slices.Clone(c.SplitChunks.CacheGroups)
	out.Font.Extensions = slices.Clone(c.Font.Extensions)
	out.Compile.Include = slices.Clone(c.Compile.Include)
	out.Compile.Lower = slices.Clone(c.Compile.Lower)
	return out
}

// sourceInclude matches every file below the source root.
func sourceInclude(src string) *regexp.Regexp {
	abs, err := filepath.Abs(src)
	if err != nil {
		abs = src
	}
	return regexp.MustCompile("^" + regexp.QuoteMeta(filepath.ToSlash(abs)) + "/")
}
