// Package entries discovers bundle entries from the source tree.
//
// Every immediate subdirectory of src/apps becomes an application entry and
// every immediate subdirectory of src/styles becomes a style entry.
package entries

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"tools/html_build/buildconfig"
	"tools/html_build/templates"
)

const (
	AppsDir   = "apps"
	StylesDir = "styles"

	DefaultTemplate      = "mustache.tmpl"
	DefaultScriptLoading = "defer"

	stylePrefix = "style-"
)

// ReservedAppNames maps application directory names to the key they are
// stored under. "common" is also the name of the shared chunk, and an entry
// with that key would collide with it.
var ReservedAppNames = map[string]string{
	buildconfig.CommonChunk: "ignore",
}

// ErrNoEntries is returned when a source root has no entry directories.
var ErrNoEntries = errors.New("no entry directories")

// Kind distinguishes application entries from style entries.
type Kind string

const (
	KindApp   Kind = "app"
	KindStyle Kind = "style"
)

// Entry describes where one bundle starts and how its template is written.
type Entry struct {
	Key           string               `json:"-"`
	Kind          Kind                 `json:"kind"`
	Name          string               `json:"name"`
	Entry         string               `json:"entry"`
	Filename      string               `json:"filename"`
	Template      string               `json:"template"`
	Minify        bool                 `json:"minify"`
	Inject        bool                 `json:"inject"`
	ScriptLoading string               `json:"scriptLoading"`
	PublicPath    string               `json:"publicPath"`
	Params        templates.ParamsFunc `json:"-"`
}

// Options returns the template options of the entry.
func (e Entry) Options() templates.EntryOptions {
	return templates.EntryOptions{
		Name:          e.Name,
		Filename:      e.Filename,
		Template:      e.Template,
		Minify:        e.Minify,
		Inject:        e.Inject,
		ScriptLoading: e.ScriptLoading,
		PublicPath:    e.PublicPath,
	}
}

// Page returns the template page rendered for the entry.
func (e Entry) Page() templates.Page {
	return templates.Page{Key: e.Key, Options: e.Options(), Params: e.Params}
}

// Options control the fields shared by all discovered entries.
type Options struct {
	Template   string
	PublicPath string
}

func (o Options) withDefaults() Options {
	if o.Template == "" {
		o.Template = DefaultTemplate
	}
	if o.PublicPath == "" {
		o.PublicPath = buildconfig.DefaultPublicPath
	}
	return o
}

func appEntry(name string, opts Options) Entry {
	key := name
	if reserved, ok := ReservedAppNames[name]; ok {
		key = reserved
	}
	return Entry{
		Key:           key,
		Kind:          KindApp,
		Name:          name,
		Entry:         path.Join(AppsDir, name, "index"),
		Filename:      fmt.Sprintf("templates/app-%s.mustache", name),
		Template:      opts.Template,
		ScriptLoading: DefaultScriptLoading,
		PublicPath:    opts.PublicPath,
	}
}

func styleEntry(name string, opts Options) Entry {
	return Entry{
		Key:           stylePrefix + name,
		Kind:          KindStyle,
		Name:          stylePrefix + name,
		Entry:         path.Join(StylesDir, name, "index"),
		Filename:      fmt.Sprintf("templates/style-%s.mustache", name),
		Template:      opts.Template,
		ScriptLoading: DefaultScriptLoading,
		PublicPath:    opts.PublicPath,
		Params:        templates.StyleParams,
	}
}

// listDirs returns the names of the immediate subdirectories of root, sorted.
// Hidden directories are skipped.
func listDirs(root string) ([]string, error) {
	des, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry root: %w", err)
	}
	var names []string
	for _, de := range des {
		if !de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		names = append(names, de.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoEntries, root)
	}
	return names, nil
}
