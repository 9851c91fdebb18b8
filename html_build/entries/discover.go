package entries

import (
	"fmt"
	"os"
	"path/filepath"

	"tools/html_build/buildconfig"
)

// Map is an ordered set of entries keyed by Entry.Key.
type Map struct {
	entries []Entry
	index   map[string]int
}

func newMap() *Map {
	return &Map{index: map[string]int{}}
}

func (m *Map) add(e Entry) error {
	if prev, ok := m.index[e.Key]; ok {
		return fmt.Errorf("entry key %q of %s %s collides with %s %s",
			e.Key, e.Kind, e.Entry, m.entries[prev].Kind, m.entries[prev].Entry)
	}
	m.index[e.Key] = len(m.entries)
	m.entries = append(m.entries, e)
	return nil
}

// Get returns the entry stored under key.
func (m *Map) Get(key string) (Entry, bool) {
	i, ok := m.index[key]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Keys returns the entry keys in discovery order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns the entries in discovery order.
func (m *Map) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Discover lists the application and style directories below srcRoot and
// returns one entry per directory: applications first, then styles, each in
// name order. Both roots must exist and contain at least one directory.
func Discover(srcRoot string, opts Options) (*Map, error) {
	opts = opts.withDefaults()

	apps, err := listDirs(filepath.Join(srcRoot, AppsDir))
	if err != nil {
		return nil, err
	}
	styles, err := listDirs(filepath.Join(srcRoot, StylesDir))
	if err != nil {
		return nil, err
	}

	m := newMap()
	for _, name := range apps {
		if err := m.add(appEntry(name, opts)); err != nil {
			return nil, err
		}
	}
	for _, name := range styles {
		if err := m.add(styleEntry(name, opts)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// indexExts are tried in order when resolving an extensionless entry.
var indexExts = []string{".ts", ".tsx", ".js", ".jsx"}

// ResolveIndex finds the file behind an extensionless entry such as
// "apps/map/index". The result is relative to srcRoot.
func ResolveIndex(srcRoot string, e Entry) (string, error) {
	full := filepath.Join(srcRoot, filepath.FromSlash(e.Entry))
	for _, ext := range indexExts {
		candidate := full + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.ToSlash(e.Entry + ext), nil
		}
	}
	return "", fmt.Errorf("no index file for entry %s in %s", e.Key, filepath.Dir(full))
}

// EntryPoints resolves every entry to a bundler entry point.
func (m *Map) EntryPoints(srcRoot string) ([]buildconfig.EntryPoint, error) {
	points := make([]buildconfig.EntryPoint, 0, len(m.entries))
	for _, e := range m.entries {
		input, err := ResolveIndex(srcRoot, e)
		if err != nil {
			return nil, err
		}
		points = append(points, buildconfig.EntryPoint{Name: e.Key, Input: input})
	}
	return points, nil
}
