package templates

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Templates use <% %> delimiters so that mustache tags in the output, such as
// {{urlPrefix}}, pass through untouched.
const (
	leftDelim  = "<%"
	rightDelim = "%>"
)

//go:embed default.mustache.tmpl
var defaultTemplate string

// Page is one template to render.
type Page struct {
	Key     string
	Options EntryOptions
	Params  ParamsFunc
}

// Loader finds and parses entry templates. A template is looked up relative
// to the source root; if it does not exist there the built-in one is used.
type Loader struct {
	dir   string
	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewLoader returns a Loader reading templates from dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, cache: map[string]*template.Template{}}
}

// Load returns the parsed template with the given name.
func (l *Loader) Load(name string) (*template.Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.cache[name]; ok {
		return t, nil
	}
	text := defaultTemplate
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	switch {
	case err == nil:
		text = string(data)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	t, err := template.New(name).Delims(leftDelim, rightDelim).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	l.cache[name] = t
	return t, nil
}

// Render executes the page's template for the compilation.
func (l *Loader) Render(c *Compilation, page Page) ([]byte, error) {
	t, err := l.Load(page.Options.Template)
	if err != nil {
		return nil, err
	}
	files := FilesFor(c, page.Key, page.Options.PublicPath)
	tags := TagsFor(files, page.Options.ScriptLoading)
	params := page.Params
	if params == nil {
		params = DefaultParams
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, params(c, files, tags, page.Options)); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", page.Options.Filename, err)
	}
	return buf.Bytes(), nil
}

// RenderAll renders every page and writes it below outDir.
func (l *Loader) RenderAll(ctx context.Context, outDir string, c *Compilation, pages []Page) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, page := range pages {
		page := page
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, ok := c.Entrypoints[page.Key]; !ok {
				return fmt.Errorf("no build output for entry %s", page.Key)
			}
			data, err := l.Render(c, page)
			if err != nil {
				return err
			}
			out := filepath.Join(outDir, filepath.FromSlash(page.Options.Filename))
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return fmt.Errorf("failed to create template directory: %w", err)
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			log.Debug().Str("entry", page.Key).Str("file", page.Options.Filename).Msg("Wrote template")
			return nil
		})
	}
	return g.Wait()
}
