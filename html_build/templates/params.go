package templates

import (
	"fmt"

	"tools/html_build/buildconfig"
)

// EntryOptions are the per-entry template options.
type EntryOptions struct {
	Name          string `json:"name"`
	Filename      string `json:"filename"`
	Template      string `json:"template"`
	Minify        bool   `json:"minify"`
	Inject        bool   `json:"inject"`
	ScriptLoading string `json:"scriptLoading"`
	PublicPath    string `json:"publicPath"`
}

// AssetFiles are the public URLs of an entry's files.
type AssetFiles struct {
	PublicPath string
	JS         []string
	Chunks     []string
	CSS        []string
	Favicon    string
}

// AssetTags is the markup for an entry's files.
type AssetTags struct {
	HeadTags []string
	BodyTags []string
}

// HTML is the template-facing bundle of tags, files and options.
type HTML struct {
	Tags    AssetTags
	Files   AssetFiles
	Options EntryOptions
}

// Params is the data a template is executed with.
type Params struct {
	Compilation *Compilation
	BuildConfig buildconfig.Config
	HTML        HTML
}

// ParamsFunc produces template parameters for an entry at render time.
type ParamsFunc func(c *Compilation, files AssetFiles, tags AssetTags, opts EntryOptions) Params

// DefaultParams passes files and tags through unchanged.
func DefaultParams(c *Compilation, files AssetFiles, tags AssetTags, opts EntryOptions) Params {
	return Params{
		Compilation: c,
		BuildConfig: c.Options,
		HTML: HTML{
			Tags:    tags,
			Files:   files,
			Options: opts,
		},
	}
}

// StyleParams adds the style's favicon, if one was compiled, to the files.
// A style without a favicon gets its files unchanged.
func StyleParams(c *Compilation, files AssetFiles, tags AssetTags, opts EntryOptions) Params {
	if key, ok := c.Favicon(); ok {
		files.Favicon = opts.PublicPath + "/" + key
	}
	return DefaultParams(c, files, tags, opts)
}

// FilesFor returns the public URLs of the files emitted for entry name.
func FilesFor(c *Compilation, name, publicPath string) AssetFiles {
	files := AssetFiles{PublicPath: publicPath}
	ep, ok := c.Entrypoints[name]
	if !ok {
		return files
	}
	url := func(p string) string { return publicPath + "/" + p }
	files.JS = []string{url(ep.JS)}
	for _, chunk := range ep.Chunks {
		files.Chunks = append(files.Chunks, url(chunk))
	}
	for _, css := range ep.CSS {
		files.CSS = append(files.CSS, url(css))
	}
	return files
}

// TagsFor renders link and script tags for files.
func TagsFor(files AssetFiles, scriptLoading string) AssetTags {
	var tags AssetTags
	for _, css := range files.CSS {
		tags.HeadTags = append(tags.HeadTags, fmt.Sprintf(`<link href="%s" rel="stylesheet">`, css))
	}
	for _, chunk := range files.Chunks {
		tags.HeadTags = append(tags.HeadTags, fmt.Sprintf(`<link href="%s" rel="modulepreload">`, chunk))
	}
	attrs := ""
	if scriptLoading == "defer" {
		attrs = " defer"
	}
	for _, js := range files.JS {
		script := fmt.Sprintf(`<script%s type="module" src="%s"></script>`, attrs, js)
		if scriptLoading == "blocking" {
			tags.BodyTags = append(tags.BodyTags, script)
		} else {
			tags.HeadTags = append(tags.HeadTags, script)
		}
	}
	return tags
}
