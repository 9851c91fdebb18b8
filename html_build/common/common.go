package common

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"tools/html_build/buildconfig"
)

// Loaders maps file extensions to esbuild loaders. Font extensions are added
// from the font rule by LoadersFor. JSX is accepted in .js files.
var Loaders = map[string]api.Loader{
	".js":   api.LoaderJSX,
	".jsx":  api.LoaderJSX,
	".ts":   api.LoaderTS,
	".tsx":  api.LoaderTSX,
	".json": api.LoaderJSON,
	".css":  api.LoaderCSS,
	".mjs":  api.LoaderJS,
	".cjs":  api.LoaderJS,
	".md":   api.LoaderText,
	".svg":  api.LoaderFile,
	".png":  api.LoaderFile,
	".jpg":  api.LoaderFile,
	".gif":  api.LoaderFile,
}

// LoadersFor returns Loaders plus the file loader for every font rule
// extension.
func LoadersFor(rule buildconfig.FontRule) map[string]api.Loader {
	m := make(map[string]api.Loader, len(Loaders)+len(rule.Extensions))
	for ext, loader := range Loaders {
		m[ext] = loader
	}
	for _, ext := range rule.Extensions {
		m["."+ext] = api.LoaderFile
	}
	return m
}

// scriptLoader returns the loader for a JS/TS source file.
func scriptLoader(path string) (api.Loader, bool) {
	switch filepath.Ext(path) {
	case ".mjs", ".cjs":
		return api.LoaderJS, true
	case ".js", ".jsx":
		return api.LoaderJSX, true
	case ".ts", ".mts", ".cts":
		return api.LoaderTS, true
	case ".tsx":
		return api.LoaderTSX, true
	}
	return api.LoaderNone, false
}

// FontQueryPlugin returns an esbuild plugin that strips "?v=x.y.z" version
// suffixes from imports matched by the font rule, as found in url()
// references of icon font stylesheets. Imports without a query are left to
// esbuild.
func FontQueryPlugin(rule buildconfig.FontRule) api.Plugin {
	return api.Plugin{
		Name: "font-query",
		Setup: func(build api.PluginBuild) {
			if rule.Test == nil {
				return
			}
			build.OnResolve(api.OnResolveOptions{Filter: rule.Test.String()},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					idx := strings.IndexByte(args.Path, '?')
					if idx < 0 {
						return api.OnResolveResult{}, nil
					}
					result := build.Resolve(args.Path[:idx], api.ResolveOptions{
						ResolveDir: args.ResolveDir,
						Importer:   args.Importer,
						Kind:       args.Kind,
					})
					if len(result.Errors) > 0 {
						return api.OnResolveResult{Errors: result.Errors}, nil
					}
					return api.OnResolveResult{
						Path:      result.Path,
						Namespace: result.Namespace,
						External:  result.External,
					}, nil
				},
			)
		},
	}
}

// CompilePatchPlugin returns an esbuild plugin that lowers the compile rule's
// extra syntax features in every source file whose absolute path matches the
// rule's include patterns. Other files are compiled with the build target
// only.
func CompilePatchPlugin(rule buildconfig.CompileRule, jsx api.JSX) api.Plugin {
	return api.Plugin{
		Name: "compile-patch",
		Setup: func(build api.PluginBuild) {
			filter := rule.Filter()
			if filter == "" || len(rule.Lower) == 0 {
				return
			}
			supported := rule.Supported()
			build.OnLoad(api.OnLoadOptions{Filter: filter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					loader, ok := scriptLoader(args.Path)
					if !ok {
						return api.OnLoadResult{}, nil
					}
					data, err := readSource(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					result := api.Transform(string(data), api.TransformOptions{
						Loader:     loader,
						Target:     api.ESNext,
						Supported:  supported,
						JSX:        jsx,
						Sourcefile: args.Path,
						Sourcemap:  api.SourceMapInline,
					})
					if len(result.Errors) > 0 {
						return api.OnLoadResult{Errors: result.Errors, Warnings: result.Warnings}, nil
					}
					contents := string(result.Code)
					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     api.LoaderJS,
						ResolveDir: filepath.Dir(args.Path),
						Warnings:   result.Warnings,
					}, nil
				},
			)
		},
	}
}

// readSource reads a source file. Paths with a ".zip/" segment point into a
// Yarn Plug'n'Play cache archive and are read from the archive member.
func readSource(path string) ([]byte, error) {
	i := strings.Index(path, ".zip/")
	if i < 0 {
		return os.ReadFile(path)
	}
	archive, member := path[:i+len(".zip")], path[i+len(".zip/"):]
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", archive, err)
	}
	defer r.Close()

	f, err := r.Open(member)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", member, archive, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
