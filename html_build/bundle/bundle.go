package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tools/html_build/buildconfig"
	"tools/html_build/common"
	"tools/html_build/entries"
	"tools/html_build/templates"
)

// Args holds the arguments for the build and dev subcommands.
type Args struct {
	Root       string
	Output     string
	ConfigFile string
	PublicPath string
	Template   string
	Hints      string
	Mode       string
	EnvFile    string
	EnvPrefix  string
	Define     []string
	Minify     bool
	Sourcemap  bool
}

// Plan is a fully resolved build: the discovered entries, the effective
// configuration and the esbuild options derived from it.
type Plan struct {
	Entries *entries.Map
	Config  buildconfig.Config
	Options api.BuildOptions
}

// Pages returns the template pages of every entry.
func (p *Plan) Pages() []templates.Page {
	es := p.Entries.Entries()
	pages := make([]templates.Page, len(es))
	for i, e := range es {
		pages[i] = e.Page()
	}
	return pages
}

// Prepare discovers entries and assembles the configuration. It does not
// touch the output directory.
func Prepare(args Args) (*Plan, error) {
	root := args.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	mode := args.Mode
	if mode == "" {
		mode = "production"
	}

	file, err := buildconfig.LoadFile(args.ConfigFile)
	if err != nil {
		return nil, err
	}

	defines, err := common.ParseDefines(args.Define)
	if err != nil {
		return nil, err
	}
	var envDefines map[string]string
	if args.EnvFile != "" {
		envDefines, err = common.LoadEnvFiles(args.EnvFile, mode, args.EnvPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	transforms := buildconfig.Defaults()
	transforms = append(transforms, file.Transforms()...)
	transforms = append(transforms,
		buildconfig.WithOutput(args.Output),
		buildconfig.WithPublicPath(args.PublicPath),
		buildconfig.WithMinify(args.Minify),
		buildconfig.WithDefines(defines),
		buildconfig.WithDefines(envDefines),
		buildconfig.WithDefines(common.ModeDefines(mode)),
	)
	if args.Hints != "" {
		transforms = append(transforms, withHints(args.Hints))
	}
	base := buildconfig.Apply(buildconfig.Default(root), transforms...)

	m, err := entries.Discover(base.SourceRoot, entries.Options{
		Template:   args.Template,
		PublicPath: base.PublicPath,
	})
	if err != nil {
		return nil, err
	}
	points, err := m.EntryPoints(base.SourceRoot)
	if err != nil {
		return nil, err
	}
	cfg := buildconfig.Apply(base, buildconfig.WithEntries(points...))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build configuration: %w", err)
	}

	opts := Options(cfg)
	if args.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}
	return &Plan{Entries: m, Config: cfg, Options: opts}, nil
}

func withHints(hints string) buildconfig.Transform {
	return func(c buildconfig.Config) buildconfig.Config {
		c.Performance.Hints = hints
		return c
	}
}

// Options translates a configuration into esbuild build options. Modules
// shared by two or more entries end up in chunks named after the shared
// cache group. The output is ES modules, so no separate loader runtime is
// emitted.
func Options(cfg buildconfig.Config) api.BuildOptions {
	points := make([]api.EntryPoint, len(cfg.Entries))
	for i, e := range cfg.Entries {
		points[i] = api.EntryPoint{InputPath: "./" + e.Input, OutputPath: e.Name}
	}
	return api.BuildOptions{
		EntryPointsAdvanced: points,
		AbsWorkingDir:       cfg.SourceRoot,
		Outdir:              cfg.OutputDir(),
		Bundle:              true,
		Write:               true,
		Metafile:            true,
		Splitting:           cfg.SplitChunks.Chunks == buildconfig.ChunksAll,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		Target:              cfg.Target,
		JSX:                 api.JSXAutomatic,
		EntryNames:          "[name].[hash]",
		ChunkNames:          chunkName(cfg.SplitChunks) + "-[hash]",
		AssetNames:          "assets/[name].[hash]",
		Loader:              common.LoadersFor(cfg.Font),
		Define:              cfg.Define,
		MinifySyntax:        cfg.Minify,
		MinifyWhitespace:    cfg.Minify,
		MinifyIdentifiers:   cfg.Minify,
		LogLevel:            api.LogLevelSilent,
	}
}

func chunkName(s buildconfig.SplitChunks) string {
	if len(s.CacheGroups) > 0 {
		return s.CacheGroups[0].Name
	}
	if s.RuntimeChunk != "" {
		return s.RuntimeChunk
	}
	return "chunk"
}

// Run bundles all discovered entries and writes their templates.
func Run(ctx context.Context, args Args) error {
	plan, err := Prepare(args)
	if err != nil {
		return err
	}
	outDir := plan.Config.OutputDir()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	log.Info().
		Strs("entries", plan.Entries.Keys()).
		Str("out", outDir).
		Msg("Building assets")

	var finished error
	opts := plan.Options
	opts.Plugins = append(plan.Plugins(), TemplatesPlugin(ctx, plan, func(err error) { finished = err }))
	result := api.Build(opts)
	logMessages(result.Warnings, result.Errors)

	if finished != nil {
		return finished
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("esbuild bundle failed with %d errors", len(result.Errors))
	}
	log.Info().Int("files", len(result.OutputFiles)).Msg("Build complete")
	return nil
}

// Plugins returns the esbuild plugins every build of the plan uses.
func (p *Plan) Plugins() []api.Plugin {
	return []api.Plugin{
		common.FontQueryPlugin(p.Config.Font),
		common.CompilePatchPlugin(p.Config.Compile, api.JSXAutomatic),
	}
}

// TemplatesPlugin returns an esbuild plugin that, at the end of every
// successful build, checks the performance budget and renders the entry
// templates. done is called with the outcome of each build.
func TemplatesPlugin(ctx context.Context, plan *Plan, done func(error)) api.Plugin {
	return api.Plugin{
		Name: "templates",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}
				// Templates are reloaded on every build so edits show up in watch mode.
				loader := templates.NewLoader(plan.Config.SourceRoot)
				var end api.OnEndResult
				err := finish(ctx, plan, loader, result.Metafile, &end)
				if err != nil {
					end.Errors = append(end.Errors, api.Message{Text: err.Error()})
				}
				if done != nil {
					done(err)
				}
				return end, nil
			})
		},
	}
}

func finish(ctx context.Context, plan *Plan, loader *templates.Loader, metafile string, end *api.OnEndResult) error {
	outDir := plan.Config.OutputDir()
	meta, err := buildconfig.ParseMetafile(metafile, plan.Config.SourceRoot, outDir)
	if err != nil {
		return err
	}

	perf := plan.Config.Performance
	violations := perf.Check(meta, plan.Config.Entries)
	for _, v := range violations {
		end.Warnings = append(end.Warnings, api.Message{Text: v.String()})
	}
	if err := perf.Err(violations); err != nil {
		return err
	}

	compilation := templates.NewCompilation(meta, plan.Config)
	if err := loader.RenderAll(ctx, outDir, compilation, plan.Pages()); err != nil {
		return fmt.Errorf("failed to write templates: %w", err)
	}
	return nil
}

// logMessages reports esbuild messages through the structured logger.
func logMessages(warnings, errs []api.Message) {
	for _, m := range warnings {
		withLocation(log.Warn(), m).Msg(m.Text)
	}
	for _, m := range errs {
		withLocation(log.Error(), m).Msg(m.Text)
	}
}

func withLocation(ev *zerolog.Event, m api.Message) *zerolog.Event {
	if m.PluginName != "" {
		ev = ev.Str("plugin", m.PluginName)
	}
	if m.Location != nil {
		ev = ev.Str("file", m.Location.File).Int("line", m.Location.Line).Int("column", m.Location.Column)
	}
	return ev
}
