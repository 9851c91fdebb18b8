package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thought-machine/go-flags"

	"tools/html_build/bundle"
	"tools/html_build/dev"
	"tools/html_build/entries"
)

type buildOpts struct {
	Root       string   `short:"r" long:"root" default:"." env:"HTML_BUILD_ROOT" description:"Project root containing src/apps and src/styles"`
	Out        string   `short:"o" long:"out" env:"HTML_BUILD_OUT" description:"Output directory, relative to the root (default: the generated resources directory)"`
	Config     string   `short:"c" long:"config" default:"html-build.yml" env:"HTML_BUILD_CONFIG" description:"YAML overrides, relative to the root"`
	PublicPath string   `long:"public-path" env:"HTML_BUILD_PUBLIC_PATH" description:"URL prefix for emitted assets"`
	Template   string   `long:"template" description:"Template used for every entry, relative to src"`
	Hints      string   `long:"hints" choice:"warning" choice:"error" choice:"off" description:"How to report performance budget violations"`
	EnvFile    string   `long:"env-file" description:"Base .env file whose variables are exposed as import.meta.env"`
	EnvPrefix  string   `long:"env-prefix" default:"HTML_" description:"Only expose .env variables with this prefix"`
	Define     []string `long:"define" description:"Define substitutions (key=value)"`
	Minify     bool     `long:"minify" description:"Minify output (syntax, whitespace, identifiers)"`
	Sourcemap  bool     `long:"sourcemap" description:"Write linked source maps"`
}

func (o buildOpts) args(mode string) bundle.Args {
	config := o.Config
	if config != "" && !filepath.IsAbs(config) {
		config = filepath.Join(o.Root, config)
	}
	return bundle.Args{
		Root:       o.Root,
		Output:     o.Out,
		ConfigFile: config,
		PublicPath: o.PublicPath,
		Template:   o.Template,
		Hints:      o.Hints,
		Mode:       mode,
		EnvFile:    o.EnvFile,
		EnvPrefix:  o.EnvPrefix,
		Define:     o.Define,
		Minify:     o.Minify,
		Sourcemap:  o.Sourcemap,
	}
}

var opts = struct {
	Usage string

	Verbose bool `short:"v" long:"verbose" description:"Enable debug logging"`
	JSONLog bool `long:"json-log" env:"HTML_BUILD_JSON_LOG" description:"Log as JSON instead of console output"`

	Build   buildOpts `command:"build" alias:"b" description:"Bundle all apps and styles and write their templates"`
	Dev     buildOpts `command:"dev" alias:"d" description:"Rebuild apps, styles and templates on every change"`
	Entries struct {
		Root string `short:"r" long:"root" default:"." env:"HTML_BUILD_ROOT" description:"Project root containing src/apps and src/styles"`
	} `command:"entries" alias:"e" description:"Print the discovered entry map as JSON"`
}{
	Usage: `
html_build bundles the server-rendered HTML front end.

Every directory in src/apps and src/styles is an entry. Each entry is bundled
with esbuild and gets a mustache template under templates/ in the output
directory that references its scripts, stylesheets and favicon.
`,
}

var subCommands = map[string]func(ctx context.Context) int{
	"build": func(ctx context.Context) int {
		if err := bundle.Run(ctx, opts.Build.args("production")); err != nil {
			log.Fatal().Err(err).Msg("Build failed")
		}
		return 0
	},
	"dev": func(ctx context.Context) int {
		if err := dev.Run(ctx, opts.Dev.args("development")); err != nil {
			log.Fatal().Err(err).Msg("Dev build failed")
		}
		return 0
	},
	"entries": func(ctx context.Context) int {
		m, err := entries.Discover(filepath.Join(opts.Entries.Root, "src"), entries.Options{})
		if err != nil {
			log.Fatal().Err(err).Msg("Discovery failed")
		}
		byKey := make(map[string]entries.Entry, m.Len())
		for _, e := range m.Entries() {
			byKey[e.Key] = e
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(byKey); err != nil {
			log.Fatal().Err(err).Msg("Failed to write entries")
		}
		return 0
	},
}

func setupLogging() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if opts.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if !opts.JSONLog {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	p := flags.NewParser(&opts, flags.Default)
	if _, err := p.Parse(); err != nil {
		os.Exit(1)
	}
	if p.Active == nil {
		p.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := subCommands[p.Active.Name](ctx)
	stop()
	os.Exit(code)
}
