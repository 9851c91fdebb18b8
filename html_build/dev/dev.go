package dev

import (
	"context"
	"fmt"
	"os"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"

	"tools/html_build/bundle"
)

// Run builds all entries in watch mode, rewriting templates after every
// rebuild, until ctx is cancelled.
//
// Entries are discovered once at startup; adding an app or style directory
// needs a restart. The server picks the files up from the output directory.
func Run(ctx context.Context, args bundle.Args) error {
	if args.Mode == "" {
		args.Mode = "development"
	}
	args.Sourcemap = true

	plan, err := bundle.Prepare(args)
	if err != nil {
		return err
	}
	outDir := plan.Config.OutputDir()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	opts := plan.Options
	opts.Plugins = append(plan.Plugins(), bundle.TemplatesPlugin(ctx, plan, func(err error) {
		if err != nil {
			log.Error().Err(err).Msg("Rebuild failed")
			return
		}
		log.Info().Strs("entries", plan.Entries.Keys()).Msg("Templates written")
	}))
	opts.LogLevel = api.LogLevelInfo

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return fmt.Errorf("esbuild context creation failed: %v", ctxErr)
	}
	defer buildCtx.Dispose()

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("esbuild watch failed: %v", err)
	}
	log.Info().Str("src", plan.Config.SourceRoot).Str("out", outDir).Msg("Watching for changes")

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	return nil
}
