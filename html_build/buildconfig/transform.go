package buildconfig

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Transform derives a new Config from an existing one.
type Transform func(Config) Config

// Apply runs the transforms against cfg in order. Later transforms win on
// conflicting keys.
func Apply(cfg Config, transforms ...Transform) Config {
	for _, t := range transforms {
		cfg = t(cfg.clone())
	}
	return cfg
}

// Defaults returns the standard transform chain, in the order it is applied.
func Defaults() []Transform {
	return []Transform{
		WithChunkSplitting(CommonChunk),
		WithFontRule(FontExtensions...),
		WithPerformanceBudget(DefaultMaxEntrypointSize, DefaultMaxAssetSize, HintsWarning),
		WithCompilePatch([]string{NullishCoalescing}, DefaultTranspile...),
	}
}

// CommonChunk is the runtime chunk and the shared chunk name.
const CommonChunk = "common"

// WithChunkSplitting forces a named runtime chunk, splits all chunk types,
// disables the default groups and moves every module referenced by two or
// more entries into the shared chunk of the same name.
func WithChunkSplitting(name string) Transform {
	return func(c Config) Config {
		c.SplitChunks = SplitChunks{
			RuntimeChunk:  name,
			Chunks:        ChunksAll,
			DefaultGroups: false,
			CacheGroups: []CacheGroup{
				{Name: name, MinChunks: 2},
			},
		}
		return c
	}
}

// FontExtensions are the file types handled by the font rule.
var FontExtensions = []string{"eot", "ttf", "woff", "woff2", "ico"}

// WithFontRule matches the given extensions, optionally followed by a
// "?v=x.y.z" version query.
func WithFontRule(extensions ...string) Transform {
	quoted := make([]string, len(extensions))
	for i, ext := range extensions {
		quoted[i] = regexp.QuoteMeta(ext)
	}
	test := regexp.MustCompile(`\.(` + strings.Join(quoted, "|") + `)(\?v=\d+\.\d+\.\d+)?$`)
	return func(c Config) Config {
		c.Font = FontRule{
			Extensions: slices.Clone(extensions),
			Test:       test,
		}
		return c
	}
}

// WithPerformanceBudget sets the per entrypoint and per asset size limits.
func WithPerformanceBudget(maxEntrypoint, maxAsset int64, hints string) Transform {
	return func(c Config) Config {
		c.Performance = Performance{
			MaxEntrypointSize: maxEntrypoint,
			MaxAssetSize:      maxAsset,
			Hints:             hints,
		}
		return c
	}
}

// NullishCoalescing is the esbuild feature name for the ?? operator.
const NullishCoalescing = "nullish-coalescing"

// DefaultTranspile lists third-party sources that must go through the
// compile rule. c137 ships untranspiled sources into the yarn cache.
var DefaultTranspile = []string{`^.*?/\.yarn/cache/c137.*?$`}

// WithCompilePatch appends features to the compile rule's lowering list and
// widens its include filter with the allow-listed patterns.
func WithCompilePatch(lower []string, allow ...string) Transform {
	include := make([]*regexp.Regexp, 0, len(allow))
	for _, pattern := range allow {
		include = append(include, regexp.MustCompile(pattern))
	}
	return func(c Config) Config {
		for _, feature := range lower {
			if !slices.Contains(c.Compile.Lower, feature) {
				c.Compile.Lower = append(c.Compile.Lower, feature)
			}
		}
		c.Compile.Include = append(c.Compile.Include, include...)
		return c
	}
}

// WithEntries sets the entry map.
func WithEntries(points ...EntryPoint) Transform {
	return func(c Config) Config {
		c.Entries = slices.Clone(points)
		return c
	}
}

// WithOutput overrides the output directory. Empty values are ignored.
func WithOutput(output string) Transform {
	return func(c Config) Config {
		if output != "" {
			c.Output = output
		}
		return c
	}
}

// WithPublicPath overrides the public URL prefix. Empty values are ignored.
func WithPublicPath(publicPath string) Transform {
	return func(c Config) Config {
		if publicPath != "" {
			c.PublicPath = strings.TrimSuffix(publicPath, "/")
		}
		return c
	}
}

// WithMinify toggles minification of bundled code.
func WithMinify(minify bool) Transform {
	return func(c Config) Config {
		c.Minify = minify
		return c
	}
}

// WithDefines adds define substitutions. Existing keys are kept.
func WithDefines(defines map[string]string) Transform {
	return func(c Config) Config {
		for k, v := range defines {
			if _, ok := c.Define[k]; !ok {
				c.Define[k] = v
			}
		}
		return c
	}
}

// ValidatePatterns validates allow-list patterns before they reach
// WithCompilePatch, which panics on bad input.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid transpile pattern %q: %w", p, err)
		}
	}
	return nil
}
