package buildconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_ChunkSplitting(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		points := make([]EntryPoint, n)
		for i := range points {
			points[i] = EntryPoint{Name: string(rune('a' + i)), Input: "apps/x/index.js"}
		}
		cfg := Apply(Default("/p"), append(Defaults(), WithEntries(points...))...)

		assert.Equal(t, "common", cfg.SplitChunks.RuntimeChunk)
		assert.Equal(t, ChunksAll, cfg.SplitChunks.Chunks)
		assert.False(t, cfg.SplitChunks.DefaultGroups)
		assert.Equal(t, []CacheGroup{{Name: "common", MinChunks: 2}}, cfg.SplitChunks.CacheGroups)
	}
}

func TestFontRule(t *testing.T) {
	cfg := Apply(Default("/p"), Defaults()...)

	tests := []struct {
		path string
		want bool
	}{
		{"icon.woff2", true},
		{"icon.woff2?v=1.2.3", true},
		{"fonts/fa.eot", true},
		{"fa.ttf?v=4.7.0", true},
		{"favicon.ico", true},
		{"icon.woff", true},
		{"icon.svg", false},
		{"icon.woff2?v=1.2", false},
		{"icon.woff2.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Font.Matches(tt.path))
		})
	}
}

func TestPerformanceBudgetDefaults(t *testing.T) {
	cfg := Apply(Default("/p"), Defaults()...)

	assert.Equal(t, int64(2048000), cfg.Performance.MaxEntrypointSize)
	assert.Equal(t, int64(1024000), cfg.Performance.MaxAssetSize)
	assert.Equal(t, HintsWarning, cfg.Performance.Hints)
}

func TestCompilePatch(t *testing.T) {
	cfg := Apply(Default("/p"), Defaults()...)

	assert.Equal(t, []string{NullishCoalescing}, cfg.Compile.Lower)
	assert.Equal(t, map[string]bool{"nullish-coalescing": false}, cfg.Compile.Supported())
	require.Len(t, cfg.Compile.Include, 2)

	assert.True(t, cfg.Compile.Include[0].MatchString("/p/src/apps/map/index.tsx"))
	assert.False(t, cfg.Compile.Include[0].MatchString("/p/node_modules/react/index.js"))
	assert.True(t, cfg.Compile.Include[1].MatchString("/home/u/proj/.yarn/cache/c137-npm-1.0.0.zip/node_modules/c137/index.js"))
	assert.False(t, cfg.Compile.Include[1].MatchString("/home/u/proj/.yarn/cache/react-npm-18.zip/node_modules/react/index.js"))

	assert.Equal(t, "(?:"+cfg.Compile.Include[0].String()+")|(?:"+cfg.Compile.Include[1].String()+")", cfg.Compile.Filter())
}

func TestCompilePatch_NoDuplicateFeatures(t *testing.T) {
	cfg := Apply(Default("/p"),
		WithCompilePatch([]string{NullishCoalescing}),
		WithCompilePatch([]string{NullishCoalescing, "optional-chain"}),
	)
	assert.Equal(t, []string{NullishCoalescing, "optional-chain"}, cfg.Compile.Lower)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	base := Apply(Default("/p"), WithEntries(EntryPoint{Name: "a", Input: "apps/a/index.js"}))
	base.Define["x"] = "1"

	next := Apply(base,
		WithEntries(EntryPoint{Name: "b", Input: "apps/b/index.js"}),
		WithDefines(map[string]string{"y": "2"}),
		WithCompilePatch([]string{"optional-chain"}, `^/vendor/`),
	)

	assert.Equal(t, []EntryPoint{{Name: "a", Input: "apps/a/index.js"}}, base.Entries)
	assert.Equal(t, map[string]string{"x": "1"}, base.Define)
	assert.Len(t, base.Compile.Include, 1)
	assert.Empty(t, base.Compile.Lower)

	assert.Equal(t, []EntryPoint{{Name: "b", Input: "apps/b/index.js"}}, next.Entries)
	assert.Equal(t, map[string]string{"x": "1", "y": "2"}, next.Define)
}

func TestApply_LaterTransformWins(t *testing.T) {
	cfg := Apply(Default("/p"), WithPublicPath("/a/"), WithPublicPath("/b"))
	assert.Equal(t, "/b", cfg.PublicPath)

	cfg = Apply(Default("/p"), WithPublicPath(""))
	assert.Equal(t, DefaultPublicPath, cfg.PublicPath)
}

func TestWithDefines_KeepsExisting(t *testing.T) {
	cfg := Apply(Default("/p"),
		WithDefines(map[string]string{"process.env.NODE_ENV": `"production"`}),
		WithDefines(map[string]string{"process.env.NODE_ENV": `"development"`}),
	)
	assert.Equal(t, `"production"`, cfg.Define["process.env.NODE_ENV"])
}

func TestValidate(t *testing.T) {
	valid := Apply(Default("/p"), append(Defaults(), WithEntries(EntryPoint{Name: "a", Input: "apps/a/index.js"}))...)
	require.NoError(t, valid.Validate())

	noEntries := Apply(Default("/p"), Defaults()...)
	assert.Error(t, noEntries.Validate())

	badGroup := Apply(valid, func(c Config) Config {
		c.SplitChunks.CacheGroups[0].MinChunks = 3
		return c
	})
	assert.ErrorContains(t, badGroup.Validate(), "minChunks 3")

	badHints := Apply(valid, WithPerformanceBudget(1, 1, "loud"))
	assert.ErrorContains(t, badHints.Validate(), "loud")
}

func TestOutputDir(t *testing.T) {
	cfg := Default("/p/src/main/javascript")
	assert.Equal(t, "/p/build/generated/src/main/resources/de/ii/ogcapi/html", cfg.OutputDir())

	cfg = Apply(cfg, WithOutput("/abs/out"))
	assert.Equal(t, "/abs/out", cfg.OutputDir())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "html-build.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
publicPath: /static
transpile:
  - '^.*?/node_modules/ol-mapbox-style/'
performance:
  maxAssetSize: 10
  hints: error
`), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)

	cfg := Apply(Default(dir), append(Defaults(), f.Transforms()...)...)
	assert.Equal(t, "/static", cfg.PublicPath)
	assert.Equal(t, int64(10), cfg.Performance.MaxAssetSize)
	assert.Equal(t, DefaultMaxEntrypointSize, cfg.Performance.MaxEntrypointSize)
	assert.Equal(t, HintsError, cfg.Performance.Hints)
	require.Len(t, cfg.Compile.Include, 3)
	assert.True(t, cfg.Compile.Include[2].MatchString("/x/node_modules/ol-mapbox-style/dist/index.js"))
}

func TestLoadFile_Missing(t *testing.T) {
	f, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Empty(t, f.Transforms())
}

func TestLoadFile_BadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "html-build.yml")
	require.NoError(t, os.WriteFile(path, []byte("transpile: ['(']\n"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "invalid transpile pattern")
}
