package buildconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metafile as esbuild writes it with AbsWorkingDir=/p/src and Outdir=/p/out.
const testMetafile = `{
  "inputs": {},
  "outputs": {
    "../out/map.AAAA.js": {
      "bytes": 1500000,
      "imports": [
        {"path": "../out/common-BBBB.js", "kind": "import-statement"},
        {"path": "../out/lazy.CCCC.js", "kind": "dynamic-import"},
        {"path": "https://cdn.example.com/x.js", "kind": "import-statement", "external": true}
      ],
      "entryPoint": "apps/map/index.tsx",
      "cssBundle": "../out/map.DDDD.css"
    },
    "../out/map.AAAA.js.map": {"bytes": 9000000, "imports": []},
    "../out/common-BBBB.js": {"bytes": 600000, "imports": []},
    "../out/lazy.CCCC.js": {"bytes": 900000, "imports": []},
    "../out/map.DDDD.css": {"bytes": 10000, "imports": []},
    "../out/style-default.EEEE.js": {"bytes": 100, "imports": [], "entryPoint": "styles/default/index.js"},
    "../out/assets/favicon.FFFF.ico": {"bytes": 1100000, "imports": []}
  }
}`

func TestParseMetafile(t *testing.T) {
	meta, err := ParseMetafile(testMetafile, "/p/src", "/p/out")
	require.NoError(t, err)

	assert.Contains(t, meta.Outputs, "map.AAAA.js")
	assert.Contains(t, meta.Outputs, "assets/favicon.FFFF.ico")

	path, out, ok := meta.EntryOutput("apps/map/index.tsx")
	require.True(t, ok)
	assert.Equal(t, "map.AAAA.js", path)
	assert.Equal(t, "map.DDDD.css", out.CSSBundle)
	assert.Equal(t, "common-BBBB.js", out.Imports[0].Path)
	assert.Equal(t, "https://cdn.example.com/x.js", out.Imports[2].Path)

	assert.Equal(t, []string{"common-BBBB.js"}, meta.StaticChunks(path))

	_, _, ok = meta.EntryOutput("apps/missing/index.js")
	assert.False(t, ok)
}

func TestParseMetafile_Invalid(t *testing.T) {
	_, err := ParseMetafile("{", "/p/src", "/p/out")
	assert.Error(t, err)
}

func TestPerformanceCheck(t *testing.T) {
	meta, err := ParseMetafile(testMetafile, "/p/src", "/p/out")
	require.NoError(t, err)

	p := Performance{MaxEntrypointSize: DefaultMaxEntrypointSize, MaxAssetSize: DefaultMaxAssetSize, Hints: HintsWarning}
	entries := []EntryPoint{
		{Name: "map", Input: "apps/map/index.tsx"},
		{Name: "style-default", Input: "styles/default/index.js"},
	}
	violations := p.Check(meta, entries)

	assert.Equal(t, []Violation{
		{Kind: "asset", Name: "assets/favicon.FFFF.ico", Bytes: 1100000, Limit: DefaultMaxAssetSize},
		{Kind: "asset", Name: "map.AAAA.js", Bytes: 1500000, Limit: DefaultMaxAssetSize},
		{Kind: "entrypoint", Name: "map", Bytes: 2110000, Limit: DefaultMaxEntrypointSize},
	}, violations)
	assert.NoError(t, p.Err(violations))

	p.Hints = HintsError
	err = p.Err(violations)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))

	p.Hints = HintsOff
	assert.Empty(t, p.Check(meta, entries))
}
