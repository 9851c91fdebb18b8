package buildconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the optional YAML override file, usually html-build.yml in the
// project root.
type File struct {
	Output      string   `yaml:"output"`
	PublicPath  string   `yaml:"publicPath"`
	Transpile   []string `yaml:"transpile"`
	Lower       []string `yaml:"lower"`
	Fonts       []string `yaml:"fonts"`
	Performance struct {
		MaxEntrypointSize int64  `yaml:"maxEntrypointSize"`
		MaxAssetSize      int64  `yaml:"maxAssetSize"`
		Hints             string `yaml:"hints"`
	} `yaml:"performance"`
}

// LoadFile reads an override file. A missing file yields an empty File.
func LoadFile(path string) (*File, error) {
	f := &File{}
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := ValidatePatterns(f.Transpile); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Transforms returns the overrides as transforms to run after Defaults.
func (f *File) Transforms() []Transform {
	var ts []Transform
	if f.Output != "" {
		ts = append(ts, WithOutput(f.Output))
	}
	if f.PublicPath != "" {
		ts = append(ts, WithPublicPath(f.PublicPath))
	}
	if len(f.Fonts) > 0 {
		ts = append(ts, WithFontRule(f.Fonts...))
	}
	if len(f.Transpile) > 0 || len(f.Lower) > 0 {
		ts = append(ts, WithCompilePatch(f.Lower, f.Transpile...))
	}
	perf := f.Performance
	if perf.MaxEntrypointSize != 0 || perf.MaxAssetSize != 0 || perf.Hints != "" {
		ts = append(ts, func(c Config) Config {
			if perf.MaxEntrypointSize != 0 {
				c.Performance.MaxEntrypointSize = perf.MaxEntrypointSize
			}
			if perf.MaxAssetSize != 0 {
				c.Performance.MaxAssetSize = perf.MaxAssetSize
			}
			if perf.Hints != "" {
				c.Performance.Hints = perf.Hints
			}
			return c
		})
	}
	return ts
}
