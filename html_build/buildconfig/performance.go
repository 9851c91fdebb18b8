package buildconfig

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultMaxEntrypointSize int64 = 2048000
	DefaultMaxAssetSize      int64 = 1024000
)

// Hint modes for budget violations.
const (
	HintsWarning = "warning"
	HintsError   = "error"
	HintsOff     = "off"
)

// ErrBudgetExceeded is returned when a budget is exceeded and hints are set
// to error.
var ErrBudgetExceeded = errors.New("performance budget exceeded")

// Performance holds the size thresholds.
type Performance struct {
	MaxEntrypointSize int64
	MaxAssetSize      int64
	Hints             string
}

func (p Performance) validate() error {
	switch p.Hints {
	case HintsWarning, HintsError, HintsOff:
	default:
		return fmt.Errorf("unknown performance hints mode %q", p.Hints)
	}
	if p.MaxEntrypointSize <= 0 || p.MaxAssetSize <= 0 {
		return fmt.Errorf("performance budget must be positive")
	}
	return nil
}

// Violation is a single asset or entrypoint over its limit.
type Violation struct {
	Kind  string
	Name  string
	Bytes int64
	Limit int64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s is %d bytes, limit %d", v.Kind, v.Name, v.Bytes, v.Limit)
}

// Check compares every emitted asset and every entrypoint (its entry file,
// static chunks and CSS bundle) against the budget. Source maps are not
// counted. entries maps entry names to their input paths.
func (p Performance) Check(meta *Metafile, entries []EntryPoint) []Violation {
	if p.Hints == HintsOff || meta == nil {
		return nil
	}
	var out []Violation
	for path, o := range meta.Outputs {
		if strings.HasSuffix(path, ".map") {
			continue
		}
		if o.Bytes > p.MaxAssetSize {
			out = append(out, Violation{Kind: "asset", Name: path, Bytes: o.Bytes, Limit: p.MaxAssetSize})
		}
	}
	for _, e := range entries {
		path, o, ok := meta.EntryOutput(e.Input)
		if !ok {
			continue
		}
		size := o.Bytes
		for _, chunk := range meta.StaticChunks(path) {
			size += meta.Outputs[chunk].Bytes
		}
		if o.CSSBundle != "" {
			size += meta.Outputs[o.CSSBundle].Bytes
		}
		if size > p.MaxEntrypointSize {
			out = append(out, Violation{Kind: "entrypoint", Name: e.Name, Bytes: size, Limit: p.MaxEntrypointSize})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Err returns ErrBudgetExceeded when violations must fail the build.
func (p Performance) Err(violations []Violation) error {
	if len(violations) == 0 || p.Hints != HintsError {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrBudgetExceeded, violations[0])
}
