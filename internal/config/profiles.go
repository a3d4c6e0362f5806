package config

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lox/crimelens/internal/apperr"
	"github.com/lox/crimelens/internal/llm"
	"github.com/lox/crimelens/internal/prompt"
)

// LoadProfiles reads a generation profile file and applies it on top of
// base. Each top-level table names a prompt kind; keys left out of a table
// keep the base value:
//
//	[spatial]
//	temperature = 0.2
//	strip_markup = true
//
// An empty path returns a copy of base.
func LoadProfiles(path string, base map[prompt.Kind]llm.Params) (map[prompt.Kind]llm.Params, error) {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[prompt.Kind]llm.Params)
	}
	if path == "" {
		return out, nil
	}

	var raw map[string]toml.Primitive
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, apperr.Configuration("profiles", err)
	}

	for name, prim := range raw {
		kind, err := prompt.ParseKind(name)
		if err != nil {
			return nil, apperr.Configuration("profiles", err)
		}
		p, ok := out[kind]
		if !ok {
			p = llm.DefaultParams()
		}
		if err := md.PrimitiveDecode(prim, &p); err != nil {
			return nil, apperr.Configuration("profiles", fmt.Errorf("%s: %w", name, err))
		}
		out[kind] = p
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, apperr.Configuration("profiles", fmt.Errorf("unknown keys: %s", strings.Join(keys, ", ")))
	}
	return out, nil
}
