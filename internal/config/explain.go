package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Paths follow the file layout, with list items addressed by index:
//
//	global.fps
//	global.easing
//	compositor.model
//	parallax.sources.cursor.weight
//	input.cursor.ema_alpha
//	monitors.DP-1.shift
//	layers.0.shift_multiplier
//	output.websocket.listen
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	// Lists are replaced as a whole, so an item without its own source
	// still comes from the file that set the list.
	if strings.HasPrefix(path, "layers.") {
		if src, ok := res.Sources["layers"]; ok {
			return value, src, nil
		}
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// lookupValue walks the marshaled form of cfg, so every path Explain accepts
// is spelled the way it is written in the file.
func lookupValue(cfg *Config, path string) (any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	for _, part := range strings.Split(path, ".") {
		switch cur := node.(type) {
		case map[string]any:
			next, ok := cur[part]
			if !ok {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			node = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(cur) {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			node = cur[idx]
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	}
	return node, nil
}
