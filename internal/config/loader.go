package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source records where a config value came from.
type Source struct {
	Kind   SourceKind
	Name   string // for default
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML path -> last file that set it
	Files   []string          // every loaded file, in merge order
}

// LoadWithSources loads the default config file.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields the
// defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	l := &loader{seen: make(map[string]bool)}
	layer := fileLayer{sources: map[string]Source{}}

	switch _, err := os.Stat(path); {
	case err == nil:
		layer, err = l.load(path, nil)
		if err != nil {
			return nil, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(layer.raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, withSource(err, layer.sources)
	}
	return &LoadResult{Config: cfg, Sources: layer.sources, Files: layer.files}, nil
}

// fileLayer is one file merged with everything it includes.
type fileLayer struct {
	raw     RawConfig
	sources map[string]Source
	files   []string
}

// absorb merges next over l.
func (l *fileLayer) absorb(next fileLayer) {
	l.raw = l.raw.merge(next.raw)
	for k, v := range next.sources {
		l.sources[k] = v
	}
	l.files = append(l.files, next.files...)
}

// loader walks include trees. A file reached twice is merged once; a file
// reached through itself is a cycle.
type loader struct {
	seen map[string]bool
}

func (l *loader) load(path string, stack []string) (fileLayer, error) {
	out := fileLayer{sources: map[string]Source{}}

	file, err := canonicalPath(path)
	if err != nil {
		return out, err
	}
	for _, p := range stack {
		if p == file {
			return out, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(stack, " -> "), file)
		}
	}
	if l.seen[file] {
		return out, nil
	}
	l.seen[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return out, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return out, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	var raw RawConfig
	if err := decodeStrict(data, &raw); err != nil {
		return out, fmt.Errorf("%s: %w", file, err)
	}
	// Layer images are relative to the file that names them.
	for i, layer := range raw.Layers {
		if layer.Path == nil || *layer.Path == "" {
			continue
		}
		p, err := resolveRelative(file, *layer.Path)
		if err != nil {
			return out, fmt.Errorf("%s: layers.%d.path: %w", file, i, err)
		}
		raw.Layers[i].Path = &p
	}

	root := rootNode(&doc)
	for _, ref := range includeRefs(root, file) {
		paths, err := expandInclude(file, ref.Value)
		if err != nil {
			return out, fmt.Errorf("%s:%d:%d: include %q: %w", file, ref.Source.Line, ref.Source.Column, ref.Value, err)
		}
		for _, p := range paths {
			inc, err := l.load(p, append(stack, file))
			if err != nil {
				return out, err
			}
			out.absorb(inc)
		}
	}

	// The including file wins over what it includes.
	self := fileLayer{raw: raw, sources: map[string]Source{}, files: []string{file}}
	walkSources(root, file, "", self.sources)
	out.absorb(self)
	return out, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

// expandInclude resolves an include to files. A directory contributes its
// *.yaml and *.yml files in name order.
func expandInclude(base, include string) ([]string, error) {
	path, err := resolveRelative(base, include)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			if !ent.IsDir() {
				files = append(files, filepath.Join(path, ent.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// resolveRelative expands ~ and joins relative paths onto base's directory.
func resolveRelative(base, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is empty")
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(filepath.Dir(base), p), nil
}

func rootNode(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

func nodeSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

// walkSources records the position of every mapping key and sequence item
// under its dotted path ("layers.0.path").
func walkSources(n *yaml.Node, file, prefix string, out map[string]Source) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			p := join(key.Value)
			out[p] = nodeSource(file, val)
			walkSources(val, file, p, out)
		}
	case yaml.SequenceNode:
		if prefix != "" {
			out[prefix] = nodeSource(file, n)
		}
		for i, item := range n.Content {
			p := join(strconv.Itoa(i))
			out[p] = nodeSource(file, item)
			walkSources(item, file, p, out)
		}
	}
}

type includeRef struct {
	Value  string
	Source Source
}

// includeRefs reads the top-level include key, a string or a list.
func includeRefs(root *yaml.Node, file string) []includeRef {
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		items := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			items = val.Content
		}
		var refs []includeRef
		for _, item := range items {
			if item.Kind == yaml.ScalarNode {
				refs = append(refs, includeRef{Value: item.Value, Source: nodeSource(file, item)})
			}
		}
		return refs
	}
	return nil
}

// withSource attaches the file position of a validation error's path.
func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return err
}
