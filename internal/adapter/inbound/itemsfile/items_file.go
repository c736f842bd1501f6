// Package itemsfile provides a collection session read from a YAML or JSON
// document describing the items discovered by a test runner.
package itemsfile

import (
	"fmt"
	"path/filepath"
	"polarionlint/internal/domain/errors/domain"
	"polarionlint/internal/domain/valueobject"
	"polarionlint/internal/port/inbound"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk layout of an items file.
type Document struct {
	RootDir      string     `yaml:"rootdir"`
	CollectOnly  bool       `yaml:"collect_only"`
	GenerateJSON bool       `yaml:"generate_json"`
	Items        []ItemSpec `yaml:"items"`
}

// ItemSpec describes one discovered test.
type ItemSpec struct {
	NodeID  string       `yaml:"nodeid"`
	Path    string       `yaml:"path"`
	Lineno  int          `yaml:"lineno"`
	Markers []MarkerSpec `yaml:"markers"`
	Params  ParamList    `yaml:"params"`
}

// MarkerSpec is a marker given either as a bare name or as {name, args}.
type MarkerSpec struct {
	Name string        `yaml:"name"`
	Args []interface{} `yaml:"args"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *MarkerSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m.Name = node.Value
		return nil
	}
	type plain MarkerSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*m = MarkerSpec(p)
	return nil
}

// ParamList keeps fixture parameters in document order. It decodes from a
// mapping of name to value or from a list of {name, value} entries.
type ParamList []inbound.Param

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *ParamList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(ParamList, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var value interface{}
			if err := node.Content[i+1].Decode(&value); err != nil {
				return err
			}
			out = append(out, inbound.Param{Name: node.Content[i].Value, Value: value})
		}
		*p = out
	case yaml.SequenceNode:
		var entries []struct {
			Name  string      `yaml:"name"`
			Value interface{} `yaml:"value"`
		}
		if err := node.Decode(&entries); err != nil {
			return err
		}
		out := make(ParamList, 0, len(entries))
		for _, e := range entries {
			out = append(out, inbound.Param{Name: e.Name, Value: e.Value})
		}
		*p = out
	default:
		return fmt.Errorf("params must be a mapping or a list, got %q", node.Tag)
	}
	return nil
}

// Item implements inbound.TestItem.
type Item struct {
	spec     ItemSpec
	filePath string
}

// NodeID implements inbound.TestItem.
func (i *Item) NodeID() string { return i.spec.NodeID }

// FilePath implements inbound.TestItem.
func (i *Item) FilePath() string { return i.filePath }

// FunctionLine implements inbound.TestItem.
func (i *Item) FunctionLine() int { return i.spec.Lineno }

// Markers implements inbound.TestItem.
func (i *Item) Markers() []inbound.Marker {
	out := make([]inbound.Marker, 0, len(i.spec.Markers))
	for _, m := range i.spec.Markers {
		out = append(out, inbound.Marker{Name: m.Name, Args: m.Args})
	}
	return out
}

// Params implements inbound.TestItem.
func (i *Item) Params() []inbound.Param { return i.spec.Params }

// Session implements inbound.Session over a decoded items file. The mode
// flags start from the document and may be overridden by the caller.
type Session struct {
	Root             string
	CollectOnlyMode  bool
	GenerateJSONMode bool
	items            []inbound.TestItem
}

// Items implements inbound.Session.
func (s *Session) Items() []inbound.TestItem { return s.items }

// RootDir implements inbound.Session.
func (s *Session) RootDir() string { return s.Root }

// CollectOnly implements inbound.Session.
func (s *Session) CollectOnly() bool { return s.CollectOnlyMode }

// GenerateJSON implements inbound.Session.
func (s *Session) GenerateJSON() bool { return s.GenerateJSONMode }

// Load reads and decodes the items file at path.
func Load(fs afero.Fs, path string) (*Session, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file %s: %w", path, err)
	}
	return Decode(data, filepath.Dir(path))
}

// Decode builds a session from an items document. Relative root directories
// are resolved against baseDir.
func Decode(data []byte, baseDir string) (*Session, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	root := doc.RootDir
	if root == "" {
		root = baseDir
	} else if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}

	session := &Session{
		Root:             root,
		CollectOnlyMode:  doc.CollectOnly,
		GenerateJSONMode: doc.GenerateJSON,
		items:            make([]inbound.TestItem, 0, len(doc.Items)),
	}
	for idx, spec := range doc.Items {
		if spec.NodeID == "" {
			return nil, fmt.Errorf("%w: item %d has no nodeid", domain.ErrInvalidItem, idx)
		}
		path := spec.Path
		if path == "" {
			path, _, _ = strings.Cut(spec.NodeID, valueobject.NodeIDSeparator)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		session.items = append(session.items, &Item{spec: spec, filePath: path})
	}
	return session, nil
}
