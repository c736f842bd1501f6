package service

import (
	"context"
	"polarionlint/internal/domain/service/docstring"
	"polarionlint/internal/domain/valueobject"
	"polarionlint/internal/port/outbound"
	"strings"
)

// Default name prefixes selecting tests when only tests are walked.
const (
	DefaultTestClassPrefix    = "Test"
	DefaultTestFunctionPrefix = "test_"
)

// indentStep is the indent expected between a definition and its docstring body.
const indentStep = 4

// NodeDocstring is one walked node: its parsed record plus the raw docstring.
type NodeDocstring struct {
	Record    valueobject.DocstringRecord
	Text      string
	HasText   bool
	FirstLine int
}

// FileDocstrings holds the docstring records of one source file in document order.
// SyntaxErrors is set when the source parsed only through error recovery.
type FileDocstrings struct {
	Path         string
	Nodes        []NodeDocstring
	SyntaxErrors bool
	index        map[string]int
}

func newFileDocstrings(path string) *FileDocstrings {
	return &FileDocstrings{Path: path, index: make(map[string]int)}
}

func (f *FileDocstrings) add(node NodeDocstring) {
	if i, ok := f.index[node.Record.NodeID]; ok {
		// a redefinition replaces the earlier node
		f.Nodes[i] = node
		return
	}
	f.index[node.Record.NodeID] = len(f.Nodes)
	f.Nodes = append(f.Nodes, node)
}

// Lookup returns the node registered under nodeID.
func (f *FileDocstrings) Lookup(nodeID string) (NodeDocstring, bool) {
	i, ok := f.index[nodeID]
	if !ok {
		return NodeDocstring{}, false
	}
	return f.Nodes[i], true
}

// Records returns the docstring records keyed by nodeid.
func (f *FileDocstrings) Records() map[string]valueobject.DocstringRecord {
	out := make(map[string]valueobject.DocstringRecord, len(f.Nodes))
	for _, node := range f.Nodes {
		out[node.Record.NodeID] = node.Record
	}
	return out
}

// FileParser drives the docstring parser across the definitions of one file.
type FileParser struct {
	source         outbound.SourceParser
	classPrefix    string
	functionPrefix string
}

// FileParserOption configures a FileParser.
type FileParserOption func(*FileParser)

// WithTestPrefixes overrides the class and function prefixes selecting tests.
func WithTestPrefixes(classPrefix, functionPrefix string) FileParserOption {
	return func(p *FileParser) {
		p.classPrefix = classPrefix
		p.functionPrefix = functionPrefix
	}
}

// NewFileParser creates a FileParser on top of a source parser.
func NewFileParser(source outbound.SourceParser, opts ...FileParserOption) *FileParser {
	if source == nil {
		panic("source parser cannot be nil")
	}
	p := &FileParser{
		source:         source,
		classPrefix:    DefaultTestClassPrefix,
		functionPrefix: DefaultTestFunctionPrefix,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetDocstrings walks source and returns one record per file, class and
// function node. nodePath is the path component of every nodeid. With
// testsOnly, classes and functions not named like tests are skipped.
func (p *FileParser) GetDocstrings(
	ctx context.Context,
	nodePath string,
	source []byte,
	testsOnly bool,
) (*FileDocstrings, error) {
	module, err := p.source.ParseModule(ctx, nodePath, source)
	if err != nil {
		return nil, err
	}

	out := newFileDocstrings(nodePath)
	out.SyntaxErrors = module.HasErrors
	out.add(buildNode(nodePath, valueobject.LevelFile, module.Docstring, 0, 0, 1))
	p.walk(out, nodePath, module.Definitions, testsOnly)
	return out, nil
}

func (p *FileParser) walk(out *FileDocstrings, parentID string, defs []valueobject.Definition, testsOnly bool) {
	for _, def := range defs {
		nodeID := parentID + valueobject.NodeIDSeparator + def.Name
		switch def.Kind {
		case valueobject.DefinitionClass:
			if testsOnly && !strings.HasPrefix(def.Name, p.classPrefix) {
				continue
			}
			out.add(buildNode(nodeID, valueobject.LevelClass, def.Docstring, def.Column+indentStep,
				def.Line+1, def.FirstLine))
			p.walk(out, nodeID, def.Body, testsOnly)
		case valueobject.DefinitionFunction:
			if testsOnly && !strings.HasPrefix(def.Name, p.functionPrefix) {
				continue
			}
			out.add(buildNode(nodeID, valueobject.LevelFunction, def.Docstring, def.Column+indentStep,
				def.Line+1, def.FirstLine))
		}
	}
}

// buildNode parses lit for a node whose docstring body is expected at
// bodyColumn. fallbackLine locates a node without any docstring.
func buildNode(
	nodeID string,
	level valueobject.Level,
	lit *valueobject.StringLiteral,
	bodyColumn, fallbackLine, firstLine int,
) NodeDocstring {
	node := NodeDocstring{
		Record: valueobject.DocstringRecord{
			Value:  valueobject.NewSection(),
			NodeID: nodeID,
			Level:  level,
			Column: bodyColumn,
		},
		FirstLine: firstLine,
	}
	if level == valueobject.LevelFile {
		node.Record.Lineno = 1
	} else {
		node.Record.Lineno = fallbackLine
	}
	if lit == nil {
		return node
	}

	node.Text = lit.Text
	node.HasText = true

	result, ok := docstring.Parse(lit.Text, lit.Line)
	if !ok {
		node.Record.Lineno = lit.Line + 1
		return node
	}
	node.Record.Lineno = result.Lineno
	node.Record.Column = result.Column
	if result.Column >= bodyColumn {
		node.Record.Value = result.Section
	}
	return node
}
