// Package treesitter adapts tree-sitter's Python grammar to the definition tree
// consumed by the docstring pipeline.
package treesitter

import (
	"context"
	"fmt"
	"polarionlint/internal/application/common/slogger"
	"polarionlint/internal/domain/errors/domain"
	"polarionlint/internal/domain/valueobject"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "polarionlint/treesitter"

// Python grammar node types.
const (
	nodeModule              = "module"
	nodeClassDefinition     = "class_definition"
	nodeFunctionDefinition  = "function_definition"
	nodeDecoratedDefinition = "decorated_definition"
	nodeExpressionStatement = "expression_statement"
	nodeString              = "string"
	nodeConcatenatedString  = "concatenated_string"
	nodeBlock               = "block"
	nodeComment             = "comment"
)

// PythonSourceParser implements outbound.SourceParser with tree-sitter.
type PythonSourceParser struct {
	parseCounter metric.Int64Counter
	errorCounter metric.Int64Counter
	durationHist metric.Float64Histogram
}

// Option configures a PythonSourceParser.
type Option func(*parserOptions)

type parserOptions struct {
	meter metric.Meter
}

// WithMeter records parser metrics on meter instead of the global provider.
func WithMeter(meter metric.Meter) Option {
	return func(o *parserOptions) {
		if meter != nil {
			o.meter = meter
		}
	}
}

// NewPythonSourceParser creates a Python parser. Instrument creation failures
// are logged and leave the parser without that instrument.
func NewPythonSourceParser(opts ...Option) *PythonSourceParser {
	o := parserOptions{meter: otel.Meter(meterName)}
	for _, opt := range opts {
		opt(&o)
	}

	parseCounter, err := o.meter.Int64Counter(
		"polarion_source_parses_total",
		metric.WithDescription("Total number of parsed source files"),
	)
	if err != nil {
		slogger.WarnNoCtx("Failed to create parse counter", slogger.Fields{"error": err.Error()})
	}

	errorCounter, err := o.meter.Int64Counter(
		"polarion_source_parse_errors_total",
		metric.WithDescription("Total number of source files that failed to parse"),
	)
	if err != nil {
		slogger.WarnNoCtx("Failed to create error counter", slogger.Fields{"error": err.Error()})
	}

	durationHist, err := o.meter.Float64Histogram(
		"polarion_source_parse_duration_seconds",
		metric.WithDescription("Source parse duration in seconds"),
	)
	if err != nil {
		slogger.WarnNoCtx("Failed to create duration histogram", slogger.Fields{"error": err.Error()})
	}

	return &PythonSourceParser{
		parseCounter: parseCounter,
		errorCounter: errorCounter,
		durationHist: durationHist,
	}
}

// ParseModule implements outbound.SourceParser.
func (p *PythonSourceParser) ParseModule(
	ctx context.Context,
	path string,
	source []byte,
) (*valueobject.Module, error) {
	start := time.Now()
	module, err := p.parse(ctx, path, source)
	p.record(ctx, time.Since(start), err)
	return module, err
}

func (p *PythonSourceParser) parse(ctx context.Context, path string, source []byte) (*valueobject.Module, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceParse, path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.Type() != nodeModule {
		return nil, fmt.Errorf("%w: %s: no module node", domain.ErrSourceParse, path)
	}

	w := walker{source: source}
	return &valueobject.Module{
		Path:        path,
		Docstring:   w.moduleDocstring(root),
		Definitions: w.definitions(root),
		HasErrors:   root.HasError(),
	}, nil
}

func (p *PythonSourceParser) record(ctx context.Context, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("language", "python"))
	if p.parseCounter != nil {
		p.parseCounter.Add(ctx, 1, attrs)
	}
	if err != nil && p.errorCounter != nil {
		p.errorCounter.Add(ctx, 1, attrs)
	}
	if p.durationHist != nil {
		p.durationHist.Record(ctx, elapsed.Seconds(), attrs)
	}
}

type walker struct {
	source []byte
}

func (w walker) text(n *sitter.Node) string {
	return string(w.source[n.StartByte():n.EndByte()])
}

func children(n *sitter.Node) []*sitter.Node {
	count := int(n.ChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// moduleDocstring returns the first statement of the module when it is a string.
func (w walker) moduleDocstring(root *sitter.Node) *valueobject.StringLiteral {
	for _, child := range children(root) {
		if child.Type() == nodeComment {
			continue
		}
		return w.docstringOf(child)
	}
	return nil
}

// bodyDocstring returns the docstring at the head of a block.
func (w walker) bodyDocstring(block *sitter.Node) *valueobject.StringLiteral {
	if block == nil {
		return nil
	}
	return w.moduleDocstring(block)
}

func (w walker) docstringOf(stmt *sitter.Node) *valueobject.StringLiteral {
	if stmt.Type() != nodeExpressionStatement || stmt.ChildCount() == 0 {
		return nil
	}
	expr := stmt.Child(0)
	switch expr.Type() {
	case nodeString:
		return w.decodeString(expr)
	case nodeConcatenatedString:
		var first *valueobject.StringLiteral
		var parts []string
		for _, part := range children(expr) {
			if part.Type() != nodeString {
				continue
			}
			lit := w.decodeString(part)
			if lit == nil {
				return nil
			}
			if first == nil {
				first = lit
			}
			parts = append(parts, lit.Text)
		}
		if first == nil {
			return nil
		}
		first.Text = strings.Join(parts, "")
		return first
	default:
		return nil
	}
}

func (w walker) decodeString(n *sitter.Node) *valueobject.StringLiteral {
	raw := w.text(n)
	text, offset, ok := decodeStringLiteral(raw)
	if !ok {
		return nil
	}
	// the body starts on the same line as the opening quote
	line := int(n.StartPoint().Row) + 1 + strings.Count(raw[:offset], "\n")
	return &valueobject.StringLiteral{
		Text:   text,
		Line:   line,
		Column: int(n.StartPoint().Column),
	}
}

// definitions collects the class and function definitions directly inside container.
func (w walker) definitions(container *sitter.Node) []valueobject.Definition {
	var defs []valueobject.Definition
	for _, child := range children(container) {
		if def, ok := w.definition(child, child); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// definition converts node; outer is the node that carries decorators, if any.
func (w walker) definition(node, outer *sitter.Node) (valueobject.Definition, bool) {
	switch node.Type() {
	case nodeDecoratedDefinition:
		inner := node.ChildByFieldName("definition")
		if inner == nil {
			return valueobject.Definition{}, false
		}
		return w.definition(inner, node)
	case nodeClassDefinition, nodeFunctionDefinition:
	default:
		return valueobject.Definition{}, false
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return valueobject.Definition{}, false
	}
	body := node.ChildByFieldName("body")

	def := valueobject.Definition{
		Kind:      valueobject.DefinitionFunction,
		Name:      w.text(nameNode),
		Line:      int(node.StartPoint().Row) + 1,
		Column:    int(node.StartPoint().Column),
		FirstLine: int(outer.StartPoint().Row) + 1,
		Docstring: w.bodyDocstring(body),
	}
	if node.Type() == nodeClassDefinition {
		def.Kind = valueobject.DefinitionClass
		if body != nil {
			def.Body = w.definitions(body)
		}
	}
	return def, true
}
