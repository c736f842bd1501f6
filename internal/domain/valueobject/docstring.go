package valueobject

import (
	"sort"
	"strings"
)

// ErrorsKeyPrefix marks field names reserved for parser bookkeeping.
const ErrorsKeyPrefix = "_errors_"

// IsReservedKey reports whether a field name uses the reserved error-marker prefix.
func IsReservedKey(key string) bool {
	return strings.HasPrefix(key, ErrorsKeyPrefix)
}

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// ValueAbsent is the normalized form of a literal None.
	ValueAbsent ValueKind = iota
	ValueString
	ValueList
)

// String returns a readable name of the kind.
func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueList:
		return "list"
	default:
		return "absent"
	}
}

// Value is a tagged variant over {absent, string, list of ValueRecord}.
type Value struct {
	kind  ValueKind
	text  string
	items []ValueRecord
}

// AbsentValue returns the absent value.
func AbsentValue() Value {
	return Value{kind: ValueAbsent}
}

// StringValue wraps text.
func StringValue(text string) Value {
	return Value{kind: ValueString, text: text}
}

// ListValue wraps an ordered list of records. A nil list is an empty list.
func ListValue(items []ValueRecord) Value {
	if items == nil {
		items = []ValueRecord{}
	}
	return Value{kind: ValueList, items: items}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether the value is absent.
func (v Value) IsAbsent() bool { return v.kind == ValueAbsent }

// Text returns the string content; empty for non-string values.
func (v Value) Text() string { return v.text }

// Items returns the list elements; nil for non-list values.
func (v Value) Items() []ValueRecord { return v.items }

// Raw converts the value to plain Go data: nil, string or []string.
func (v Value) Raw() any {
	switch v.kind {
	case ValueString:
		return v.text
	case ValueList:
		out := make([]string, 0, len(v.items))
		for _, item := range v.items {
			out = append(out, item.Value.Text())
		}
		return out
	default:
		return nil
	}
}

// ValueRecord is one parsed value and the position of the line that introduced it.
type ValueRecord struct {
	Lineno int
	Column int
	Value  Value
}

// ErrorType classifies parse-time findings.
type ErrorType string

const (
	ErrorTypeIndent ErrorType = "indent"
	ErrorTypeFormat ErrorType = "format"
)

// ErrorRecord is one parse-time issue.
type ErrorRecord struct {
	Lineno  int
	Column  int
	Type    ErrorType
	Message string
}

// Section is the parsed body of a Polarion section: fields plus accumulated errors.
type Section struct {
	Fields map[string]ValueRecord
	Errors []ErrorRecord
}

// NewSection returns an empty section.
func NewSection() *Section {
	return &Section{Fields: make(map[string]ValueRecord)}
}

// IsEmpty reports whether the section holds neither fields nor errors.
func (s *Section) IsEmpty() bool {
	return s == nil || (len(s.Fields) == 0 && len(s.Errors) == 0)
}

// OrderedKeys returns field names by ascending line, then name.
func (s *Section) OrderedKeys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := s.Fields[keys[i]], s.Fields[keys[j]]
		if a.Lineno != b.Lineno {
			return a.Lineno < b.Lineno
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Level is the scope of a docstring node.
type Level string

const (
	LevelFile     Level = "file"
	LevelClass    Level = "class"
	LevelFunction Level = "function"
)

// NodeIDSeparator joins nodeid components.
const NodeIDSeparator = "::"

// DocstringRecord is the parsed Polarion section of one AST node.
type DocstringRecord struct {
	Lineno int
	Column int
	Value  *Section
	NodeID string
	Level  Level
}

// FieldRecord points at one field of a docstring.
type FieldRecord struct {
	Lineno int
	Column int
	Field  string
}

// InvalidRecord is a field whose value failed validation.
type InvalidRecord struct {
	FieldRecord
	Value string
	// NotList is set when a list sub-section holds a scalar.
	NotList bool
}

// MarkerRecord is a field that duplicates a marker.
type MarkerRecord struct {
	FieldRecord
	Marker string
}

// IgnoredRecord is a field whose value is dropped.
type IgnoredRecord struct {
	FieldRecord
	Reason string
}

// ValidatedDocstring is the validation verdict for one docstring record.
type ValidatedDocstring struct {
	Unknown []FieldRecord
	Invalid []InvalidRecord
	Missing []string
	Markers []MarkerRecord
	Ignored []IgnoredRecord
}

// IsClean reports whether no finding was produced.
func (v ValidatedDocstring) IsClean() bool {
	return len(v.Unknown) == 0 && len(v.Invalid) == 0 && len(v.Missing) == 0 &&
		len(v.Markers) == 0 && len(v.Ignored) == 0
}
