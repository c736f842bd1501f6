package docstring

import (
	"polarionlint/internal/domain/valueobject"
	"strings"
)

// Fields is a plain field mapping. Values are nil (absent), string or []string.
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Text returns the string value of field and whether it holds one.
func (f Fields) Text(field string) (string, bool) {
	s, ok := f[field].(string)
	return s, ok
}

// List returns the list value of field and whether it holds one.
func (f Fields) List(field string) ([]string, bool) {
	l, ok := f[field].([]string)
	return l, ok
}

// Present reports whether field carries a non-absent value.
func (f Fields) Present(field string) bool {
	v, ok := f[field]
	return ok && v != nil
}

// RawFields converts a section to plain data, dropping reserved keys.
func RawFields(section *valueobject.Section) Fields {
	out := make(Fields)
	if section == nil {
		return out
	}
	for name, rec := range section.Fields {
		if valueobject.IsReservedKey(name) {
			continue
		}
		out[name] = rec.Value.Raw()
	}
	return out
}

// overlay copies layer onto dst. An absent value never replaces a present one.
func overlay(dst, layer Fields) {
	for k, v := range layer {
		if v == nil {
			if _, exists := dst[k]; exists {
				continue
			}
		}
		dst[k] = v
	}
}

// ancestorIDs returns the nodeids enclosing nodeID, outermost first.
func ancestorIDs(nodeID string) []string {
	var ids []string
	for i := 0; ; {
		next := strings.Index(nodeID[i:], valueobject.NodeIDSeparator)
		if next < 0 {
			return ids
		}
		i += next
		ids = append(ids, nodeID[:i])
		i += len(valueobject.NodeIDSeparator)
	}
}

// Merge flattens every function record over its enclosing class and file
// records; nearer layers win. Other records map to their own fields.
func Merge(records map[string]valueobject.DocstringRecord) map[string]Fields {
	own := make(map[string]Fields, len(records))
	for id, rec := range records {
		own[id] = RawFields(rec.Value)
	}

	merged := make(map[string]Fields, len(records))
	for id, rec := range records {
		if rec.Level != valueobject.LevelFunction {
			merged[id] = own[id].Clone()
			continue
		}
		fields := make(Fields)
		for _, ancestor := range ancestorIDs(id) {
			if layer, ok := own[ancestor]; ok {
				overlay(fields, layer)
			}
		}
		overlay(fields, own[id])
		merged[id] = fields
	}
	return merged
}
