package docstring

import (
	"polarionlint/internal/domain/valueobject"
)

// Schema holds the validation tables. Nil tables disable their check;
// an empty KnownFields disables the unknown-field check.
type Schema struct {
	KnownFields    []string
	ValidValues    map[string][]string
	RequiredFields []string
	MarkerFields   map[string]string
	IgnoredFields  map[string]string
}

func (s Schema) known(field string) bool {
	if len(s.KnownFields) == 0 {
		return true
	}
	for _, f := range s.KnownFields {
		if f == field {
			return true
		}
	}
	return false
}

func (s Schema) validValue(field, value string) bool {
	values, ok := s.ValidValues[field]
	if !ok {
		return true
	}
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// Validate classifies the fields physically present in rec. Required fields
// are only checked on function records, against merged, the record's fields
// flattened over its ancestors.
func Validate(rec valueobject.DocstringRecord, merged Fields, schema Schema) valueobject.ValidatedDocstring {
	var result valueobject.ValidatedDocstring

	if rec.Value != nil {
		for _, field := range rec.Value.OrderedKeys() {
			if valueobject.IsReservedKey(field) {
				continue
			}
			value := rec.Value.Fields[field]
			pos := valueobject.FieldRecord{Lineno: value.Lineno, Column: value.Column, Field: field}

			known := schema.known(field)
			if !known {
				result.Unknown = append(result.Unknown, pos)
			}
			if known {
				if invalid, bad := checkValue(pos, value.Value, schema); bad {
					result.Invalid = append(result.Invalid, invalid)
				}
			}
			if marker, ok := schema.MarkerFields[field]; ok {
				result.Markers = append(result.Markers, valueobject.MarkerRecord{FieldRecord: pos, Marker: marker})
			}
			if reason, ok := schema.IgnoredFields[field]; ok {
				result.Ignored = append(result.Ignored, valueobject.IgnoredRecord{FieldRecord: pos, Reason: reason})
			}
		}
	}

	if rec.Level == valueobject.LevelFunction {
		for _, field := range schema.RequiredFields {
			if !merged.Present(field) {
				result.Missing = append(result.Missing, field)
			}
		}
	}

	return result
}

func checkValue(pos valueobject.FieldRecord, value valueobject.Value, schema Schema) (valueobject.InvalidRecord, bool) {
	if IsListSection(pos.Field) {
		if value.Kind() == valueobject.ValueString {
			return valueobject.InvalidRecord{FieldRecord: pos, Value: value.Text(), NotList: true}, true
		}
		return valueobject.InvalidRecord{}, false
	}
	if value.Kind() != valueobject.ValueString {
		return valueobject.InvalidRecord{}, false
	}
	if !schema.validValue(pos.Field, value.Text()) {
		return valueobject.InvalidRecord{FieldRecord: pos, Value: value.Text()}, true
	}
	return valueobject.InvalidRecord{}, false
}
