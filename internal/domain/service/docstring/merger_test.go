package docstring

import (
	"polarionlint/internal/domain/valueobject"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func section(fields map[string]valueobject.Value) *valueobject.Section {
	s := valueobject.NewSection()
	line := 1
	for name, v := range fields {
		s.Fields[name] = valueobject.ValueRecord{Lineno: line, Column: 4, Value: v}
		line++
	}
	return s
}

func listOf(texts ...string) valueobject.Value {
	items := make([]valueobject.ValueRecord, 0, len(texts))
	for i, text := range texts {
		items = append(items, valueobject.ValueRecord{Lineno: i + 1, Column: 8, Value: valueobject.StringValue(text)})
	}
	return valueobject.ListValue(items)
}

func TestAncestorIDs(t *testing.T) {
	tests := []struct {
		nodeID string
		want   []string
	}{
		{nodeID: "tests/test_a.py", want: nil},
		{nodeID: "tests/test_a.py::test_one", want: []string{"tests/test_a.py"}},
		{
			nodeID: "tests/test_a.py::TestGroup::test_one",
			want:   []string{"tests/test_a.py", "tests/test_a.py::TestGroup"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.nodeID, func(t *testing.T) {
			assert.Equal(t, tt.want, ancestorIDs(tt.nodeID))
		})
	}
}

func TestMerge(t *testing.T) {
	const path = "tests/test_a.py"
	records := map[string]valueobject.DocstringRecord{
		path: {
			NodeID: path,
			Level:  valueobject.LevelFile,
			Value: section(map[string]valueobject.Value{
				"assignee":  valueobject.StringValue("alice"),
				"caselevel": valueobject.StringValue("low"),
				"subtype1":  valueobject.StringValue("file"),
			}),
		},
		path + "::TestGroup": {
			NodeID: path + "::TestGroup",
			Level:  valueobject.LevelClass,
			Value: section(map[string]valueobject.Value{
				"caselevel": valueobject.StringValue("medium"),
				"subtype1":  valueobject.AbsentValue(),
			}),
		},
		path + "::TestGroup::test_one": {
			NodeID: path + "::TestGroup::test_one",
			Level:  valueobject.LevelFunction,
			Value: section(map[string]valueobject.Value{
				"caselevel":        valueobject.StringValue("high"),
				"_errors_internal": valueobject.StringValue("x"),
				FieldTestSteps:     listOf("Open page", "Click"),
				"assignee":         valueobject.AbsentValue(),
			}),
		},
		path + "::test_two": {
			NodeID: path + "::test_two",
			Level:  valueobject.LevelFunction,
			Value: section(map[string]valueobject.Value{
				"initialEstimate": valueobject.AbsentValue(),
			}),
		},
	}

	merged := Merge(records)

	want := map[string]Fields{
		path: {"assignee": "alice", "caselevel": "low", "subtype1": "file"},
		path + "::TestGroup": {"caselevel": "medium", "subtype1": nil},
		path + "::TestGroup::test_one": {
			"assignee":     "alice",
			"caselevel":    "high",
			"subtype1":     "file",
			FieldTestSteps: []string{"Open page", "Click"},
		},
		path + "::test_two": {
			"assignee":        "alice",
			"caselevel":       "low",
			"subtype1":        "file",
			"initialEstimate": nil,
		},
	}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_FunctionWithoutAncestors(t *testing.T) {
	records := map[string]valueobject.DocstringRecord{
		"t.py::test_x": {
			NodeID: "t.py::test_x",
			Level:  valueobject.LevelFunction,
			Value:  valueobject.NewSection(),
		},
	}
	merged := Merge(records)
	assert.Empty(t, merged["t.py::test_x"])
	assert.NotNil(t, merged["t.py::test_x"])
}

func TestFields_Accessors(t *testing.T) {
	f := Fields{"title": "Login", FieldTestSteps: []string{"a"}, "id": nil}

	title, ok := f.Text("title")
	assert.True(t, ok)
	assert.Equal(t, "Login", title)

	_, ok = f.Text(FieldTestSteps)
	assert.False(t, ok)

	steps, ok := f.List(FieldTestSteps)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, steps)

	assert.True(t, f.Present("title"))
	assert.False(t, f.Present("id"))
	assert.False(t, f.Present("missing"))

	clone := f.Clone()
	clone["title"] = "Other"
	assert.Equal(t, "Login", f["title"])
}
