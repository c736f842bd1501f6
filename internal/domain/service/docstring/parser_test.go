package docstring

import (
	"polarionlint/internal/domain/valueobject"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedDoc = `
    Polarion:
        assignee: alice
        caselevel: low
        testSteps:
            1. First step
               continued
            2. Second step
        expectedResults:
            1. First result
            2. Second result
    `

func itemTexts(v valueobject.Value) []string {
	out := make([]string, 0, len(v.Items()))
	for _, item := range v.Items() {
		out = append(out, item.Value.Text())
	}
	return out
}

func TestParse_WellFormed(t *testing.T) {
	result, ok := Parse(wellFormedDoc, 2)
	require.True(t, ok)
	require.Empty(t, result.Section.Errors)

	assert.Equal(t, 3, result.Lineno)
	assert.Equal(t, 4, result.Column)

	fields := result.Section.Fields
	require.Len(t, fields, 4)
	assert.Equal(t, "alice", fields["assignee"].Value.Text())
	assert.Equal(t, 4, fields["assignee"].Lineno)
	assert.Equal(t, 8, fields["assignee"].Column)
	assert.Equal(t, "low", fields["caselevel"].Value.Text())

	steps := fields[FieldTestSteps]
	require.Equal(t, valueobject.ValueList, steps.Value.Kind())
	assert.Equal(t, []string{"1. First step continued", "2. Second step"}, itemTexts(steps.Value))
	assert.Equal(t, 7, steps.Value.Items()[0].Lineno)
	assert.Equal(t, 9, steps.Value.Items()[1].Lineno)

	results := fields[FieldExpectedResults]
	assert.Equal(t, []string{"1. First result", "2. Second result"}, itemTexts(results.Value))
}

func TestParse_NoSection(t *testing.T) {
	result, ok := Parse("\n    Just a summary.\n    ", 1)
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestParse_EmptyBody(t *testing.T) {
	result, ok := Parse("\n    Polarion:\n    ", 4)
	require.True(t, ok)
	assert.Empty(t, result.Section.Fields)
	assert.Empty(t, result.Section.Errors)
	assert.Equal(t, 5, result.Lineno)
}

func TestParse_BodyNotDeeperThanHeader(t *testing.T) {
	result, ok := Parse("\n    Polarion:\n    assignee: alice\n    ", 1)
	require.True(t, ok)
	assert.Empty(t, result.Section.Fields)
}

func TestParse_IndentViolation(t *testing.T) {
	doc := "\nPolarion:\n    assignee: alice\n       stray: value\n"
	result, ok := Parse(doc, 10)
	require.True(t, ok)

	require.Len(t, result.Section.Errors, 1)
	assert.Equal(t, 13, result.Section.Errors[0].Lineno)
	assert.Equal(t, 7, result.Section.Errors[0].Column)
	assert.NotContains(t, result.Section.Fields, "stray")
	assert.Equal(t, "alice", result.Section.Fields["assignee"].Value.Text())
}

func TestParse_StrayKeyInsideSteps(t *testing.T) {
	doc := "\n    Polarion:\n        testSteps:\n            Login: as admin\n            Check it\n    "
	result, ok := Parse(doc, 1)
	require.True(t, ok)

	require.Len(t, result.Section.Errors, 1)
	assert.Equal(t, 4, result.Section.Errors[0].Lineno)

	steps := result.Section.Fields[FieldTestSteps]
	require.Equal(t, valueobject.ValueList, steps.Value.Kind())
	texts := make([]string, 0, len(steps.Value.Items()))
	for _, item := range steps.Value.Items() {
		texts = append(texts, item.Value.Text())
	}
	assert.Equal(t, []string{"Login: as admin", "Check it"}, texts)
}

func TestParse_TabIndented(t *testing.T) {
	result, ok := Parse("\n\tPolarion:\n\t\tassignee: alice\n\t", 1)
	require.True(t, ok)
	assert.Equal(t, 8, result.Column)
	assert.Empty(t, result.Section.Errors)
	assert.Equal(t, "alice", result.Section.Fields["assignee"].Value.Text())
}

func TestParse_ListSectionShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind valueobject.ValueKind
		wantLen  int
	}{
		{name: "blank_value_becomes_empty_list", body: "        testSteps:\n", wantKind: valueobject.ValueList, wantLen: 0},
		{name: "inline_scalar_stays_string", body: "        testSteps: do it\n", wantKind: valueobject.ValueString},
		{name: "inline_scalar_with_continuation_stays_string", body: "        testSteps: do it\n            and more\n", wantKind: valueobject.ValueString},
		{name: "none_is_absent", body: "        testSteps: None\n", wantKind: valueobject.ValueAbsent},
		{name: "body_becomes_list", body: "        testSteps:\n            one\n            two\n", wantKind: valueobject.ValueList, wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := Parse("\n    Polarion:\n"+tt.body+"    ", 1)
			require.True(t, ok)
			rec, present := result.Section.Fields[FieldTestSteps]
			require.True(t, present)
			assert.Equal(t, tt.wantKind, rec.Value.Kind())
			if tt.wantKind == valueobject.ValueList {
				assert.Len(t, rec.Value.Items(), tt.wantLen)
			}
		})
	}
}

func TestParse_PositionsNotBeforeHeader(t *testing.T) {
	result, ok := Parse(wellFormedDoc, 40)
	require.True(t, ok)
	last := 40 + len(SplitLines(wellFormedDoc)) - 1
	for name, rec := range result.Section.Fields {
		assert.GreaterOrEqual(t, rec.Lineno, result.Lineno, name)
		assert.LessOrEqual(t, rec.Lineno, last, name)
		for _, item := range rec.Value.Items() {
			assert.GreaterOrEqual(t, item.Lineno, result.Lineno, name)
			assert.LessOrEqual(t, item.Lineno, last, name)
		}
	}
}

func TestParse_PreservesUnicode(t *testing.T) {
	result, ok := Parse("\n    Polarion:\n        title: Überprüfung – ログイン\n    ", 1)
	require.True(t, ok)
	assert.Equal(t, "Überprüfung – ログイン", result.Section.Fields["title"].Value.Text())
}

func TestStripPolarionData(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "section_in_the_middle",
			doc:  "\n    Summary line.\n\n    Polarion:\n        assignee: alice\n\n    Trailing notes.\n    ",
			want: "\n    Summary line.\n\n    Trailing notes.\n    ",
		},
		{
			name: "section_at_the_end",
			doc:  "\n    Summary line.\n\n    Polarion:\n        assignee: alice\n    ",
			want: "\n    Summary line.\n\n    ",
		},
		{
			name: "no_section",
			doc:  "Summary only",
			want: "Summary only",
		},
		{
			name: "header_without_body",
			doc:  "Summary\nPolarion:\nMore",
			want: "Summary\nMore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripPolarionData(tt.doc)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, StripPolarionData(got))
			assert.NotContains(t, got, "Polarion:")
		})
	}
}

func TestStripPolarionData_MultipleSections(t *testing.T) {
	doc := strings.Join([]string{
		"Summary",
		"Polarion:",
		"    a: b",
		"",
		"Middle",
		"Polarion:",
		"    c: d",
		"End",
	}, "\n")
	got := StripPolarionData(doc)
	assert.Equal(t, "Summary\nMiddle\nEnd", got)
	assert.Equal(t, got, StripPolarionData(got))
}

func TestIsListSection(t *testing.T) {
	assert.True(t, IsListSection(FieldTestSteps))
	assert.True(t, IsListSection(FieldExpectedResults))
	assert.False(t, IsListSection("assignee"))
}
