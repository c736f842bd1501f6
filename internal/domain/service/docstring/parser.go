package docstring

import (
	"polarionlint/internal/domain/valueobject"
	"strings"
)

// SectionName is the keyword introducing the Polarion section.
const SectionName = "Polarion"

// Names of the list sub-sections.
const (
	FieldTestSteps       = "testSteps"
	FieldExpectedResults = "expectedResults"
)

// ListSections are re-read as ordered lists when they carry a body.
var ListSections = []string{FieldTestSteps, FieldExpectedResults}

// IsListSection reports whether field is one of the list sub-sections.
func IsListSection(field string) bool {
	for _, s := range ListSections {
		if s == field {
			return true
		}
	}
	return false
}

// Result is the parsed Polarion section of one docstring.
// Lineno and Column locate the section header.
type Result struct {
	Section *valueobject.Section
	Lineno  int
	Column  int
}

// SplitLines splits docstring text into lines without line terminators.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// Parse parses the Polarion section of doc. Line i of doc is reported as
// linenoOffset + i. ok is false when doc has no section header.
func Parse(doc string, linenoOffset int) (*Result, bool) {
	lines := SplitLines(doc)
	bodyStart, headerIndent, ok := FindSectionStart(lines, SectionName, 0)
	if !ok {
		return nil, false
	}

	result := &Result{
		Section: valueobject.NewSection(),
		Lineno:  linenoOffset + bodyStart - 1,
		Column:  headerIndent,
	}

	bodyIndent, bodyEnd, hasBody := blockBounds(lines, bodyStart, -1)
	if !hasBody || bodyIndent <= headerIndent {
		return result, true
	}

	fields, errs := LinesToDict(lines, bodyStart, linenoOffset, bodyEnd)
	for _, name := range ListSections {
		rec, present := fields[name]
		if !present || rec.Value.IsAbsent() {
			continue
		}
		if rec.Value.Text() == "" {
			rec.Value = valueobject.ListValue(nil)
			fields[name] = rec
			continue
		}
		keyIndex := rec.Lineno - linenoOffset
		listStart, _, found := FindSectionStart(lines[:bodyEnd], name, keyIndex)
		if !found || listStart-1 != keyIndex {
			// inline scalar; kept as a string and reported by the validator
			continue
		}
		rec.Value = valueobject.ListValue(LinesToList(lines, listStart, linenoOffset, bodyEnd))
		fields[name] = rec
	}

	result.Section.Fields = fields
	AddErrors(result.Section, errs)
	return result, true
}

// sectionSpan returns the [start, end) line range of the first Polarion section,
// where end already covers one trailing blank line.
func sectionSpan(lines []string) (start, end int, ok bool) {
	bodyStart, headerIndent, found := FindSectionStart(lines, SectionName, 0)
	if !found {
		return 0, 0, false
	}
	start = bodyStart - 1
	end = bodyStart
	for i := bodyStart; i < len(lines); i++ {
		if isBlank(lines[i]) {
			continue
		}
		if indentOf(lines[i]) <= headerIndent {
			break
		}
		end = i + 1
	}
	if end < len(lines) && isBlank(lines[end]) && end+1 < len(lines) {
		end++
	}
	return start, end, true
}

// StripPolarionData returns doc with every Polarion section removed, together
// with the blank line that follows each one.
func StripPolarionData(doc string) string {
	lines := SplitLines(doc)
	for {
		start, end, ok := sectionSpan(lines)
		if !ok {
			break
		}
		lines = append(lines[:start:start], lines[end:]...)
	}
	return strings.Join(lines, "\n")
}
