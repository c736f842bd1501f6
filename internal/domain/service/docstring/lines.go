// Package docstring parses the Polarion section embedded in Python docstrings.
package docstring

import (
	"polarionlint/internal/domain/valueobject"
	"regexp"
	"strings"
)

const (
	msgWrongIndent  = "Wrong indentation, line ignored"
	msgMissingColon = "Missing colon, line ignored"
)

// keyLineRe matches a line that starts with a bareword key followed by a colon.
var keyLineRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*:(\s|$)`)

// formattedKeys keep line breaks between continuation lines.
var formattedKeys = map[string]bool{
	"setup":    true,
	"teardown": true,
}

// tabWidth is the column stop a tab advances to, as in Python's expandtabs.
const tabWidth = 8

// indentOf returns the column of the first non-whitespace character of line.
func indentOf(line string) int {
	col := 0
	for _, r := range line {
		switch r {
		case ' ', '\f', '\v':
			col++
		case '\t':
			col += tabWidth - col%tabWidth
		default:
			return col
		}
	}
	return col
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func clampStop(lines []string, stop int) int {
	if stop < 0 || stop > len(lines) {
		return len(lines)
	}
	return stop
}

// firstNonBlank returns the index of the first non-blank line in [start, stop), or -1.
func firstNonBlank(lines []string, start, stop int) int {
	for i := start; i < stop; i++ {
		if !isBlank(lines[i]) {
			return i
		}
	}
	return -1
}

// blockBounds returns the indent of the block starting at start and the index
// one past its last non-blank line. ok is false when the slice holds no content.
func blockBounds(lines []string, start, stop int) (indent, end int, ok bool) {
	stop = clampStop(lines, stop)
	first := firstNonBlank(lines, start, stop)
	if first < 0 {
		return 0, start, false
	}
	indent = indentOf(lines[first])
	end = first + 1
	for i := first + 1; i < stop; i++ {
		if isBlank(lines[i]) {
			continue
		}
		if indentOf(lines[i]) < indent {
			break
		}
		end = i + 1
	}
	return indent, end, true
}

// FindSectionStart scans lines from index from for the first line whose stripped
// content is exactly "<name>:". It returns the index of the following line and
// the indent of the matching line.
func FindSectionStart(lines []string, name string, from int) (bodyStart, indent int, ok bool) {
	header := name + ":"
	if from < 0 {
		from = 0
	}
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == header {
			return i + 1, indentOf(lines[i]), true
		}
	}
	return 0, 0, false
}

func appendContinuation(rec valueobject.ValueRecord, text, sep string) valueobject.ValueRecord {
	current := rec.Value.Text()
	if current == "" {
		rec.Value = valueobject.StringValue(text)
	} else {
		rec.Value = valueobject.StringValue(current + sep + text)
	}
	return rec
}

// LinesToDict turns the indented block starting at start into key/value records.
// A negative stop means the end of lines. Positions are linenoOffset + index.
func LinesToDict(
	lines []string,
	start, linenoOffset, stop int,
) (map[string]valueobject.ValueRecord, []valueobject.ErrorRecord) {
	fields := make(map[string]valueobject.ValueRecord)
	indent, end, ok := blockBounds(lines, start, stop)
	if !ok {
		return fields, nil
	}

	var errs []valueobject.ErrorRecord
	lastKey := ""
	for i := start; i < end; i++ {
		line := lines[i]
		if isBlank(line) {
			continue
		}
		lineIndent := indentOf(line)
		content := strings.TrimSpace(line)
		lineno := linenoOffset + i

		if lineIndent > indent {
			if lastKey != "" && !keyLineRe.MatchString(content) {
				sep := " "
				if formattedKeys[lastKey] {
					sep = "\n"
				}
				fields[lastKey] = appendContinuation(fields[lastKey], content, sep)
				continue
			}
			errs = append(errs, valueobject.ErrorRecord{
				Lineno:  lineno,
				Column:  lineIndent,
				Type:    valueobject.ErrorTypeIndent,
				Message: msgWrongIndent,
			})
			continue
		}

		key, value, found := strings.Cut(content, ":")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			errs = append(errs, valueobject.ErrorRecord{
				Lineno:  lineno,
				Column:  lineIndent,
				Type:    valueobject.ErrorTypeFormat,
				Message: msgMissingColon,
			})
			lastKey = ""
			continue
		}

		value = strings.TrimSpace(value)
		parsed := valueobject.StringValue(value)
		if value == "None" {
			parsed = valueobject.AbsentValue()
		}
		fields[key] = valueobject.ValueRecord{Lineno: lineno, Column: lineIndent, Value: parsed}
		lastKey = key
	}

	return fields, errs
}

// LinesToList turns the indented block starting at start into an ordered list.
// Deeper-indented lines continue the previous element.
func LinesToList(lines []string, start, linenoOffset, stop int) []valueobject.ValueRecord {
	items := []valueobject.ValueRecord{}
	indent, end, ok := blockBounds(lines, start, stop)
	if !ok {
		return items
	}

	for i := start; i < end; i++ {
		line := lines[i]
		if isBlank(line) {
			continue
		}
		lineIndent := indentOf(line)
		content := strings.TrimSpace(line)
		if lineIndent > indent {
			if len(items) > 0 {
				last := len(items) - 1
				items[last] = appendContinuation(items[last], content, " ")
			}
			continue
		}
		items = append(items, valueobject.ValueRecord{
			Lineno: linenoOffset + i,
			Column: lineIndent,
			Value:  valueobject.StringValue(content),
		})
	}

	return items
}

// AddErrors accumulates errors onto a parsed section.
func AddErrors(section *valueobject.Section, errs []valueobject.ErrorRecord) {
	if section == nil || len(errs) == 0 {
		return
	}
	section.Errors = append(section.Errors, errs...)
}
