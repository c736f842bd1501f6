package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"polarionlint/internal/application/common/slogger"
	"polarionlint/internal/application/dto"
	"polarionlint/internal/config"
	"polarionlint/internal/domain/errors/domain"
	"polarionlint/internal/domain/service/docstring"
	"polarionlint/internal/domain/valueobject"
	"polarionlint/internal/port/inbound"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Marker names read by the collection hook.
const (
	MarkerManual      = "manual"
	MarkerTier        = "tier"
	MarkerRequirement = "requirement"
)

// Docstring fields consumed by fixed catalog keys.
const (
	fieldTitle          = "title"
	fieldID             = "id"
	fieldAssignee       = "assignee"
	fieldCaseLevel      = "caselevel"
	fieldCaseAutomation = "caseautomation"
	fieldLinkedItems    = "linkedWorkItems"
)

var consumedFields = map[string]bool{
	fieldTitle:                     true,
	fieldID:                        true,
	fieldAssignee:                  true,
	fieldCaseLevel:                 true,
	fieldCaseAutomation:            true,
	fieldLinkedItems:               true,
	docstring.FieldTestSteps:       true,
	docstring.FieldExpectedResults: true,
}

// stepNumberRe matches a leading "N.", "N)" or "N " step number. The
// punctuated forms need whitespace or the end of the text after them.
var stepNumberRe = regexp.MustCompile(`^\s*[0-9]+(?:[.)](?:\s+|$)|\s+)`)

// CollectionService writes the test catalog and result shell of a session.
type CollectionService struct {
	fs        afero.Fs
	parser    *FileParser
	output    config.CollectConfig
	collected metric.Int64Counter
}

// NewCollectionService creates a CollectionService writing to output.
func NewCollectionService(fs afero.Fs, parser *FileParser, output config.CollectConfig) *CollectionService {
	if parser == nil {
		panic("file parser cannot be nil")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	collected, err := otel.Meter("polarionlint/collection").Int64Counter(
		"polarion_testcases_collected_total",
		metric.WithDescription("Total number of testcases written to the catalog"),
	)
	if err != nil {
		slogger.WarnNoCtx("Failed to create collection counter", slogger.Fields{"error": err.Error()})
	}

	return &CollectionService{fs: fs, parser: parser, output: output, collected: collected}
}

// collectedItem is one distinct test name and the first item that carries it.
type collectedItem struct {
	name string
	item inbound.TestItem
}

// fileEntry caches the parsed docstrings of one source file.
type fileEntry struct {
	docs   *FileDocstrings
	merged map[string]docstring.Fields
}

// Collect implements inbound.CollectionService. It is a no-op unless the
// session runs in collect-only mode with JSON generation requested.
func (s *CollectionService) Collect(ctx context.Context, session inbound.Session) (*dto.CollectionReport, error) {
	if !session.CollectOnly() || !session.GenerateJSON() {
		return &dto.CollectionReport{Skipped: true, Duplicates: []string{}}, nil
	}

	unique, duplicates := scanItems(session.Items())
	cache := make(map[string]*fileEntry)

	catalog := dto.Catalog{
		Testcases: make([]dto.TestcaseEntry, 0, len(unique)),
		Results:   make([]dto.ResultEntry, 0, len(unique)),
	}
	for _, ci := range unique {
		entry := s.fileEntry(ctx, cache, ci.item)
		fields, node := lookupFields(entry, ci.item)
		catalog.Testcases = append(catalog.Testcases, s.testcaseEntry(session, ci, fields, node))
		catalog.Results = append(catalog.Results, resultEntry(ci))
	}

	report := &dto.CollectionReport{Testcases: len(catalog.Testcases), Duplicates: duplicates}
	dataFile, err := s.writeCatalog(catalog)
	if err != nil {
		return nil, err
	}
	report.DataFile = dataFile

	if len(duplicates) > 0 {
		dupFile, err := s.writeDuplicates(duplicates)
		if err != nil {
			return nil, err
		}
		report.DuplicatesFile = dupFile
		slogger.Warn(ctx, "Found non-unique test names", slogger.Fields{
			"count": len(duplicates),
			"file":  dupFile,
		})
	}

	if s.collected != nil {
		s.collected.Add(ctx, int64(report.Testcases))
	}
	slogger.Info(ctx, "Test catalog generated", slogger.Fields{
		"testcases": report.Testcases,
		"file":      dataFile,
	})
	return report, nil
}

// splitNodeID separates the path part of a nodeid from the rest.
func splitNodeID(nodeID string) (path, rest string) {
	path, rest, _ = strings.Cut(nodeID, valueobject.NodeIDSeparator)
	return path, rest
}

// StripParams removes the parameter suffix of a nodeid.
func StripParams(nodeID string) string {
	path, rest := splitNodeID(nodeID)
	if rest == "" {
		return nodeID
	}
	if i := strings.Index(rest, "["); i >= 0 {
		rest = rest[:i]
	}
	return path + valueobject.NodeIDSeparator + rest
}

// TestName returns the location-style name of a nodeid without parameters,
// e.g. "TestA.test_x" for "tests/t.py::TestA::test_x[1]".
func TestName(nodeID string) string {
	_, rest := splitNodeID(StripParams(nodeID))
	if rest == "" {
		return nodeID
	}
	return strings.ReplaceAll(rest, valueobject.NodeIDSeparator, ".")
}

// scanItems groups items by test name. It returns the first item of every
// name in discovery order and the sorted names found in more than one file.
func scanItems(items []inbound.TestItem) ([]collectedItem, []string) {
	files := make(map[string]map[string]struct{})
	var unique []collectedItem
	for _, item := range items {
		name := TestName(item.NodeID())
		seen, ok := files[name]
		if !ok {
			seen = make(map[string]struct{})
			files[name] = seen
			unique = append(unique, collectedItem{name: name, item: item})
		}
		seen[absPath(item.FilePath())] = struct{}{}
	}

	duplicates := []string{}
	for name, seen := range files {
		if len(seen) > 1 {
			duplicates = append(duplicates, name)
		}
	}
	sort.Strings(duplicates)
	return unique, duplicates
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func (s *CollectionService) fileEntry(ctx context.Context, cache map[string]*fileEntry, item inbound.TestItem) *fileEntry {
	key := absPath(item.FilePath())
	if entry, ok := cache[key]; ok {
		return entry
	}

	entry := &fileEntry{}
	cache[key] = entry

	source, err := afero.ReadFile(s.fs, item.FilePath())
	if err != nil {
		slogger.Warn(ctx, "Cannot read test source", slogger.Fields{
			"path":  item.FilePath(),
			"error": fmt.Errorf("%w: %w", domain.ErrUnreadableSource, err).Error(),
		})
		return entry
	}

	nodePath, _ := splitNodeID(item.NodeID())
	docs, err := s.parser.GetDocstrings(ctx, nodePath, source, false)
	if err != nil {
		slogger.Warn(ctx, "Cannot parse test source", slogger.Fields{
			"path":  item.FilePath(),
			"error": err.Error(),
		})
		return entry
	}
	if docs.SyntaxErrors {
		slogger.Warn(ctx, "Test source has syntax errors, metadata may be incomplete", slogger.Fields{
			"path": item.FilePath(),
		})
	}
	entry.docs = docs
	entry.merged = docstring.Merge(docs.Records())
	return entry
}

func lookupFields(entry *fileEntry, item inbound.TestItem) (docstring.Fields, NodeDocstring) {
	if entry == nil || entry.docs == nil {
		return docstring.Fields{}, NodeDocstring{}
	}
	nodeID := StripParams(item.NodeID())
	node, ok := entry.docs.Lookup(nodeID)
	if !ok {
		return docstring.Fields{}, NodeDocstring{}
	}
	return entry.merged[nodeID], node
}

func (s *CollectionService) testcaseEntry(
	session inbound.Session,
	ci collectedItem,
	fields docstring.Fields,
	node NodeDocstring,
) dto.TestcaseEntry {
	item := ci.item
	markers := safeMarkers(item)
	params := safeParams(item)

	entry := dto.TestcaseEntry{}
	for k, v := range fields {
		if consumedFields[k] {
			continue
		}
		entry[k] = v
	}

	entry["title"] = textOr(fields, fieldTitle, ci.name)
	entry["id"] = textOr(fields, fieldID, ci.name)
	entry["nodeid"] = StripParams(item.NodeID())
	entry["assignee-id"] = textOr(fields, fieldAssignee, "")
	entry["caselevel"] = caseLevel(fields, markers)

	automation := caseAutomation(fields, markers)
	entry["caseautomation"] = automation
	if automation == dto.AutomationAutomated {
		line := item.FunctionLine()
		if line <= 0 {
			line = node.FirstLine
		}
		entry["automation_script"] = fmt.Sprintf("%s#L%d", relativePath(session.RootDir(), item.FilePath()), line)
	}

	description := ""
	if node.HasText {
		description = CleanDocstring(docstring.StripPolarionData(node.Text))
	}
	entry["description"] = description

	steps, results := stepsAndResults(fields)
	entry["testSteps"] = steps
	entry["expectedResults"] = results
	entry["linked-items"] = linkedItems(fields, markers)

	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	entry["params"] = names
	return entry
}

func resultEntry(ci collectedItem) dto.ResultEntry {
	result := dto.ResultEntry{Title: ci.name, Verdict: dto.VerdictWaiting}
	params := safeParams(ci.item)
	if len(params) == 0 {
		return result
	}
	result.Params = make(map[string]string, len(params))
	for _, p := range params {
		result.Params[p.Name] = paramRepr(p.Value)
	}
	return result
}

func safeMarkers(item inbound.TestItem) (markers []inbound.Marker) {
	defer func() {
		if r := recover(); r != nil {
			markers = nil
		}
	}()
	return item.Markers()
}

func safeParams(item inbound.TestItem) (params []inbound.Param) {
	defer func() {
		if r := recover(); r != nil {
			params = nil
		}
	}()
	return item.Params()
}

func textOr(fields docstring.Fields, field, fallback string) string {
	if s, ok := fields.Text(field); ok && s != "" {
		return s
	}
	return fallback
}

func findMarker(markers []inbound.Marker, name string) (inbound.Marker, bool) {
	for _, m := range markers {
		if m.Name == name {
			return m, true
		}
	}
	return inbound.Marker{}, false
}

// caseLevel prefers the docstring value, then the tier marker, then 0.
func caseLevel(fields docstring.Fields, markers []inbound.Marker) interface{} {
	if s, ok := fields.Text(fieldCaseLevel); ok && s != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
		return s
	}
	if tier, ok := findMarker(markers, MarkerTier); ok && len(tier.Args) > 0 {
		if n, err := cast.ToIntE(tier.Args[0]); err == nil {
			return n
		}
	}
	return 0
}

func caseAutomation(fields docstring.Fields, markers []inbound.Marker) string {
	if s, ok := fields.Text(fieldCaseAutomation); ok && s != "" {
		return s
	}
	if manual, ok := findMarker(markers, MarkerManual); ok {
		if len(manual.Args) > 0 {
			return dto.AutomationManualOnly
		}
		return dto.AutomationNotAutomated
	}
	return dto.AutomationAutomated
}

func relativePath(root, path string) string {
	if root != "" {
		if rel, err := filepath.Rel(absPath(root), absPath(path)); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

func listField(fields docstring.Fields, field string) []string {
	if l, ok := fields.List(field); ok {
		return l
	}
	if s, ok := fields.Text(field); ok && s != "" {
		return []string{s}
	}
	return nil
}

func stripStepNumber(s string) string {
	return strings.TrimSpace(stepNumberRe.ReplaceAllString(s, ""))
}

// stepsAndResults strips step numbers and pads results to the step count.
func stepsAndResults(fields docstring.Fields) ([]string, []string) {
	rawSteps := listField(fields, docstring.FieldTestSteps)
	rawResults := listField(fields, docstring.FieldExpectedResults)

	steps := make([]string, 0, len(rawSteps))
	for _, s := range rawSteps {
		steps = append(steps, stripStepNumber(s))
	}
	results := make([]string, 0, len(rawSteps))
	for _, r := range rawResults {
		results = append(results, stripStepNumber(r))
	}
	for len(results) < len(steps) {
		results = append(results, "")
	}
	return steps, results
}

func cleanLinkedItem(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"' `)
}

// linkedItems prefers requirement markers over the comma separated field.
func linkedItems(fields docstring.Fields, markers []inbound.Marker) []string {
	items := []string{}
	for _, m := range markers {
		if m.Name != MarkerRequirement {
			continue
		}
		for _, arg := range m.Args {
			if s := cleanLinkedItem(cast.ToString(arg)); s != "" {
				items = append(items, s)
			}
		}
	}
	if len(items) > 0 {
		return items
	}
	raw, _ := fields.Text(fieldLinkedItems)
	for _, part := range strings.Split(raw, ",") {
		if s := cleanLinkedItem(part); s != "" {
			items = append(items, s)
		}
	}
	return items
}

func (s *CollectionService) outputPath(name string) string {
	return filepath.Join(s.output.OutputDir, name)
}

func (s *CollectionService) writeCatalog(catalog dto.Catalog) (string, error) {
	data, err := json.MarshalIndent(catalog, "", "    ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrOutputWrite, err)
	}
	path := s.outputPath(s.output.DataFile)
	if err := s.writeFile(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

func (s *CollectionService) writeDuplicates(names []string) (string, error) {
	path := s.outputPath(s.output.DuplicatesFile)
	content := strings.Join(names, "\n") + "\n"
	if err := s.writeFile(path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}

func (s *CollectionService) writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s: %w", domain.ErrOutputWrite, path, err)
		}
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrOutputWrite, path, err)
	}
	return nil
}

// CleanDocstring trims a docstring the way Python's inspect.cleandoc does:
// the common indent of all lines after the first is removed together with
// leading and trailing blank lines.
func CleanDocstring(doc string) string {
	lines := docstring.SplitLines(strings.ReplaceAll(doc, "\t", "        "))
	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " ")
		if content == "" {
			continue
		}
		if indent := len(line) - len(content); margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	for i := 1; i < len(lines); i++ {
		if margin > 0 && len(lines[i]) >= margin {
			lines[i] = lines[i][margin:]
		} else {
			lines[i] = strings.TrimLeft(lines[i], " ")
		}
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
