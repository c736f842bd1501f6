package service

import (
	"context"
	"polarionlint/internal/config"
	"polarionlint/internal/domain/service/docstring"
	"polarionlint/internal/domain/valueobject"
	"sort"

	"github.com/spf13/afero"
)

// DiagnosticsChecker lints the Polarion docstrings of source files. Apart
// from the tests directory cache it holds no state across calls.
type DiagnosticsChecker struct {
	fs        afero.Fs
	parser    *FileParser
	schema    docstring.Schema
	filter    *NodeFilter
	testsDirs *TestsDirCache
	name      string
}

// CheckerOption configures a DiagnosticsChecker.
type CheckerOption func(*checkerOptions)

type checkerOptions struct {
	fs       afero.Fs
	allFiles bool
	name     string
}

// WithFs reads sources and sentinels from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) CheckerOption {
	return func(o *checkerOptions) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithAllFiles disables the tests directory filter.
func WithAllFiles() CheckerOption {
	return func(o *checkerOptions) { o.allFiles = true }
}

// WithCheckerName overrides the producer name attached to diagnostics.
func WithCheckerName(name string) CheckerOption {
	return func(o *checkerOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// SchemaFromConfig converts the checker configuration to validation tables.
func SchemaFromConfig(cfg config.CheckerConfig) docstring.Schema {
	return docstring.Schema{
		KnownFields:    cfg.KnownFields,
		ValidValues:    cfg.ValidValues,
		RequiredFields: cfg.RequiredFields,
		MarkerFields:   cfg.MarkerFields,
		IgnoredFields:  cfg.IgnoredFields,
	}
}

// NewDiagnosticsChecker creates a checker for cfg.
func NewDiagnosticsChecker(parser *FileParser, cfg config.CheckerConfig, opts ...CheckerOption) *DiagnosticsChecker {
	if parser == nil {
		panic("file parser cannot be nil")
	}
	o := checkerOptions{fs: afero.NewOsFs(), name: valueobject.DefaultCheckerTag}
	for _, opt := range opts {
		opt(&o)
	}

	c := &DiagnosticsChecker{
		fs:     o.fs,
		parser: parser,
		schema: SchemaFromConfig(cfg),
		filter: NewNodeFilter(cfg.WhitelistedTests, cfg.BlacklistedTests),
		name:   o.name,
	}
	if !o.allFiles {
		c.testsDirs = NewTestsDirCache(o.fs, cfg.Sentinel())
	}
	return c
}

// Check returns the diagnostics of the file at path sorted by line. Files
// outside a tests directory and unreadable files yield no diagnostics.
func (c *DiagnosticsChecker) Check(ctx context.Context, path string) []valueobject.DocstringError {
	if c.testsDirs != nil && !c.testsDirs.IsTestsFile(path) {
		return nil
	}
	source, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil
	}
	return c.CheckSource(ctx, path, source)
}

// CheckSource lints source as if it was read from path.
func (c *DiagnosticsChecker) CheckSource(ctx context.Context, path string, source []byte) []valueobject.DocstringError {
	file, err := c.parser.GetDocstrings(ctx, path, source, true)
	if err != nil {
		return nil
	}

	merged := docstring.Merge(file.Records())
	var diagnostics []valueobject.DocstringError
	for _, node := range file.Nodes {
		rec := node.Record
		if !c.filter.ShouldProcess(rec.NodeID) {
			continue
		}
		diagnostics = append(diagnostics, c.recordDiagnostics(rec, merged[rec.NodeID])...)
	}

	sort.SliceStable(diagnostics, func(i, j int) bool {
		return diagnostics[i].Lineno < diagnostics[j].Lineno
	})
	return diagnostics
}

func (c *DiagnosticsChecker) recordDiagnostics(
	rec valueobject.DocstringRecord,
	merged docstring.Fields,
) []valueobject.DocstringError {
	var out []valueobject.DocstringError
	if rec.Value != nil {
		for _, parseErr := range rec.Value.Errors {
			out = append(out, valueobject.ParseErrorDiagnostic(parseErr, c.name))
		}
	}

	validated := docstring.Validate(rec, merged, c.schema)
	if validated.IsClean() {
		return out
	}
	for _, f := range validated.Unknown {
		out = append(out, valueobject.UnknownDiagnostic(f, c.name))
	}
	for _, f := range validated.Invalid {
		out = append(out, valueobject.InvalidDiagnostic(f, c.name))
	}
	for _, f := range validated.Markers {
		out = append(out, valueobject.MarkerDiagnostic(f, c.name))
	}
	for _, f := range validated.Ignored {
		out = append(out, valueobject.IgnoredDiagnostic(f, c.name))
	}
	for _, field := range validated.Missing {
		out = append(out, valueobject.MissingDiagnostic(rec.Lineno, rec.Column, field, c.name))
	}
	return out
}
