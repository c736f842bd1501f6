// Package inbound defines the inbound ports (interfaces) for the application layer.
// These ports represent the entry points into the application's core business logic.
package inbound

import (
	"context"
	"polarionlint/internal/application/dto"
	"polarionlint/internal/domain/valueobject"
)

// Marker is an out-of-band annotation attached to a test item by the runner.
type Marker struct {
	Name string
	Args []interface{}
}

// Param is one fixture parameter of a test item, in the order the runner reports.
type Param struct {
	Name  string
	Value interface{}
}

// TestItem is the view of a discovered test the collection hook relies on.
type TestItem interface {
	// NodeID is the runner identifier, e.g. "tests/t.py::TestA::test_x[param1]".
	NodeID() string
	// FilePath is the path of the source file holding the test.
	FilePath() string
	// FunctionLine is the 1-based first line of the test function, 0 when unknown.
	FunctionLine() int
	Markers() []Marker
	Params() []Param
}

// Session is the state of a test runner after discovery.
type Session interface {
	Items() []TestItem
	// RootDir anchors relative script paths in the catalog.
	RootDir() string
	CollectOnly() bool
	GenerateJSON() bool
}

// CollectionService materializes the test catalog and result shell of a session.
type CollectionService interface {
	Collect(ctx context.Context, session Session) (*dto.CollectionReport, error)
}

// DocstringChecker lints the Polarion docstrings of one source file.
type DocstringChecker interface {
	Check(ctx context.Context, path string) []valueobject.DocstringError
}
