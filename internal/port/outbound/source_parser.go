package outbound

import (
	"context"
	"polarionlint/internal/domain/valueobject"
)

// SourceParser turns the source of one Python file into its definition tree.
// It is the only capability the docstring pipeline needs from a language toolchain.
type SourceParser interface {
	// ParseModule parses source read from path. A syntactically broken file still
	// yields a module when the parser can recover; an error is fatal for that file only.
	ParseModule(ctx context.Context, path string, source []byte) (*valueobject.Module, error)
}
