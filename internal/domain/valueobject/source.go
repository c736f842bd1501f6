package valueobject

// DefinitionKind distinguishes class and function definitions.
type DefinitionKind string

const (
	DefinitionClass    DefinitionKind = "class"
	DefinitionFunction DefinitionKind = "function"
)

// StringLiteral is a decoded string literal found at the head of a body.
// Line is the 1-based source line the literal's text starts on; Column is the
// 0-based column of the literal's opening prefix or quote.
type StringLiteral struct {
	Text   string
	Line   int
	Column int
}

// Definition is a class or function definition with its nested definitions.
// Line and Column locate the "class"/"def" keyword; FirstLine is the first
// line of the whole definition including decorators.
type Definition struct {
	Kind      DefinitionKind
	Name      string
	Line      int
	Column    int
	FirstLine int
	Docstring *StringLiteral
	Body      []Definition
}

// Module is the definition tree of one source file.
type Module struct {
	Path        string
	Docstring   *StringLiteral
	Definitions []Definition
	HasErrors   bool
}
