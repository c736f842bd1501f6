package service

import (
	"context"
	"polarionlint/internal/config"
	"polarionlint/internal/domain/valueobject"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const s1Source = `def test_one():
    """
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
    """
    pass
`

func checkerConfig() config.CheckerConfig {
	return config.CheckerConfig{
		KnownFields: []string{"assignee", "caselevel", "testSteps", "expectedResults", "title", "tier"},
		ValidValues: map[string][]string{"caselevel": {"low", "medium", "high"}},
	}
}

func newTestChecker(cfg config.CheckerConfig, opts ...CheckerOption) *DiagnosticsChecker {
	return NewDiagnosticsChecker(newTestFileParser(), cfg, opts...)
}

func messages(diags []valueobject.DocstringError) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}

func TestDiagnosticsChecker_WellFormed(t *testing.T) {
	cfg := checkerConfig()
	cfg.RequiredFields = []string{"assignee"}

	diags := newTestChecker(cfg).CheckSource(context.Background(), "tests/test_a.py", []byte(s1Source))
	assert.Empty(t, diags)
}

func TestDiagnosticsChecker_MissingRequired(t *testing.T) {
	source := strings.Replace(s1Source, "        assignee: alice\n", "", 1)
	cfg := checkerConfig()
	cfg.RequiredFields = []string{"assignee"}

	diags := newTestChecker(cfg).CheckSource(context.Background(), "tests/test_a.py", []byte(source))
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Lineno, "reported at the Polarion header")
	assert.Equal(t, 4, diags[0].Column)
	assert.Equal(t, valueobject.CodeMissingField, diags[0].Code())
	assert.Contains(t, diags[0].Message, "assignee")
	assert.Equal(t, valueobject.DefaultCheckerTag, diags[0].Checker)
}

func TestDiagnosticsChecker_InvalidEnum(t *testing.T) {
	source := strings.Replace(s1Source, "caselevel: low", "caselevel: critical", 1)

	diags := newTestChecker(checkerConfig()).CheckSource(context.Background(), "tests/test_a.py", []byte(source))
	require.Len(t, diags, 1)
	assert.Equal(t, 5, diags[0].Lineno)
	assert.Equal(t, 8, diags[0].Column)
	assert.Equal(t, `P667 Invalid value "critical" of the "caselevel" field`, diags[0].Message)
}

func TestDiagnosticsChecker_IndentViolation(t *testing.T) {
	source := `def test_one():
    """
    Polarion:
        assignee: alice
           stray: value
    """
`
	diags := newTestChecker(checkerConfig()).CheckSource(context.Background(), "tests/test_a.py", []byte(source))
	require.Len(t, diags, 1)
	assert.Equal(t, 5, diags[0].Lineno)
	assert.Equal(t, 11, diags[0].Column)
	assert.Equal(t, "P663 Wrong indentation, line ignored", diags[0].Message)
}

func TestDiagnosticsChecker_StrayKeyReportedOnce(t *testing.T) {
	source := `def test_one():
    """
    Polarion:
        assignee: alice
        testSteps:
            Login: as admin
            Check it
    """
`
	diags := newTestChecker(checkerConfig()).CheckSource(context.Background(), "tests/test_a.py", []byte(source))
	require.Len(t, diags, 1)
	assert.Equal(t, 6, diags[0].Lineno)
	assert.Equal(t, valueobject.CodeParseError, diags[0].Code())
}

func TestDiagnosticsChecker_TabIndented(t *testing.T) {
	source := "def test_one():\n\t\"\"\"\n\tPolarion:\n\t\tassignee: alice\n\t\"\"\"\n"
	cfg := checkerConfig()
	cfg.RequiredFields = []string{"assignee"}

	diags := newTestChecker(cfg).CheckSource(context.Background(), "tests/test_a.py", []byte(source))
	assert.Empty(t, diags)
}

func TestDiagnosticsChecker_Inheritance(t *testing.T) {
	source := `"""
Polarion:
    assignee: alice
"""


def test_one():
    """
    Polarion:
        caselevel: low
    """
`
	cfg := checkerConfig()
	cfg.RequiredFields = []string{"assignee"}

	diags := newTestChecker(cfg).CheckSource(context.Background(), "tests/test_a.py", []byte(source))
	assert.Empty(t, diags)
}

func TestDiagnosticsChecker_AllCodesSortedByLine(t *testing.T) {
	source := `class TestGroup:
    """
    Polarion:
        bogus: x
    """

    def test_one(self):
        """
        Polarion:
            tier: 2
            title: Login
            caselevel: extreme
            testSteps: not a list
            missing colon here
        """

    def test_two(self):
        pass
`
	cfg := checkerConfig()
	cfg.RequiredFields = []string{"assignee"}
	cfg.MarkerFields = map[string]string{"tier": "tier"}
	cfg.IgnoredFields = map[string]string{"title": "derived from the test name"}

	diags := newTestChecker(cfg).CheckSource(context.Background(), "tests/test_a.py", []byte(source))

	assert.Equal(t, []string{
		`P666 Unknown field "bogus"`,
		`P669 Missing required field "assignee"`,
		`P668 Field "tier" should be handled by the "@pytest.mark.tier" marker`,
		`P664 Ignoring field "title": derived from the test name`,
		`P667 Invalid value "extreme" of the "caselevel" field`,
		`P667 Invalid value of the "testSteps" field, expected a list`,
		"P663 Missing colon, line ignored",
		`P669 Missing required field "assignee"`,
	}, messages(diags))

	lines := make([]int, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, d.Lineno)
	}
	assert.Equal(t, []int{4, 9, 10, 11, 12, 13, 14, 18}, lines)

	for _, d := range diags {
		assert.Contains(t, valueobject.AllDiagnosticCodes(), d.Code())
	}
}

func TestDiagnosticsChecker_Deterministic(t *testing.T) {
	source := strings.Replace(s1Source, "caselevel: low", "caselevel: critical\n        unknown1: a\n        unknown2: b", 1)
	checker := newTestChecker(checkerConfig())

	first := checker.CheckSource(context.Background(), "tests/test_a.py", []byte(source))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, checker.CheckSource(context.Background(), "tests/test_a.py", []byte(source)))
	}
}

func TestDiagnosticsChecker_NodeFilter(t *testing.T) {
	source := strings.Replace(s1Source, "caselevel: low", "caselevel: critical", 1)
	cfg := checkerConfig()
	cfg.BlacklistedTests = []string{"test_one"}

	diags := newTestChecker(cfg).CheckSource(context.Background(), "tests/test_a.py", []byte(source))
	assert.Empty(t, diags)

	cfg.WhitelistedTests = []string{"tests/test_a\\.py::test_one$"}
	diags = newTestChecker(cfg).CheckSource(context.Background(), "tests/test_a.py", []byte(source))
	assert.Len(t, diags, 1)
}

func TestDiagnosticsChecker_NoSchema(t *testing.T) {
	source := "def test_one():\n    \"\"\"\n    Polarion:\n        anything: goes\n          stray: x\n    \"\"\"\n"

	diags := newTestChecker(config.CheckerConfig{}).CheckSource(context.Background(), "t.py", []byte(source))
	assert.Equal(t, []string{"P663 Wrong indentation, line ignored"}, messages(diags),
		"parse errors survive a missing schema")
}

func TestDiagnosticsChecker_Check_TestsDirectory(t *testing.T) {
	source := strings.Replace(s1Source, "caselevel: low", "caselevel: critical", 1)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/tests/conftest.py", nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/tests/test_a.py", []byte(source), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/scripts/test_b.py", []byte(source), 0o644))

	checker := newTestChecker(checkerConfig(), WithFs(fs))
	assert.Len(t, checker.Check(context.Background(), "/proj/tests/test_a.py"), 1)
	assert.Empty(t, checker.Check(context.Background(), "/proj/scripts/test_b.py"))
	assert.Empty(t, checker.Check(context.Background(), "/proj/tests/absent.py"), "unreadable files yield nothing")

	all := newTestChecker(checkerConfig(), WithFs(fs), WithAllFiles(), WithCheckerName("custom"))
	diags := all.Check(context.Background(), "/proj/scripts/test_b.py")
	require.Len(t, diags, 1)
	assert.Equal(t, "custom", diags[0].Checker)
}

func TestDocstringError_Format(t *testing.T) {
	d := valueobject.MissingDiagnostic(3, 4, "assignee", valueobject.DefaultCheckerTag)
	assert.Equal(t, `tests/test_a.py:3:5: P669 Missing required field "assignee"`, d.Format("tests/test_a.py"))
}
