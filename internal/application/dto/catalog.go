package dto

// Automation statuses of a testcase.
const (
	AutomationAutomated    = "automated"
	AutomationNotAutomated = "notautomated"
	AutomationManualOnly   = "manualonly"
)

// VerdictWaiting is the verdict of every result in a freshly generated shell.
const VerdictWaiting = "waiting"

// TestcaseEntry is one row of the test catalog. Its keys are the fixed
// catalog keys plus every additional field of the merged docstring.
type TestcaseEntry map[string]interface{}

// ResultEntry is one row of the result shell.
type ResultEntry struct {
	Title   string            `json:"title"`
	Verdict string            `json:"verdict"`
	Params  map[string]string `json:"params,omitempty"`
}

// Catalog is the document written to the tests data file.
type Catalog struct {
	Testcases []TestcaseEntry `json:"testcases"`
	Results   []ResultEntry   `json:"results"`
}

// CollectionReport summarizes one collection run.
type CollectionReport struct {
	Skipped        bool     `json:"skipped"`
	Testcases      int      `json:"testcases"`
	Duplicates     []string `json:"duplicates"`
	DataFile       string   `json:"data_file,omitempty"`
	DuplicatesFile string   `json:"duplicates_file,omitempty"`
}
