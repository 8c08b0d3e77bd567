package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/ppiankov/ownfunds/internal/schema"
)

func loadSchema(t *testing.T) *schema.Store {
	t.Helper()
	s := schema.NewStore()
	if _, err := s.Load(""); err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return s
}

func defaultChecks(t *testing.T) []*Check {
	t.Helper()
	checks, err := LoadChecks("")
	if err != nil {
		t.Fatalf("load checks: %v", err)
	}
	return checks
}

func row(id string, amount int64) model.RowValue {
	return model.RowValue{RowID: id, AmountMinorUnits: amount}
}

// scenarioForm mirrors the built form for the reference scenario:
// capital, premium, earnings and intangibles given, OCI absent.
func scenarioForm() model.Form {
	return model.Form{Rows: []model.RowValue{
		row("010", 5_000_000_000),
		row("020", 2_000_000_000),
		row("030", 8_000_000_000),
		row("070", -4_000_000_000),
		row("100", 11_000_000_000),
	}}
}

func TestValidator_MissingInputRow(t *testing.T) {
	v := NewValidator(defaultChecks(t), nil)

	issues := v.Validate(scenarioForm(), loadSchema(t))

	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d: %v", len(issues), issues)
	}
	if issues[0].Kind != model.IssueMissingRequiredRow {
		t.Errorf("Expected MISSING_REQUIRED_ROW, got %s", issues[0].Kind)
	}
	if issues[0].RowID != "040" {
		t.Errorf("Expected row 040 flagged, got %s", issues[0].RowID)
	}
}

func TestValidator_DeductionRowNotRequired(t *testing.T) {
	v := NewValidator(nil, nil)
	form := model.Form{Rows: []model.RowValue{
		row("010", 1),
		row("020", 1),
		row("030", 1),
		row("040", 1),
		row("100", 4),
	}}

	issues := v.Validate(form, loadSchema(t))
	if len(issues) != 0 {
		t.Errorf("Expected no issues without deductions, got %v", issues)
	}
}

func TestValidator_EmptyFormFlagsEveryInput(t *testing.T) {
	v := NewValidator(defaultChecks(t), nil)
	form := model.Form{Rows: []model.RowValue{row("100", 0)}}

	issues := v.Validate(form, loadSchema(t))

	var ids []string
	for _, issue := range issues {
		if issue.Kind != model.IssueMissingRequiredRow {
			t.Errorf("Unexpected issue kind %s", issue.Kind)
		}
		ids = append(ids, issue.RowID)
	}
	if got := strings.Join(ids, ","); got != "010,020,030,040" {
		t.Errorf("Expected inputs flagged in schema order, got %s", got)
	}
}

func TestValidator_PassesThroughUnmatched(t *testing.T) {
	v := NewValidator(defaultChecks(t), nil)
	form := scenarioForm()
	form.Issues = []model.ValidationIssue{{
		Kind:    model.IssueUnmatchedFact,
		Concept: "risk weighted assets",
		Detail:  "no rule matches concept",
	}}

	issues := v.Validate(form, loadSchema(t))

	if len(issues) != 2 {
		t.Fatalf("Expected 2 issues, got %d: %v", len(issues), issues)
	}
	if issues[0].Kind != model.IssueMissingRequiredRow {
		t.Errorf("Expected missing rows first, got %s", issues[0].Kind)
	}
	if issues[1].Kind != model.IssueUnmatchedFact || issues[1].Concept != "risk weighted assets" {
		t.Errorf("Expected unmatched fact passed through, got %+v", issues[1])
	}
}

func TestValidator_NegativeTotalFailsCheck(t *testing.T) {
	v := NewValidator(defaultChecks(t), nil)
	form := model.Form{Rows: []model.RowValue{
		row("010", 100),
		row("020", 100),
		row("030", 100),
		row("040", 100),
		row("070", -1_000),
		row("100", -600),
	}}

	issues := v.Validate(form, loadSchema(t))

	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d: %v", len(issues), issues)
	}
	if issues[0].Kind != model.IssueCheckFailed {
		t.Errorf("Expected CHECK_FAILED, got %s", issues[0].Kind)
	}
	if !strings.Contains(issues[0].Detail, "cet1_non_negative") {
		t.Errorf("Expected check id in detail, got %q", issues[0].Detail)
	}
}

func TestValidator_CheckOnAbsentRowReportsEvaluationError(t *testing.T) {
	checks, err := CompileChecks([]CheckDef{{
		ID:         "oci_positive",
		Expression: `rows["040"] > 0`,
	}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	v := NewValidator(checks, nil)
	issues := v.Validate(scenarioForm(), loadSchema(t))

	last := issues[len(issues)-1]
	if last.Kind != model.IssueCheckFailed {
		t.Fatalf("Expected CHECK_FAILED, got %s", last.Kind)
	}
	if !strings.Contains(last.Detail, "could not evaluate") {
		t.Errorf("Expected evaluation error detail, got %q", last.Detail)
	}
}

func TestValidator_PresentGuard(t *testing.T) {
	checks, err := CompileChecks([]CheckDef{{
		ID:         "oci_positive_if_given",
		Expression: `!("040" in present) || rows["040"] > 0`,
		Message:    "OCI must be positive",
	}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	issues := NewValidator(checks, nil).Validate(scenarioForm(), loadSchema(t))
	for _, issue := range issues {
		if issue.Kind == model.IssueCheckFailed {
			t.Errorf("Guarded check should pass when row is absent, got %q", issue.Detail)
		}
	}
}

func TestCompileChecks_Errors(t *testing.T) {
	tests := []struct {
		name string
		defs []CheckDef
	}{
		{"syntax error", []CheckDef{{ID: "a", Expression: `rows["100"] >=`}}},
		{"non-boolean", []CheckDef{{ID: "a", Expression: `rows["100"] + 1`}}},
		{"undeclared variable", []CheckDef{{ID: "a", Expression: `totals["100"] > 0`}}},
		{"empty id", []CheckDef{{ID: " ", Expression: `true`}}},
		{"duplicate id", []CheckDef{
			{ID: "a", Expression: `true`},
			{ID: "a", Expression: `false`},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CompileChecks(tt.defs); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadChecks_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checks.yaml")
	doc := `checks:
  - id: has_capital
    expression: '"010" in present'
    message: share capital missing
  - id: total_under_cap
    expression: 'rows["100"] < 100000000000000'
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	checks, err := LoadChecks(path)
	if err != nil {
		t.Fatalf("LoadChecks failed: %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("Expected 2 checks, got %d", len(checks))
	}
	if checks[0].Def.ID != "has_capital" {
		t.Errorf("Expected file order, got %s first", checks[0].Def.ID)
	}

	if _, err := LoadChecks(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
