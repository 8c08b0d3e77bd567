package validate

import (
	"fmt"

	"github.com/ppiankov/ownfunds/internal/model"
	"go.uber.org/zap"
)

// Schema is the part of the schema store the validator reads
type Schema interface {
	Rows() []model.FormRow
}

// Validator flags incomplete or inconsistent forms.
// Findings are advisory: the form is always emitted.
type Validator struct {
	checks []*Check
	logger *zap.Logger
}

// NewValidator creates a validator running the given consistency checks
func NewValidator(checks []*Check, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		checks: checks,
		logger: logger,
	}
}

// Validate returns, in order: one MISSING_REQUIRED_ROW per INPUT row with
// no contributing fact, the UNMATCHED_FACT issues collected while building
// the form, then any failed consistency checks.
func (v *Validator) Validate(form model.Form, schema Schema) []model.ValidationIssue {
	issues := make([]model.ValidationIssue, 0)
	rows := schema.Rows()

	for _, row := range rows {
		if row.Role != model.RoleInput {
			continue
		}
		if _, ok := form.Get(row.ID); !ok {
			issues = append(issues, model.ValidationIssue{
				Kind:   model.IssueMissingRequiredRow,
				RowID:  row.ID,
				Detail: fmt.Sprintf("no figure given for required row %s (%s)", row.ID, row.Description),
			})
		}
	}

	issues = append(issues, form.Issues...)

	return append(issues, v.runChecks(form, rows)...)
}

// runChecks evaluates every consistency check against the populated rows
func (v *Validator) runChecks(form model.Form, rows []model.FormRow) []model.ValidationIssue {
	if len(v.checks) == 0 {
		return nil
	}

	amounts := make(map[string]int64, len(form.Rows))
	present := make([]string, 0, len(form.Rows))
	for _, row := range rows {
		if rv, ok := form.Get(row.ID); ok {
			amounts[row.ID] = rv.AmountMinorUnits
			present = append(present, row.ID)
		}
	}

	var issues []model.ValidationIssue
	for _, check := range v.checks {
		passed, err := check.Eval(amounts, present)
		switch {
		case err != nil:
			v.logger.Debug("check evaluation failed",
				zap.String("check", check.Def.ID),
				zap.Error(err))
			issues = append(issues, model.ValidationIssue{
				Kind:   model.IssueCheckFailed,
				Detail: fmt.Sprintf("%s: could not evaluate: %v", check.Def.ID, err),
			})
		case !passed:
			msg := check.Def.Message
			if msg == "" {
				msg = check.Def.Expression
			}
			issues = append(issues, model.ValidationIssue{
				Kind:   model.IssueCheckFailed,
				Detail: fmt.Sprintf("%s: %s", check.Def.ID, msg),
			})
		}
	}

	return issues
}
