package validate

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/ppiankov/ownfunds/internal/assets"
	"gopkg.in/yaml.v3"
)

// checkCostLimit bounds evaluation of a single check expression
const checkCostLimit = 100_000

// CheckDef is one consistency check as written in the checks file
type CheckDef struct {
	ID         string `yaml:"id"`
	Expression string `yaml:"expression"`
	Message    string `yaml:"message"`
}

type checksFile struct {
	Checks []CheckDef `yaml:"checks"`
}

// Check is a compiled consistency check over the computed form.
// Expressions see two variables:
//
//	rows    map(string, int)  populated row id -> amount in minor units
//	present list(string)      populated row ids in schema order
type Check struct {
	Def     CheckDef
	program cel.Program
}

// LoadChecks reads check definitions from path, or the embedded
// defaults when path is empty, and compiles them.
func LoadChecks(path string) ([]*Check, error) {
	data, source := assets.Checks, assets.ChecksName
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read checks: %w", err)
		}
		source = path
	}

	var f checksFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse checks %s: %w", source, err)
	}

	return CompileChecks(f.Checks)
}

// CompileChecks type-checks every definition. Each expression must
// evaluate to a bool.
func CompileChecks(defs []CheckDef) ([]*Check, error) {
	env, err := newCheckEnv()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	checks := make([]*Check, 0, len(defs))
	for _, def := range defs {
		def.ID = strings.TrimSpace(def.ID)
		if def.ID == "" {
			return nil, errors.New("check with empty id")
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("duplicate check id %q", def.ID)
		}
		seen[def.ID] = true

		ast, issues := env.Compile(def.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("check %s: compile error: %w", def.ID, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("check %s: expression must be boolean, got %s", def.ID, ast.OutputType())
		}

		prog, err := env.Program(ast, cel.CostLimit(checkCostLimit))
		if err != nil {
			return nil, fmt.Errorf("check %s: program creation error: %w", def.ID, err)
		}

		checks = append(checks, &Check{Def: def, program: prog})
	}

	return checks, nil
}

func newCheckEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("rows", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("present", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// Eval runs the check. passed is false when the expression evaluates to
// false; err is set when evaluation itself fails (e.g. a missing row key).
func (c *Check) Eval(rows map[string]int64, present []string) (passed bool, err error) {
	out, _, err := c.program.Eval(map[string]any{
		"rows":    rows,
		"present": present,
	})
	if err != nil {
		return false, err
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("non-boolean result %v", out.Value())
	}
	return b, nil
}
