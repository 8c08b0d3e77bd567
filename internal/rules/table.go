// Package rules loads the concept rule table and resolves extracted
// concept names to form rows.
package rules

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ppiankov/ownfunds/internal/assets"
	"github.com/ppiankov/ownfunds/internal/model"
)

// ErrSchemaNotLoaded is returned when rules are loaded before the schema
var ErrSchemaNotLoaded = errors.New("schema must be loaded before rules")

// RowLookup is the part of the schema store the rule table depends on
type RowLookup interface {
	Loaded() bool
	Row(id string) (model.FormRow, bool)
}

// Table maps lowercased concept names to rules.
// It is loaded once and read-only afterwards.
type Table struct {
	mu       sync.Mutex
	loaded   atomic.Bool
	source   string
	byKey    map[string]model.Rule
	concepts []string // File order
}

// NewTable creates an empty rule table
func NewTable() *Table {
	return &Table{}
}

// Load reads rules from path (or the embedded default when empty) and
// cross-checks every row id against the schema.
func (t *Table) Load(path string, schema RowLookup) (map[string]model.Rule, error) {
	if t.loaded.Load() {
		return t.Rules(), nil
	}

	if path == "" {
		return t.LoadBytes(assets.Rules, assets.RulesName, schema)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.RuleError{Path: path, Err: err}
	}
	return t.LoadBytes(data, path, schema)
}

// LoadBytes parses and caches an in-memory rules document
func (t *Table) LoadBytes(data []byte, source string, schema RowLookup) (map[string]model.Rule, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.loaded.Load() {
		return t.Rules(), nil
	}

	if schema == nil || !schema.Loaded() {
		return nil, &model.RuleError{Path: source, Err: ErrSchemaNotLoaded}
	}

	byKey := make(map[string]model.Rule)
	var concepts []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, err := parseLine(line)
		if err != nil {
			return nil, &model.RuleError{Path: source, Line: lineNo, Err: err}
		}

		row, ok := schema.Row(rule.RowID)
		if !ok {
			return nil, &model.RuleError{Path: source, Line: lineNo, Err: fmt.Errorf("unknown row id %q", rule.RowID)}
		}
		if row.Role == model.RoleTotal {
			return nil, &model.RuleError{Path: source, Line: lineNo, Err: fmt.Errorf("row %s is a computed total and cannot be fed by a rule", rule.RowID)}
		}

		key := Key(rule.Concept)
		if _, dup := byKey[key]; dup {
			return nil, &model.RuleError{Path: source, Line: lineNo, Err: fmt.Errorf("duplicate concept %q", rule.Concept)}
		}
		byKey[key] = rule
		concepts = append(concepts, rule.Concept)
	}
	if err := scanner.Err(); err != nil {
		return nil, &model.RuleError{Path: source, Err: err}
	}
	if len(byKey) == 0 {
		return nil, &model.RuleError{Path: source, Err: errors.New("no rules defined")}
	}

	t.byKey = byKey
	t.concepts = concepts
	t.source = source
	t.loaded.Store(true)

	return t.Rules(), nil
}

// parseLine parses "concept | row | sign [| reference [| description]]"
func parseLine(line string) (model.Rule, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 3 || len(parts) > 5 {
		return model.Rule{}, fmt.Errorf("expected 3 to 5 '|' separated fields, got %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	concept := collapseSpaces(parts[0])
	if concept == "" {
		return model.Rule{}, errors.New("empty concept")
	}
	if parts[1] == "" {
		return model.Rule{}, errors.New("empty row id")
	}

	sign, err := parseSign(parts[2])
	if err != nil {
		return model.Rule{}, err
	}

	rule := model.Rule{
		Concept: concept,
		RowID:   parts[1],
		Sign:    sign,
	}
	if len(parts) > 3 {
		rule.Reference = parts[3]
	}
	if len(parts) > 4 {
		rule.Description = parts[4]
	}
	return rule, nil
}

func parseSign(s string) (model.Sign, error) {
	switch s {
	case "+", "+1", "1":
		return model.SignPositive, nil
	case "-", "-1":
		return model.SignNegative, nil
	}
	return 0, fmt.Errorf("invalid sign %q (want + or -)", s)
}

// Key normalizes a concept name into its match key
func Key(concept string) string {
	return strings.ToLower(collapseSpaces(concept))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Resolve looks up a concept by case-insensitive exact match.
// No fuzzy matching is performed here.
func (t *Table) Resolve(concept string) (model.Rule, bool) {
	if !t.Loaded() {
		return model.Rule{}, false
	}
	rule, ok := t.byKey[Key(concept)]
	return rule, ok
}

// Loaded reports whether the table has been loaded
func (t *Table) Loaded() bool {
	return t != nil && t.loaded.Load()
}

// Concepts returns the concept names in file order
func (t *Table) Concepts() []string {
	if !t.Loaded() {
		return nil
	}
	out := make([]string, len(t.concepts))
	copy(out, t.concepts)
	return out
}

// Rules returns a copy of the lowercased concept -> rule mapping
func (t *Table) Rules() map[string]model.Rule {
	if !t.Loaded() {
		return nil
	}
	out := make(map[string]model.Rule, len(t.byKey))
	for k, v := range t.byKey {
		out[k] = v
	}
	return out
}

// Ordered returns the rules in file order
func (t *Table) Ordered() []model.Rule {
	if !t.Loaded() {
		return nil
	}
	out := make([]model.Rule, 0, len(t.concepts))
	for _, c := range t.concepts {
		out = append(out, t.byKey[Key(c)])
	}
	return out
}

// Source returns where the rules were loaded from
func (t *Table) Source() string {
	if !t.Loaded() {
		return ""
	}
	return t.source
}
