// Package schema loads the fixed set of form rows from a template definition.
package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ppiankov/ownfunds/internal/assets"
	"github.com/ppiankov/ownfunds/internal/model"
	"gopkg.in/yaml.v3"
)

// Definition is a parsed template definition
type Definition struct {
	Template string
	Currency string
	Rows     []model.FormRow
}

type document struct {
	Template string    `yaml:"template"`
	Currency string    `yaml:"currency"`
	Rows     yaml.Node `yaml:"rows"`
}

type rowDef struct {
	Description string `yaml:"description"`
	Role        string `yaml:"role"`
	Reference   string `yaml:"reference"`
}

// Parse parses a schema document. Rows keep document order.
// YAML and JSON are both accepted.
func Parse(data []byte, source string) (*Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &model.SchemaError{Path: source, Err: err}
	}

	if doc.Rows.Kind != yaml.MappingNode {
		return nil, &model.SchemaError{Path: source, Err: errors.New("rows must be a mapping keyed by row id")}
	}
	if len(doc.Rows.Content) == 0 {
		return nil, &model.SchemaError{Path: source, Err: errors.New("no rows defined")}
	}

	def := &Definition{
		Template: strings.TrimSpace(doc.Template),
		Currency: strings.ToUpper(strings.TrimSpace(doc.Currency)),
	}
	seen := make(map[string]int)

	// Mapping content alternates key, value
	for i := 0; i+1 < len(doc.Rows.Content); i += 2 {
		keyNode, valNode := doc.Rows.Content[i], doc.Rows.Content[i+1]
		id := strings.TrimSpace(keyNode.Value)
		if id == "" {
			return nil, &model.SchemaError{Path: source, Err: fmt.Errorf("line %d: empty row id", keyNode.Line)}
		}
		if prev, dup := seen[id]; dup {
			return nil, &model.SchemaError{Path: source, Err: fmt.Errorf("line %d: duplicate row id %q (first defined on line %d)", keyNode.Line, id, prev)}
		}
		seen[id] = keyNode.Line

		var rd rowDef
		if err := valNode.Decode(&rd); err != nil {
			return nil, &model.SchemaError{Path: source, Err: fmt.Errorf("row %s: %w", id, err)}
		}
		role, ok := model.ParseRole(rd.Role)
		if !ok {
			return nil, &model.SchemaError{Path: source, Err: fmt.Errorf("row %s: unknown role %q (want INPUT, DEDUCTION or TOTAL)", id, rd.Role)}
		}

		def.Rows = append(def.Rows, model.FormRow{
			ID:          id,
			Description: strings.TrimSpace(rd.Description),
			Role:        role,
			Reference:   strings.TrimSpace(rd.Reference),
		})
	}

	return def, nil
}

// Store holds the schema for the lifetime of the process.
// The first successful Load wins; later calls return the cached rows.
type Store struct {
	mu     sync.Mutex
	loaded atomic.Bool
	source string
	def    *Definition
	index  map[string]int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Load reads the schema from path, or the embedded default when path is empty
func (s *Store) Load(path string) ([]model.FormRow, error) {
	if s.loaded.Load() {
		return s.Rows(), nil
	}

	if path == "" {
		return s.LoadBytes(assets.Schema, assets.SchemaName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.SchemaError{Path: path, Err: err}
	}
	return s.LoadBytes(data, path)
}

// LoadBytes parses and caches an in-memory schema document
func (s *Store) LoadBytes(data []byte, source string) ([]model.FormRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded.Load() {
		return s.Rows(), nil
	}

	def, err := Parse(data, source)
	if err != nil {
		return nil, err
	}

	s.def = def
	s.source = source
	s.index = make(map[string]int, len(def.Rows))
	for i, row := range def.Rows {
		s.index[row.ID] = i
	}
	s.loaded.Store(true)

	return s.Rows(), nil
}

// Loaded reports whether a schema has been loaded
func (s *Store) Loaded() bool {
	return s != nil && s.loaded.Load()
}

// Rows returns a copy of the rows in display order
func (s *Store) Rows() []model.FormRow {
	if !s.Loaded() {
		return nil
	}
	rows := make([]model.FormRow, len(s.def.Rows))
	copy(rows, s.def.Rows)
	return rows
}

// Row looks up a row by id
func (s *Store) Row(id string) (model.FormRow, bool) {
	if !s.Loaded() {
		return model.FormRow{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return model.FormRow{}, false
	}
	return s.def.Rows[i], true
}

// Template returns the template code, e.g. "C 01.00"
func (s *Store) Template() string {
	if !s.Loaded() {
		return ""
	}
	return s.def.Template
}

// Currency returns the reporting currency code
func (s *Store) Currency() string {
	if !s.Loaded() {
		return ""
	}
	return s.def.Currency
}

// Source returns where the schema was loaded from
func (s *Store) Source() string {
	if !s.Loaded() {
		return ""
	}
	return s.source
}
