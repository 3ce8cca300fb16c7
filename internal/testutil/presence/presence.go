// Package presence is an in-memory model of the oracle's observable semantics.
//
// Fuzz tests generate protocol lines together with the operation each line is
// meant to express. The model receives the intended operation; the real oracle
// receives the rendered line. If they disagree, either the parser or the
// presence model is wrong.
//
// Design principles:
//
//   - Simple over performant. Plain maps, no ordering tricks.
//
//   - No dependencies beyond the standard library.
//
//   - All input methods accept primitive values (table name, key). The model
//     never parses text.
//
// This package is designed to be simple enough to not need tests.
package presence

import (
	"slices"
)

// Model tracks which keys are present in which table.
type Model struct {
	singleTable bool
	tables      map[string]map[int]bool
}

// New returns a model with one presence map per table name.
func New() *Model {
	return &Model{tables: map[string]map[int]bool{}}
}

// NewSingleTable returns a model that ignores table names.
func NewSingleTable() *Model {
	return &Model{singleTable: true, tables: map[string]map[int]bool{}}
}

func (m *Model) name(table string) string {
	if m.singleTable {
		return ""
	}

	return table
}

// Create registers table. An existing table keeps its keys.
func (m *Model) Create(table string) {
	if m.singleTable {
		return
	}

	if m.tables[table] == nil {
		m.tables[table] = map[int]bool{}
	}
}

// Destroy forgets table and all its keys.
func (m *Model) Destroy(table string) {
	if m.singleTable {
		return
	}

	delete(m.tables, table)
}

// Insert marks key present.
func (m *Model) Insert(table string, key int) {
	name := m.name(table)
	if m.tables[name] == nil {
		m.tables[name] = map[int]bool{}
	}

	m.tables[name][key] = true
}

// Erase marks key absent.
func (m *Model) Erase(table string, key int) {
	name := m.name(table)
	if m.tables[name] != nil {
		delete(m.tables[name], key)
	}
}

// Query reports whether key is present.
func (m *Model) Query(table string, key int) bool {
	return m.tables[m.name(table)][key]
}

// Tables returns the known table names, sorted.
func (m *Model) Tables() []string {
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Keys returns the present keys of table, sorted. Unknown tables return nil.
func (m *Model) Keys(table string) []int {
	present, ok := m.tables[m.name(table)]
	if !ok {
		return nil
	}

	keys := make([]int, 0, len(present))
	for key := range present {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
