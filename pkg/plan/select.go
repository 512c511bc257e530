package plan

import (
	"fmt"

	"github.com/bisegni/rowtree/pkg/shape"
)

// Select is a node of a join tree: either a *TableDefinition or a *Join.
// Both are immutable once built.
type Select interface {
	Node
	isSelect()
}

// TableDefinition is a leaf of the join tree: a table, its id column and its
// own columns.
type TableDefinition struct {
	Table   string
	Path    shape.Path
	ID      Column
	Columns []Column
}

// NewTable creates a table definition without id and columns.
func NewTable(table string, path shape.Path) *TableDefinition {
	return &TableDefinition{Table: table, Path: path}
}

// WithID returns a copy of t using the named id column.
func (t *TableDefinition) WithID(name string) *TableDefinition {
	c := *t
	c.ID = BaseColumn{Name: name, Table: t.Table}
	return &c
}

// WithColumns returns a copy of t owning the named columns.
func (t *TableDefinition) WithColumns(names ...string) *TableDefinition {
	c := *t
	c.Columns = make([]Column, len(names))
	for i, name := range names {
		c.Columns[i] = BaseColumn{Name: name, Table: t.Table}
	}
	return &c
}

// Key identifies the table inside a builder: the dot path it was declared for.
func (t *TableDefinition) Key() string {
	return t.Path.DotPath()
}

func (t *TableDefinition) Children() []Node {
	return nil
}

func (t *TableDefinition) Explain() string {
	id := "none"
	if t.ID != nil {
		id = Name(t.ID)
	}
	return fmt.Sprintf("Table(%s, path: %s, id: %s, %d columns)", t.Table, t.Path, id, len(t.Columns))
}

func (*TableDefinition) isSelect() {}

// Join combines a parent and a child select. It exposes the parent's columns
// followed by the child's, each one level more derived, and reports the
// parent's id as its own.
type Join struct {
	Parent Select
	Child  Select
}

func (j *Join) Children() []Node {
	return []Node{j.Parent, j.Child}
}

func (j *Join) Explain() string {
	id := "none"
	if c := ID(j); c != nil {
		id = fmt.Sprintf("%s@%d", Name(c), Depth(c))
	}
	return fmt.Sprintf("Join(id: %s, %d columns)", id, len(Columns(j)))
}

func (*Join) isSelect() {}

// Columns flattens the columns exposed by s, parent side first.
func Columns(s Select) []Column {
	switch v := s.(type) {
	case *TableDefinition:
		return append([]Column(nil), v.Columns...)
	case *Join:
		parent := Columns(v.Parent)
		child := Columns(v.Child)
		result := make([]Column, 0, len(parent)+len(child))
		for _, c := range parent {
			result = append(result, Derive(c))
		}
		for _, c := range child {
			result = append(result, Derive(c))
		}
		return result
	default:
		panic(fmt.Sprintf("plan: unexpected select %T", s))
	}
}

// ID is the id column reported by s. A join always reports its parent's id;
// the result is nil only if the anchoring table has no id.
func ID(s Select) Column {
	switch v := s.(type) {
	case *TableDefinition:
		return v.ID
	case *Join:
		return Derive(ID(v.Parent))
	default:
		panic(fmt.Sprintf("plan: unexpected select %T", s))
	}
}

// Tables lists the table definitions of s in the order they were joined.
func Tables(s Select) []*TableDefinition {
	switch v := s.(type) {
	case *TableDefinition:
		return []*TableDefinition{v}
	case *Join:
		return append(Tables(v.Parent), Tables(v.Child)...)
	default:
		panic(fmt.Sprintf("plan: unexpected select %T", s))
	}
}

// SelectList returns the resolved column names a query over s projects.
func SelectList(s Select) []string {
	cols := Columns(s)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = Name(c)
	}
	return names
}
