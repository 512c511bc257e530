package plan

import "fmt"

// Builder assembles a join tree. AddRoot starts the tree with a single table;
// every AddChild wraps the whole current tree as the parent side of a new
// join, so the result is a left-deep chain in declaration order.
//
// Errors are sticky: after the first one every call is a no-op and Err
// reports it.
type Builder struct {
	root   Select
	tables map[string]*TableDefinition
	err    error
}

func NewBuilder() *Builder {
	return &Builder{tables: make(map[string]*TableDefinition)}
}

// AddRoot sets the tree to the single table t.
func (b *Builder) AddRoot(t *TableDefinition) *Builder {
	if b.err != nil {
		return b
	}
	b.root = t
	b.tables = map[string]*TableDefinition{t.Key(): t}
	return b
}

// AddChild joins t under the table registered for parent.
func (b *Builder) AddChild(parent string, t *TableDefinition) *Builder {
	if b.err != nil {
		return b
	}
	if b.root == nil {
		b.err = fmt.Errorf("child '%s' added before a root table", t.Key())
		return b
	}
	if _, ok := b.tables[parent]; !ok {
		b.err = fmt.Errorf("parent table '%s' of '%s' not found", parent, t.Key())
		return b
	}
	if _, ok := b.tables[t.Key()]; ok {
		b.err = fmt.Errorf("table for '%s' already added", t.Key())
		return b
	}
	b.tables[t.Key()] = t
	b.root = &Join{Parent: b.root, Child: t}
	return b
}

// Root returns the current tree, nil before AddRoot.
func (b *Builder) Root() Select {
	return b.root
}

// Table returns the table definition registered for a key.
func (b *Builder) Table(key string) (*TableDefinition, bool) {
	t, ok := b.tables[key]
	return t, ok
}

func (b *Builder) Columns() []Column {
	if b.root == nil {
		return nil
	}
	return Columns(b.root)
}

func (b *Builder) IDColumn() Column {
	if b.root == nil {
		return nil
	}
	return ID(b.root)
}

func (b *Builder) Err() error {
	return b.err
}
