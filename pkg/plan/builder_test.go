package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisegni/rowtree/pkg/shape"
)

func pathOf(names ...string) shape.Path {
	p := shape.RootPath()
	for _, n := range names {
		p = p.Extend(&shape.Property{Name: n})
	}
	return p
}

func TestBuilderSingleTable(t *testing.T) {
	b := NewBuilder().AddRoot(NewTable("customer", shape.RootPath()).WithID("id").WithColumns("id", "name"))
	require.NoError(t, b.Err())

	cols := b.Columns()
	require.Len(t, cols, 2)
	for _, c := range cols {
		assert.Equal(t, 0, Depth(c))
	}
	assert.Equal(t, "id", Name(b.IDColumn()))
	assert.Equal(t, 0, Depth(b.IDColumn()))
}

func TestBuilderColumnCountAndDepth(t *testing.T) {
	tables := []*TableDefinition{
		NewTable("root", shape.RootPath()).WithID("id").WithColumns("id", "name"),
		NewTable("a", pathOf("a")).WithID("a_key").WithColumns("a_key", "a_x", "a_y"),
		NewTable("b", pathOf("a", "b")).WithColumns("a_b_v"),
		NewTable("c", pathOf("c")).WithColumns("c_1", "c_2", "c_3", "c_4"),
	}

	b := NewBuilder().AddRoot(tables[0])
	b.AddChild("", tables[1]).AddChild("a", tables[2]).AddChild("", tables[3])
	require.NoError(t, b.Err())

	cols := b.Columns()
	total := 0
	for _, tbl := range tables {
		total += len(tbl.Columns)
	}
	assert.Len(t, cols, total)

	// left-deep chain: the root sits under three joins, each later table one
	// join fewer.
	wantDepth := map[string]int{"root": 3, "a": 3, "b": 2, "c": 1}
	for _, c := range cols {
		base := Resolve(c)
		assert.Equal(t, wantDepth[base.Table], Depth(c), "column %s", base.Name)
	}

	assert.Equal(t,
		[]string{"id", "name", "a_key", "a_x", "a_y", "a_b_v", "c_1", "c_2", "c_3", "c_4"},
		SelectList(b.Root()))

	id := b.IDColumn()
	require.NotNil(t, id)
	assert.Equal(t, "id", Name(id))
	assert.Equal(t, 3, Depth(id))
	assert.Equal(t, "root", Resolve(id).Table)

	assert.Len(t, Tables(b.Root()), 4)
}

func TestJoinIDComesFromParent(t *testing.T) {
	parent := NewTable("p", shape.RootPath()).WithColumns("x")
	child := NewTable("c", pathOf("c")).WithID("c_id").WithColumns("c_id")

	b := NewBuilder().AddRoot(parent).AddChild("", child)
	require.NoError(t, b.Err())
	assert.Nil(t, b.IDColumn(), "a child never supplies the join id")
}

func TestBuilderErrors(t *testing.T) {
	t.Run("child before root", func(t *testing.T) {
		b := NewBuilder().AddChild("", NewTable("c", pathOf("c")))
		assert.Error(t, b.Err())
		assert.Nil(t, b.Root())
	})
	t.Run("unknown parent", func(t *testing.T) {
		b := NewBuilder().AddRoot(NewTable("p", shape.RootPath())).AddChild("nope", NewTable("c", pathOf("c")))
		assert.ErrorContains(t, b.Err(), "nope")
	})
	t.Run("sticky", func(t *testing.T) {
		b := NewBuilder().AddRoot(NewTable("p", shape.RootPath()))
		b.AddChild("x", NewTable("c", pathOf("c"))).AddChild("", NewTable("d", pathOf("d")))
		assert.Error(t, b.Err())
		_, ok := b.Table("d")
		assert.False(t, ok)
	})
	t.Run("duplicate", func(t *testing.T) {
		b := NewBuilder().AddRoot(NewTable("p", shape.RootPath())).
			AddChild("", NewTable("c", pathOf("c"))).
			AddChild("", NewTable("c2", pathOf("c")))
		assert.Error(t, b.Err())
	})
}

func TestTableDefinitionIsImmutable(t *testing.T) {
	base := NewTable("t", shape.RootPath())
	withID := base.WithID("id")
	withCols := withID.WithColumns("a", "b")

	assert.Nil(t, base.ID)
	assert.Empty(t, base.Columns)
	assert.Empty(t, withID.Columns)
	assert.Equal(t, "id", Name(withCols.ID))
	assert.Len(t, withCols.Columns, 2)
}

func TestFormat(t *testing.T) {
	b := NewBuilder().
		AddRoot(NewTable("root", shape.RootPath()).WithID("id").WithColumns("id")).
		AddChild("", NewTable("a", pathOf("a")).WithColumns("a_x"))
	require.NoError(t, b.Err())

	tree := FormatPlan(b.Root())
	assert.Contains(t, tree, "└─ Join(id: id@1, 2 columns)")
	assert.Contains(t, tree, "├─ Table(root, path: <root>, id: id, 1 columns)")
	assert.Contains(t, tree, "└─ Table(a, path: a, id: none, 1 columns)")

	cols := FormatColumns(b.Root())
	lines := strings.Split(strings.TrimSpace(cols), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "id*")
	assert.Contains(t, lines[2], "a_x")
}
