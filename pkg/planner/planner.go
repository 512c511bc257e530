package planner

import (
	"github.com/bisegni/rowtree/pkg/plan"
	"github.com/bisegni/rowtree/pkg/shape"
)

// CreatePlan converts an aggregate shape into its join tree. The root table
// comes first; every relation with a table of its own is then joined in
// declaration order, each followed by its own nested relations.
func CreatePlan(agg *shape.Aggregate, m shape.Mapping) (*plan.Builder, error) {
	if m == nil {
		m = shape.DefaultMapping
	}

	// 1. Root table
	root := agg.Root
	rootPath := shape.RootPath()
	def := plan.NewTable(root.Table, rootPath).WithColumns(ownColumns(root, rootPath, m)...)
	if id := m.IDColumn(rootPath, root); id != "" {
		def = def.WithID(id)
	}
	b := plan.NewBuilder().AddRoot(def)

	// 2. Relations, preorder without recursion
	type frame struct {
		parent string
		path   shape.Path
	}
	var stack []frame
	push := func(parent string, paths []shape.Path) {
		for i := len(paths) - 1; i >= 0; i-- {
			stack = append(stack, frame{parent: parent, path: paths[i]})
		}
	}
	push(rootPath.DotPath(), relations(root, rootPath))

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		b.AddChild(f.parent, childTable(f.path, m))
		if target := f.path.Leaf().Target; target != nil {
			push(f.path.DotPath(), relations(target, f.path))
		}
	}

	if err := b.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

// ownColumns lists the columns stored in the table of e: its scalars and,
// transitively, those of its embedded entities.
func ownColumns(e *shape.Entity, p shape.Path, m shape.Mapping) []string {
	var cols []string
	for _, prop := range e.Properties {
		switch prop.Kind {
		case shape.Scalar:
			cols = append(cols, m.Column(p.Extend(prop)))
		case shape.Embedded:
			cols = append(cols, ownColumns(prop.Target, p.Extend(prop), m)...)
		}
	}
	return cols
}

// relations lists the paths below p that need a table of their own. Embedded
// entities are looked through.
func relations(e *shape.Entity, p shape.Path) []shape.Path {
	var paths []shape.Path
	for _, prop := range e.Properties {
		switch prop.Kind {
		case shape.Scalar:
		case shape.Embedded:
			paths = append(paths, relations(prop.Target, p.Extend(prop))...)
		default:
			paths = append(paths, p.Extend(prop))
		}
	}
	return paths
}

func childTable(p shape.Path, m shape.Mapping) *plan.TableDefinition {
	prop := p.Leaf()
	def := plan.NewTable(prop.TableName(), p)

	var cols []string
	if prop.IsQualified() {
		cols = append(cols, m.KeyColumn(p))
	}
	if prop.Target != nil {
		cols = append(cols, ownColumns(prop.Target, p, m)...)
	} else {
		cols = append(cols, m.Column(p))
	}
	def = def.WithColumns(cols...)

	switch {
	case prop.Target != nil && prop.Target.IDProperty() != nil:
		def = def.WithID(m.IDColumn(p, prop.Target))
	case prop.IsQualified():
		def = def.WithID(m.KeyColumn(p))
	}
	return def
}
