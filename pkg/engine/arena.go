package engine

import (
	"fmt"

	"github.com/bisegni/rowtree/pkg/shape"
)

// node is one reader of the arena with its place in the reader tree.
type node struct {
	reader reader
	parent int
	// prop is the property the result is delivered under, nil for the root
	// entity.
	prop *shape.Property
	// indicator is the column whose non-null value makes the reader take
	// part in a row. Empty means it takes part whenever its parent does.
	indicator string

	active  bool
	closing bool
}

// arena holds every reader of one extraction. A parent always precedes its
// children. Index 0 is the root collection, index 1 the root entity.
type arena struct {
	nodes  []*node
	byPath map[string]int
}

type frame struct {
	owner  int
	entity *shape.Entity
	path   shape.Path
}

// newArena creates the readers for every position of the aggregate. emit, if
// set, receives each root aggregate as soon as it completes.
func newArena(x *Extractor, c *Cursor, emit func(interface{}) error) *arena {
	a := &arena{byPath: make(map[string]int)}

	root := &collectionReader{
		base: base{name: shape.RootPath().String(), cursor: c},
		kind: shape.Set,
		root: true,
		emit: emit,
	}
	a.add(&node{reader: root, parent: -1}, "")

	rootPath := shape.RootPath()
	idCol := x.mapping.IDColumn(rootPath, x.agg.Root)
	entity := x.newEntityReader(x.agg.Root, rootPath, c, grouping{column: idCol, single: idCol == ""}, false)
	// the root reads every row; a null id starts a group of its own
	owner := a.add(&node{reader: entity, parent: 0}, "")
	a.byPath[""] = owner

	// Relations, depth first without recursion
	stack := []frame{{owner: owner, entity: x.agg.Root, path: rootPath}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var nested []frame
		for _, p := range f.entity.Properties {
			if p.Kind == shape.Scalar {
				continue
			}
			nested = append(nested, a.addRelation(x, c, f.owner, f.path.Extend(p))...)
		}
		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, nested[i])
		}
	}
	return a
}

// addRelation adds the readers of the relation at path under owner and
// returns the nested entities still to expand.
func (a *arena) addRelation(x *Extractor, c *Cursor, owner int, path shape.Path) []frame {
	p := path.Leaf()
	m := x.mapping

	switch p.Kind {
	case shape.Embedded:
		r := x.newEntityReader(p.Target, path, c, grouping{}, !p.KeepEmpty)
		i := a.add(&node{reader: r, parent: owner, prop: p}, path.DotPath())
		return []frame{{owner: i, entity: p.Target, path: path}}

	case shape.Single:
		idCol := m.IDColumn(path, p.Target)
		r := x.newEntityReader(p.Target, path, c, grouping{column: idCol}, true)
		i := a.add(&node{reader: r, parent: owner, prop: p, indicator: idCol}, path.DotPath())
		return []frame{{owner: i, entity: p.Target, path: path}}
	}

	coll := &collectionReader{
		base: base{name: "Collection reader for " + path.String(), cursor: c},
		kind: p.Kind,
	}
	ci := a.add(&node{reader: coll, parent: owner, prop: p}, path.DotPath())

	var element reader
	if p.Target != nil {
		idCol := m.IDColumn(path, p.Target)
		g := grouping{column: idCol, single: idCol == ""}
		if p.IsQualified() {
			g = grouping{}
		}
		element = x.newEntityReader(p.Target, path, c, g, false)
	} else {
		g := grouping{single: true}
		if p.IsQualified() {
			g = grouping{}
		}
		element = &valueReader{
			base:      base{name: "Value reader for " + path.String(), cursor: c, group: g},
			column:    m.Column(path),
			typ:       p.Type,
			converter: x.converter,
		}
	}

	indicator := ""
	if p.IsQualified() {
		keyCol := m.KeyColumn(path)
		element = &entryReader{
			base:      base{name: "Entry reader for " + path.String(), cursor: c, group: grouping{column: keyCol}},
			keyColumn: keyCol,
			keyType:   p.QualifierType(),
			converter: x.converter,
			inner:     element,
		}
		indicator = keyCol
	} else if p.Target != nil {
		indicator = m.IDColumn(path, p.Target)
	}
	ei := a.add(&node{reader: element, parent: ci, prop: p, indicator: indicator}, path.DotPath()+"[]")

	if p.Target == nil {
		return nil
	}
	return []frame{{owner: ei, entity: p.Target, path: path}}
}

func (a *arena) add(n *node, key string) int {
	a.nodes = append(a.nodes, n)
	i := len(a.nodes) - 1
	if key != "" {
		a.byPath[key] = i
	}
	return i
}

// consumeRow hands the current row to every reader whose parent takes part
// in it, parents first.
func (a *arena) consumeRow(c *Cursor) error {
	for _, n := range a.nodes {
		var parentActive, parentClosing bool
		if n.parent < 0 {
			hasNext, err := c.HasNext()
			if err != nil {
				return err
			}
			parentActive, parentClosing = true, !hasNext
		} else {
			p := a.nodes[n.parent]
			parentActive, parentClosing = p.active, p.closing
		}

		n.active, n.closing = false, false
		switch {
		case parentActive && (n.indicator == "" || c.Get(n.indicator) != nil):
			n.active = true
			if err := n.reader.ConsumeRow(parentClosing); err != nil {
				return err
			}
			n.closing = n.reader.HasCompletedResult()
		case parentClosing && n.reader.State() == Accumulating:
			n.reader.Finish()
			n.closing = true
		}
	}
	return nil
}

// deliver takes every completed result, children first, and hands it to the
// owning reader. The root collection keeps its result until the end.
func (a *arena) deliver() error {
	for i := len(a.nodes) - 1; i > 0; i-- {
		n := a.nodes[i]
		if !n.reader.HasCompletedResult() {
			continue
		}
		d := delivery{prop: n.prop, hasValue: n.reader.HasValue(), identity: n.reader.Identity()}
		v, err := n.reader.TakeResult()
		if err != nil {
			return err
		}
		d.value = v
		if err := a.nodes[n.parent].reader.accept(d); err != nil {
			return err
		}
	}
	return nil
}

// result takes the root collection. A stream without rows yields an empty
// collection.
func (a *arena) result() ([]interface{}, error) {
	root := a.nodes[0].reader
	if root.State() == Empty {
		return []interface{}{}, nil
	}
	v, err := root.TakeResult()
	if err != nil {
		return nil, err
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("root collection holds %T", v)
	}
	return items, nil
}

// readerFor returns the reader at a dot path; element readers are keyed by
// the collection path followed by "[]".
func (a *arena) readerFor(dotPath string) (reader, bool) {
	i, ok := a.byPath[dotPath]
	if !ok {
		return nil, false
	}
	return a.nodes[i].reader, true
}

// names lists the readers in arena order.
func (a *arena) names() []string {
	names := make([]string, len(a.nodes))
	for i, n := range a.nodes {
		names[i] = n.reader.Name()
	}
	return names
}
