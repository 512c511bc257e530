package plan

import "fmt"

// Column is a projected column of a join tree. It is either a BaseColumn,
// rooted directly at a table, or a DerivedColumn carried up through one join.
type Column interface {
	isColumn()
}

// BaseColumn is a column owned by the table that defines it.
type BaseColumn struct {
	Name  string
	Table string
}

// DerivedColumn wraps a column exposed by one of a join's inputs.
type DerivedColumn struct {
	Inner Column
}

func (BaseColumn) isColumn()     {}
func (*DerivedColumn) isColumn() {}

// Derive wraps c one join level deeper. A nil column stays nil.
func Derive(c Column) Column {
	if c == nil {
		return nil
	}
	return &DerivedColumn{Inner: c}
}

// Resolve returns the innermost base column.
func Resolve(c Column) BaseColumn {
	for {
		switch v := c.(type) {
		case BaseColumn:
			return v
		case *DerivedColumn:
			c = v.Inner
		default:
			panic(fmt.Sprintf("plan: unexpected column %T", c))
		}
	}
}

// Depth is the number of joins a column has been carried through since its
// table.
func Depth(c Column) int {
	depth := 0
	for {
		switch v := c.(type) {
		case BaseColumn:
			return depth
		case *DerivedColumn:
			depth++
			c = v.Inner
		default:
			panic(fmt.Sprintf("plan: unexpected column %T", c))
		}
	}
}

// Name is the resolved column name.
func Name(c Column) string {
	return Resolve(c).Name
}
