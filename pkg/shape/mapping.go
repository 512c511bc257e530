package shape

import "strings"

// Mapping names the columns of the flat row stream for shape paths.
type Mapping interface {
	// Column is the value column of a scalar leaf, or of the elements of a
	// scalar collection.
	Column(p Path) string
	// KeyColumn is the qualifier column (list index or map key) of a
	// collection path.
	KeyColumn(p Path) string
	// IDColumn is the id column of the entity at p, "" when it has none.
	IDColumn(p Path, e *Entity) string
}

// Naming derives column names from property names, joined by Separator.
// Column overrides replace the property's segment, key column overrides
// replace the whole qualifier column name.
type Naming struct {
	Separator string
	KeySuffix string
}

// DefaultMapping is Naming{"_", "key"}.
var DefaultMapping Mapping = Naming{Separator: "_", KeySuffix: "key"}

func (n Naming) Column(p Path) string {
	parts := make([]string, 0, p.Len())
	for _, s := range p.segments {
		if s.Column != "" {
			parts = append(parts, s.Column)
		} else {
			parts = append(parts, s.Name)
		}
	}
	return strings.Join(parts, n.Separator)
}

func (n Naming) KeyColumn(p Path) string {
	if leaf := p.Leaf(); leaf != nil && leaf.KeyColumn != "" {
		return leaf.KeyColumn
	}
	return n.Column(p) + n.Separator + n.KeySuffix
}

func (n Naming) IDColumn(p Path, e *Entity) string {
	id := e.IDProperty()
	if id == nil {
		return ""
	}
	return n.Column(p.Extend(id))
}
