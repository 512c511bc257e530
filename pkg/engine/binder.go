package engine

import (
	"fmt"

	"github.com/bisegni/rowtree/pkg/convert"
	"github.com/bisegni/rowtree/pkg/shape"
)

// binder holds the property values of one entity group. Scalars are read from
// the current row and converted on first access; relation values are handed
// in by the nested readers. Each property is bound at most once per group.
type binder struct {
	entity    *shape.Entity
	path      shape.Path
	mapping   shape.Mapping
	converter convert.Converter
	cursor    *Cursor

	values   map[*shape.Property]interface{}
	hasValue bool
}

func newBinder(e *shape.Entity, path shape.Path, x *Extractor, c *Cursor) *binder {
	return &binder{
		entity:    e,
		path:      path,
		mapping:   x.mapping,
		converter: x.converter,
		cursor:    c,
		values:    make(map[*shape.Property]interface{}, len(e.Properties)),
	}
}

// Value implements ValueSource. Relations that delivered nothing are nil.
func (b *binder) Value(p *shape.Property) (interface{}, error) {
	if v, ok := b.values[p]; ok {
		return v, nil
	}
	if p.Kind != shape.Scalar {
		return nil, nil
	}

	raw := b.cursor.Get(b.mapping.Column(b.path.Extend(p)))
	v, err := b.converter.Convert(raw, p.Type)
	if err != nil {
		return nil, fmt.Errorf("property '%s' of %s: %w", p.Name, b.entity.Name, err)
	}
	b.values[p] = v
	if v != nil {
		b.hasValue = true
	}
	return v, nil
}

// bindScalars reads every scalar of the group from the current row.
func (b *binder) bindScalars() error {
	for _, p := range b.entity.Properties {
		if p.Kind == shape.Scalar {
			if _, err := b.Value(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// set binds a relation value. The first value of a group wins.
func (b *binder) set(p *shape.Property, v interface{}, hasValue bool) {
	if _, ok := b.values[p]; ok {
		return
	}
	b.values[p] = v
	if hasValue {
		b.hasValue = true
	}
}

func (b *binder) reset() {
	b.values = make(map[*shape.Property]interface{}, len(b.entity.Properties))
	b.hasValue = false
}
