package engine

import (
	"github.com/bisegni/rowtree/pkg/database"
	"github.com/bisegni/rowtree/pkg/shape"
)

// ValueSource yields the value of each property of the entity being built.
type ValueSource interface {
	Value(p *shape.Property) (interface{}, error)
}

// Instantiator creates an entity instance from its property values.
type Instantiator interface {
	Instantiate(e *shape.Entity, values ValueSource) (interface{}, error)
}

// InstantiatorFunc adapts a function to the Instantiator interface.
type InstantiatorFunc func(e *shape.Entity, values ValueSource) (interface{}, error)

func (f InstantiatorFunc) Instantiate(e *shape.Entity, values ValueSource) (interface{}, error) {
	return f(e, values)
}

// OrderedMapInstantiator builds database.OrderedMap instances with the
// properties in declaration order.
var OrderedMapInstantiator Instantiator = InstantiatorFunc(func(e *shape.Entity, values ValueSource) (interface{}, error) {
	om := make(database.OrderedMap, 0, len(e.Properties))
	for _, p := range e.Properties {
		v, err := values.Value(p)
		if err != nil {
			return nil, err
		}
		om = append(om, database.KeyVal{Key: p.Name, Val: v})
	}
	return om, nil
})
