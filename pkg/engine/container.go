package engine

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"

	"github.com/bisegni/rowtree/pkg/shape"
)

var (
	// ErrNegativeIndex is returned for list elements qualified by a negative index.
	ErrNegativeIndex = errors.New("negative list index")
	// ErrIndexTooLarge is returned for list indexes past MaxListIndex.
	ErrIndexTooLarge = errors.New("list index too large")
)

// MaxListIndex bounds the gap fill of a list. An index past it is treated as
// a corrupt qualifier.
var MaxListIndex int64 = 1 << 20

// Entry is a qualified collection element: a list index or a map key with its
// value.
type Entry struct {
	Key   interface{}
	Value interface{}
}

// container accumulates the elements of one collection group.
type container interface {
	add(element interface{}, identity interface{}) error
	len() int
	value() interface{}
}

func newContainer(kind shape.Kind) container {
	switch kind {
	case shape.List:
		return &listContainer{items: []interface{}{}}
	case shape.Map:
		return &mapContainer{items: map[interface{}]interface{}{}, keys: map[interface{}]interface{}{}}
	default:
		return &setContainer{items: []interface{}{}, seen: map[interface{}]struct{}{}}
	}
}

// listContainer places entries at their index, filling gaps with nil.
type listContainer struct {
	items []interface{}
}

func (c *listContainer) add(element interface{}, _ interface{}) error {
	e, ok := element.(Entry)
	if !ok {
		return fmt.Errorf("list element %v has no index", element)
	}
	index, ok := e.Key.(int64)
	if !ok {
		return fmt.Errorf("list index %v (%T) is not an integer", e.Key, e.Key)
	}
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeIndex, index)
	}
	if index > MaxListIndex {
		return fmt.Errorf("%w: %d (max %d)", ErrIndexTooLarge, index, MaxListIndex)
	}
	if n := int(index) + 1; n > len(c.items) {
		c.items = append(c.items, make([]interface{}, n-len(c.items))...)
	}
	c.items[index] = e.Value
	return nil
}

func (c *listContainer) len() int           { return len(c.items) }
func (c *listContainer) value() interface{} { return c.items }

// mapContainer keys entries by their qualifier. Keys equal by identity (the
// same number in two representations, the same instant in two zones) share
// one entry, under the form first seen.
type mapContainer struct {
	items map[interface{}]interface{}
	// keys maps the identity key of a qualifier to its key in items
	keys map[interface{}]interface{}
}

func (c *mapContainer) add(element interface{}, _ interface{}) error {
	e, ok := element.(Entry)
	if !ok {
		return fmt.Errorf("map element %v has no key", element)
	}
	id := identityKey(e.Key)
	key, seen := c.keys[id]
	if !seen {
		key = mapKey(e.Key, id)
		c.keys[id] = key
	}
	c.items[key] = e.Value
	return nil
}

// mapKey is the key a qualifier is stored under. Decimals hold a pointer and
// values that cannot key a map fall back to their identity key.
func mapKey(key, id interface{}) interface{} {
	switch k := key.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return k.String()
	case []byte:
		return string(k)
	}
	if !reflect.TypeOf(key).Comparable() {
		return fmt.Sprint(id)
	}
	return key
}

func (c *mapContainer) len() int           { return len(c.items) }
func (c *mapContainer) value() interface{} { return c.items }

// setContainer keeps elements in arrival order. Elements with an identity are
// kept once; the same element repeats when a sibling relation multiplies the
// rows of its parent.
type setContainer struct {
	items []interface{}
	seen  map[interface{}]struct{}
}

func (c *setContainer) add(element interface{}, identity interface{}) error {
	if identity != nil {
		key := identityKey(identity)
		if _, dup := c.seen[key]; dup {
			return nil
		}
		c.seen[key] = struct{}{}
	}
	c.items = append(c.items, element)
	return nil
}

func (c *setContainer) len() int           { return len(c.items) }
func (c *setContainer) value() interface{} { return c.items }
