package engine

import (
	"errors"
	"fmt"

	"github.com/bisegni/rowtree/pkg/convert"
	"github.com/bisegni/rowtree/pkg/shape"
)

// ErrNoResult is returned by TakeResult on a reader whose group has not
// completed.
var ErrNoResult = errors.New("no completed result")

// State is the lifecycle of a reader: Empty until a group starts,
// Accumulating while its rows are consumed, Ready once it closed and until
// its result is taken.
type State int

const (
	Empty State = iota
	Accumulating
	Ready
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Accumulating:
		return "Accumulating"
	case Ready:
		return "Ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// reader consumes the rows of one shape position.
type reader interface {
	Name() string
	State() State
	// ConsumeRow binds the current row. parentClosing reports that the
	// enclosing group ends with this row, which ends this group too.
	ConsumeRow(parentClosing bool) error
	// Finish completes an accumulating group that did not see its last row.
	Finish()
	HasCompletedResult() bool
	// HasValue reports whether the group produced any non-null value.
	HasValue() bool
	// Identity is the value the group is keyed by, nil when it has none.
	Identity() interface{}
	TakeResult() (interface{}, error)

	accept(d delivery) error
}

// delivery is a completed nested result handed to the owning reader.
type delivery struct {
	prop     *shape.Property
	value    interface{}
	hasValue bool
	identity interface{}
}

// grouping decides where a group ends. With a column, the group runs while
// the next row carries the same value in it. Without one, a single group
// lasts one row or, when single is false, as long as the enclosing group.
type grouping struct {
	column string
	single bool
}

type base struct {
	name   string
	cursor *Cursor
	group  grouping
	state  State
	anchor interface{}
}

func (r *base) Name() string             { return r.name }
func (r *base) State() State             { return r.state }
func (r *base) HasCompletedResult() bool { return r.state == Ready }

func (r *base) Finish() {
	if r.state == Accumulating {
		r.state = Ready
	}
}

// begin starts a group on the current row. Consuming a row while a result
// is still waiting to be taken is a driver bug.
func (r *base) begin() (bool, error) {
	switch r.state {
	case Ready:
		return false, fmt.Errorf("%s: row consumed before the result was taken", r.name)
	case Empty:
		r.state = Accumulating
		if r.group.column != "" {
			r.anchor = r.cursor.Get(r.group.column)
		}
		return true, nil
	}
	return false, nil
}

func (r *base) closes(parentClosing bool) (bool, error) {
	if parentClosing {
		return true, nil
	}
	if r.group.column == "" {
		return r.group.single, nil
	}
	next, ok, err := r.cursor.Peek(r.group.column)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return !sameIdentity(r.anchor, next), nil
}

func (r *base) end(closing bool) {
	if closing {
		r.state = Ready
	}
}

func (r *base) take() error {
	if r.state != Ready {
		return fmt.Errorf("%s is %s: %w", r.name, r.state, ErrNoResult)
	}
	r.state = Empty
	r.anchor = nil
	return nil
}

// entityReader builds one entity instance per group.
type entityReader struct {
	base
	entity       *shape.Entity
	binder       *binder
	instantiator Instantiator
	// collapse yields nil instead of an instance when the whole subtree of
	// the group was null.
	collapse bool
}

func (r *entityReader) ConsumeRow(parentClosing bool) error {
	started, err := r.begin()
	if err != nil {
		return err
	}
	if started {
		if err := r.binder.bindScalars(); err != nil {
			return fmt.Errorf("%s: %w", r.name, err)
		}
	}
	closing, err := r.closes(parentClosing)
	if err != nil {
		return err
	}
	r.end(closing)
	return nil
}

func (r *entityReader) HasValue() bool        { return r.binder.hasValue }
func (r *entityReader) Identity() interface{} { return r.anchor }

func (r *entityReader) TakeResult() (interface{}, error) {
	if err := r.take(); err != nil {
		return nil, err
	}
	defer r.binder.reset()

	if r.collapse && !r.binder.hasValue {
		return nil, nil
	}
	v, err := r.instantiator.Instantiate(r.entity, r.binder)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to instantiate %s: %w", r.name, r.entity.Name, err)
	}
	return v, nil
}

func (r *entityReader) accept(d delivery) error {
	r.binder.set(d.prop, d.value, d.hasValue)
	return nil
}

// valueReader reads the scalar elements of a collection.
type valueReader struct {
	base
	column    string
	typ       shape.Type
	converter convert.Converter
	value     interface{}
}

func (r *valueReader) ConsumeRow(parentClosing bool) error {
	started, err := r.begin()
	if err != nil {
		return err
	}
	if started {
		raw := r.cursor.Get(r.column)
		if r.value, err = r.converter.Convert(raw, r.typ); err != nil {
			return fmt.Errorf("%s: column '%s': %w", r.name, r.column, err)
		}
	}
	closing, err := r.closes(parentClosing)
	if err != nil {
		return err
	}
	r.end(closing)
	return nil
}

func (r *valueReader) HasValue() bool        { return r.value != nil }
func (r *valueReader) Identity() interface{} { return r.value }

func (r *valueReader) TakeResult() (interface{}, error) {
	if err := r.take(); err != nil {
		return nil, err
	}
	v := r.value
	r.value = nil
	return v, nil
}

func (r *valueReader) accept(d delivery) error {
	return fmt.Errorf("%s: unexpected nested value for '%s'", r.name, d.prop)
}

// entryReader captures the qualifier of a list or map element once per group
// and pairs it with the element read by its inner reader.
type entryReader struct {
	base
	keyColumn string
	keyType   shape.Type
	converter convert.Converter
	inner     reader
	key       interface{}
}

func (r *entryReader) ConsumeRow(parentClosing bool) error {
	started, err := r.begin()
	if err != nil {
		return err
	}
	if started {
		raw := r.cursor.Get(r.keyColumn)
		if r.key, err = r.converter.Convert(raw, r.keyType); err != nil {
			return fmt.Errorf("%s: key column '%s': %w", r.name, r.keyColumn, err)
		}
	}
	closing, err := r.closes(parentClosing)
	if err != nil {
		return err
	}
	if err := r.inner.ConsumeRow(closing); err != nil {
		return err
	}
	r.end(closing)
	return nil
}

func (r *entryReader) Finish() {
	r.base.Finish()
	r.inner.Finish()
}

func (r *entryReader) HasValue() bool        { return r.key != nil }
func (r *entryReader) Identity() interface{} { return r.key }

func (r *entryReader) TakeResult() (interface{}, error) {
	if err := r.take(); err != nil {
		return nil, err
	}
	v, err := r.inner.TakeResult()
	if err != nil {
		return nil, err
	}
	e := Entry{Key: r.key, Value: v}
	r.key = nil
	return e, nil
}

func (r *entryReader) accept(d delivery) error {
	return r.inner.accept(d)
}

// collectionReader gathers the elements of a list, set or map. It never
// closes on its own: its group is the group of its owner. The root
// collection holds the aggregates of the whole stream and may hand each one
// to emit instead of keeping it.
type collectionReader struct {
	base
	kind  shape.Kind
	root  bool
	emit  func(interface{}) error
	items container
}

func (r *collectionReader) ConsumeRow(parentClosing bool) error {
	started, err := r.begin()
	if err != nil {
		return err
	}
	if started {
		r.items = newContainer(r.kind)
	}
	r.end(parentClosing)
	return nil
}

func (r *collectionReader) HasValue() bool        { return r.items != nil && r.items.len() > 0 }
func (r *collectionReader) Identity() interface{} { return nil }

func (r *collectionReader) TakeResult() (interface{}, error) {
	if err := r.take(); err != nil {
		return nil, err
	}
	v := r.items.value()
	r.items = nil
	return v, nil
}

func (r *collectionReader) accept(d delivery) error {
	if r.items == nil {
		return fmt.Errorf("%s: element delivered outside a group", r.name)
	}
	if r.root {
		if r.emit != nil {
			return r.emit(d.value)
		}
		return r.items.add(d.value, nil)
	}
	// a set element without any value is a missing row of an outer join
	if r.kind == shape.Set && !d.hasValue {
		return nil
	}
	if err := r.items.add(d.value, d.identity); err != nil {
		return fmt.Errorf("%s: %w", r.name, err)
	}
	return nil
}
