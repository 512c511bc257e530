package shape

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidShape is returned for aggregate descriptions that cannot be extracted.
var ErrInvalidShape = errors.New("invalid shape")

// Kind is the cardinality of a property.
type Kind int

const (
	Scalar Kind = iota
	// Embedded is a nested entity stored in the columns of its parent table.
	Embedded
	// Single is one nested entity with its own table.
	Single
	List
	Set
	Map
)

var kindNames = []string{"scalar", "embedded", "entity", "list", "set", "map"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind keyword to its Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(i), nil
		}
	}
	return Scalar, fmt.Errorf("%w: unknown kind '%s'", ErrInvalidShape, s)
}

// Type is the scalar type a raw column value is converted to.
type Type int

const (
	TypeAny Type = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeDecimal
	TypeTime
	TypeUUID
	TypeBytes
)

var typeNames = []string{"any", "string", "int", "float", "bool", "decimal", "time", "uuid", "bytes"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType maps a scalar type name to its Type. The second result is false
// when name is not a scalar type (it then names an entity).
func ParseType(name string) (Type, bool) {
	for i, n := range typeNames {
		if strings.EqualFold(n, name) {
			return Type(i), true
		}
	}
	return TypeAny, false
}

// Property is one declared member of an entity.
type Property struct {
	Name string
	Kind Kind
	// Type is the value type of scalars and of scalar element collections.
	Type Type
	// KeyType is the qualifier type of a map. Lists are always keyed by int.
	KeyType Type
	// Target is the nested entity of a relation. Nil for scalars and for
	// collections of scalars.
	Target *Entity

	// Table holds the elements of a scalar collection.
	Table string

	ID        bool
	Column    string
	KeyColumn string
	KeepEmpty bool
}

// IsRelation reports whether the property is backed by a nested reader.
func (p *Property) IsRelation() bool {
	return p.Kind != Scalar
}

// IsCollection reports whether the property holds many values.
func (p *Property) IsCollection() bool {
	return p.Kind == List || p.Kind == Set || p.Kind == Map
}

// IsQualified reports whether elements carry an index or key column.
func (p *Property) IsQualified() bool {
	return p.Kind == List || p.Kind == Map
}

// QualifierType is the type the qualifier column converts to.
func (p *Property) QualifierType() Type {
	if p.Kind == List {
		return TypeInt
	}
	return p.KeyType
}

// TableName is the table the property's values come from when it is not
// stored in its parent's table.
func (p *Property) TableName() string {
	if p.Target != nil {
		return p.Target.Table
	}
	if p.Table != "" {
		return p.Table
	}
	return p.Name
}

func (p *Property) String() string {
	return p.Name
}

// Entity describes a persistent type: its table and ordered properties.
type Entity struct {
	Name       string
	Table      string
	Properties []*Property
}

// IDProperty returns the identifying property, or nil if the entity has none.
func (e *Entity) IDProperty() *Property {
	for _, p := range e.Properties {
		if p.ID {
			return p
		}
	}
	return nil
}

// Property looks up a property by name.
func (e *Entity) Property(name string) *Property {
	for _, p := range e.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Aggregate is a root entity plus everything reachable through its relations.
type Aggregate struct {
	Name string
	Root *Entity
}

// Validate checks the rules the extraction engine relies on.
func (a *Aggregate) Validate() error {
	if a.Root == nil {
		return fmt.Errorf("%w: aggregate '%s' has no root entity", ErrInvalidShape, a.Name)
	}
	return validateEntity(a.Root, a.Name)
}

func validateEntity(e *Entity, where string) error {
	if len(e.Properties) == 0 {
		return fmt.Errorf("%w: %s: entity '%s' has no properties", ErrInvalidShape, where, e.Name)
	}
	seen := make(map[string]bool, len(e.Properties))
	ids := 0
	for _, p := range e.Properties {
		at := where + "." + p.Name
		if seen[p.Name] {
			return fmt.Errorf("%w: %s: duplicate property", ErrInvalidShape, at)
		}
		seen[p.Name] = true

		if p.ID {
			ids++
			if p.Kind != Scalar {
				return fmt.Errorf("%w: %s: only scalar properties can be ids", ErrInvalidShape, at)
			}
		}
		switch p.Kind {
		case Scalar:
			if p.Target != nil {
				return fmt.Errorf("%w: %s: scalar with nested entity", ErrInvalidShape, at)
			}
		case Embedded, Single:
			if p.Target == nil {
				return fmt.Errorf("%w: %s: %s needs a nested entity", ErrInvalidShape, at, p.Kind)
			}
		case Map:
			if p.KeyType == TypeBytes {
				return fmt.Errorf("%w: %s: bytes cannot key a map", ErrInvalidShape, at)
			}
		}
		if p.Kind == Embedded && p.Target.IDProperty() != nil {
			return fmt.Errorf("%w: %s: embedded entities have no id", ErrInvalidShape, at)
		}
		if p.KeepEmpty && p.Kind != Embedded {
			return fmt.Errorf("%w: %s: @keepempty applies to embedded entities only", ErrInvalidShape, at)
		}
		if p.Target != nil {
			if err := validateEntity(p.Target, at); err != nil {
				return err
			}
		}
	}
	if ids > 1 {
		return fmt.Errorf("%w: %s: entity '%s' declares %d ids", ErrInvalidShape, where, e.Name, ids)
	}
	return nil
}

// Lookup returns the aggregate with the given name. An empty name selects the
// only aggregate of a single-aggregate list.
func Lookup(aggregates []*Aggregate, name string) (*Aggregate, error) {
	if name == "" {
		if len(aggregates) == 1 {
			return aggregates[0], nil
		}
		return nil, fmt.Errorf("%d aggregates declared, pick one by name", len(aggregates))
	}
	for _, a := range aggregates {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("aggregate '%s' not found", name)
}
