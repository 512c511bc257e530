package shape

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// AST for the shape DSL

type astFile struct {
	Aggregates []*astAggregate `parser:"@@*"`
}

type astAggregate struct {
	Pos         lexer.Position
	Name        string           `parser:"'aggregate' @Ident"`
	Annotations []*astAnnotation `parser:"@@*"`
	Properties  []*astProperty   `parser:"'{' @@* '}'"`
}

type astProperty struct {
	Pos         lexer.Position
	Name        string           `parser:"@Ident ':'"`
	Kind        string           `parser:"@('embedded' | 'entity' | 'list' | 'set' | 'map')?"`
	KeyType     string           `parser:"('[' @Ident ']')?"`
	Type        string           `parser:"@Ident"`
	Annotations []*astAnnotation `parser:"@@*"`
	Properties  []*astProperty   `parser:"('{' @@* '}')?"`
}

type astAnnotation struct {
	Pos   lexer.Position
	Name  string  `parser:"'@' @Ident"`
	Value *string `parser:"('(' (@String | @Ident) ')')?"`
}

// Helpers

func (a *astAnnotation) String() string {
	if a.Value == nil {
		return "@" + a.Name
	}
	return fmt.Sprintf("@%s(%s)", a.Name, *a.Value)
}

func (a *astAnnotation) requireValue() (string, error) {
	if a.Value == nil || *a.Value == "" {
		return "", fmt.Errorf("%w: %s: @%s needs a value", ErrInvalidShape, a.Pos, a.Name)
	}
	return *a.Value, nil
}

func (f *astFile) toAggregates() ([]*Aggregate, error) {
	var result []*Aggregate
	names := make(map[string]bool)
	for _, a := range f.Aggregates {
		if names[a.Name] {
			return nil, fmt.Errorf("%w: %s: aggregate '%s' declared twice", ErrInvalidShape, a.Pos, a.Name)
		}
		names[a.Name] = true

		root := &Entity{Name: a.Name, Table: strings.ToLower(a.Name)}
		for _, ann := range a.Annotations {
			if ann.Name != "table" {
				return nil, fmt.Errorf("%w: %s: %s not allowed on an aggregate", ErrInvalidShape, ann.Pos, ann)
			}
			table, err := ann.requireValue()
			if err != nil {
				return nil, err
			}
			root.Table = table
		}
		props, err := toProperties(a.Properties)
		if err != nil {
			return nil, err
		}
		root.Properties = props
		result = append(result, &Aggregate{Name: a.Name, Root: root})
	}
	return result, nil
}

func toProperties(in []*astProperty) ([]*Property, error) {
	props := make([]*Property, 0, len(in))
	for _, ap := range in {
		p, err := ap.toProperty()
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

func (ap *astProperty) toProperty() (*Property, error) {
	p := &Property{Name: ap.Name, Kind: Scalar}
	if ap.Kind != "" {
		kind, err := ParseKind(ap.Kind)
		if err != nil {
			return nil, err
		}
		p.Kind = kind
	}

	if ap.KeyType != "" {
		if p.Kind != Map {
			return nil, fmt.Errorf("%w: %s: key type on a %s", ErrInvalidShape, ap.Pos, p.Kind)
		}
		kt, ok := ParseType(ap.KeyType)
		if !ok {
			return nil, fmt.Errorf("%w: %s: unknown key type '%s'", ErrInvalidShape, ap.Pos, ap.KeyType)
		}
		p.KeyType = kt
	} else if p.Kind == Map {
		p.KeyType = TypeString
	}

	t, scalar := ParseType(ap.Type)
	switch {
	case p.Kind == Scalar && !scalar:
		return nil, fmt.Errorf("%w: %s: unknown type '%s'", ErrInvalidShape, ap.Pos, ap.Type)
	case scalar && len(ap.Properties) == 0 && p.Kind != Embedded && p.Kind != Single:
		p.Type = t
	default:
		target := &Entity{Name: ap.Type, Table: strings.ToLower(ap.Type)}
		props, err := toProperties(ap.Properties)
		if err != nil {
			return nil, err
		}
		target.Properties = props
		p.Target = target
	}

	for _, ann := range ap.Annotations {
		switch ann.Name {
		case "id":
			p.ID = true
		case "keepempty":
			p.KeepEmpty = true
		case "column", "key", "table":
			v, err := ann.requireValue()
			if err != nil {
				return nil, err
			}
			switch ann.Name {
			case "column":
				p.Column = v
			case "key":
				p.KeyColumn = v
			case "table":
				if p.Target == nil {
					p.Table = v
				} else {
					p.Target.Table = v
				}
			}
		default:
			return nil, fmt.Errorf("%w: %s: unknown annotation %s", ErrInvalidShape, ann.Pos, ann)
		}
	}
	return p, nil
}
