package shape

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Aggregates []yamlAggregate `yaml:"aggregates"`
}

type yamlAggregate struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table,omitempty"`
	Properties []yamlProperty `yaml:"properties"`
}

type yamlProperty struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind,omitempty"`
	Type       string         `yaml:"type"`
	KeyType    string         `yaml:"key_type,omitempty"`
	ID         bool           `yaml:"id,omitempty"`
	Column     string         `yaml:"column,omitempty"`
	Key        string         `yaml:"key,omitempty"`
	Table      string         `yaml:"table,omitempty"`
	KeepEmpty  bool           `yaml:"keep_empty,omitempty"`
	Properties []yamlProperty `yaml:"properties,omitempty"`
}

// ParseYAML reads aggregates from the YAML rendition of a shape file.
func ParseYAML(data []byte) ([]*Aggregate, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if len(f.Aggregates) == 0 {
		return nil, fmt.Errorf("empty shape")
	}

	result := make([]*Aggregate, 0, len(f.Aggregates))
	for _, ya := range f.Aggregates {
		table := ya.Table
		if table == "" {
			table = strings.ToLower(ya.Name)
		}
		props, err := yamlProperties(ya.Properties)
		if err != nil {
			return nil, fmt.Errorf("aggregate '%s': %w", ya.Name, err)
		}
		a := &Aggregate{
			Name: ya.Name,
			Root: &Entity{Name: ya.Name, Table: table, Properties: props},
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

func yamlProperties(in []yamlProperty) ([]*Property, error) {
	props := make([]*Property, 0, len(in))
	for _, yp := range in {
		p := &Property{
			Name:      yp.Name,
			ID:        yp.ID,
			Column:    yp.Column,
			KeyColumn: yp.Key,
			KeepEmpty: yp.KeepEmpty,
		}
		if yp.Kind != "" {
			kind, err := ParseKind(yp.Kind)
			if err != nil {
				return nil, err
			}
			p.Kind = kind
		}
		if p.Kind == Map {
			p.KeyType = TypeString
			if yp.KeyType != "" {
				kt, ok := ParseType(yp.KeyType)
				if !ok {
					return nil, fmt.Errorf("%w: %s: unknown key type '%s'", ErrInvalidShape, yp.Name, yp.KeyType)
				}
				p.KeyType = kt
			}
		}

		t, scalar := ParseType(yp.Type)
		if yp.Type == "" {
			scalar = p.Kind == Scalar
		}
		switch {
		case p.Kind == Scalar && !scalar:
			return nil, fmt.Errorf("%w: %s: unknown type '%s'", ErrInvalidShape, yp.Name, yp.Type)
		case scalar && len(yp.Properties) == 0 && p.Kind != Embedded && p.Kind != Single:
			p.Type = t
			p.Table = yp.Table
		default:
			nested, err := yamlProperties(yp.Properties)
			if err != nil {
				return nil, err
			}
			table := yp.Table
			if table == "" {
				table = strings.ToLower(yp.Type)
			}
			p.Target = &Entity{Name: yp.Type, Table: table, Properties: nested}
		}
		props = append(props, p)
	}
	return props, nil
}

// MarshalYAML renders aggregates as a YAML shape file that ParseYAML reads
// back.
func MarshalYAML(aggregates []*Aggregate) ([]byte, error) {
	f := yamlFile{Aggregates: make([]yamlAggregate, 0, len(aggregates))}
	for _, a := range aggregates {
		f.Aggregates = append(f.Aggregates, yamlAggregate{
			Name:       a.Name,
			Table:      a.Root.Table,
			Properties: toYAMLProperties(a.Root.Properties),
		})
	}
	return yaml.Marshal(&f)
}

func toYAMLProperties(props []*Property) []yamlProperty {
	out := make([]yamlProperty, 0, len(props))
	for _, p := range props {
		yp := yamlProperty{
			Name:      p.Name,
			ID:        p.ID,
			Column:    p.Column,
			Key:       p.KeyColumn,
			KeepEmpty: p.KeepEmpty,
		}
		if p.Kind != Scalar {
			yp.Kind = p.Kind.String()
		}
		if p.Kind == Map {
			yp.KeyType = p.KeyType.String()
		}
		if p.Target != nil {
			yp.Type = p.Target.Name
			yp.Table = p.Target.Table
			yp.Properties = toYAMLProperties(p.Target.Properties)
		} else {
			yp.Type = p.Type.String()
			yp.Table = p.Table
		}
		out = append(out, yp)
	}
	return out
}
