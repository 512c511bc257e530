package shape

import (
	"fmt"
	"regexp"
	"strings"
)

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Format renders aggregates as shape DSL that Parse reads back. Defaults
// (lowercased entity tables, string map keys) are spelled out only when they
// differ.
func Format(aggregates []*Aggregate) string {
	var sb strings.Builder
	for i, a := range aggregates {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("aggregate " + a.Name)
		if a.Root.Table != strings.ToLower(a.Name) {
			sb.WriteString(" " + annotation("table", a.Root.Table))
		}
		sb.WriteString(" {\n")
		formatProperties(&sb, a.Root.Properties, "    ")
		sb.WriteString("}\n")
	}
	return sb.String()
}

func formatProperties(sb *strings.Builder, props []*Property, indent string) {
	for _, p := range props {
		sb.WriteString(indent + p.Name + ": ")
		if p.Kind != Scalar {
			sb.WriteString(p.Kind.String())
			if p.Kind == Map {
				sb.WriteString("[" + p.KeyType.String() + "]")
			}
			sb.WriteString(" ")
		}

		var notes []string
		if p.ID {
			notes = append(notes, "@id")
		}
		if p.KeepEmpty {
			notes = append(notes, "@keepempty")
		}
		if p.Column != "" {
			notes = append(notes, annotation("column", p.Column))
		}
		if p.KeyColumn != "" {
			notes = append(notes, annotation("key", p.KeyColumn))
		}

		if p.Target == nil {
			sb.WriteString(p.Type.String())
			if p.Table != "" {
				notes = append(notes, annotation("table", p.Table))
			}
			for _, n := range notes {
				sb.WriteString(" " + n)
			}
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(p.Target.Name)
		if p.Target.Table != strings.ToLower(p.Target.Name) {
			notes = append(notes, annotation("table", p.Target.Table))
		}
		for _, n := range notes {
			sb.WriteString(" " + n)
		}
		sb.WriteString(" {\n")
		formatProperties(sb, p.Target.Properties, indent+"    ")
		sb.WriteString(indent + "}\n")
	}
}

func annotation(name, value string) string {
	if identPattern.MatchString(value) {
		return fmt.Sprintf("@%s(%s)", name, value)
	}
	return fmt.Sprintf("@%s(%q)", name, value)
}
