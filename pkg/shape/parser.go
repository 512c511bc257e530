package shape

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer definition
var (
	shapeLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Punct", Pattern: `[@:{}()\[\],]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	shapeParser = participle.MustBuild[astFile](
		participle.Lexer(shapeLexer),
		participle.Unquote("String"),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
)

// Parse parses shape DSL source into validated aggregates.
func Parse(filename, input string) ([]*Aggregate, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty shape")
	}

	ast, err := shapeParser.ParseString(filename, input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	aggregates, err := ast.toAggregates()
	if err != nil {
		return nil, err
	}
	for _, a := range aggregates {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	return aggregates, nil
}

// LoadFile reads aggregates from a shape file. Files ending in .yaml or .yml
// are read as YAML, everything else as shape DSL.
func LoadFile(filename string) ([]*Aggregate, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read shape: %w", err)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(filename, string(data))
	}
}
