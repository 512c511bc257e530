package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/bisegni/rowtree/pkg/database"
	"github.com/bisegni/rowtree/pkg/engine"
	"github.com/bisegni/rowtree/pkg/plan"
	"github.com/bisegni/rowtree/pkg/planner"
	"github.com/bisegni/rowtree/pkg/shape"
)

const interactiveHelp = `Commands:
  extract [table]        rebuild aggregates from the current (or named) table
  load <name> <file|->   buffer a row file as a named table and use it
  use <name>             switch the current table
  tables                 list loaded tables
  tree                   show the join tree
  columns                show the planned columns
  readers                list the readers of every shape position
  path <a.b.c>           show the columns backing a shape path
  help                   show this help
  exit | quit            leave`

// session is the state of one REPL: the compiled shape plus the row tables
// loaded so far. Tables are buffered so they can be extracted repeatedly.
type session struct {
	ctx       context.Context
	extractor *engine.Extractor
	builder   *plan.Builder
	catalog   *database.Catalog
	current   string
	out       io.Writer
}

func newSession(ctx context.Context, x *engine.Extractor, out io.Writer) (*session, error) {
	b, err := planner.CreatePlan(x.Aggregate(), x.Mapping())
	if err != nil {
		return nil, fmt.Errorf("planning error: %w", err)
	}
	return &session{
		ctx:       ctx,
		extractor: x,
		builder:   b,
		catalog:   database.NewCatalog(),
		out:       out,
	}, nil
}

func RunInteractive(ctx context.Context, filename string) error {
	x, err := newExtractor()
	if err != nil {
		return err
	}
	s, err := newSession(ctx, x, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("Interactive mode for aggregate %s. Type 'help' for commands, 'exit' to leave.\n", x.Aggregate().Name)
	if filename != "" {
		fmt.Printf("Reading rows from: %s\n", displayName(filename))
		if err := s.load("rows", filename); err != nil {
			return err
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     "", // In-memory history for this session
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, "exit") || strings.EqualFold(trimmed, "quit") {
			break
		}

		if err := s.execute(trimmed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return nil
}

func (s *session) execute(line string) error {
	fields := strings.Fields(line)
	command, args := strings.ToLower(fields[0]), fields[1:]

	switch command {
	case "help":
		fmt.Fprintln(s.out, interactiveHelp)
	case "extract":
		name := s.current
		if len(args) > 0 {
			name = args[0]
		}
		return s.extract(name)
	case "load":
		if len(args) != 2 {
			return fmt.Errorf("usage: load <name> <file|->")
		}
		return s.load(args[0], args[1])
	case "use":
		if len(args) != 1 {
			return fmt.Errorf("usage: use <name>")
		}
		if _, err := s.catalog.GetTable(args[0]); err != nil {
			return err
		}
		s.current = args[0]
	case "tables":
		for _, name := range s.catalog.Names() {
			mark := " "
			if name == s.current {
				mark = "*"
			}
			fmt.Fprintf(s.out, "%s %s\n", mark, name)
		}
	case "tree":
		fmt.Fprint(s.out, plan.FormatPlan(s.builder.Root()))
	case "columns":
		fmt.Fprint(s.out, plan.FormatColumns(s.builder.Root()))
	case "readers":
		for _, name := range s.extractor.Readers() {
			fmt.Fprintln(s.out, name)
		}
	case "path":
		if len(args) != 1 {
			return fmt.Errorf("usage: path <a.b.c>")
		}
		return s.describePath(args[0])
	default:
		return fmt.Errorf("unknown command '%s' (try 'help')", command)
	}
	return nil
}

func (s *session) load(name, source string) error {
	t, err := database.Buffer(database.NewJSONTable(source))
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", displayName(source), err)
	}
	s.catalog.RegisterTable(name, t)
	s.current = name
	fmt.Fprintf(s.out, "Loaded %d row(s) as '%s'\n", t.Len(), name)
	return nil
}

func (s *session) extract(name string) error {
	if name == "" {
		return fmt.Errorf("no table loaded (use 'load')")
	}
	t, err := s.catalog.GetTable(name)
	if err != nil {
		return err
	}
	executor := newExecutor()
	n, err := executor.Execute(s.ctx, s.extractor, t, s.out)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "(%d aggregate(s))\n", n)
	return nil
}

func (s *session) describePath(dotPath string) error {
	agg := s.extractor.Aggregate()
	p, ok := shape.Resolve(agg.Root, dotPath)
	if !ok {
		return fmt.Errorf("no property at path '%s' in %s", dotPath, agg.Name)
	}
	m := s.extractor.Mapping()

	if p.IsRoot() {
		fmt.Fprintf(s.out, "%s (root entity %s)\n", p, agg.Root.Name)
		if id := m.IDColumn(p, agg.Root); id != "" {
			fmt.Fprintf(s.out, "  id column: %s\n", id)
		}
		return nil
	}

	leaf := p.Leaf()
	fmt.Fprintf(s.out, "%s: %s\n", p, leaf.Kind)
	if leaf.IsQualified() {
		fmt.Fprintf(s.out, "  key column: %s (%s)\n", m.KeyColumn(p), leaf.QualifierType())
	}
	switch {
	case leaf.Target != nil:
		if id := m.IDColumn(p, leaf.Target); id != "" {
			fmt.Fprintf(s.out, "  id column: %s\n", id)
		}
	default:
		fmt.Fprintf(s.out, "  value column: %s (%s)\n", m.Column(p), leaf.Type)
	}
	if leaf.IsRelation() && leaf.Kind != shape.Embedded {
		fmt.Fprintf(s.out, "  table: %s\n", leaf.TableName())
	}
	return nil
}
