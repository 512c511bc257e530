package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bisegni/rowtree/pkg/database"
)

// contextIterable is implemented by tables whose scans can be bound to a
// context, like database.SQLTable.
type contextIterable interface {
	IterateContext(ctx context.Context) (database.RowIterator, error)
}

// Executor runs an extraction over an input Table and writes the aggregates
type Executor struct {
	Pretty bool
}

func NewExecutor() *Executor {
	return &Executor{
		Pretty: false,
	}
}

// Execute streams every aggregate of input to w as one JSON document per
// line (indented when Pretty). It returns the number of aggregates written.
func (e *Executor) Execute(ctx context.Context, x *Extractor, input database.Table, w io.Writer) (int, error) {
	var (
		iterator database.RowIterator
		err      error
	)
	if ci, ok := input.(contextIterable); ok {
		iterator, err = ci.IterateContext(ctx)
	} else {
		iterator, err = input.Iterate()
	}
	if err != nil {
		return 0, err
	}
	defer iterator.Close()

	// Stream results as JSONL
	encoder := json.NewEncoder(w)
	if e.Pretty {
		encoder.SetIndent("", "  ")
	} else {
		encoder.SetIndent("", "")
	}

	written := 0
	err = x.Stream(ctx, iterator, func(aggregate interface{}) error {
		if err := encoder.Encode(database.JSONValue(aggregate)); err != nil {
			return fmt.Errorf("failed to write %s: %w", x.Aggregate().Name, err)
		}
		written++
		return nil
	})
	return written, err
}
