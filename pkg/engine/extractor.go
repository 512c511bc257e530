package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bisegni/rowtree/pkg/convert"
	"github.com/bisegni/rowtree/pkg/database"
	"github.com/bisegni/rowtree/pkg/shape"
)

// Extractor rebuilds the aggregates of one shape from a flat row stream in a
// single forward pass. An Extractor holds no state between calls; every
// Extract or Stream builds its readers afresh, so one Extractor may serve
// concurrent extractions over different streams.
type Extractor struct {
	agg          *shape.Aggregate
	mapping      shape.Mapping
	converter    convert.Converter
	instantiator Instantiator
	logger       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMapping sets the column naming. Defaults to shape.DefaultMapping.
func WithMapping(m shape.Mapping) Option {
	return func(x *Extractor) { x.mapping = m }
}

// WithConverter sets the scalar converter. Defaults to convert.Default.
func WithConverter(c convert.Converter) Option {
	return func(x *Extractor) { x.converter = c }
}

// WithInstantiator sets how entity instances are built. Defaults to
// OrderedMapInstantiator.
func WithInstantiator(i Instantiator) Option {
	return func(x *Extractor) { x.instantiator = i }
}

// WithLogger sets the logger for debug output. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(x *Extractor) { x.logger = l }
}

// NewExtractor validates agg and returns an extractor for it.
func NewExtractor(agg *shape.Aggregate, opts ...Option) (*Extractor, error) {
	if agg == nil {
		return nil, fmt.Errorf("%w: no aggregate", shape.ErrInvalidShape)
	}
	if err := agg.Validate(); err != nil {
		return nil, err
	}
	x := &Extractor{
		agg:          agg,
		mapping:      shape.DefaultMapping,
		converter:    convert.Default,
		instantiator: OrderedMapInstantiator,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// Aggregate returns the shape the extractor reads.
func (x *Extractor) Aggregate() *shape.Aggregate {
	return x.agg
}

// Mapping returns the column naming in use.
func (x *Extractor) Mapping() shape.Mapping {
	return x.mapping
}

// Extract reads rows to the end and returns the root aggregates in stream
// order. Any failure, including a row stream error or ctx being done, fails
// the whole extraction. rows is not closed.
func (x *Extractor) Extract(ctx context.Context, rows database.RowIterator) ([]interface{}, error) {
	c := NewCursor(rows)
	a := newArena(x, c, nil)
	if err := x.run(ctx, c, a); err != nil {
		return nil, err
	}
	return a.result()
}

// ExtractOne extracts a stream holding at most one aggregate. It returns nil
// for an empty stream.
func (x *Extractor) ExtractOne(ctx context.Context, rows database.RowIterator) (interface{}, error) {
	all, err := x.Extract(ctx, rows)
	if err != nil {
		return nil, err
	}
	switch len(all) {
	case 0:
		return nil, nil
	case 1:
		return all[0], nil
	}
	return nil, fmt.Errorf("expected one %s, the rows hold %d", x.agg.Name, len(all))
}

// Stream hands every root aggregate to fn as soon as its last row has been
// read. Only the aggregate under construction is held in memory. An error
// from fn stops the extraction and is returned.
func (x *Extractor) Stream(ctx context.Context, rows database.RowIterator, fn func(interface{}) error) error {
	c := NewCursor(rows)
	a := newArena(x, c, fn)
	return x.run(ctx, c, a)
}

// Readers lists the reader of every shape position in arena order.
func (x *Extractor) Readers() []string {
	return newArena(x, NewCursor(nil), nil).names()
}

func (x *Extractor) run(ctx context.Context, c *Cursor, a *arena) error {
	x.logger.Debug("extraction started", "aggregate", x.agg.Name, "readers", len(a.nodes))

	aggregates := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := c.Advance()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := a.consumeRow(c); err != nil {
			return fmt.Errorf("row %d: %w", c.Position(), err)
		}
		if a.nodes[1].reader.HasCompletedResult() {
			aggregates++
		}
		if err := a.deliver(); err != nil {
			return fmt.Errorf("row %d: %w", c.Position(), err)
		}
	}

	x.logger.Debug("extraction finished", "aggregate", x.agg.Name, "rows", c.Rows(), "aggregates", aggregates)
	return nil
}

func (x *Extractor) newEntityReader(e *shape.Entity, path shape.Path, c *Cursor, g grouping, collapse bool) *entityReader {
	return &entityReader{
		base:         base{name: "Reader for " + path.String(), cursor: c, group: g},
		entity:       e,
		binder:       newBinder(e, path, x, c),
		instantiator: x.instantiator,
		collapse:     collapse,
	}
}
