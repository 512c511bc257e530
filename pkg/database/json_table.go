package database

import (
	"errors"
	"io"

	"github.com/bisegni/rowtree/pkg/parser"
)

// JSONRow implements Row for a flat JSON record.
type JSONRow struct {
	data parser.Record
}

func (r *JSONRow) Get(column string) (interface{}, error) {
	v, ok := r.data[column]
	if !ok {
		return nil, ErrNoSuchColumn
	}
	return v, nil
}

func (r *JSONRow) Primitive() interface{} {
	return r.data
}

// NewJSONRow creates a new Row from a flat record
func NewJSONRow(data map[string]interface{}) Row {
	return &JSONRow{data: data}
}

// JSONTable adapts a JSON/JSONL row file (or inline JSON, or "-" for stdin) to
// the Table interface. Every Iterate re-opens the source.
type JSONTable struct {
	source string
}

func NewJSONTable(source string) *JSONTable {
	return &JSONTable{source: source}
}

func (t *JSONTable) Iterate() (RowIterator, error) {
	p, err := parser.NewParser(t.source)
	if err != nil {
		return nil, err
	}
	return NewParserIterator(p), nil
}

// NewParserIterator streams the rows of an open parser. Closing the iterator
// closes the parser.
func NewParserIterator(p *parser.Parser) RowIterator {
	return &jsonIterator{parser: p}
}

type jsonIterator struct {
	parser  *parser.Parser
	current Row
	err     error
}

func (it *jsonIterator) Next() bool {
	if it.err != nil {
		return false
	}
	record, err := it.parser.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		it.current = nil
		return false
	}
	it.current = &JSONRow{data: record}
	return true
}

func (it *jsonIterator) Row() Row {
	return it.current
}

func (it *jsonIterator) Error() error {
	return it.err
}

func (it *jsonIterator) Close() error {
	return it.parser.Close()
}
