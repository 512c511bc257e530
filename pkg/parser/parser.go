package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one flat row: column name to scalar value. Numbers are kept as
// json.Number so that large ids survive untouched.
type Record map[string]interface{}

// Parser reads rows from JSON (an array of objects or a stream of objects)
// and JSONL files.
type Parser struct {
	file    *os.File
	reader  io.Reader
	isJSONL bool

	decoder   *json.Decoder
	scanner   *bufio.Scanner
	bufReader *bufio.Reader
	line      int

	startArrayChecked bool
	inArray           bool
}

// NewParser creates a new parser for the given source.
// Special cases:
// - Empty string or "-" reads from stdin
// - Strings starting with '{' or '[' are treated as inline JSON
func NewParser(source string) (*Parser, error) {
	switch {
	case len(source) > 0 && (source[0] == '{' || source[0] == '['):
		return NewReaderParser(strings.NewReader(source), false), nil
	case source == "" || source == "-":
		return NewReaderParser(os.Stdin, false), nil
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	p := NewReaderParser(file, strings.HasSuffix(source, ".jsonl"))
	p.file = file
	return p, nil
}

// NewReaderParser reads rows from r. Closing the parser does not close r.
func NewReaderParser(r io.Reader, isJSONL bool) *Parser {
	p := &Parser{reader: r, isJSONL: isJSONL}
	if p.isJSONL {
		p.scanner = bufio.NewScanner(r)
		p.scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	} else {
		// bufio.Reader allows peeking for the array start
		p.bufReader = bufio.NewReader(r)
		p.decoder = json.NewDecoder(p.bufReader)
		p.decoder.UseNumber()
	}
	return p
}

// Close closes the underlying file, if the parser opened one
func (p *Parser) Close() error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}

// IsJSONL returns whether the parser is treating the input as JSONL
func (p *Parser) IsJSONL() bool {
	return p.isJSONL
}

// Read reads the next row. It returns io.EOF after the last one.
func (p *Parser) Read() (Record, error) {
	if p.isJSONL {
		return p.readLine()
	}

	if !p.startArrayChecked {
		for {
			b, err := p.bufReader.Peek(1)
			if err != nil {
				return nil, err
			}
			c := b[0]
			if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
				p.bufReader.ReadByte()
				continue
			}
			if c == '[' {
				p.inArray = true
				if _, err := p.decoder.Token(); err != nil {
					return nil, err
				}
			}
			p.startArrayChecked = true
			break
		}
	}

	if p.inArray && !p.decoder.More() {
		t, err := p.decoder.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := t.(json.Delim); ok && delim == ']' {
			p.inArray = false
			return nil, io.EOF
		}
		return nil, fmt.Errorf("expected array end, got %v", t)
	}

	var record Record
	if err := p.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode JSON row: %w", err)
	}
	if err := checkFlat(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (p *Parser) readLine() (Record, error) {
	for p.scanner.Scan() {
		p.line++
		line := bytes.TrimSpace(p.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var record Record
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to parse JSONL row at line %d: %w", p.line, err)
		}
		if err := checkFlat(record); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
		return record, nil
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// ReadAll reads all remaining rows
func (p *Parser) ReadAll() ([]Record, error) {
	var records []Record
	for {
		record, err := p.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// checkFlat rejects rows carrying objects or arrays: a joined row holds
// scalars only.
func checkFlat(record Record) error {
	if record == nil {
		return fmt.Errorf("row is not an object")
	}
	for k, v := range record {
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			return fmt.Errorf("column '%s' holds a nested value", k)
		}
	}
	return nil
}
