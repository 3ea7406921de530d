package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one JSON object read from the input. Numbers are kept as
// json.Number so integer columns load without float rounding.
type Record map[string]interface{}

// Parser streams records from JSON or JSONL input
type Parser struct {
	src     io.Reader
	closer  io.Closer
	isJSONL bool

	scanner *bufio.Scanner
	reader  *bufio.Reader
	decoder *json.Decoder
	line    int

	startChecked bool
	inArray      bool
}

// NewParser creates a new parser for the given file
// Special cases:
// - Empty string or "-" reads from stdin
// - Strings starting with '{' or '[' are treated as inline JSON
func NewParser(filename string) (*Parser, error) {
	switch {
	case len(filename) > 0 && (filename[0] == '{' || filename[0] == '['):
		return NewReader(strings.NewReader(filename), false), nil
	case filename == "" || filename == "-":
		return NewReader(os.Stdin, false), nil
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	p := NewReader(file, strings.HasSuffix(filename, ".jsonl"))
	p.closer = file
	return p, nil
}

// NewReader reads records from r. With jsonl set every non-empty line is one
// object; otherwise r holds a single object, a stream of objects or an array.
func NewReader(r io.Reader, jsonl bool) *Parser {
	p := &Parser{src: r, isJSONL: jsonl}
	if jsonl {
		p.scanner = bufio.NewScanner(r)
		p.scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	} else {
		p.reader = bufio.NewReader(r)
		p.decoder = json.NewDecoder(p.reader)
		p.decoder.UseNumber()
	}
	return p
}

// Close closes the underlying file, if the parser opened one
func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// IsJSONL returns whether the parser is treating the input as JSONL
func (p *Parser) IsJSONL() bool {
	return p.isJSONL
}

// Read reads the next record. It returns io.EOF after the last one.
func (p *Parser) Read() (Record, error) {
	if p.isJSONL {
		return p.readLine()
	}

	if !p.startChecked {
		p.startChecked = true
		c, err := p.peek()
		if err != nil {
			return nil, err
		}
		if c == '[' {
			if _, err := p.decoder.Token(); err != nil {
				return nil, fmt.Errorf("failed to read array start: %w", err)
			}
			p.inArray = true
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
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode JSON record: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("JSON null is not a record")
	}
	return record, nil
}

func (p *Parser) peek() (byte, error) {
	for {
		b, err := p.reader.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\n', '\t', '\r':
			p.reader.ReadByte()
		default:
			return b[0], nil
		}
	}
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
			return nil, fmt.Errorf("failed to parse JSONL record on line %d: %w", p.line, err)
		}
		return record, nil
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// ForEachRecord calls fn for every remaining record, stopping at the first error
func (p *Parser) ForEachRecord(fn func(Record) error) error {
	for {
		record, err := p.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

// ReadAll reads every remaining record
func (p *Parser) ReadAll() ([]Record, error) {
	var records []Record
	err := p.ForEachRecord(func(r Record) error {
		records = append(records, r)
		return nil
	})
	return records, err
}
