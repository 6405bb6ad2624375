package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads a header-first CSV file into rows keyed by lowercase header
type Parser struct {
	reader  *csv.Reader
	headers []string
	index   map[string]int
	line    int
	maxRows int
	rows    int
}

// Option configures a Parser
type Option func(*Parser, *csv.Reader)

// WithDelimiter sets the field delimiter, comma by default
func WithDelimiter(d rune) Option {
	return func(_ *Parser, r *csv.Reader) { r.Comma = d }
}

// WithMaxRows caps the number of data rows; 0 disables the cap
func WithMaxRows(n int) Option {
	return func(p *Parser, _ *csv.Reader) { p.maxRows = n }
}

// NewParser strips a UTF-8 BOM, checks the encoding and reads the header row
func NewParser(r io.Reader, opts ...Option) (*Parser, error) {
	buf := bufio.NewReaderSize(r, 64*1024)
	if head, err := buf.Peek(len(utf8BOM)); err == nil && string(head) == string(utf8BOM) {
		_, _ = buf.Discard(len(utf8BOM))
	}

	sample, err := buf.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(strings.TrimSpace(string(sample))) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(trimPartialRune(sample)) {
		return nil, ErrInvalidEncoding
	}

	p := &Parser{index: make(map[string]int)}
	p.reader = csv.NewReader(buf)
	p.reader.FieldsPerRecord = -1
	p.reader.TrimLeadingSpace = true
	p.reader.LazyQuotes = true
	for _, opt := range opts {
		opt(p, p.reader)
	}

	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	p.line = 1
	p.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		p.headers[i] = name
		if name != "" {
			p.index[name] = i
		}
	}
	return p, nil
}

// trimPartialRune drops a multi-byte rune cut off at the end of a peeked buffer
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if r, size := utf8.DecodeLastRune(b); r != utf8.RuneError || size > 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// RequireHeaders returns ErrMissingColumns listing every absent header
func (p *Parser) RequireHeaders(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := p.index[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// Row is one data line. Line is the 1-based line number in the file.
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value of a column, empty when absent
func (r Row) Get(column string) string {
	return r.Values[column]
}

// Blank reports whether every field is empty
func (r Row) Blank() bool {
	for _, v := range r.Values {
		if v != "" {
			return false
		}
	}
	return true
}

// Next returns the next non-blank row or io.EOF
func (p *Parser) Next() (Row, error) {
	for {
		record, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		p.line++
		if err != nil {
			return Row{}, &RowError{Line: p.line, Code: ErrCodeMalformedRow, Message: err.Error()}
		}
		row := Row{Line: p.line, Values: make(map[string]string, len(p.headers))}
		for i, h := range p.headers {
			if h == "" {
				continue
			}
			if i < len(record) {
				row.Values[h] = strings.TrimSpace(record[i])
			} else {
				row.Values[h] = ""
			}
		}
		if row.Blank() {
			continue
		}
		p.rows++
		if p.maxRows > 0 && p.rows > p.maxRows {
			return Row{}, ErrTooManyRows
		}
		return row, nil
	}
}

// ReadAll drains the parser. Malformed lines are returned as row errors and
// do not stop reading.
func (p *Parser) ReadAll() ([]Row, []RowError, error) {
	var rows []Row
	var rowErrs []RowError
	for {
		row, err := p.Next()
		if errors.Is(err, io.EOF) {
			return rows, rowErrs, nil
		}
		var re *RowError
		if errors.As(err, &re) {
			rowErrs = append(rowErrs, *re)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
}
