package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrEmptyDataset = errors.New("dataset has no header")
var ErrMalformedRow = errors.New("malformed row")
var ErrMalformedHeader = errors.New("malformed header")

// RowError reports a single line that could not be mapped onto the schema.
type RowError struct {
	Kind     error
	Line     int
	Expected int
	Actual   int
	Detail   string
}

func (e *RowError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Detail)
	}
	return fmt.Sprintf("line %d: %s: expected %d columns, got %d", e.Line, e.Kind, e.Expected, e.Actual)
}

func (e *RowError) Unwrap() error {
	return e.Kind
}

func (e *RowError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string `json:"kind"`
		Line     int    `json:"line"`
		Expected int    `json:"expected,omitempty"`
		Actual   int    `json:"actual,omitempty"`
		Detail   string `json:"detail,omitempty"`
	}{
		Kind:     kindName(e.Kind),
		Line:     e.Line,
		Expected: e.Expected,
		Actual:   e.Actual,
		Detail:   e.Detail,
	})
}

func kindName(kind error) string {
	switch kind {
	case ErrMalformedRow:
		return "MalformedRow"
	case ErrMalformedHeader:
		return "MalformedHeader"
	}
	if kind == nil {
		return ""
	}
	return kind.Error()
}

type Options struct {
	Comma rune
}

// Parse reads comma separated text with a header line.
func Parse(raw []byte) (*Dataset, error) {
	return ParseWith(raw, Options{Comma: ','})
}

func ParseString(raw string) (*Dataset, error) {
	return Parse([]byte(raw))
}

// ParseWith turns delimited text into a dataset. Rows that do not match the
// header are not dropped silently: each one becomes a RowError in Problems.
func ParseWith(raw []byte, options Options) (*Dataset, error) {

	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	p := &parser{options: options}
	r := p.reader(raw)

	for {
		from := r.InputOffset()
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				p.problem(&RowError{
					Kind:   ErrMalformedRow,
					Line:   parseErr.StartLine,
					Detail: parseErr.Err.Error(),
				})
				continue
			}
			return nil, fmt.Errorf("read delimited text: %w", err)
		}

		// csv skips empty lines but not whitespace-only ones. A quoted empty
		// cell ("") is a value, not a blank line.
		chunk := bytes.Trim(raw[from:r.InputOffset()], "\r\n")
		if len(bytes.TrimSpace(chunk)) == 0 {
			continue
		}
		line, _ := r.FieldPos(0)

		if p.schema != nil && len(cells) != len(p.columns) && bytes.ContainsRune(chunk, '\n') {
			// an unbalanced quote swallowed the following lines
			err := p.rescan(chunk, line)
			if err != nil {
				return nil, err
			}
			continue
		}

		p.row(cells, line)
	}

	if p.schema == nil {
		return nil, ErrEmptyDataset
	}

	return New(p.schema, p.records, p.problems), nil
}

type parser struct {
	options  Options
	schema   *Schema
	columns  []int // header position -> schema position, -1 when ignored
	records  []Record
	problems []*RowError
}

func (p *parser) reader(raw []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(raw))
	if p.options.Comma != 0 {
		r.Comma = p.options.Comma
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false
	return r
}

func (p *parser) problem(e *RowError) {
	p.problems = append(p.problems, e)
}

// rescan parses every physical line of chunk on its own, so quotes cannot
// cross line boundaries. first is the line number of the first one.
func (p *parser) rescan(chunk []byte, first int) error {
	for i, text := range bytes.Split(chunk, []byte("\n")) {
		text = bytes.TrimRight(text, "\r")
		if len(bytes.TrimSpace(text)) == 0 {
			continue
		}
		line := first + i
		cells, err := p.reader(text).Read()
		if err == io.EOF {
			continue
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				p.problem(&RowError{
					Kind:   ErrMalformedRow,
					Line:   line,
					Detail: parseErr.Err.Error(),
				})
				continue
			}
			return fmt.Errorf("read delimited text: %w", err)
		}
		p.row(cells, line)
	}
	return nil
}

// row takes the header first and records after it.
func (p *parser) row(cells []string, line int) {

	if p.schema == nil {
		p.schema = NewSchema()
		for _, name := range cells {
			field := CanonicalField(name)
			if field == "" || !p.schema.add(field) {
				p.problem(&RowError{
					Kind:   ErrMalformedHeader,
					Line:   line,
					Detail: fmt.Sprintf("duplicate or empty column '%s' ignored", name),
				})
				p.columns = append(p.columns, -1)
				continue
			}
			p.columns = append(p.columns, p.schema.Len()-1)
		}
		return
	}

	if len(cells) != len(p.columns) {
		p.problem(&RowError{
			Kind:     ErrMalformedRow,
			Line:     line,
			Expected: len(p.columns),
			Actual:   len(cells),
		})
		return
	}

	values := make([]Value, p.schema.Len())
	for i, cell := range cells {
		if p.columns[i] < 0 {
			continue
		}
		values[p.columns[i]] = Coerce(cell)
	}
	p.records = append(p.records, Record{schema: p.schema, values: values})
}
