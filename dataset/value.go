package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	Null Kind = iota
	Number
	Text
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "null"
	}
}

// Value is a single cell: null, number or text.
type Value struct {
	kind Kind
	num  float64
	text string
}

func NullValue() Value {
	return Value{}
}

func NumberValue(f float64) Value {
	return Value{kind: Number, num: f}
}

func TextValue(s string) Value {
	return Value{kind: Text, text: s}
}

// Coerce turns a raw cell into a value: empty cells are null, full numeric
// literals are numbers, everything else stays text.
func Coerce(cell string) Value {
	if cell == "" {
		return NullValue()
	}
	if f, ok := parseNumber(cell); ok {
		return NumberValue(f)
	}
	return TextValue(cell)
}

func parseNumber(s string) (float64, bool) {
	// ParseFloat also accepts hex floats, underscores, "inf" and "nan"
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '.', c == '-', c == '+', c == 'e', c == 'E':
		default:
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == Null
}

func (v Value) Number() (float64, bool) {
	return v.num, v.kind == Number
}

func (v Value) Text() (string, bool) {
	return v.text, v.kind == Text
}

// String returns the normalized string form. Null is the empty string.
func (v Value) String() string {
	switch v.kind {
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Text:
		return v.text
	default:
		return ""
	}
}

// Normalized is the form used for facet options and equality checks:
// trimmed, with internal whitespace runs collapsed to one space.
func (v Value) Normalized() string {
	return Normalize(v.String())
}

func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Interface returns the plain Go form: float64, string or nil.
func (v Value) Interface() interface{} {
	switch v.kind {
	case Number:
		return v.num
	case Text:
		return v.text
	default:
		return nil
	}
}

func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.num == o.num && v.text == o.text
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
