package refdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Scalar is a table value that may be a JSON number or a JSON string.
// The literal text is kept so that rendered output matches the source table.
type Scalar struct {
	text  string
	num   float64
	isNum bool
	set   bool
}

// Num builds a numeric Scalar using the shortest decimal representation.
func Num(f float64) Scalar {
	return Scalar{text: strconv.FormatFloat(f, 'f', -1, 64), num: f, isNum: true, set: true}
}

// Text builds a string Scalar.
func Text(s string) Scalar {
	return Scalar{text: s, set: true}
}

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Scalar{}
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Text(str)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("refdata: value %s is neither number nor string", b)
	}
	*s = Scalar{text: string(b), num: f, isNum: true, set: true}
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	switch {
	case !s.set:
		return []byte("null"), nil
	case s.isNum:
		return []byte(s.text), nil
	default:
		return json.Marshal(s.text)
	}
}

// IsSet reports whether the field was present in the table.
func (s Scalar) IsSet() bool { return s.set }

// Float returns the numeric value; ok is false for strings and absent values.
func (s Scalar) Float() (float64, bool) { return s.num, s.isNum }

// String returns the literal text, or "" when absent.
func (s Scalar) String() string { return s.text }

// Or returns the literal text, or def when absent.
func (s Scalar) Or(def string) string {
	if !s.set {
		return def
	}
	return s.text
}

// Span is a two-element [min, max] frequency pair in MHz.
type Span struct {
	Min Scalar
	Max Scalar
}

func (s *Span) UnmarshalJSON(b []byte) error {
	var pair []Scalar
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("refdata: range must be a [min, max] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("refdata: range must have 2 elements, got %d", len(pair))
	}
	s.Min, s.Max = pair[0], pair[1]
	return nil
}

func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([]Scalar{s.Min, s.Max})
}

// Contains reports whether f lies inside the closed range [Min, Max].
func (s Span) Contains(f float64) bool {
	return Closed.Contains(s.Min, s.Max, f)
}
