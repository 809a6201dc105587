package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// AnswerKind tags the scalar stored in an AnswerValue.
type AnswerKind uint8

const (
	KindString AnswerKind = iota + 1
	KindNumber
	KindBool
)

// AnswerValue is a questionnaire answer: a string, a number or a boolean.
// The zero value is invalid and is rejected on marshal.
type AnswerValue struct {
	kind AnswerKind
	s    string
	n    float64
	b    bool
}

// Answers maps question keys to answers.
type Answers map[string]AnswerValue

// String returns a string answer.
func String(s string) AnswerValue { return AnswerValue{kind: KindString, s: s} }

// Number returns a numeric answer.
func Number(n float64) AnswerValue { return AnswerValue{kind: KindNumber, n: n} }

// Bool returns a boolean answer.
func Bool(b bool) AnswerValue { return AnswerValue{kind: KindBool, b: b} }

// Kind reports the stored scalar type.
func (v AnswerValue) Kind() AnswerKind { return v.kind }

// Str returns the string value and whether v holds a string.
func (v AnswerValue) Str() (string, bool) { return v.s, v.kind == KindString }

// Num returns the numeric value and whether v holds a number.
func (v AnswerValue) Num() (float64, bool) { return v.n, v.kind == KindNumber }

// Boolean returns the boolean value and whether v holds a boolean.
func (v AnswerValue) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// String renders the value for display.
func (v AnswerValue) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// MarshalJSON encodes the bare scalar.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindNumber:
		return json.Marshal(v.n)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return nil, errors.New("answer: empty value")
	}
}

// UnmarshalJSON accepts a JSON string, number or boolean.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("answer: empty input")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case 'n', '{', '[':
		return fmt.Errorf("answer: unsupported value %s", truncate(data))
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Number(n)
	}
	return nil
}

// Clone returns a shallow copy of the map; values are immutable.
func (a Answers) Clone() Answers {
	if a == nil {
		return nil
	}
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func truncate(b []byte) string {
	if len(b) > 16 {
		return string(b[:16]) + "..."
	}
	return string(b)
}
