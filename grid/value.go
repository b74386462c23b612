// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"bytes"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Kind is the SQLite storage class of a cell value.
type Kind int

const (
	Null Kind = iota
	Integer
	Real
	Text
	Blob
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Text:
		return "text"
	case Blob:
		return "blob"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a typed cell value. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Int  int64
	Real float64
	Text string
	Blob []byte
}

func NullValue() Value          { return Value{Kind: Null} }
func IntValue(i int64) Value    { return Value{Kind: Integer, Int: i} }
func RealValue(f float64) Value { return Value{Kind: Real, Real: f} }
func TextValue(s string) Value  { return Value{Kind: Text, Text: s} }
func BlobValue(b []byte) Value  { return Value{Kind: Blob, Blob: append([]byte(nil), b...)} }
func (v Value) IsNull() bool    { return v.Kind == Null }

// Equal reports whether two values have the same storage class and content.
// An integer and a real holding the same number are not equal; writing one
// back in place of the other would change the stored type.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Null:
		return true
	case Integer:
		return v.Int == o.Int
	case Real:
		return v.Real == o.Real || (math.IsNaN(v.Real) && math.IsNaN(o.Real))
	case Text:
		return v.Text == o.Text
	case Blob:
		return bytes.Equal(v.Blob, o.Blob)
	}
	return false
}

// String returns the raw text form of the value. Null is the empty string.
func (v Value) String() string {
	switch v.Kind {
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Real:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case Text:
		return v.Text
	case Blob:
		return string(v.Blob)
	}
	return ""
}

// Arg returns the value as a database/sql driver argument.
func (v Value) Arg() any {
	switch v.Kind {
	case Integer:
		return v.Int
	case Real:
		return v.Real
	case Text:
		return v.Text
	case Blob:
		return v.Blob
	}
	return nil
}

// Literal renders the value as an SQLite literal.
func (v Value) Literal() string {
	switch v.Kind {
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Real:
		switch {
		case math.IsNaN(v.Real):
			// SQLite stores NaN as NULL
			return "NULL"
		case math.IsInf(v.Real, 1):
			return "9e999"
		case math.IsInf(v.Real, -1):
			return "-9e999"
		}
		s := strconv.FormatFloat(v.Real, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case Text:
		return quoteString(v.Text)
	case Blob:
		return "X'" + strings.ToUpper(hex.EncodeToString(v.Blob)) + "'"
	}
	return "NULL"
}

// clone returns a copy that shares no memory with v.
func (v Value) clone() Value {
	if v.Kind == Blob {
		v.Blob = append([]byte(nil), v.Blob...)
	}
	return v
}

// FromDriver converts a value scanned by database/sql into a Value.
func FromDriver(src any) Value {
	switch x := src.(type) {
	case nil:
		return NullValue()
	case int64:
		return IntValue(x)
	case int:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case bool:
		if x {
			return IntValue(1)
		}
		return IntValue(0)
	case float64:
		return RealValue(x)
	case float32:
		return RealValue(float64(x))
	case string:
		return TextValue(x)
	case []byte:
		return BlobValue(x)
	case interface{ Format(string) string }:
		// time.Time from drivers that parse DATETIME columns
		return TextValue(x.Format("2006-01-02 15:04:05.999999999-07:00"))
	}
	return NullValue()
}

// ParseValue converts edited text into a typed value. The hint is the
// storage class of the value being replaced; text that parses as the hint's
// class keeps that class, anything else becomes Text.
func ParseValue(text string, hint Kind) Value {
	switch hint {
	case Integer:
		if i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
			return IntValue(i)
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return RealValue(f)
		}
	case Real:
		if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return RealValue(f)
		}
	case Blob:
		return BlobValue([]byte(text))
	}
	return TextValue(text)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
