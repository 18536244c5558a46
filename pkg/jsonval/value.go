package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies the JSON type a Value holds.
type Kind int

const (
	// KindNull is a JSON null (and the zero Value).
	KindNull Kind = iota
	// KindObject is a JSON object.
	KindObject
	// KindArray is a JSON array.
	KindArray
	// KindString is a JSON string, or raw non-JSON text.
	KindString
	// KindNumber is a JSON number.
	KindNumber
	// KindBool is a JSON boolean.
	KindBool
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a tagged JSON value. Exactly one of the payload fields is
// meaningful, selected by Kind. The zero Value is JSON null.
type Value struct {
	Kind   Kind
	Object map[string]Value
	Array  []Value
	Str    string
	Num    json.Number
	Bool   bool
}

// Null returns a null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a number Value from its literal representation.
func Number(lit string) Value { return Value{Kind: KindNumber, Num: json.Number(lit)} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Object returns an object Value wrapping the given map.
func Object(m map[string]Value) Value { return Value{Kind: KindObject, Object: m} }

// Array returns an array Value wrapping the given slice.
func Array(vs []Value) Value { return Value{Kind: KindArray, Array: vs} }

// Decode parses data as a single JSON value.
func Decode(data []byte) (Value, error) {
	// json.Valid rejects trailing garbage, otherwise `123 trailing`
	// would decode as the number 123.
	if !json.Valid(data) {
		return Value{}, &DecodeError{Cause: fmt.Errorf("invalid JSON")}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, &DecodeError{Cause: err}
	}

	return fromInterface(raw), nil
}

// FromText parses text as JSON if possible; undecodable text is retained
// as a raw string Value. Empty text becomes null.
func FromText(text string) Value {
	if text == "" {
		return Null()
	}
	v, err := Decode([]byte(text))
	if err != nil {
		return String(text)
	}
	return v
}

// fromInterface converts a decoded encoding/json value tree into a Value.
func fromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case json.Number:
		return Value{Kind: KindNumber, Num: t}
	case []interface{}:
		arr := make([]Value, 0, len(t))
		for _, item := range t {
			arr = append(arr, fromInterface(item))
		}
		return Array(arr)
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[k] = fromInterface(item)
		}
		return Object(obj)
	default:
		// encoding/json only produces the types above.
		return Null()
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindObject:
		if v.Object == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.Object)
	case KindArray:
		if v.Array == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Array)
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		if v.Num == "" {
			return []byte("0"), nil
		}
		return []byte(v.Num), nil
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %s", v.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// Encode returns the compact JSON encoding of the value.
func (v Value) Encode() ([]byte, error) {
	return json.Marshal(v)
}

// EncodeIndent returns the JSON encoding of the value indented with two
// spaces, the format used for compiled route bodies.
func (v Value) EncodeIndent() ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// IsStructured reports whether the value is an object or array, i.e. the
// result of a successful structured decode rather than raw text.
func (v Value) IsStructured() bool {
	return v.Kind == KindObject || v.Kind == KindArray
}

// Field returns the named object entry. The second result is false when
// the value is not an object or the key is absent.
func (v Value) Field(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	entry, ok := v.Object[key]
	return entry, ok
}

// DecodeError reports text that could not be parsed as JSON.
type DecodeError struct {
	Cause error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}
