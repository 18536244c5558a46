package jsonval

import (
	"encoding/json"
	"reflect"
	"testing"
)

// TestFromText_Kinds tests structured decoding across JSON types.
func TestFromText_Kinds(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind Kind
	}{
		{"object", `{"a": 1}`, KindObject},
		{"array", `[1, 2, 3]`, KindArray},
		{"string", `"hello"`, KindString},
		{"number", `42`, KindNumber},
		{"bool", `true`, KindBool},
		{"null", `null`, KindNull},
		{"empty text", ``, KindNull},
		{"raw text", `not json at all`, KindString},
		{"html", `<html><body>err</body></html>`, KindString},
		{"trailing garbage", `123 foo`, KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FromText(tt.text)
			if v.Kind != tt.kind {
				t.Errorf("FromText(%q).Kind = %s, want %s", tt.text, v.Kind, tt.kind)
			}
		})
	}
}

// TestFromText_RawFallback tests that undecodable text is kept verbatim.
func TestFromText_RawFallback(t *testing.T) {
	text := "plain text response"
	v := FromText(text)
	if v.Kind != KindString || v.Str != text {
		t.Errorf("FromText(%q) = %+v, want raw string", text, v)
	}
}

// TestValue_RoundTrip tests that values survive marshal/unmarshal.
func TestValue_RoundTrip(t *testing.T) {
	input := `{"id":12345678901234,"name":"widget","tags":["a","b"],"price":9.99,"active":true,"meta":null}`

	v, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	out, err := v.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	var got, want map[string]interface{}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("re-decode failed: %v", err)
	}
	if err := json.Unmarshal([]byte(input), &want); err != nil {
		t.Fatalf("decode of input failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got: %v\nwant: %v", got, want)
	}
}

// TestValue_NumberPrecision tests that large integers are not mangled
// through float64.
func TestValue_NumberPrecision(t *testing.T) {
	v := FromText(`{"id": 9007199254740993}`)

	id, ok := v.Field("id")
	if !ok {
		t.Fatal("field id missing")
	}
	if string(id.Num) != "9007199254740993" {
		t.Errorf("number literal = %q, want 9007199254740993", id.Num)
	}

	out, err := v.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if string(out) != `{"id":9007199254740993}` {
		t.Errorf("Encode() = %s", out)
	}
}

// TestValue_Field tests object field access.
func TestValue_Field(t *testing.T) {
	v := FromText(`{"items": [1]}`)

	if _, ok := v.Field("missing"); ok {
		t.Error("Field(missing) reported present")
	}
	items, ok := v.Field("items")
	if !ok || items.Kind != KindArray {
		t.Errorf("Field(items) = %+v, %v", items, ok)
	}

	if _, ok := String("x").Field("items"); ok {
		t.Error("Field on non-object reported present")
	}
}

// TestMerge tests the enhancement merge rules.
func TestMerge(t *testing.T) {
	tests := []struct {
		name       string
		real       string
		supplement string
		want       string
		merged     bool
	}{
		{
			name:       "object merge, supplement wins on collision",
			real:       `{"id": 1, "name": "real", "status": "live"}`,
			supplement: `{"name": "mock", "extra": true}`,
			want:       `{"extra":true,"id":1,"name":"mock","status":"live"}`,
			merged:     true,
		},
		{
			name:       "array with supplemental items appended in order",
			real:       `[{"id":1},{"id":2}]`,
			supplement: `{"items":[{"id":90},{"id":91}]}`,
			want:       `[{"id":1},{"id":2},{"id":90},{"id":91}]`,
			merged:     true,
		},
		{
			name:       "array with supplement missing items",
			real:       `[1,2]`,
			supplement: `{"extra":[3]}`,
			want:       `[1,2]`,
			merged:     false,
		},
		{
			name:       "array with non-array items field",
			real:       `[1,2]`,
			supplement: `{"items":"nope"}`,
			want:       `[1,2]`,
			merged:     false,
		},
		{
			name:       "shape mismatch leaves real untouched",
			real:       `"plain"`,
			supplement: `{"a":1}`,
			want:       `"plain"`,
			merged:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, merged := Merge(FromText(tt.real), FromText(tt.supplement))
			if merged != tt.merged {
				t.Fatalf("Merge() merged = %v, want %v", merged, tt.merged)
			}

			out, err := got.Encode()
			if err != nil {
				t.Fatalf("Encode() failed: %v", err)
			}

			// Compare decoded forms so object key order does not matter.
			var gotAny, wantAny interface{}
			if err := json.Unmarshal(out, &gotAny); err != nil {
				t.Fatalf("decode of result failed: %v", err)
			}
			if err := json.Unmarshal([]byte(tt.want), &wantAny); err != nil {
				t.Fatalf("decode of want failed: %v", err)
			}
			if !reflect.DeepEqual(gotAny, wantAny) {
				t.Errorf("Merge() = %s, want %s", out, tt.want)
			}
		})
	}
}

// TestMerge_DoesNotMutateInputs tests that merging copies instead of
// writing through to the real value's map.
func TestMerge_DoesNotMutateInputs(t *testing.T) {
	real := FromText(`{"a": 1}`)
	supp := FromText(`{"a": 2, "b": 3}`)

	if _, merged := Merge(real, supp); !merged {
		t.Fatal("expected merge")
	}

	a, _ := real.Field("a")
	if string(a.Num) != "1" {
		t.Errorf("real value mutated: a = %s", a.Num)
	}
}
