package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSchema(t *testing.T) {
	data := map[string]any{
		"n":     "x",
		"count": json.Number("3"),
		"ok":    true,
		"none":  nil,
		"block": map[string]any{
			"height": json.Number("100"),
			"hash":   "0xabc",
		},
		"list": []any{map[string]any{"id": "first"}},
	}
	env := &Envelope{Data: data, Success: true}

	tests := []struct {
		name   string
		schema Object
		want   bool
	}{
		{"string mismatch", Object{"n": Scalar(TypeNumber)}, false},
		{"string match", Object{"n": Scalar(TypeString)}, true},
		{"number", Object{"count": Scalar(TypeNumber)}, true},
		{"boolean", Object{"ok": Scalar(TypeBoolean)}, true},
		{"null is object", Object{"none": Scalar(TypeObject)}, true},
		{"array is object", Object{"list": Scalar(TypeObject)}, true},
		{"missing is undefined", Object{"gone": Scalar(TypeUndefined)}, true},
		{"missing key", Object{"gone": Scalar(TypeString)}, false},
		{"nested match", Object{"block": Object{"height": Scalar(TypeNumber), "hash": Scalar(TypeString)}}, true},
		{"nested mismatch", Object{"block": Object{"height": Scalar(TypeString)}}, false},
		{"nested on scalar", Object{"n": Object{"x": Scalar(TypeString)}}, false},
		{"nested on null", Object{"none": Object{}}, false},
		{"nested on missing", Object{"gone": Object{}}, false},
		{"array members", Object{"list": Object{"0": Object{"id": Scalar(TypeString)}}}, true},
		{"empty schema", Object{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSchema(env, tt.schema))
		})
	}
}

func TestValidateSchema_NoData(t *testing.T) {
	assert.False(t, ValidateSchema(nil, Object{}))
	assert.False(t, ValidateSchema(&Envelope{}, Object{}))
}

func TestCheckSchema_Message(t *testing.T) {
	env := &Envelope{Data: map[string]any{"block": map[string]any{"height": "1"}}}

	err := CheckSchema(env, Object{"block": Object{"height": Scalar(TypeNumber)}})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.EqualError(t, err, "schema mismatch: expected number for key block.height, got string")
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		value   any
		present bool
		want    string
	}{
		{"s", true, TypeString},
		{false, true, TypeBoolean},
		{json.Number("1"), true, TypeNumber},
		{1.5, true, TypeNumber},
		{7, true, TypeNumber},
		{nil, true, TypeObject},
		{[]any{}, true, TypeObject},
		{map[string]any{}, true, TypeObject},
		{nil, false, TypeUndefined},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeOf(tt.value, tt.present), "value %#v", tt.value)
	}
}
