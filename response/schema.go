package response

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type names a Scalar schema can expect. They follow JavaScript typeof over
// decoded JSON: arrays and null are "object", missing keys are "undefined".
const (
	TypeString    = "string"
	TypeNumber    = "number"
	TypeBoolean   = "boolean"
	TypeObject    = "object"
	TypeUndefined = "undefined"
)

// ErrSchemaMismatch is wrapped by every CheckSchema failure
var ErrSchemaMismatch = errors.New("schema mismatch")

// Schema is either a Scalar or an Object
type Schema interface {
	isSchema()
}

// Scalar expects a value whose type name equals the string exactly
type Scalar string

// Object expects a non-null object or array whose members match each entry
type Object map[string]Schema

func (Scalar) isSchema() {}
func (Object) isSchema() {}

// ValidateSchema reports whether env.Data matches schema. It never panics
// and returns false on the first mismatch.
func ValidateSchema(env *Envelope, schema Object) bool {
	return CheckSchema(env, schema) == nil
}

// CheckSchema is ValidateSchema returning the first mismatch as an error
func CheckSchema(env *Envelope, schema Object) error {
	if env == nil || env.Data == nil {
		return fmt.Errorf("%w: response has no data", ErrSchemaMismatch)
	}
	return checkObject(env.Data, schema, "")
}

func checkObject(obj any, schema Object, prefix string) error {
	for key, expected := range schema {
		value, present := child(obj, key)
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		switch want := expected.(type) {
		case Object:
			if !present || !isTruthy(value) || TypeOf(value, true) != TypeObject {
				return fmt.Errorf("%w: expected object for key %s", ErrSchemaMismatch, path)
			}
			if err := checkObject(value, want, path); err != nil {
				return err
			}
		case Scalar:
			if got := TypeOf(value, present); got != string(want) {
				return fmt.Errorf("%w: expected %s for key %s, got %s", ErrSchemaMismatch, want, path, got)
			}
		default:
			return fmt.Errorf("%w: unsupported schema %T for key %s", ErrSchemaMismatch, expected, path)
		}
	}
	return nil
}

// TypeOf returns the typeof name of a decoded JSON value. present is false
// for a key that does not exist.
func TypeOf(value any, present bool) string {
	if !present {
		return TypeUndefined
	}
	switch value.(type) {
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case json.Number, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return TypeNumber
	default:
		return TypeObject
	}
}

// isTruthy reports whether an object-typed value is non-null
func isTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case map[string]any:
		return v != nil
	case []any:
		return v != nil
	default:
		return true
	}
}
