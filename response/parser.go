package response

import (
	"maps"
	"strconv"
	"strings"
)

// Parse normalizes an upstream response into an Envelope.
//
// A nil response yields a PARSER_ERROR envelope. A response carrying errors
// and no data is a full failure and goes through HandleErrors. Anything else
// is passed through, with Success set only when there are no errors; an
// empty errors array counts as no errors.
func Parse(raw *Raw) *Envelope {
	if raw == nil {
		return CreateErrorResponse("No response received", nil)
	}

	if len(raw.Errors) > 0 && raw.Data == nil {
		return HandleErrors(raw.Errors)
	}

	return &Envelope{
		Data:    raw.Data,
		Errors:  raw.Errors,
		Success: len(raw.Errors) == 0,
	}
}

// HandleErrors wraps upstream errors in a failed envelope, keeping message,
// path, extensions and locations as received
func HandleErrors(errs []ErrorDetail) *Envelope {
	formatted := make([]ErrorDetail, len(errs))
	for i, e := range errs {
		formatted[i] = ErrorDetail{
			Message:    e.Message,
			Path:       e.Path,
			Extensions: e.Extensions,
			Locations:  e.Locations,
		}
	}

	return &Envelope{
		Data:    nil,
		Errors:  formatted,
		Success: false,
	}
}

// CreateErrorResponse builds a single-error envelope coded PARSER_ERROR.
// extensions are copied over the default, so a caller-supplied "code"
// replaces PARSER_ERROR.
func CreateErrorResponse(message string, extensions map[string]any) *Envelope {
	ext := map[string]any{"code": CodeParserError}
	maps.Copy(ext, extensions)

	return &Envelope{
		Data: nil,
		Errors: []ErrorDetail{{
			Message:    message,
			Extensions: ext,
		}},
		Success: false,
	}
}

// ExtractFields resolves dot-separated paths against env.Data. Numeric
// segments index into arrays. Paths that cannot be resolved are left out of
// the result; a path ending on a JSON null is kept with a nil value.
func ExtractFields(env *Envelope, paths []string) map[string]any {
	result := make(map[string]any)
	if env == nil || env.Data == nil {
		return result
	}

	for _, path := range paths {
		if value, ok := lookupPath(env.Data, path); ok {
			result[path] = value
		}
	}
	return result
}

func lookupPath(root map[string]any, path string) (any, bool) {
	var current any = root
	for _, key := range strings.Split(path, ".") {
		next, ok := child(current, key)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// child returns the member key of an object or array value
func child(value any, key string) (any, bool) {
	switch v := value.(type) {
	case map[string]any:
		c, ok := v[key]
		return c, ok
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, false
		}
		return v[idx], true
	default:
		return nil, false
	}
}
