package query

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Operation kinds accepted by Builder.Operation
const (
	KindQuery    = "query"
	KindMutation = "mutation"
)

// Document is a GraphQL operation text plus its variable bindings, ready to send
type Document struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// OperationName returns the name of the first query or mutation in the
// text, or "" for anonymous operations. It scans line starts only and does
// not parse the document.
func (d Document) OperationName() string {
	for _, line := range strings.Split(d.Query, "\n") {
		line = strings.TrimSpace(line)
		for _, kind := range []string{KindQuery, KindMutation} {
			rest, ok := strings.CutPrefix(line, kind)
			if !ok || (rest != "" && !strings.ContainsAny(rest[:1], " ({")) {
				continue
			}
			rest = strings.TrimLeft(rest, " ")
			end := strings.IndexFunc(rest, func(r rune) bool {
				return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
			})
			if end < 0 {
				end = len(rest)
			}
			return rest[:end]
		}
	}
	return ""
}

type fragment struct {
	name string
	text string
}

// Builder assembles a GraphQL document through chained calls.
//
// A Builder is a persistent value: every method returns a new Builder and
// leaves its receiver untouched, so one Builder can seed several unrelated
// documents without leaking fields or variables between them.
type Builder struct {
	text      string
	variables map[string]any
	fragments []fragment
}

// New returns an empty Builder
func New() Builder {
	return Builder{}
}

// Operation starts an operation block, replacing any text accumulated so far.
// name and variableDefinitions are optional; pass "" to omit them.
func (b Builder) Operation(kind, name, variableDefinitions string) Builder {
	var sb strings.Builder
	sb.WriteString(kind)
	if name != "" {
		sb.WriteString(" ")
		sb.WriteString(name)
	}
	if variableDefinitions != "" {
		sb.WriteString("(")
		sb.WriteString(variableDefinitions)
		sb.WriteString(")")
	}
	sb.WriteString(" {\n")

	b.text = sb.String()
	return b
}

// Field appends a scalar field line. args is raw argument text and is not checked.
func (b Builder) Field(name, alias, args string) Builder {
	b.text += "  " + fieldHead(name, alias, args) + "\n"
	return b
}

// Select appends a field with a nested selection block. Each selection line is
// inserted verbatim, so deeper nesting has to be written by the caller as one
// multi-line string.
func (b Builder) Select(name string, selection []string, alias, args string) Builder {
	var sb strings.Builder
	sb.WriteString(b.text)
	sb.WriteString("  " + fieldHead(name, alias, args) + " {\n")
	for _, line := range selection {
		sb.WriteString("    " + line + "\n")
	}
	sb.WriteString("  }\n")

	b.text = sb.String()
	return b
}

// Fragment registers a fragment definition. It is emitted ahead of the
// operation by Build and does not touch the operation text. Registering a
// name twice replaces the text but keeps the first position.
func (b Builder) Fragment(name, typeCondition string, fields []string) Builder {
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = "  " + f
	}
	text := fmt.Sprintf("fragment %s on %s {\n%s\n}", name, typeCondition, strings.Join(lines, "\n"))

	frags := make([]fragment, len(b.fragments), len(b.fragments)+1)
	copy(frags, b.fragments)
	replaced := false
	for i := range frags {
		if frags[i].name == name {
			frags[i].text = text
			replaced = true
			break
		}
	}
	if !replaced {
		frags = append(frags, fragment{name: name, text: text})
	}

	b.fragments = frags
	return b
}

// Spread appends a fragment spread into the current selection
func (b Builder) Spread(name string) Builder {
	b.text += "  ..." + name + "\n"
	return b
}

// SetVariables merges vars into the variable bindings; later keys win
func (b Builder) SetVariables(vars map[string]any) Builder {
	merged := make(map[string]any, len(b.variables)+len(vars))
	maps.Copy(merged, b.variables)
	maps.Copy(merged, vars)

	b.variables = merged
	return b
}

// Build renders the document: every fragment followed by a blank line, then
// the operation text and its closing brace. Calling Build repeatedly returns
// identical output. Build does not check that Operation was called; an empty
// Builder renders as a lone closing brace.
func (b Builder) Build() Document {
	var sb strings.Builder
	for _, f := range b.fragments {
		sb.WriteString(f.text)
		sb.WriteString("\n\n")
	}
	sb.WriteString(b.text)
	sb.WriteString("}\n")

	vars := make(map[string]any, len(b.variables))
	maps.Copy(vars, b.variables)

	return Document{
		Query:     sb.String(),
		Variables: vars,
	}
}

func fieldHead(name, alias, args string) string {
	head := name
	if alias != "" {
		head = alias + ": " + name
	}
	if args != "" {
		head += "(" + args + ")"
	}
	return head
}

// Option configures CreateQuery
type Option func(*createOptions)

type createOptions struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for CreateQuery diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *createOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// CreateQuery builds a flat query selecting the given scalar fields.
//
// Each variable is declared as Int! when its value is a Go numeric type and
// String! otherwise, booleans included. Definitions are emitted in sorted
// name order. Fields that are not strings are skipped with a warning.
func CreateQuery(name string, fields []any, variables map[string]any, opts ...Option) Document {
	o := &createOptions{logger: zap.L()}
	for _, opt := range opts {
		opt(o)
	}

	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	defs := make([]string, 0, len(keys))
	for _, k := range keys {
		defs = append(defs, fmt.Sprintf("$%s: %s", k, scalarTag(variables[k])))
	}

	b := New().Operation(KindQuery, name, strings.Join(defs, ", "))
	for _, f := range fields {
		s, ok := f.(string)
		if !ok {
			o.logger.Warn("nested fields not yet implemented",
				zap.String("query", name),
				zap.String("field_type", fmt.Sprintf("%T", f)))
			continue
		}
		b = b.Field(s, "", "")
	}

	if len(variables) > 0 {
		b = b.SetVariables(variables)
	}

	return b.Build()
}

// scalarTag mirrors the numeric-or-string heuristic used for flat queries
func scalarTag(v any) string {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return "Int!"
	default:
		return "String!"
	}
}
