package query

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

var (
	// ErrSyntax is returned when a document does not parse as GraphQL
	ErrSyntax = errors.New("graphql syntax error")
	// ErrOperationCount is returned when a document holds other than one operation
	ErrOperationCount = errors.New("document must contain exactly one operation")
	// ErrUndeclaredVariable is returned when the body uses a variable the operation does not declare
	ErrUndeclaredVariable = errors.New("undeclared variable")
)

// Validate checks that doc is well-formed GraphQL holding a single operation
// whose body only references declared variables. It is a syntax check; no
// schema is consulted.
func Validate(doc Document) error {
	qd, err := parse(doc)
	if err != nil {
		return err
	}

	op := qd.Operations[0]
	used := collectVariables(qd)
	for _, name := range used {
		if op.VariableDefinitions.ForName(name) == nil {
			return fmt.Errorf("%w: $%s", ErrUndeclaredVariable, name)
		}
	}
	return nil
}

// ReferencedVariables returns the sorted, de-duplicated names of every
// variable used in the operation body and its fragments
func ReferencedVariables(doc Document) ([]string, error) {
	qd, err := parse(doc)
	if err != nil {
		return nil, err
	}
	return collectVariables(qd), nil
}

func parse(doc Document) (*ast.QueryDocument, error) {
	qd, err := parser.ParseQuery(&ast.Source{Name: "document", Input: doc.Query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(qd.Operations) != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrOperationCount, len(qd.Operations))
	}
	return qd, nil
}

func collectVariables(qd *ast.QueryDocument) []string {
	seen := make(map[string]struct{})
	for _, op := range qd.Operations {
		walkDirectives(op.Directives, seen)
		walkSelections(op.SelectionSet, seen)
	}
	for _, frag := range qd.Fragments {
		walkDirectives(frag.Directives, seen)
		walkSelections(frag.SelectionSet, seen)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func walkSelections(set ast.SelectionSet, seen map[string]struct{}) {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			for _, arg := range s.Arguments {
				walkValue(arg.Value, seen)
			}
			walkDirectives(s.Directives, seen)
			walkSelections(s.SelectionSet, seen)
		case *ast.InlineFragment:
			walkDirectives(s.Directives, seen)
			walkSelections(s.SelectionSet, seen)
		case *ast.FragmentSpread:
			walkDirectives(s.Directives, seen)
		}
	}
}

func walkDirectives(list ast.DirectiveList, seen map[string]struct{}) {
	for _, d := range list {
		for _, arg := range d.Arguments {
			walkValue(arg.Value, seen)
		}
	}
}

func walkValue(v *ast.Value, seen map[string]struct{}) {
	if v == nil {
		return
	}
	if v.Kind == ast.Variable {
		seen[v.Raw] = struct{}{}
		return
	}
	for _, child := range v.Children {
		walkValue(child.Value, seen)
	}
}
