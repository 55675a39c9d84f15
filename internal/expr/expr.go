// Package expr implements the conditional-value mini-language used for
// per-viewer field text and for verification/archive destinations:
//
//	{{DEFAULT "fallback" HASROLE(111,222) SAYS "for staff" HASANYROLE(333) SAYS "for members"}}
//
// Clauses are evaluated in source order against the viewer's role set; the
// first clause whose predicate holds wins, otherwise the DEFAULT string is
// the result. Keywords are case-insensitive.
package expr

import (
	"errors"
	"fmt"
	"strings"
)

// FieldValuePlaceholder is what a FIELDVALUE(...) clause renders as.
// Cross-field substitution is accepted by the grammar but not implemented.
const FieldValuePlaceholder = "[field value]"

var ErrNotExpression = errors.New("text is not expression-shaped")

type CommandKind int

const (
	CmdHasRole CommandKind = iota
	CmdHasAnyRole
	CmdFieldValue
)

func (k CommandKind) String() string {
	switch k {
	case CmdHasRole:
		return "HASROLE"
	case CmdHasAnyRole:
		return "HASANYROLE"
	case CmdFieldValue:
		return "FIELDVALUE"
	}
	return "UNKNOWN"
}

// RoleSet is the viewer's set of platform role ids.
type RoleSet map[string]struct{}

func NewRoleSet(ids ...string) RoleSet {
	s := make(RoleSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

type Command struct {
	Kind CommandKind
	IDs  []string
}

type Clause struct {
	Command Command
	Says    string
}

type Expression struct {
	Default string
	Clauses []Clause
}

// IsExpression reports whether the text is shaped like an expression, i.e.
// wrapped in {{ }}. It says nothing about validity: malformed expression
// text is still expression-shaped and must be reported as such, never
// silently rendered as a literal.
func IsExpression(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "{{") && strings.HasSuffix(t, "}}") && len(t) >= 4
}

// IsValid reports whether the text parses as a complete expression.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Describe classifies text for status views: "literal", "expression" or
// "malformed expression".
func Describe(s string) string {
	if !IsExpression(s) {
		return "literal"
	}
	if IsValid(s) {
		return "expression"
	}
	return "malformed expression"
}

// Parse parses expression-shaped text against the full grammar. It returns
// ErrNotExpression for text without the {{ }} delimiters, and a descriptive
// error for expression-shaped text that does not parse.
func Parse(s string) (*Expression, error) {
	if !IsExpression(s) {
		return nil, ErrNotExpression
	}
	p := &parser{lex: newLexer(strings.TrimSpace(s))}
	e, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("malformed expression: %w", err)
	}
	return e, nil
}

// Evaluate resolves the expression against a viewer's role set. The first
// clause whose command holds wins; HASROLE requires all listed ids,
// HASANYROLE at least one, FIELDVALUE always matches and yields the fixed
// placeholder. No match falls through to the DEFAULT string.
func (e *Expression) Evaluate(roles RoleSet) string {
	for _, c := range e.Clauses {
		switch c.Command.Kind {
		case CmdHasRole:
			if hasAll(roles, c.Command.IDs) {
				return c.Says
			}
		case CmdHasAnyRole:
			if hasAny(roles, c.Command.IDs) {
				return c.Says
			}
		case CmdFieldValue:
			return FieldValuePlaceholder
		}
	}
	return e.Default
}

// EvaluateText renders any stored text for a viewer: literals pass through,
// valid expressions evaluate, malformed expressions return an error.
func EvaluateText(s string, roles RoleSet) (string, error) {
	if !IsExpression(s) {
		return s, nil
	}
	e, err := Parse(s)
	if err != nil {
		return "", err
	}
	return e.Evaluate(roles), nil
}

func hasAll(roles RoleSet, ids []string) bool {
	for _, id := range ids {
		if !roles.Has(id) {
			return false
		}
	}
	return true
}

func hasAny(roles RoleSet, ids []string) bool {
	for _, id := range ids {
		if roles.Has(id) {
			return true
		}
	}
	return false
}
