// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"fmt"
	"strings"
)

// Connector joins a condition to the one before it.
type Connector int

const (
	None Connector = iota
	And
	Or
)

func (c Connector) String() string {
	switch c {
	case And:
		return "AND"
	case Or:
		return "OR"
	}
	return ""
}

// ParseConnector accepts "", "none", "and" and "or" in any case.
func ParseConnector(s string) (Connector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "and":
		return And, nil
	case "or":
		return Or, nil
	}
	return None, fmt.Errorf("unknown connector %q", s)
}

// Operator compares a column with a literal.
type Operator int

const (
	Eq Operator = iota
	Ne
	Gt
	Lt
	Ge
	Le
	Like
)

var operatorText = [...]string{
	Eq:   "=",
	Ne:   "<>",
	Gt:   ">",
	Lt:   "<",
	Ge:   ">=",
	Le:   "<=",
	Like: "LIKE",
}

func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorText) {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorText[o]
}

// ParseOperator accepts the operator spellings offered by the filter UI.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "=", "==":
		return Eq, nil
	case "<>", "!=":
		return Ne, nil
	case ">":
		return Gt, nil
	case "<":
		return Lt, nil
	case ">=":
		return Ge, nil
	case "<=":
		return Le, nil
	case "like":
		return Like, nil
	}
	return Eq, fmt.Errorf("unknown operator %q", s)
}

// Condition is one predicate of the filter chain.
type Condition struct {
	Connector Connector
	Column    string
	Operator  Operator
	Value     string
}

// Filter is an ordered chain of conditions joined left to right by AND/OR.
// There is no grouping; "a OR b AND c" is rendered exactly in that order and
// evaluated with SQLite's own precedence.
type Filter struct {
	conds []Condition
}

func NewFilter() *Filter { return &Filter{} }

// AddCondition appends a condition. The connector of the first condition is
// always None.
func (f *Filter) AddCondition(conn Connector, column string, op Operator, value string) error {
	if strings.TrimSpace(column) == "" {
		return fmt.Errorf("filter column: %w", ErrEmptyValue)
	}
	if value == "" {
		return fmt.Errorf("filter on %s: %w", column, ErrEmptyValue)
	}
	if op < Eq || op > Like {
		return fmt.Errorf("filter on %s: invalid operator %d", column, int(op))
	}
	if conn != And && conn != Or {
		conn = None
	}
	if len(f.conds) == 0 {
		conn = None
	} else if conn == None {
		conn = And
	}
	f.conds = append(f.conds, Condition{Connector: conn, Column: column, Operator: op, Value: value})
	return nil
}

// RemoveCondition removes the condition at index i.
func (f *Filter) RemoveCondition(i int) error {
	if i < 0 || i >= len(f.conds) {
		return outOfRange("condition", i, len(f.conds))
	}
	f.conds = append(f.conds[:i], f.conds[i+1:]...)
	if len(f.conds) > 0 {
		f.conds[0].Connector = None
	}
	return nil
}

// Conditions returns a copy of the chain.
func (f *Filter) Conditions() []Condition {
	return append([]Condition(nil), f.conds...)
}

func (f *Filter) IsEmpty() bool { return len(f.conds) == 0 }

func (f *Filter) Clear() { f.conds = nil }

// Render returns the chain as an SQL boolean expression, or "" when empty.
func (f *Filter) Render() string {
	var sb strings.Builder
	for i, c := range f.conds {
		if i > 0 {
			sb.WriteByte(' ')
			sb.WriteString(c.Connector.String())
			sb.WriteByte(' ')
		}
		sb.WriteString(QuoteIdent(c.Column))
		sb.WriteByte(' ')
		sb.WriteString(c.Operator.String())
		sb.WriteByte(' ')
		value := c.Value
		if c.Operator == Like && !strings.ContainsAny(value, "%_") {
			value = "%" + value + "%"
		}
		sb.WriteString(quoteString(value))
	}
	return sb.String()
}

// Apply wraps query so that only rows matching the chain are returned.
func (f *Filter) Apply(query string) string {
	if f.IsEmpty() {
		return query
	}
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	return "SELECT * FROM (" + query + ") WHERE " + f.Render()
}
