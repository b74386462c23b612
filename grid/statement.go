// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"regexp"
	"strings"
)

// StatementKind identifies the DML operation of a generated statement.
type StatementKind int

const (
	Delete StatementKind = iota
	Update
	Insert
)

func (k StatementKind) String() string {
	switch k {
	case Delete:
		return "DELETE"
	case Update:
		return "UPDATE"
	case Insert:
		return "INSERT"
	}
	return "UNKNOWN"
}

// Statement is one parameterized write generated from the pending changes.
// Row and RowID identify the model row it was built from.
type Statement struct {
	Kind  StatementKind
	SQL   string
	Args  []any
	Row   int
	RowID int64
}

// reIdentifier matches names that can be used without quoting.
var reIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sqlKeywords that look like plain identifiers but must be quoted.
var sqlKeywords = map[string]bool{
	"and": true, "as": true, "by": true, "case": true, "check": true,
	"default": true, "delete": true, "from": true, "group": true,
	"in": true, "index": true, "insert": true, "is": true, "join": true,
	"key": true, "like": true, "limit": true, "not": true, "null": true,
	"or": true, "order": true, "select": true, "set": true, "table": true,
	"to": true, "update": true, "values": true, "where": true,
}

// QuoteIdent returns name quoted for use as an SQL identifier. Plain names
// that are not keywords are returned as is.
func QuoteIdent(name string) string {
	if reIdentifier.MatchString(name) && !sqlKeywords[strings.ToLower(name)] {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func deleteStatement(table string, r int, id int64) Statement {
	return Statement{
		Kind:  Delete,
		SQL:   "DELETE FROM " + QuoteIdent(table) + " WHERE rowid = ?",
		Args:  []any{id},
		Row:   r,
		RowID: id,
	}
}

func updateStatement(table string, cols []Column, r int, id int64, edits []Edit) Statement {
	var sb strings.Builder
	args := make([]any, 0, len(edits)+1)
	sb.WriteString("UPDATE ")
	sb.WriteString(QuoteIdent(table))
	sb.WriteString(" SET ")
	for i, e := range edits {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(QuoteIdent(cols[e.Column].Name))
		sb.WriteString(" = ?")
		args = append(args, e.New.Arg())
	}
	sb.WriteString(" WHERE rowid = ?")
	args = append(args, id)
	return Statement{Kind: Update, SQL: sb.String(), Args: args, Row: r, RowID: id}
}

func insertStatement(table string, cols []Column, r int, id int64, values []Value) Statement {
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		names[i] = QuoteIdent(col.Name)
		marks[i] = "?"
		args[i] = values[i].Arg()
	}
	sql := "INSERT INTO " + QuoteIdent(table) +
		" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	return Statement{Kind: Insert, SQL: sql, Args: args, Row: r, RowID: id}
}

// insertLiteral renders a self-contained INSERT with literal values, for
// copying rows to the clipboard.
func insertLiteral(table string, cols []Column, values []Value) string {
	names := make([]string, len(cols))
	lits := make([]string, len(cols))
	for i, col := range cols {
		names[i] = QuoteIdent(col.Name)
		lits[i] = values[i].Literal()
	}
	return "INSERT INTO " + QuoteIdent(table) +
		" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(lits, ", ") + ");"
}
