// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mdhender/sqlgrid"
	"github.com/mdhender/sqlgrid/grid"
	"github.com/olekukonko/tablewriter"
)

// logHost reports grid notifications to the debug log.
type logHost struct {
	logger *slog.Logger
}

func (h logHost) DirtyChanged(dirty bool)     { h.logger.Debug("dirty changed", "dirty", dirty) }
func (h logHost) SelectionChanged(rows []int) { h.logger.Debug("selection changed", "rows", rows) }

// openGrid connects to the database at path and returns an adapter bound
// to table. The caller must close the database.
func openGrid(ctx context.Context, logger *slog.Logger, prefs *sqlgrid.Store, path, table string, width int) (*grid.Adapter, *sqlgrid.Database, error) {
	db, err := sqlgrid.Connect(ctx, sqlgrid.DatabaseConfig{Path: path, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	a, err := grid.NewAdapter(grid.Config{
		Executor:   db,
		Host:       logHost{logger: logger},
		Settings:   prefs,
		Table:      table,
		Logger:     logger,
		TruncateAt: width,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return a, db, nil
}

func doShow(ctx context.Context, logger *slog.Logger, prefs *sqlgrid.Store) error {
	a, db, err := openGrid(ctx, logger, prefs, *showDB, *showTable, *showWidth)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, s := range *showFilters {
		conn, column, op, value, err := parseCondition(s)
		if err != nil {
			return err
		}
		if err := a.Filter().AddCondition(conn, column, op, value); err != nil {
			return err
		}
	}

	if a.Filter().IsEmpty() {
		err = a.LoadTable(ctx, *showTable)
	} else {
		logger.Debug("filter active", "where", a.Filter().Render())
		err = a.LoadFilteredSubset(ctx, grid.TableQuery(*showTable))
		var qe *grid.QueryError
		if errors.As(err, &qe) {
			// views have no rowid
			err = a.LoadFilteredSubset(ctx, grid.TableQueryNoRowID(*showTable))
		}
	}
	if err != nil {
		return err
	}
	render(a, true)
	return nil
}

func doQuery(ctx context.Context, logger *slog.Logger, prefs *sqlgrid.Store) error {
	a, db, err := openGrid(ctx, logger, prefs, *queryDB, "", 0)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := a.LoadQuery(ctx, *querySQL); err != nil {
		return err
	}
	render(a, false)
	return nil
}

func doSet(ctx context.Context, logger *slog.Logger, prefs *sqlgrid.Store) error {
	a, db, err := loadTable(ctx, logger, prefs, *setDB, *setTable)
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := rowIndex(a, *setRowID)
	if err != nil {
		return err
	}
	c, err := columnIndex(a, *setColumn)
	if err != nil {
		return err
	}
	if *setNull {
		err = a.SetCell(r, c, grid.NullValue())
	} else {
		err = a.SetCellText(r, c, *setValue)
	}
	if err != nil {
		return err
	}
	if !a.IsDirty() {
		fmt.Println("unchanged")
		return nil
	}
	return save(ctx, logger, a)
}

func doInsert(ctx context.Context, logger *slog.Logger, prefs *sqlgrid.Store) error {
	a, db, err := loadTable(ctx, logger, prefs, *insertDB, *insertTable)
	if err != nil {
		return err
	}
	defer db.Close()

	var r int
	if *insertFrom != 0 {
		src, err := rowIndex(a, *insertFrom)
		if err != nil {
			return err
		}
		r, err = a.CopyRow(src)
		if err != nil {
			return err
		}
	} else if r, err = a.NewRow(nil); err != nil {
		return err
	}

	for name, value := range *insertValues {
		c, err := columnIndex(a, name)
		if err != nil {
			return err
		}
		if err := a.SetCellText(r, c, value); err != nil {
			return err
		}
	}
	if err := save(ctx, logger, a); err != nil {
		return err
	}
	id, err := a.RowID(r)
	if err != nil {
		return err
	}
	fmt.Printf("inserted rowid %d\n", id)
	return nil
}

func doDelete(ctx context.Context, logger *slog.Logger, prefs *sqlgrid.Store) error {
	a, db, err := loadTable(ctx, logger, prefs, *deleteDB, *deleteTable)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, id := range *deleteRows {
		r, err := rowIndex(a, id)
		if err != nil {
			return err
		}
		if err := a.MarkForDeletion(r, true); err != nil {
			return err
		}
	}
	before := a.RowCount()
	if err := save(ctx, logger, a); err != nil {
		return err
	}
	fmt.Printf("deleted %d rows\n", before-a.RowCount())
	return nil
}

func doCopy(ctx context.Context, logger *slog.Logger, prefs *sqlgrid.Store) error {
	a, db, err := loadTable(ctx, logger, prefs, *copyDB, *copyTable)
	if err != nil {
		return err
	}
	defer db.Close()

	scope := grid.ScopeAll
	if len(*copyRows) > 0 {
		var sel []int
		for _, id := range *copyRows {
			r, err := rowIndex(a, id)
			if err != nil {
				return err
			}
			sel = append(sel, r)
		}
		if err := a.SetSelection(sel); err != nil {
			return err
		}
		scope = grid.ScopeSelected
	}

	text, err := a.CopySelection(scope, *copySQL)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

func doPrefsList(ctx context.Context, prefs *sqlgrid.Store) error {
	all, err := prefs.All(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"key", "value"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, k := range keys {
		table.Append([]string{k, all[k]})
	}
	table.Render()
	return nil
}

func doLimit(ctx context.Context, prefs *sqlgrid.Store) error {
	n := *limitRows
	if n <= 0 {
		return prefs.Unset(ctx, grid.SettingRowLimit)
	}
	return prefs.Set(ctx, grid.SettingRowLimit, strconv.Itoa(n))
}

// loadTable opens the database and loads every row of table, ignoring the
// row limit so that any rowid can be addressed.
func loadTable(ctx context.Context, logger *slog.Logger, prefs *sqlgrid.Store, path, table string) (*grid.Adapter, *sqlgrid.Database, error) {
	a, db, err := openGrid(ctx, logger, prefs, path, table, 0)
	if err != nil {
		return nil, nil, err
	}
	if err := a.LoadQuery(ctx, grid.TableQuery(table)); err != nil {
		db.Close()
		return nil, nil, err
	}
	if !a.Editable() {
		db.Close()
		return nil, nil, fmt.Errorf("%s: %w", table, grid.ErrReadOnly)
	}
	return a, db, nil
}

func save(ctx context.Context, logger *slog.Logger, a *grid.Adapter) error {
	for _, s := range a.PendingStatements() {
		logger.Debug("pending", "kind", s.Kind.String(), "sql", s.SQL, "row", s.Row)
	}
	return a.Save(ctx)
}

// render prints the loaded result as a table.
func render(a *grid.Adapter, withRowID bool) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	header := a.RuntimeColumns()
	if withRowID && a.Editable() {
		header = append([]string{"rowid"}, header...)
	}
	table.SetHeader(header)

	for r := 0; r < a.RowCount(); r++ {
		row := make([]string, 0, len(header))
		if withRowID && a.Editable() {
			id, _ := a.RowID(r)
			row = append(row, strconv.FormatInt(id, 10))
		}
		for c := 0; c < a.ColumnCount(); c++ {
			row = append(row, a.CellText(r, c))
		}
		table.Append(row)
	}
	table.SetCaption(true, fmt.Sprintf("%d rows", a.RowCount()))
	table.Render()
}

// parseCondition parses "[and|or] column op value".
func parseCondition(s string) (grid.Connector, string, grid.Operator, string, error) {
	fields := strings.Fields(s)
	conn := grid.None
	if len(fields) > 0 {
		switch strings.ToLower(fields[0]) {
		case "and", "or":
			conn, _ = grid.ParseConnector(fields[0])
			fields = fields[1:]
		}
	}
	if len(fields) < 3 {
		return grid.None, "", grid.Eq, "", fmt.Errorf("filter %q: want [and|or] column op value", s)
	}
	op, err := grid.ParseOperator(fields[1])
	if err != nil {
		return grid.None, "", grid.Eq, "", fmt.Errorf("filter %q: %w", s, err)
	}
	return conn, fields[0], op, strings.Join(fields[2:], " "), nil
}

func rowIndex(a *grid.Adapter, id int64) (int, error) {
	r, ok := a.RowIndex(id)
	if !ok {
		return 0, fmt.Errorf("rowid %d: %w", id, grid.ErrUnknownRow)
	}
	return r, nil
}

func columnIndex(a *grid.Adapter, name string) (int, error) {
	for c, col := range a.RuntimeColumns() {
		if strings.EqualFold(col, name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("no column %q in %s", name, a.Table())
}
