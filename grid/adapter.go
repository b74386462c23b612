// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// SettingRowLimit is the settings key of the row limit preference.
const SettingRowLimit = "grid.row_limit"

// ResultSet is the raw output of a query.
type ResultSet struct {
	Columns []string
	Rows    [][]Value
}

// Executor runs queries and write batches against the database.
type Executor interface {
	Writer
	Query(ctx context.Context, query string) (*ResultSet, error)
}

// Host is notified of changes the grid control must reflect.
type Host interface {
	DirtyChanged(dirty bool)
	SelectionChanged(rows []int)
}

// Settings is a key/value preference store. Get returns "" for unset keys.
type Settings interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Config holds the collaborators and display options of an Adapter.
type Config struct {
	// Executor runs queries and commits. Required.
	Executor Executor

	// Host receives dirty and selection notifications. Optional.
	Host Host

	// Settings supplies the row limit preference. Optional.
	Settings Settings

	// Table is the commit target. Leave empty for read-only query results;
	// LoadTable sets it.
	Table string

	// Logger for operational logging. Uses slog.Default() if nil.
	Logger *slog.Logger

	// TruncateAt limits displayed text to this many runes. Zero uses the
	// default of 256; a negative value disables truncation.
	TruncateAt int

	// NullText is displayed for null cells. Default: "(NULL)".
	NullText string
}

// defaults returns a copy of cfg with default values applied.
func (cfg Config) defaults() Config {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TruncateAt == 0 {
		cfg.TruncateAt = 256
	}
	if cfg.NullText == "" {
		cfg.NullText = "(NULL)"
	}
	return cfg
}

// Scope selects the rows CopySelection serializes.
type Scope int

const (
	ScopeSelected Scope = iota
	ScopeAll
)

// Adapter is what the grid control and dialogs talk to. It owns the loaded
// result, its pending edits and row lifecycle, and the filter chain. An
// Adapter is not safe for concurrent use; it belongs to the UI goroutine.
type Adapter struct {
	cfg       Config
	table     string
	model     *Model
	edits     *EditTracker
	rows      *RowManager
	filter    *Filter
	selection []int
	dirty     bool
}

// NewAdapter returns an adapter holding an empty result.
func NewAdapter(cfg Config) (*Adapter, error) {
	cfg = cfg.defaults()
	if cfg.Executor == nil {
		return nil, fmt.Errorf("grid: executor is required")
	}
	a := &Adapter{cfg: cfg, table: cfg.Table, filter: NewFilter()}
	a.model, a.edits, a.rows = newState(NewModel(), a.table)
	return a, nil
}

func newState(model *Model, table string) (*Model, *EditTracker, *RowManager) {
	edits := NewEditTracker(model, nil)
	rows := NewRowManager(model, edits, table)
	edits.rows = rows
	return model, edits, rows
}

// TableQuery returns the query that loads every row of table together with
// its rowid in the reserved first column.
func TableQuery(table string) string {
	return `SELECT rowid AS "` + RowIDColumn + `", * FROM ` + QuoteIdent(table)
}

// LoadQuery runs query and replaces the result. Pending edits, provisional
// rows, delete marks, the selection and the filter chain are discarded.
// On failure nothing changes.
func (a *Adapter) LoadQuery(ctx context.Context, query string) error {
	if err := a.load(ctx, query, a.table); err != nil {
		return err
	}
	a.filter.Clear()
	return nil
}

// TableQueryNoRowID returns the query that loads every row of a view or a
// WITHOUT ROWID table. Its result is read-only.
func TableQueryNoRowID(table string) string {
	return "SELECT * FROM " + QuoteIdent(table)
}

// LoadTable loads the rows of table, honouring the row limit preference,
// and makes table the commit target. The filter chain is cleared.
//
// A source without a rowid, such as a view, is loaded read-only.
func (a *Adapter) LoadTable(ctx context.Context, table string) error {
	if table == "" {
		return ErrNoTable
	}
	err := a.loadLimited(ctx, TableQuery(table), table)
	var qe *QueryError
	if errors.As(err, &qe) {
		a.cfg.Logger.Debug("loading without rowid", "table", table, "err", err)
		err = a.loadLimited(ctx, TableQueryNoRowID(table), table)
	}
	if err != nil {
		return err
	}
	a.filter.Clear()
	return nil
}

func (a *Adapter) loadLimited(ctx context.Context, query, table string) error {
	query, err := a.limited(ctx, query)
	if err != nil {
		return err
	}
	return a.load(ctx, query, table)
}

// LoadFilteredSubset loads the rows of baseQuery that match the filter
// chain. The chain itself is kept.
func (a *Adapter) LoadFilteredSubset(ctx context.Context, baseQuery string) error {
	return a.loadLimited(ctx, a.filter.Apply(baseQuery), a.table)
}

func (a *Adapter) load(ctx context.Context, query, table string) error {
	a.cfg.Logger.Debug("loading result", "query", query)
	rs, err := a.cfg.Executor.Query(ctx, query)
	if err != nil {
		var qe *QueryError
		if errors.As(err, &qe) {
			return err
		}
		return &QueryError{Message: err.Error(), SQL: query, Err: err}
	}
	model := NewModel()
	if err := model.Load(rs.Columns, rs.Rows); err != nil {
		return fmt.Errorf("load result: %w", err)
	}

	a.table = table
	a.model, a.edits, a.rows = newState(model, table)
	a.setSelection(nil)
	a.notifyDirty()
	a.cfg.Logger.Debug("result loaded", "rows", model.RowCount(), "columns", model.ColumnCount(), "editable", a.Editable())
	return nil
}

// limited appends the row limit preference to query, if one is set.
func (a *Adapter) limited(ctx context.Context, query string) (string, error) {
	n, err := a.RowLimit(ctx)
	if err != nil || n <= 0 {
		return query, err
	}
	return query + " LIMIT " + strconv.Itoa(n), nil
}

// RowLimit returns the stored row limit preference; zero means no limit.
func (a *Adapter) RowLimit(ctx context.Context) (int, error) {
	if a.cfg.Settings == nil {
		return 0, nil
	}
	s, err := a.cfg.Settings.Get(ctx, SettingRowLimit)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", SettingRowLimit, err)
	}
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		a.cfg.Logger.Warn("ignoring invalid row limit", "value", s)
		return 0, nil
	}
	return n, nil
}

// SetRowLimit stores the row limit preference used by later loads.
func (a *Adapter) SetRowLimit(ctx context.Context, n int) error {
	if a.cfg.Settings == nil {
		return fmt.Errorf("no settings store")
	}
	if n < 0 {
		n = 0
	}
	return a.cfg.Settings.Set(ctx, SettingRowLimit, strconv.Itoa(n))
}

func (a *Adapter) Table() string    { return a.table }
func (a *Adapter) RowCount() int    { return a.model.RowCount() }
func (a *Adapter) ColumnCount() int { return a.model.ColumnCount() }
func (a *Adapter) Filter() *Filter  { return a.filter }

func (a *Adapter) ColumnName(c int) (string, error) { return a.model.ColumnName(c) }

// RowID returns the row identifier of row r; negative for provisional rows.
func (a *Adapter) RowID(r int) (int64, error) { return a.model.RowIdentifier(r) }

// RowIndex returns the index of the row with the given identifier.
func (a *Adapter) RowIndex(id int64) (int, bool) { return a.model.IndexOf(id) }

// Editable reports whether the result can be changed and saved.
func (a *Adapter) Editable() bool {
	return a.table != "" && a.model.HasRowIDs()
}

// DisplayCell returns the text the grid shows for cell (r, c): the pending
// value if the cell was edited, else the loaded value, with placeholders for
// null and blob values and long text truncated.
func (a *Adapter) DisplayCell(r, c int) (string, error) {
	v, err := a.edits.Current(r, c)
	if err != nil {
		return "", err
	}
	return formatCell(v, a.cfg.NullText, a.cfg.TruncateAt), nil
}

// CellText is the grid control's pull callback. Cells outside the result
// are blank.
func (a *Adapter) CellText(r, c int) string {
	s, _ := a.DisplayCell(r, c)
	return s
}

// Value returns the current typed value of cell (r, c).
func (a *Adapter) Value(r, c int) (Value, error) {
	return a.edits.Current(r, c)
}

// SetCell records an edit of cell (r, c).
func (a *Adapter) SetCell(r, c int, v Value) error {
	if !a.Editable() {
		return ErrReadOnly
	}
	if err := a.edits.RecordEdit(r, c, v); err != nil {
		return err
	}
	a.notifyDirty()
	return nil
}

// SetCellText records an edit of cell (r, c) from the text typed into the
// grid. The text keeps the storage class of the value it replaces when it
// parses as one; typing nothing into a null cell leaves it null.
func (a *Adapter) SetCellText(r, c int, text string) error {
	cur, err := a.edits.Current(r, c)
	if err != nil {
		return err
	}
	if cur.IsNull() && text == "" {
		return a.SetCell(r, c, cur)
	}
	return a.SetCell(r, c, ParseValue(text, a.columnKind(r, c, cur)))
}

// columnKind guesses the storage class of column c, preferring the cell's
// own value and falling back to the first non-null value in the column.
func (a *Adapter) columnKind(r, c int, cur Value) Kind {
	if !cur.IsNull() {
		return cur.Kind
	}
	for i := 0; i < a.model.RowCount(); i++ {
		if i == r {
			continue
		}
		if v, err := a.model.CellValue(i, c); err == nil && !v.IsNull() {
			return v.Kind
		}
	}
	return Text
}

// NewRow appends a provisional row and returns its index.
func (a *Adapter) NewRow(defaults []Value) (int, error) {
	if !a.Editable() {
		return 0, ErrReadOnly
	}
	r, err := a.rows.CreateNewRow(defaults)
	if err != nil {
		return 0, err
	}
	a.notifyDirty()
	return r, nil
}

// CopyRow appends a provisional copy of row r and returns its index.
func (a *Adapter) CopyRow(r int) (int, error) {
	if !a.Editable() {
		return 0, ErrReadOnly
	}
	n, err := a.rows.CopyRow(r)
	if err != nil {
		return 0, err
	}
	a.notifyDirty()
	return n, nil
}

// MarkForDeletion sets or clears the delete mark of row r. A provisional
// row is removed at once, which shifts the rows after it.
func (a *Adapter) MarkForDeletion(r int, flag bool) error {
	if !a.Editable() {
		return ErrReadOnly
	}
	id, err := a.model.RowIdentifier(r)
	if err != nil {
		return err
	}
	removed := flag && a.rows.fresh[id]
	if err := a.rows.MarkForDeletion(id, flag); err != nil {
		return err
	}
	if removed {
		a.setSelection(nil)
	}
	a.notifyDirty()
	return nil
}

// RowState returns the lifecycle state of row r.
func (a *Adapter) RowState(r int) (RowState, error) {
	return a.rows.State(r)
}

// IsDirty reports whether anything is waiting to be saved.
func (a *Adapter) IsDirty() bool { return a.edits.IsDirty() }

// Edits returns the pending cell edits ordered by row then column.
func (a *Adapter) Edits() []Edit { return a.edits.ListEdits() }

// PendingStatements returns the statements Save would execute.
func (a *Adapter) PendingStatements() []Statement { return a.rows.Statements() }

// Save writes all pending changes in one transaction. On failure the
// pending state is kept unchanged so the caller can retry or cancel. An
// error wrapping ErrRowIDs means the changes were saved and nothing is
// pending.
func (a *Adapter) Save(ctx context.Context) error {
	if !a.IsDirty() {
		return nil
	}
	removesRows := len(a.rows.deleted) > 0
	if err := a.rows.Commit(ctx, a.cfg.Executor); err != nil {
		if !errors.Is(err, ErrRowIDs) {
			a.cfg.Logger.Error("save failed", "table", a.table, "err", err)
			return err
		}
		a.cfg.Logger.Warn("saved with missing row ids", "table", a.table, "err", err)
		a.setSelection(nil)
		a.notifyDirty()
		return err
	}
	if removesRows {
		a.setSelection(nil)
	}
	a.cfg.Logger.Info("saved", "table", a.table, "rows", a.model.RowCount())
	a.notifyDirty()
	return nil
}

// Cancel discards all pending changes: edits are reverted, provisional rows
// removed and delete marks cleared. It returns the reverted cell edits so
// the host can repaint them.
func (a *Adapter) Cancel() []Edit {
	hadNew := len(a.rows.fresh) > 0
	reverted := a.edits.CancelAll()
	a.rows.CancelAll()
	if hadNew {
		a.setSelection(nil)
	}
	a.notifyDirty()
	return reverted
}

// SetSelection records the selected rows and notifies the host.
func (a *Adapter) SetSelection(rows []int) error {
	for _, r := range rows {
		if r < 0 || r >= a.model.RowCount() {
			return outOfRange("row", r, a.model.RowCount())
		}
	}
	a.setSelection(rows)
	return nil
}

// Selection returns the selected rows in ascending order.
func (a *Adapter) Selection() []int {
	return append([]int(nil), a.selection...)
}

func (a *Adapter) setSelection(rows []int) {
	if len(rows) == 0 && len(a.selection) == 0 {
		return
	}
	sel := make([]int, 0, len(rows))
	seen := make(map[int]bool, len(rows))
	for _, r := range rows {
		if !seen[r] {
			seen[r] = true
			sel = append(sel, r)
		}
	}
	sort.Ints(sel)
	a.selection = sel
	if a.cfg.Host != nil {
		a.cfg.Host.SelectionChanged(a.Selection())
	}
}

func (a *Adapter) notifyDirty() {
	d := a.edits.IsDirty()
	if d == a.dirty {
		return
	}
	a.dirty = d
	if a.cfg.Host != nil {
		a.cfg.Host.DirtyChanged(d)
	}
}

// RuntimeColumns returns the visible column names.
func (a *Adapter) RuntimeColumns() []string {
	names := make([]string, a.model.ColumnCount())
	for i, c := range a.model.columns {
		names[i] = c.Name
	}
	return names
}

// RuntimeData returns a snapshot of the current values, pending edits and
// provisional rows included. The snapshot shares no memory with the adapter.
func (a *Adapter) RuntimeData() [][]Value {
	data := make([][]Value, a.model.RowCount())
	for r := range data {
		data[r] = a.rowValues(r)
	}
	return data
}

func (a *Adapter) rowValues(r int) []Value {
	row := make([]Value, a.model.ColumnCount())
	for c := range row {
		row[c], _ = a.edits.Current(r, c)
	}
	return row
}

// CopySelection serializes rows for the clipboard, either as tab-delimited
// text with a header line or as one INSERT statement per row.
func (a *Adapter) CopySelection(scope Scope, asSQL bool) (string, error) {
	var rows []int
	switch scope {
	case ScopeAll:
		rows = make([]int, a.model.RowCount())
		for i := range rows {
			rows[i] = i
		}
	case ScopeSelected:
		rows = a.Selection()
	default:
		return "", fmt.Errorf("unknown copy scope %d", int(scope))
	}

	if !asSQL {
		return copyText(a.RuntimeColumns(), rows, a.rowValues)
	}
	if a.table == "" {
		return "", ErrNoTable
	}
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(insertLiteral(a.table, a.model.columns, a.rowValues(r)))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
