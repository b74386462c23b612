// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Command sqlgrid browses and edits SQLite tables from the command line
// using the same edit and commit engine as the grid views.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/mdhender/sqlgrid"
)

var (
	app = kingpin.New("sqlgrid", "Browse and edit SQLite tables.")

	prefsPath = app.Flag("prefs", "Preferences database.").
			Envar("SQLGRID_PREFS").String()
	verbose = app.Flag("verbose", "Enable debug logging.").Short('v').Bool()

	showCmd     = app.Command("show", "Show the rows of a table.")
	showDB      = showCmd.Arg("db", "Database file.").Required().ExistingFile()
	showTable   = showCmd.Arg("table", "Table name.").Required().String()
	showFilters = showCmd.Flag("filter", `Filter condition "[and|or] column op value"; repeatable.`).Short('f').Strings()
	showWidth   = showCmd.Flag("width", "Truncate cell text to this many characters.").Default("40").Int()

	queryCmd = app.Command("query", "Run a query and show its result.")
	queryDB  = queryCmd.Arg("db", "Database file.").Required().ExistingFile()
	querySQL = queryCmd.Arg("sql", "Query text.").Required().String()

	setCmd    = app.Command("set", "Change one cell of a row.")
	setDB     = setCmd.Arg("db", "Database file.").Required().ExistingFile()
	setTable  = setCmd.Arg("table", "Table name.").Required().String()
	setRowID  = setCmd.Arg("rowid", "Row identifier.").Required().Int64()
	setColumn = setCmd.Arg("column", "Column name.").Required().String()
	setValue  = setCmd.Arg("value", "New value.").Required().String()
	setNull   = setCmd.Flag("null", "Store NULL instead of the value.").Bool()

	insertCmd    = app.Command("insert", "Insert a row.")
	insertDB     = insertCmd.Arg("db", "Database file.").Required().ExistingFile()
	insertTable  = insertCmd.Arg("table", "Table name.").Required().String()
	insertValues = insertCmd.Arg("values", "column=value pairs.").Required().StringMap()
	insertFrom   = insertCmd.Flag("copy", "Start from a copy of this row.").Int64()

	deleteCmd   = app.Command("delete", "Delete rows.")
	deleteDB    = deleteCmd.Arg("db", "Database file.").Required().ExistingFile()
	deleteTable = deleteCmd.Arg("table", "Table name.").Required().String()
	deleteRows  = deleteCmd.Arg("rowid", "Row identifiers.").Required().Int64List()

	copyCmd   = app.Command("copy", "Print rows as tab-delimited text or INSERT statements.")
	copyDB    = copyCmd.Arg("db", "Database file.").Required().ExistingFile()
	copyTable = copyCmd.Arg("table", "Table name.").Required().String()
	copyRows  = copyCmd.Flag("row", "Row identifier to copy; repeatable. Default: all rows.").Int64List()
	copySQL   = copyCmd.Flag("sql", "Print INSERT statements.").Bool()

	prefsCmd      = app.Command("prefs", "Show or change preferences.")
	prefsListCmd  = prefsCmd.Command("list", "List preferences.").Default()
	prefsSetCmd   = prefsCmd.Command("set", "Set a preference.")
	prefsSetKey   = prefsSetCmd.Arg("key", "Preference key.").Required().String()
	prefsSetValue = prefsSetCmd.Arg("value", "Preference value.").Required().String()
	prefsUnsetCmd = prefsCmd.Command("unset", "Remove a preference.")
	prefsUnsetKey = prefsUnsetCmd.Arg("key", "Preference key.").Required().String()
	limitCmd      = prefsCmd.Command("limit", "Set the row limit for table views; 0 removes it.")
	limitRows     = limitCmd.Arg("rows", "Maximum rows.").Required().Int()

	versionCmd = app.Command("version", "Show version information.")
)

func main() {
	app.HelpFlag.Short('h')
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(context.Background(), command, logger); err != nil {
		fmt.Fprintf(os.Stderr, "sqlgrid: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, logger *slog.Logger) error {
	if command == versionCmd.FullCommand() {
		fmt.Println(sqlgrid.VersionString())
		return nil
	}

	prefs, err := openPrefs(ctx, logger)
	if err != nil {
		return err
	}
	defer prefs.Close()

	switch command {
	case showCmd.FullCommand():
		return doShow(ctx, logger, prefs)
	case queryCmd.FullCommand():
		return doQuery(ctx, logger, prefs)
	case setCmd.FullCommand():
		return doSet(ctx, logger, prefs)
	case insertCmd.FullCommand():
		return doInsert(ctx, logger, prefs)
	case deleteCmd.FullCommand():
		return doDelete(ctx, logger, prefs)
	case copyCmd.FullCommand():
		return doCopy(ctx, logger, prefs)
	case prefsListCmd.FullCommand():
		return doPrefsList(ctx, prefs)
	case prefsSetCmd.FullCommand():
		return prefs.Set(ctx, *prefsSetKey, *prefsSetValue)
	case prefsUnsetCmd.FullCommand():
		return prefs.Unset(ctx, *prefsUnsetKey)
	case limitCmd.FullCommand():
		return doLimit(ctx, prefs)
	}
	return fmt.Errorf("unknown command %q", command)
}

// openPrefs opens the preferences store, defaulting to the user's config
// directory.
func openPrefs(ctx context.Context, logger *slog.Logger) (*sqlgrid.Store, error) {
	path := *prefsPath
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config directory: %w", err)
		}
		path = filepath.Join(dir, "sqlgrid", "prefs.db")
	}
	return sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{
		Path:       path,
		Logger:     logger,
		AppVersion: sqlgrid.VersionString(),
	})
}
