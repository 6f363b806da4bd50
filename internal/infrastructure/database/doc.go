// Package database provides SQLite connectivity for the play history.
//
// This package manages:
//   - The connection, with WAL mode and a busy timeout
//   - Versioned schema migrations read from an fs.FS
//   - Transactions via InTx
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be nullable or carry a default,
// and every .up.sql should ship with a .down.sql.
package database
