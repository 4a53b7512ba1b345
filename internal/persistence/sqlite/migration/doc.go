// Package migration applies versioned schema changes to the SQLite store.
//
// Migration files are embedded into the binary and follow the naming
// convention {version}_{description}.sql (e.g. "001_create_users.sql"). Each
// file runs inside its own transaction and is recorded in the
// schema_migrations table so it is applied exactly once.
//
// Example usage:
//
//	scanner := NewFileScanner(Files)
//	executor := NewSQLiteExecutor(db)
//	manager := NewMigrationManager(scanner, executor, logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
