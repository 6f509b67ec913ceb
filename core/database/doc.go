// Package database handles database connections for the inventory connector.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) that
// configures MySQL connections for normal operation and SQLite connections
// for tests and lightweight deployments.
//
// # Connect
//
// The Connect function establishes a connection based on the configured
// driver. MySQL connections get pooling limits and DSN-level timeouts;
// SQLite connections (including ":memory:") are opened directly.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
