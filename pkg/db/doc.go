// Package db manages the PostgreSQL connection pool and schema
// migrations.
//
// The pool backs every repository (festivals, admins, visitor passwords,
// collections, expenses, the activity log). Connect retries on startup so
// deploys do not race the database, Migrate applies embedded goose SQL
// files, and WithTx wraps multi-statement writes.
package db
