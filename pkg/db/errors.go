package db

import "errors"

var (
	ErrParseConfig       = errors.New("db: failed to parse connection config")
	ErrConnectionFailed  = errors.New("db: failed to open connection")
	ErrHealthcheckFailed = errors.New("db: healthcheck failed")
	ErrSetDialect        = errors.New("db: failed to set migration dialect")
	ErrApplyMigrations   = errors.New("db: failed to apply migrations")
)
