package database

import "errors"

// ErrNotReady indicates the database has not completed its startup ping.
var ErrNotReady = errors.New("database not ready")
