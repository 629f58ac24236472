package repository

import "errors"

// ErrNoRowsAffected signals that an update or delete matched no row.
var ErrNoRowsAffected = errors.New("no rows affected")
