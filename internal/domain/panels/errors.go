package panels

import "errors"

// ErrNotFound is returned when a panel item does not exist
var ErrNotFound = errors.New("not found")
