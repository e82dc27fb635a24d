package session

import "errors"

var errReadOnly = errors.New("session is read-only")

// IsReadOnly reports whether err came from a write on a read-only session.
func IsReadOnly(err error) bool {
	return errors.Is(err, errReadOnly)
}
