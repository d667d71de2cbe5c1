package storage

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrConflict is returned when a guarded update matched no row because
	// the row changed state in the meantime
	ErrConflict = errors.New("storage: row changed concurrently")
)

// IsNotFound reports whether err means the requested row does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
