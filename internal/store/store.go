// Package store is the persistence boundary for the pipeline: two logical
// collections (messages, analyses) over a single-writer document store.
// Writes are atomic per row only; callers needing cross-record consistency
// must impose their own discipline on top.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrStorage indicates a persistence layer failure. Callers treat it as
	// transient-or-fatal depending on context.
	ErrStorage = errors.New("storage error")
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")
)

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
