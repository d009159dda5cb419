package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// ConflictError signals that a concurrent writer got there first, e.g. a
// second award attempt on an RFQ that is no longer under review.
type ConflictError struct {
	RFQID  uuid.UUID
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("rfq %s: %s", e.RFQID, e.Reason)
}

// IsConflict reports whether err is a ConflictError anywhere in its chain.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
