package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvariantViolation marks an internal reconciliation bug: a non-monotonic
// date axis or a row of the wrong length. Unlike row-level problems it is
// fatal, because every downstream number would be silently wrong.
var ErrInvariantViolation = errors.New("internal invariant violation")

// Diagnostic records one recovered row-level problem: a malformed input row
// that was skipped, or a duplicate date that was resolved. Diagnostics are
// collected and reported, never raised as errors.
type Diagnostic struct {
	Pool   PoolKey
	Date   time.Time // zero when the row's date itself was unusable
	Field  string    // offending field, e.g. "tvl", "apy_base", "date"
	Reason string
}

func (d Diagnostic) String() string {
	if d.Date.IsZero() {
		return fmt.Sprintf("%s: %s: %s", d.Pool, d.Field, d.Reason)
	}
	return fmt.Sprintf("%s %s: %s: %s", d.Pool, d.Date.Format("2006-01-02"), d.Field, d.Reason)
}
