package content

import (
	"errors"
	"fmt"
)

// Reason is a machine-readable rejection code stored on the submission.
type Reason string

const (
	ReasonMissingRecord     Reason = "missing_database_record"
	ReasonFormatError       Reason = "format_error"
	ReasonNoFingerprint     Reason = "no_fingerprint"
	ReasonChecksumCollision Reason = "checksum_collision" // reserved
	ReasonLockContention    Reason = "lock_contention"    // skip, never persisted
	ReasonToolMissing       Reason = "tool_missing"       // abort, never persisted
)

// Rejection is returned by stage logic when a submission must move to the
// rejected directory instead of the next stage.
type Rejection struct {
	Reason Reason
	Detail string
}

// Reject builds a Rejection with a formatted detail string.
func Reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return "rejected: " + string(r.Reason)
	}
	return fmt.Sprintf("rejected: %s: %s", r.Reason, r.Detail)
}

// AsRejection unwraps err into a Rejection when one is present.
func AsRejection(err error) (*Rejection, bool) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
