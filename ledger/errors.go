package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a command failure so callers can distinguish retryable from
// terminal errors without parsing messages.
type Kind string

const (
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindNotFound          Kind = "NOT_FOUND"
	KindBadInput          Kind = "BAD_INPUT"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindAlreadyExists     Kind = "ALREADY_EXISTS"
	KindAlreadyRegistered Kind = "ALREADY_REGISTERED"
	KindAlreadyVoted      Kind = "ALREADY_VOTED"
	KindNotCustodian      Kind = "NOT_CUSTODIAN"
	KindStaleData         Kind = "STALE_DATA"
	KindVotingClosed      Kind = "VOTING_CLOSED"
	KindProposalNotFound  Kind = "PROPOSAL_NOT_FOUND"
	KindInvalidOwner      Kind = "INVALID_OWNER"
	KindInvalidQuorum     Kind = "INVALID_QUORUM"
	KindOutOfBounds       Kind = "OUT_OF_BOUNDS"

	// KindCorrupt marks a structural invariant violation in stored state. It
	// indicates a prior bug, not a condition the caller can recover from.
	KindCorrupt Kind = "CORRUPT_STATE"
)

// Error is the typed failure returned by every command and query.
type Error struct {
	Kind Kind
	Op   string // Operation that failed, e.g. "CreateBatch"
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// errf builds an *Error with a formatted message.
func errf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, msg: fmt.Sprintf(format, args...)}
}

// wrapf builds an *Error wrapping an underlying cause.
func wrapf(kind Kind, op string, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, msg: fmt.Sprintf(format, args...), err: err}
}

// KindOf extracts the Kind of err, or "" if err is not a ledger error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
