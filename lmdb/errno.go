package lmdb

/*
#include <errno.h>
#include "lmdb.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrKind is the closed set of error kinds this package surfaces to
// callers. The mapping from engine return code to ErrKind is fixed at
// compile time; see classify.
type ErrKind int

const (
	ErrNone ErrKind = iota
	ErrInvalid
	ErrNotFound
	ErrExists
	ErrNoSpace
	ErrOverflow
	ErrBusy
	ErrTryAgain
	ErrProtocol
	ErrStale
	ErrIO
	ErrNoMemory
	ErrAlreadyInitialized
)

func (k ErrKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrInvalid:
		return "invalid"
	case ErrNotFound:
		return "not_found"
	case ErrExists:
		return "exists"
	case ErrNoSpace:
		return "no_space"
	case ErrOverflow:
		return "overflow"
	case ErrBusy:
		return "busy"
	case ErrTryAgain:
		return "try_again"
	case ErrProtocol:
		return "protocol"
	case ErrStale:
		return "stale"
	case ErrIO:
		return "io"
	case ErrNoMemory:
		return "no_memory"
	case ErrAlreadyInitialized:
		return "already_initialized"
	default:
		return "unknown"
	}
}

// Error is the error type every public operation returns. Op names the
// failing call site, Kind is one of the ErrKind constants, and Cause (when
// non-nil) wraps the underlying engine or syscall error.
type Error struct {
	Op    string
	Kind  ErrKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("lmdb: %s: %s: %v", e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("lmdb: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(op string, kind ErrKind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Cause: cause}
}

// mdbErrText wraps a raw non-zero engine return code as an error carrying
// the engine's own description (mdb_strerror), for use as an Error.Cause.
func mdbErrText(rc C.int) error {
	if rc == 0 {
		return nil
	}
	return fmt.Errorf("%s (%d)", C.GoString(C.mdb_strerror(rc)), int(rc))
}

// outcome is the three-valued safety verdict of §4.1: proceed, retry the
// whole batch, or fail with a specific ErrKind.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeRetry
	outcomeFail
)

// classify turns a raw engine return code into a safety outcome and error
// kind, per the decision table in spec §4.1. If txn is non-nil, classify
// aborts it before returning every verdict except OK, NOT_FOUND and
// EXISTS — RETRY is never handed back with a live, unaborted transaction,
// while the two logic-level failures leave the transaction open. Every
// non-OK decision is logged at debug level.
//
// env is required only to drive map-size expansion on MDB_MAP_FULL; it may
// be nil for call sites that cannot hit that condition (none do today, but
// the signature keeps the policy pure and total).
func classify(env *Env, txn *Txn, op string, rc C.int) (out outcome, kind ErrKind) {
	if rc == 0 {
		return outcomeOK, ErrNone
	}
	defer func() {
		logger.Debug().Str("op", op).Int("rc", int(rc)).Int("outcome", int(out)).
			Str("kind", kind.String()).Msg("lmdb: safety policy decision")
	}()

	switch rc {
	case C.MDB_NOTFOUND:
		return outcomeFail, ErrNotFound
	case C.MDB_KEYEXIST:
		return outcomeFail, ErrExists
	case C.MDB_MAP_FULL:
		if txn != nil {
			txn.abort()
		}
		if expandErr := env.expand(); expandErr == nil {
			return outcomeRetry, ErrNoSpace
		}
		return outcomeFail, ErrNoSpace
	case C.MDB_MAP_RESIZED:
		if txn != nil {
			txn.abort()
		}
		return outcomeRetry, ErrTryAgain
	case C.MDB_PAGE_FULL, C.MDB_CURSOR_FULL, C.MDB_TXN_FULL:
		if txn != nil {
			txn.abort()
		}
		return outcomeRetry, ErrOverflow
	case C.MDB_BAD_RSLOT:
		if txn != nil {
			txn.abort()
		}
		return outcomeRetry, ErrBusy
	case C.MDB_READERS_FULL:
		if txn != nil {
			txn.abort()
		}
		return outcomeRetry, ErrTryAgain
	case C.MDB_CORRUPTED, C.MDB_PAGE_NOTFOUND, C.MDB_PANIC:
		if txn != nil {
			txn.abort()
		}
		return outcomeFail, ErrIO
	case C.MDB_INCOMPATIBLE:
		if txn != nil {
			txn.abort()
		}
		return outcomeFail, ErrProtocol
	case C.MDB_VERSION_MISMATCH, C.MDB_BAD_TXN, C.MDB_BAD_VALSIZE, C.MDB_INVALID:
		if txn != nil {
			txn.abort()
		}
		return outcomeFail, ErrInvalid
	case C.MDB_BAD_DBI:
		if txn != nil {
			txn.abort()
		}
		return outcomeFail, ErrStale
	}

	if txn != nil {
		txn.abort()
	}
	if rc == C.int(syscall.ENOMEM) {
		return outcomeFail, ErrNoMemory
	}
	return outcomeFail, ErrIO
}

// Code returns the C-style status some callers of this package still
// expect: 0 for success, the negative of an ErrKind for failure. It is an
// ergonomic convenience alongside the normal Go error return, not a
// replacement for it.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if !errors.As(err, &e) {
		return -int(ErrIO)
	}
	return -int(e.Kind)
}
