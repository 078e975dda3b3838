package lmdb

/*
#include "lmdb.h"
*/
import "C"

// Txn wraps a live LMDB transaction. The batch engine (§4.6) opens exactly
// one per Execute() call; action primitives (§4.5) dispatch against it.
type Txn struct {
	_txn     *C.MDB_txn
	env      *Env
	readonly bool
}

// beginTxn opens a transaction through the safety policy: a RETRY verdict
// means the caller should retry the whole outer loop without having
// consumed a transaction; FAIL propagates the mapped error.
func beginTxn(env *Env, readonly bool) (*Txn, outcome, ErrKind) {
	var flags C.uint
	if readonly {
		flags = C.uint(flagReadonly)
	}
	var ctxn *C.MDB_txn
	rc := C.mdb_txn_begin(env._env, nil, flags, &ctxn)
	if rc == C.MDB_SUCCESS {
		return &Txn{_txn: ctxn, env: env, readonly: readonly}, outcomeOK, ErrNone
	}
	out, kind := classify(env, nil, "mdb_txn_begin", rc)
	return nil, out, kind
}

// commit terminates the transaction. LMDB frees the underlying handle on
// both success and failure of mdb_txn_commit, so the Go-level handle is
// always cleared first and classify is given a nil txn — there is nothing
// left to abort.
func (t *Txn) commit() (outcome, ErrKind) {
	ctxn := t._txn
	t._txn = nil
	rc := C.mdb_txn_commit(ctxn)
	if rc == C.MDB_SUCCESS {
		return outcomeOK, ErrNone
	}
	return classify(t.env, nil, "mdb_txn_commit", rc)
}

// abort terminates the transaction without committing. Safe to call on an
// already-terminated Txn.
func (t *Txn) abort() {
	if t._txn == nil {
		return
	}
	C.mdb_txn_abort(t._txn)
	t._txn = nil
}
