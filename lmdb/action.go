package lmdb

/*
#include "lmdb.h"
*/
import "C"

import "unsafe"

// toMDBVal builds an engine MDB_val view of b for the duration of a single
// cgo call. It must not be retained past that call: the Go garbage
// collector is free to move or reclaim b's backing array once nothing
// keeps it alive, and the cgo pointer-passing rules only guarantee b stays
// put for the call itself.
func toMDBVal(b []byte) C.MDB_val {
	if len(b) == 0 {
		return C.MDB_val{}
	}
	return C.MDB_val{mv_size: C.size_t(len(b)), mv_data: unsafe.Pointer(&b[0])}
}

// put is the PUT action primitive (§4.5). It resolves key and value,
// issues the put with the DBI's cached default flags (never reserve —
// spec §9 settles this), and classifies any nonzero engine return.
func put(txn *Txn, b *Batch, opIdx int) (outcome, ErrKind) {
	op := &b.ops[opIdx]

	key, err := resolve(b, opIdx, srcKey)
	if err != nil {
		return outcomeFail, ErrInvalid
	}
	val, err := resolve(b, opIdx, srcVal)
	if err != nil {
		return outcomeFail, ErrInvalid
	}

	desc := &txn.env.dbis[op.dbiIndex]
	if desc.isDupFixed {
		if desc.expectedValSize < 0 {
			desc.expectedValSize = len(val)
		} else if desc.expectedValSize != len(val) {
			return outcomeFail, ErrProtocol
		}
	}

	ckey := toMDBVal(key)
	cval := toMDBVal(val)
	rc := C.mdb_put(txn._txn, C.MDB_dbi(desc.handle), &ckey, &cval, C.uint(desc.putFlags))
	return classify(txn.env, txn, "mdb_put", rc)
}

// get is the GET action primitive (§4.5). On success it either copies
// into the caller-supplied buffer (PRESENT) or exposes engine-owned bytes
// by rewriting op.val to PRESENT (NONE); stabilizing those bytes so they
// outlive the transaction is the batch engine's job (§4.6), not this
// function's.
func get(txn *Txn, b *Batch, opIdx int) (outcome, ErrKind) {
	op := &b.ops[opIdx]

	key, err := resolve(b, opIdx, srcKey)
	if err != nil {
		return outcomeFail, ErrInvalid
	}

	desc := &txn.env.dbis[op.dbiIndex]
	ckey := toMDBVal(key)
	var cval C.MDB_val
	rc := C.mdb_get(txn._txn, C.MDB_dbi(desc.handle), &ckey, &cval)
	if rc != C.MDB_SUCCESS {
		return classify(txn.env, txn, "mdb_get", rc)
	}

	// engineView aliases the engine's mmap directly (no copy): valid only
	// until the transaction ends or a write in the same txn invalidates
	// the page. Stabilizing it into memory that outlives the txn is the
	// batch engine's job (§4.6), triggered below only when this call is
	// what produced it.
	engineView := unsafe.Slice((*byte)(cval.mv_data), int(cval.mv_size))

	switch op.val.kind {
	case descPresent:
		if len(engineView) > len(op.val.bytes) {
			return outcomeFail, ErrProtocol
		}
		n := copy(op.val.bytes, engineView)
		op.val.bytes = op.val.bytes[:n]
	case descNone:
		dst := op.val.dst
		op.val = presentDescriptor(engineView)
		op.val.dst = dst
		op.sourcedFromEngine = true
	default:
		return outcomeFail, ErrInvalid
	}
	return outcomeOK, ErrNone
}
