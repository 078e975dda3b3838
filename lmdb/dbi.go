package lmdb

/*
#include <stdlib.h>
#include "lmdb.h"
*/
import "C"

import "unsafe"

// DBI is the small integer handle callers use to address an opened
// sub-database; it indexes into the environment's descriptor array.
type DBI C.MDB_dbi

// DBIType selects the flags a named sub-database is opened with during
// Init (§4.3).
type DBIType int

const (
	// DBIDefault is a plain key -> single-value database.
	DBIDefault DBIType = iota
	// DBIDupSort allows a key to map to many sorted values.
	DBIDupSort
	// DBIDupFixed is DBIDupSort where every duplicate for a key shares one
	// byte length, enabling the engine's bulk duplicate operations.
	DBIDupFixed
)

// dbiDescriptor is one slot of the DBI Descriptor Cache (§4.3). The array
// holding these is built once during Init and is read-only afterward.
type dbiDescriptor struct {
	handle   DBI
	flags    uint
	putFlags uint

	isDupSort  bool
	isDupFixed bool

	// expectedValSize backs the dupfixed fast-path supplement
	// (SPEC_FULL.md): the byte length observed on the first PUT into a
	// dupfixed DBI since Init opened it, or -1 before any PUT has been
	// observed. One length applies to the whole DBI, across all keys. A later PUT with a different length fails fast
	// with ErrProtocol instead of surfacing LMDB's own rejection at
	// commit time.
	expectedValSize int
}

// openDBI opens (creating if needed) the named sub-database inside txn,
// then queries and caches its real engine flags. It must run inside a
// single RW transaction per Init's contract (§4.7 step 7).
func openDBI(txn *Txn, name string, dbiType DBIType) (dbiDescriptor, error) {
	var flags C.uint = C.uint(flagCreate)
	switch dbiType {
	case DBIDupSort:
		flags |= C.uint(flagDupSort)
	case DBIDupFixed:
		flags |= C.uint(flagDupSort) | C.uint(flagDupFixed)
	}

	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var dbi C.MDB_dbi
	rc := C.mdb_dbi_open(txn._txn, cname, flags, &dbi)
	if rc != C.MDB_SUCCESS {
		return dbiDescriptor{}, newErr("mdb_dbi_open", ErrInvalid, mdbErrText(rc))
	}

	var rawFlags C.uint
	rc = C.mdb_dbi_flags(txn._txn, dbi, &rawFlags)
	if rc != C.MDB_SUCCESS {
		return dbiDescriptor{}, newErr("mdb_dbi_flags", ErrInvalid, mdbErrText(rc))
	}

	isDupSort := rawFlags&C.uint(flagDupSort) != 0
	isDupFixed := rawFlags&C.uint(flagDupFixed) != 0

	putFlags := uint(flagNoOverwrite)
	if isDupSort {
		putFlags = uint(flagNoDupData)
	}

	return dbiDescriptor{
		handle:          DBI(dbi),
		flags:           uint(rawFlags),
		putFlags:        putFlags,
		isDupSort:       isDupSort,
		isDupFixed:      isDupFixed,
		expectedValSize: -1,
	}, nil
}
