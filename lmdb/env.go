package lmdb

/*
#cgo LDFLAGS: -llmdb
#include <stdlib.h>
#include "lmdb.h"
*/
import "C"

import (
	"os"
	"unsafe"

	"github.com/glycerine/idem"
)

// Env flags used with Open. NoTLS is always folded in by open(), matching
// the teacher's enforcement of NOTLS mode (read txns may migrate across
// goroutines freely, and the core never relies on thread-local txn state).
const (
	flagNoSubdir = C.MDB_NOSUBDIR
	flagNoTLS    = C.MDB_NOTLS
	flagReadonly = C.MDB_RDONLY
)

// DBI flags, used when opening a named sub-database (§4.3).
const (
	flagCreate   = C.MDB_CREATE
	flagDupSort  = C.MDB_DUPSORT
	flagDupFixed = C.MDB_DUPFIXED
)

// Put flags, derived once per DBI (§4.3) and never overridden per call.
const (
	flagNoOverwrite = C.MDB_NOOVERWRITE
	flagNoDupData   = C.MDB_NODUPDATA
)

// Stat mirrors mdb_env_stat / mdb_stat output.
type Stat struct {
	PSize         uint
	Depth         uint
	BranchPages   uint64
	LeafPages     uint64
	OverflowPages uint64
	Entries       uint64
}

// EnvInfo mirrors mdb_env_info output.
type EnvInfo struct {
	MapSize    int64
	LastPNO    int64
	LastTxnID  int64
	MaxReaders uint
	NumReaders uint
}

// Env is the process-wide handle onto the backing mmap + B-tree engine
// (spec §3 "Environment"). There is at most one per process; see Init and
// Shutdown in lifecycle.go.
type Env struct {
	_env *C.MDB_env
	cfg  *Config
	path string
	dbis []dbiDescriptor

	// halt gates Shutdown's idempotency: requestStop reports true to at
	// most one caller, the one that must actually run the teardown.
	halt *idem.Halter
}

func newEnv(cfg *Config) (*Env, error) {
	env := &Env{cfg: cfg, halt: idem.NewHalter()}
	ret := C.mdb_env_create(&env._env)
	if ret != C.MDB_SUCCESS {
		return nil, newErr("mdb_env_create", ErrIO, mdbErrText(ret))
	}
	return env, nil
}

// requestStop reports whether this call is the one that closed
// halt.ReqStop.Chan: true the first time, false on every call after (from
// this env or a reused reference to it). Shutdown uses this, not a bare
// nil check, to decide whether to actually run the teardown.
func (env *Env) requestStop() bool {
	select {
	case <-env.halt.ReqStop.Chan:
		return false
	default:
		env.halt.ReqStop.Close()
		return true
	}
}

func (env *Env) setMaxDBs(n uint) error {
	ret := C.mdb_env_set_maxdbs(env._env, C.MDB_dbi(n))
	if ret != C.MDB_SUCCESS {
		return newErr("mdb_env_set_maxdbs", ErrInvalid, mdbErrText(ret))
	}
	return nil
}

func (env *Env) setMapSize(size int64) error {
	ret := C.mdb_env_set_mapsize(env._env, C.size_t(size))
	if ret != C.MDB_SUCCESS {
		return newErr("mdb_env_set_mapsize", ErrInvalid, mdbErrText(ret))
	}
	return nil
}

func (env *Env) open(path string, flags C.uint, mode os.FileMode) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	ret := C.mdb_env_open(env._env, cpath, flags|C.uint(flagNoTLS), C.mdb_mode_t(mode))
	if ret != C.MDB_SUCCESS {
		return newErr("mdb_env_open", ErrInvalid, mdbErrText(ret))
	}
	env.path = path
	return nil
}

// info returns mdb_env_info. It is also the map-size growth probe used by
// expand() and by the public Stats() accessor.
func (env *Env) info() (*EnvInfo, error) {
	var raw C.MDB_envinfo
	ret := C.mdb_env_info(env._env, &raw)
	if ret != C.MDB_SUCCESS {
		return nil, newErr("mdb_env_info", ErrIO, mdbErrText(ret))
	}
	return &EnvInfo{
		MapSize:    int64(raw.me_mapsize),
		LastPNO:    int64(raw.me_last_pgno),
		LastTxnID:  int64(raw.me_last_txnid),
		MaxReaders: uint(raw.me_maxreaders),
		NumReaders: uint(raw.me_numreaders),
	}, nil
}

func (env *Env) stat() (*Stat, error) {
	var raw C.MDB_stat
	ret := C.mdb_env_stat(env._env, &raw)
	if ret != C.MDB_SUCCESS {
		return nil, newErr("mdb_env_stat", ErrIO, mdbErrText(ret))
	}
	return &Stat{
		PSize:         uint(raw.ms_psize),
		Depth:         uint(raw.ms_depth),
		BranchPages:   uint64(raw.ms_branch_pages),
		LeafPages:     uint64(raw.ms_leaf_pages),
		OverflowPages: uint64(raw.ms_overflow_pages),
		Entries:       uint64(raw.ms_entries),
	}, nil
}

func (env *Env) closeHandles() {
	for _, d := range env.dbis {
		C.mdb_dbi_close(env._env, C.MDB_dbi(d.handle))
	}
	C.mdb_env_close(env._env)
	env._env = nil
}

// Stats is the metrics-accessor supplement (SPEC_FULL.md "Supplemented
// features"): it reports the numbers an external metrics reporter would
// need without pushing them anywhere itself.
type Stats struct {
	MapSize        int64
	InitialMapSize int64
	MaxMapSize     int64
	DBICount       int
}

// Stats reports current map-size and DBI-count information for the live
// environment. It is read-only and never mutates engine state.
func Stats() (*Stats, error) {
	env := currentEnv()
	if env == nil {
		return nil, newErr("Stats", ErrInvalid, nil)
	}
	info, err := env.info()
	if err != nil {
		return nil, err
	}
	return &Stats{
		MapSize:        info.MapSize,
		InitialMapSize: env.cfg.InitialMapSize,
		MaxMapSize:     env.cfg.MaxMapSize,
		DBICount:       len(env.dbis),
	}, nil
}
