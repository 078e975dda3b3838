package lmdb

import "os"

// globalEnv and globalBatch are the process-wide singletons of §3. There
// is at most one of each; the package owns no lock protecting them
// (§5) — concurrent callers must serialize their own Init/Enqueue/
// Execute/Shutdown calls.
var globalEnv *Env
var globalBatch *Batch

func currentEnv() *Env     { return globalEnv }
func currentBatch() *Batch { return globalBatch }

// Init implements §4.7: refuse if an environment already exists, validate
// inputs, create the engine environment, ensure the directory exists,
// open it, then open and cache every named DBI inside one RW transaction.
// cfg may be nil to use the §6.4 compile-time defaults unmodified.
func Init(path string, mode os.FileMode, dbiNames []string, dbiTypes []DBIType, cfg *Config) (err error) {
	if currentEnv() != nil {
		return newErr("Init", ErrAlreadyInitialized, nil)
	}
	if cfg == nil {
		cfg = defaultConfig()
	} else {
		cfg.applyDefaults()
	}

	if path == "" {
		return newErr("Init", ErrInvalid, nil)
	}
	if len(dbiNames) != len(dbiTypes) {
		return newErr("Init", ErrInvalid, nil)
	}
	if uint(len(dbiNames)) > cfg.MaxDBIs {
		return newErr("Init", ErrInvalid, nil)
	}
	for _, name := range dbiNames {
		if name == "" {
			return newErr("Init", ErrInvalid, nil)
		}
	}

	env, err := newEnv(cfg)
	if err != nil {
		return err
	}

	success := false
	defer func() {
		if !success {
			env.teardown()
		}
	}()

	if err := env.setMaxDBs(cfg.MaxDBIs); err != nil {
		return err
	}
	if err := env.setMapSize(cfg.InitialMapSize); err != nil {
		return err
	}
	if err := ensureDir(path, os.FileMode(cfg.DirMode)); err != nil {
		return err
	}
	if err := env.open(path, 0, mode); err != nil {
		return err
	}

	txn, bOut, bKind := beginTxn(env, false)
	if bOut == outcomeRetry {
		return newErr("Init", ErrTryAgain, nil)
	}
	if bOut == outcomeFail {
		return newErr("Init", bKind, nil)
	}

	dbis := make([]dbiDescriptor, 0, len(dbiNames))
	for i, name := range dbiNames {
		desc, derr := openDBI(txn, name, dbiTypes[i])
		if derr != nil {
			txn.abort()
			return derr
		}
		dbis = append(dbis, desc)
	}

	cOut, cKind := txn.commit()
	if cOut != outcomeOK {
		return newErr("Init", cKind, nil)
	}

	env.dbis = dbis
	globalEnv = env
	globalBatch = newBatch(env)
	success = true

	logger.Info().Str("path", path).Int("dbis", len(dbis)).Msg("lmdb: initialized")
	return nil
}

// ensureDir creates the environment directory with owner-only permissions
// if missing; it rejects an existing path that is not a directory, or
// whose permissions grant access beyond the owner (§4.7 step 5).
func ensureDir(path string, mode os.FileMode) error {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return newErr("ensureDir", ErrIO, err)
		}
		if err := os.Mkdir(path, mode); err != nil {
			return newErr("ensureDir", ErrIO, err)
		}
		return nil
	}
	if !info.IsDir() {
		return newErr("ensureDir", ErrInvalid, nil)
	}
	if info.Mode().Perm()&0077 != 0 {
		return newErr("ensureDir", ErrInvalid, nil)
	}
	return nil
}

// teardown releases engine resources without touching the global
// singletons; used both by Shutdown and by Init's best-effort cleanup on
// a failed initialization (§4.7: "errors from shutdown do not override
// the original init error").
func (env *Env) teardown() {
	if env._env != nil {
		env.closeHandles()
	}
}

// Shutdown implements §4.7: idempotent no-op if no environment exists or
// has already been torn down, otherwise query the final mapping size,
// close every DBI handle and the engine environment, and clear the global
// singletons. env.halt is the real idempotency gate — requestStop fires
// the teardown body for exactly one caller.
func Shutdown() int64 {
	env := currentEnv()
	if env == nil {
		return 0
	}
	if !env.requestStop() {
		return 0
	}

	var finalSize int64
	if info, err := env.info(); err == nil {
		finalSize = info.MapSize
	}

	env.teardown()
	env.halt.Done.Close()

	globalEnv = nil
	globalBatch = nil

	logger.Info().Int64("final_map_size", finalSize).Msg("lmdb: shutdown")
	return finalSize
}
