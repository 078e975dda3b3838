package lmdb

// expand implements the Map-Size Expander (§4.2). Precondition: no live
// transactions against env — callers only reach here from classify() right
// after aborting the transaction that hit MDB_MAP_FULL.
func (env *Env) expand() error {
	const maxInfoAttempts = 3

	var info *EnvInfo
	var err error
	for attempt := 0; attempt < maxInfoAttempts; attempt++ {
		info, err = env.info()
		if err == nil {
			break
		}
	}
	if err != nil {
		logger.Error().Err(err).Msg("lmdb: map-size query failed after retries")
		return newErr("expand", ErrIO, err)
	}

	current := info.MapSize
	if current == 0 {
		current = env.cfg.InitialMapSize
	}
	next := current * 2
	if next > env.cfg.MaxMapSize {
		logger.Warn().
			Int64("current", current).
			Int64("requested", next).
			Int64("max", env.cfg.MaxMapSize).
			Msg("lmdb: map-size expansion refused, would exceed configured maximum")
		return newErr("expand", ErrNoSpace, nil)
	}

	if err := env.setMapSize(next); err != nil {
		return err
	}
	logger.Info().Int64("from", current).Int64("to", next).Msg("lmdb: map-size expanded")
	return nil
}
