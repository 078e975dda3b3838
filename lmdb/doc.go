// Package lmdb is a thin, opinionated layer over a memory-mapped, B-tree
// based embedded key/value store (LMDB). It provides a single-process,
// transactional store of named sub-databases, a batched operation engine
// that composes several point operations into one transaction, and a
// centralized safety policy that turns raw engine return codes into three
// actionable outcomes (proceed, retry, fail) with transparent map-size
// growth and bounded retry budgets.
//
// Thread safety
//
// 1) There is at most one Environment per process. Init refuses to run a
//    second time while one is live.
// 2) The package owns no locks of its own: the batch singleton, the DBI
//    descriptor cache, and the RW scratch buffer are process-wide and
//    unguarded. Concurrent callers must serialize their own calls to
//    Enqueue/Execute.
// 3) A write transaction may only be used from the goroutine that began
//    it; LMDB's own single-writer rule applies transparently because
//    Execute never holds more than one transaction open at a time.
// 4) Reading directly against the Environment, bypassing the batch engine,
//    is not prevented but is outside this package's contract.
//
// Best practice
//
// 1) Call Init once at process start, before any Enqueue/Execute call.
// 2) Treat NOT_FOUND and EXISTS as ordinary, expected outcomes, not
//    failures requiring process teardown.
// 3) Call Shutdown exactly once when done; it is safe to call more than
//    once, but only the first call does any work.
package lmdb
