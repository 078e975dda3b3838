package lmdb

// OpKind tags an operation. Only PUT and GET are implemented; DEL and REP
// are reserved extension points per spec §9 and are rejected at enqueue
// time with ErrInvalid.
type OpKind int

const (
	OpGet OpKind = iota
	OpPut
	OpDel // reserved, not implemented
	OpRep // reserved, not implemented
)

// ValueRef is how a caller of Enqueue builds a value descriptor without
// reaching into the package's internal tagged union directly. Use Bytes
// for PUT input or a fixed-size GET buffer, Into to receive a GET result
// into a caller-owned slice variable, LookupKey/LookupVal to reference an
// earlier operation in the same batch, or the zero value to let a GET's
// result live only inside the batch (usable by a later LOOKUP, not by the
// caller).
type ValueRef struct {
	kind     valueKind
	bytes    []byte
	dst      *[]byte
	refIndex int
	src      srcKind
}

// Bytes wraps caller-owned bytes: PUT input, or a fixed-capacity GET
// buffer whose content the caller will read directly afterward.
func Bytes(b []byte) ValueRef { return ValueRef{kind: descPresent, bytes: b} }

// Into wraps a pointer to a caller-owned slice variable. If the variable
// already holds a non-empty slice, it is used as a fixed-capacity GET
// buffer the way Bytes would. Otherwise (nil or zero-length — the usual
// case of a freshly declared destination variable) the GET is routed
// through the engine-owned NONE path instead, so it is never bounded by
// an empty buffer's length. Either way, on a successful GET the variable
// is replaced with the final result — equivalent to §4.5's "overwrite
// op.val.size with the actual length," adapted to Go's slice-length
// convention since a Go slice does not have its own out-of-band size
// pointer.
func Into(buf *[]byte) ValueRef {
	if len(*buf) == 0 {
		return ValueRef{kind: descNone, dst: buf}
	}
	return ValueRef{kind: descPresent, bytes: *buf, dst: buf}
}

// LookupKey builds a LOOKUP descriptor referring to the KEY of the
// operation refIndex positions earlier in the batch.
func LookupKey(refIndex int) ValueRef {
	return ValueRef{kind: descLookup, refIndex: refIndex, src: srcKey}
}

// LookupVal builds a LOOKUP descriptor referring to the VAL of the
// operation refIndex positions earlier in the batch.
func LookupVal(refIndex int) ValueRef {
	return ValueRef{kind: descLookup, refIndex: refIndex, src: srcVal}
}

// operation is one queued slot (§3 "Operation"). Its descriptors may be
// rewritten in place by the engine — a GET replaces a NONE value
// descriptor with a PRESENT one pointing into stabilized memory.
type operation struct {
	dbiIndex int
	kind     OpKind
	key      valueDescriptor
	val      valueDescriptor

	// sourcedFromEngine is true exactly when val.bytes currently aliases
	// engine (mmap) memory rather than caller- or scratch-owned memory —
	// i.e. it still needs stabilizing before the transaction ends.
	sourcedFromEngine bool
}

type batchKind int

const (
	batchRO batchKind = iota
	batchRW
)

// Batch is the process-wide singleton operation queue (§3 "Batch", §4.6).
// It is cleared to zero values before execution starts and again after
// execution completes, success or failure.
type Batch struct {
	env   *Env
	kind  batchKind
	ops   []operation
	count int

	scratch     []byte
	scratchUsed int
}

func newBatch(env *Env) *Batch {
	return &Batch{
		env:     env,
		ops:     make([]operation, env.cfg.BatchCapacity),
		scratch: make([]byte, env.cfg.ScratchCapacity),
	}
}

func (b *Batch) reset() {
	for i := range b.ops {
		b.ops[i] = operation{}
	}
	for i := range b.scratch {
		b.scratch[i] = 0
	}
	b.kind = batchRO
	b.count = 0
	b.scratchUsed = 0
}

// stabilize copies src into the scratch bump allocator and returns the
// stabilized slice. It is only ever called for RW batches (§3 invariant:
// "Scratch buffer is only written during RW batches").
func (b *Batch) stabilize(src []byte) ([]byte, error) {
	if b.scratchUsed+len(src) > len(b.scratch) {
		return nil, newErr("stabilize", ErrNoMemory, nil)
	}
	dst := b.scratch[b.scratchUsed : b.scratchUsed+len(src) : b.scratchUsed+len(src)]
	copy(dst, src)
	b.scratchUsed += len(src)
	return dst, nil
}

// Enqueue implements §4.6 enqueue / §6.1's consumer-visible enqueue
// surface: it validates preconditions, builds the PRESENT key descriptor
// and the PRESENT/NONE/LOOKUP value descriptor, and appends the operation
// to the batch singleton.
func Enqueue(dbiIndex int, kind OpKind, key []byte, val ValueRef) error {
	env := currentEnv()
	if env == nil {
		return newErr("Enqueue", ErrInvalid, nil)
	}
	b := currentBatch()

	if dbiIndex < 0 || dbiIndex >= len(env.dbis) {
		return newErr("Enqueue", ErrInvalid, nil)
	}
	if b.count >= len(b.ops) {
		return newErr("Enqueue", ErrInvalid, nil)
	}
	if len(key) == 0 {
		return newErr("Enqueue", ErrInvalid, nil)
	}

	var valDesc valueDescriptor
	switch kind {
	case OpPut:
		switch val.kind {
		case descPresent:
			if len(val.bytes) == 0 {
				return newErr("Enqueue", ErrInvalid, nil)
			}
			valDesc = presentDescriptor(val.bytes)
		case descLookup:
			if val.refIndex <= 0 || val.refIndex > b.count {
				return newErr("Enqueue", ErrInvalid, nil)
			}
			valDesc = lookupDescriptor(val.refIndex, val.src)
		default:
			return newErr("Enqueue", ErrInvalid, nil)
		}
	case OpGet:
		switch val.kind {
		case descNone:
			valDesc = valueDescriptor{kind: descNone, dst: val.dst}
		case descPresent:
			valDesc = valueDescriptor{kind: descPresent, bytes: val.bytes, dst: val.dst}
		default:
			return newErr("Enqueue", ErrInvalid, nil)
		}
	default:
		return newErr("Enqueue", ErrInvalid, nil)
	}

	if b.kind == batchRO && kind != OpGet {
		b.kind = batchRW
	}

	b.ops[b.count] = operation{dbiIndex: dbiIndex, kind: kind, key: presentDescriptor(key), val: valDesc}
	b.count++
	return nil
}

// Execute implements §4.6 execute: accumulate → begin (RO or RW per batch
// kind) → dispatch every queued op → retry on transient conditions →
// commit (RW) or abort (RO) → zero the batch, regardless of outcome.
func Execute() error {
	env := currentEnv()
	if env == nil {
		return newErr("Execute", ErrInvalid, nil)
	}
	b := currentBatch()
	defer b.reset()

	maxAttempts := env.cfg.RetryBudget
	for attempt := 0; attempt < maxAttempts; attempt++ {
		txn, bOut, bKind := beginTxn(env, b.kind == batchRO)
		if bOut == outcomeRetry {
			logger.Debug().Int("attempt", attempt).Msg("lmdb: begin transaction retry")
			continue
		}
		if bOut == outcomeFail {
			return newErr("Execute", bKind, nil)
		}

		err, retry := b.runOnce(txn)
		if retry {
			logger.Debug().Int("attempt", attempt).Msg("lmdb: batch retry")
			continue
		}
		return err
	}
	return newErr("Execute", ErrIO, nil)
}

// runOnce dispatches every queued op against a freshly begun txn and
// terminates it. It returns the error to surface (nil on success) and
// whether the whole outer attempt loop in Execute should retry.
func (b *Batch) runOnce(txn *Txn) (error, bool) {
	for i := 0; i < b.count; i++ {
		op := &b.ops[i]

		var out outcome
		var kind ErrKind
		switch op.kind {
		case OpPut:
			out, kind = put(txn, b, i)
		case OpGet:
			out, kind = get(txn, b, i)
		default:
			out, kind = outcomeFail, ErrInvalid
		}

		switch out {
		case outcomeRetry:
			return nil, true
		case outcomeFail:
			txn.abort()
			return newErr("Execute", kind, nil), false
		}

		if op.kind != OpGet || !op.sourcedFromEngine {
			continue
		}
		// RO ops keep sourcedFromEngine set here: the RO copy-out loop
		// below is what clears it, once it has actually made a safe copy.
		if b.kind == batchRW {
			stabilized, err := b.stabilize(op.val.bytes)
			if err != nil {
				txn.abort()
				return err, false
			}
			op.val.bytes = stabilized
			op.sourcedFromEngine = false
		}
	}

	if b.kind == batchRO {
		// A RO batch never writes, so nothing invalidates engine memory
		// mid-batch, but the txn aborts below and the caller must not be
		// left holding a pointer into released reader pages: any GET
		// result still aliasing engine memory is copied into ordinary
		// Go-owned memory first (the scratch buffer stays RW-only per
		// the §3 invariant).
		for i := 0; i < b.count; i++ {
			op := &b.ops[i]
			if op.kind == OpGet && op.sourcedFromEngine {
				op.val.bytes = append([]byte(nil), op.val.bytes...)
				op.sourcedFromEngine = false
			}
			writeBack(op)
		}
		txn.abort()
		return nil, false
	}

	for i := 0; i < b.count; i++ {
		writeBack(&b.ops[i])
	}

	out, kind := txn.commit()
	switch out {
	case outcomeRetry:
		return nil, true
	case outcomeFail:
		return newErr("Execute", kind, nil), false
	default:
		return nil, false
	}
}

// writeBack copies a GET op's final bytes into the caller's destination
// variable, if one was supplied via Into. The bytes are copied rather than
// aliased: in a RW batch they live in the scratch buffer, which reset
// zeroes before Execute returns.
func writeBack(op *operation) {
	if op.kind == OpGet && op.val.dst != nil {
		*op.val.dst = append([]byte(nil), op.val.bytes...)
	}
}
