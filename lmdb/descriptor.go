package lmdb

// valueKind tags the three states a key/value descriptor can be in (§3).
type valueKind int

const (
	descNone valueKind = iota
	descPresent
	descLookup
)

// srcKind selects which half of an earlier operation a LOOKUP refers to.
type srcKind int

const (
	srcKey srcKind = iota
	srcVal
)

// valueDescriptor is the tagged union of §3 "Key/value descriptor". Unlike
// the source's pointer-aliasing trick (a struct made binary-compatible
// with the engine's (ptr,size) pair), this holds a plain Go []byte — the
// slice header already is a (ptr,len) pair, so resolving a descriptor
// never needs to synthesize one by hand; it only needs to pick which
// slice to use. The engine's MDB_val is built from the chosen slice at
// the point of the cgo call (action.go), not stored ahead of time.
type valueDescriptor struct {
	kind     valueKind
	bytes    []byte
	refIndex int
	src      srcKind

	// dst is set only for a GET's value descriptor built via Into; it
	// points at the caller-owned variable that writeBack fills in once the
	// op's final bytes are known. Never used for key descriptors.
	dst *[]byte
}

// presentDescriptor builds a PRESENT descriptor from caller-owned bytes.
func presentDescriptor(b []byte) valueDescriptor {
	return valueDescriptor{kind: descPresent, bytes: b}
}

// lookupDescriptor builds a LOOKUP descriptor referring refIndex positions
// back in the batch, to the KEY or VAL of that earlier operation.
func lookupDescriptor(refIndex int, src srcKind) valueDescriptor {
	return valueDescriptor{kind: descLookup, refIndex: refIndex, src: src}
}

// resolve implements §4.4: resolve an operation's key/value descriptor
// into concrete bytes, following positive back-references to earlier ops
// in the same batch. depth bounds recursion defensively; a validly
// enqueued batch can never actually loop because every hop strictly
// decreases the target index (refIndex > 0), but resolve does not trust
// that invariant blindly.
func resolve(b *Batch, opIdx int, which srcKind) ([]byte, error) {
	op := &b.ops[opIdx]
	d := &op.key
	if which == srcVal {
		d = &op.val
	}
	return resolveDescriptor(b, opIdx, d, 0)
}

func resolveDescriptor(b *Batch, opIdx int, d *valueDescriptor, depth int) ([]byte, error) {
	if depth > len(b.ops) {
		return nil, newErr("resolve", ErrInvalid, nil)
	}
	switch d.kind {
	case descPresent:
		if d.bytes == nil || len(d.bytes) == 0 {
			return nil, newErr("resolve", ErrInvalid, nil)
		}
		return d.bytes, nil
	case descLookup:
		if d.refIndex <= 0 || d.refIndex > opIdx {
			return nil, newErr("resolve", ErrInvalid, nil)
		}
		targetIdx := opIdx - d.refIndex
		target := &b.ops[targetIdx]
		targetDesc := &target.key
		if d.src == srcVal {
			targetDesc = &target.val
		}
		return resolveDescriptor(b, targetIdx, targetDesc, depth+1)
	default: // descNone
		return nil, newErr("resolve", ErrInvalid, nil)
	}
}
