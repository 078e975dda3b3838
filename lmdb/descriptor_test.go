package lmdb

import (
	"testing"

	"github.com/facebookgo/ensure"
)

func batchWithOps(ops ...operation) *Batch {
	b := &Batch{ops: make([]operation, len(ops))}
	copy(b.ops, ops)
	b.count = len(ops)
	return b
}

func TestResolvePresent(t *testing.T) {
	b := batchWithOps(operation{key: presentDescriptor([]byte("k0")), val: presentDescriptor([]byte("v0"))})
	got, err := resolve(b, 0, srcKey)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, got, []byte("k0"))
}

func TestResolveLookupOneHop(t *testing.T) {
	b := batchWithOps(
		operation{key: presentDescriptor([]byte("k0")), val: presentDescriptor([]byte("v0"))},
		operation{key: presentDescriptor([]byte("k1")), val: lookupDescriptor(1, srcVal)},
	)
	got, err := resolve(b, 1, srcVal)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, got, []byte("v0"))
}

func TestResolveLookupChained(t *testing.T) {
	b := batchWithOps(
		operation{key: presentDescriptor([]byte("k0")), val: presentDescriptor([]byte("v0"))},
		operation{key: presentDescriptor([]byte("k1")), val: lookupDescriptor(1, srcVal)},
		operation{key: presentDescriptor([]byte("k2")), val: lookupDescriptor(1, srcVal)},
	)
	got, err := resolve(b, 2, srcVal)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, got, []byte("v0"))
}

func TestResolveLookupRejectsReferenceBeforeFirstOp(t *testing.T) {
	b := batchWithOps(
		operation{key: presentDescriptor([]byte("k0")), val: lookupDescriptor(5, srcVal)},
	)
	_, err := resolve(b, 0, srcVal)
	ensure.NotNil(t, err)
}

func TestResolveLookupRejectsZeroRefIndex(t *testing.T) {
	b := batchWithOps(
		operation{key: presentDescriptor([]byte("k0")), val: lookupDescriptor(0, srcVal)},
	)
	_, err := resolve(b, 0, srcVal)
	ensure.NotNil(t, err)
}

func TestResolveNoneIsInvalid(t *testing.T) {
	b := batchWithOps(
		operation{key: presentDescriptor([]byte("k0")), val: valueDescriptor{kind: descNone}},
	)
	_, err := resolve(b, 0, srcVal)
	ensure.NotNil(t, err)
}

func TestResolvePresentRejectsEmptyBytes(t *testing.T) {
	b := batchWithOps(
		operation{key: valueDescriptor{kind: descPresent}, val: presentDescriptor([]byte("v0"))},
	)
	_, err := resolve(b, 0, srcKey)
	ensure.NotNil(t, err)
}
