package lmdb

import (
	"testing"

	"github.com/facebookgo/ensure"
)

func TestBatchPutThenGetRoundTrip(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	ensure.Nil(t, Enqueue(0, OpPut, []byte("k1"), Bytes([]byte("v1"))))
	ensure.Nil(t, Execute())

	var got []byte
	ensure.Nil(t, Enqueue(0, OpGet, []byte("k1"), Into(&got)))
	ensure.Nil(t, Execute())
	ensure.DeepEqual(t, got, []byte("v1"))
}

func TestBatchGetMissingKeyIsNotFound(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	var got []byte
	ensure.Nil(t, Enqueue(0, OpGet, []byte("absent"), Into(&got)))
	err := Execute()
	ensure.NotNil(t, err)
	ensure.DeepEqual(t, Code(err), -int(ErrNotFound))
}

func TestBatchPutDuplicateKeyIsExists(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	ensure.Nil(t, Enqueue(0, OpPut, []byte("k1"), Bytes([]byte("v1"))))
	ensure.Nil(t, Execute())

	ensure.Nil(t, Enqueue(0, OpPut, []byte("k1"), Bytes([]byte("v2"))))
	err := Execute()
	ensure.NotNil(t, err)
	ensure.DeepEqual(t, Code(err), -int(ErrExists))
}

func TestBatchLookupValChainsValueIntoLaterPut(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	ensure.Nil(t, Enqueue(0, OpPut, []byte("source"), Bytes([]byte("shared"))))
	ensure.Nil(t, Enqueue(0, OpPut, []byte("mirror"), LookupVal(1)))
	ensure.Nil(t, Execute())

	var got []byte
	ensure.Nil(t, Enqueue(0, OpGet, []byte("mirror"), Into(&got)))
	ensure.Nil(t, Execute())
	ensure.DeepEqual(t, got, []byte("shared"))
}

func TestBatchLookupValRejectsReferencePastQueuedOpsAtEnqueue(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	err := Enqueue(0, OpPut, []byte("k1"), LookupVal(1))
	ensure.NotNil(t, err)
}

func TestBatchDupFixedRejectsVaryingValueLength(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDupFixed})
	defer cleanEnv(path, t)

	ensure.Nil(t, Enqueue(0, OpPut, []byte("k1"), Bytes([]byte("abcd"))))
	ensure.Nil(t, Execute())

	ensure.Nil(t, Enqueue(0, OpPut, []byte("k2"), Bytes([]byte("xyz"))))
	err := Execute()
	ensure.NotNil(t, err)
	ensure.DeepEqual(t, Code(err), -int(ErrProtocol))
}

func TestBatchEnqueueRejectsUnknownDBI(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	err := Enqueue(7, OpPut, []byte("k1"), Bytes([]byte("v1")))
	ensure.NotNil(t, err)
}

func TestBatchEnqueueRejectsEmptyKey(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	err := Enqueue(0, OpPut, nil, Bytes([]byte("v1")))
	ensure.NotNil(t, err)
}

func TestBatchResetsAfterExecute(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	ensure.Nil(t, Enqueue(0, OpPut, []byte("k1"), Bytes([]byte("v1"))))
	ensure.Nil(t, Execute())

	b := currentBatch()
	ensure.DeepEqual(t, b.count, 0)
	ensure.DeepEqual(t, b.kind, batchRO)
	ensure.DeepEqual(t, b.scratchUsed, 0)
}

func TestBatchGetIntoFixedBufferExactFit(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	ensure.Nil(t, Enqueue(0, OpPut, []byte("k1"), Bytes([]byte("hello"))))
	ensure.Nil(t, Execute())

	buf := make([]byte, 5)
	ensure.Nil(t, Enqueue(0, OpGet, []byte("k1"), Bytes(buf)))
	ensure.Nil(t, Execute())
	ensure.DeepEqual(t, buf[:5], []byte("hello"))
}

func TestBatchGetIntoUndersizedBufferIsProtocolError(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	ensure.Nil(t, Enqueue(0, OpPut, []byte("k1"), Bytes([]byte("hello world"))))
	ensure.Nil(t, Execute())

	buf := make([]byte, 5)
	ensure.Nil(t, Enqueue(0, OpGet, []byte("k1"), Bytes(buf)))
	err := Execute()
	ensure.NotNil(t, err)
	ensure.DeepEqual(t, Code(err), -int(ErrProtocol))
}

func TestBatchMultiGetWithinOneExecute(t *testing.T) {
	path := setupEnv(t, []string{"bucket"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	ensure.Nil(t, Enqueue(0, OpPut, []byte("k1"), Bytes([]byte("v1"))))
	ensure.Nil(t, Enqueue(0, OpPut, []byte("k2"), Bytes([]byte("v2"))))
	ensure.Nil(t, Execute())

	var g1, g2 []byte
	ensure.Nil(t, Enqueue(0, OpGet, []byte("k1"), Into(&g1)))
	ensure.Nil(t, Enqueue(0, OpGet, []byte("k2"), Into(&g2)))
	ensure.Nil(t, Execute())
	ensure.DeepEqual(t, g1, []byte("v1"))
	ensure.DeepEqual(t, g2, []byte("v2"))
}
