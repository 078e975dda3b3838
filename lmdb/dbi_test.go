package lmdb

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/facebookgo/ensure"
)

func setupEnv(t *testing.T, dbiNames []string, dbiTypes []DBIType) string {
	path, err := ioutil.TempDir("", "lmdb_test")
	ensure.Nil(t, err)
	err = Init(path, 0700, dbiNames, dbiTypes, nil)
	ensure.Nil(t, err)
	return path
}

func cleanEnv(path string, t *testing.T) {
	Shutdown()
	os.RemoveAll(path)
}

func TestOpenDBIDefault(t *testing.T) {
	path := setupEnv(t, []string{"plain"}, []DBIType{DBIDefault})
	defer cleanEnv(path, t)

	env := currentEnv()
	ensure.DeepEqual(t, len(env.dbis), 1)
	d := env.dbis[0]
	ensure.False(t, d.isDupSort)
	ensure.False(t, d.isDupFixed)
	ensure.DeepEqual(t, d.putFlags, uint(flagNoOverwrite))
	ensure.DeepEqual(t, d.expectedValSize, -1)
}

func TestOpenDBIDupSort(t *testing.T) {
	path := setupEnv(t, []string{"multi"}, []DBIType{DBIDupSort})
	defer cleanEnv(path, t)

	d := currentEnv().dbis[0]
	ensure.True(t, d.isDupSort)
	ensure.False(t, d.isDupFixed)
	ensure.DeepEqual(t, d.putFlags, uint(flagNoDupData))
}

func TestOpenDBIDupFixed(t *testing.T) {
	path := setupEnv(t, []string{"fixed"}, []DBIType{DBIDupFixed})
	defer cleanEnv(path, t)

	d := currentEnv().dbis[0]
	ensure.True(t, d.isDupSort)
	ensure.True(t, d.isDupFixed)
	ensure.DeepEqual(t, d.expectedValSize, -1)
}

func TestOpenMultipleDBIsPreservesOrder(t *testing.T) {
	path := setupEnv(t, []string{"a", "b", "c"}, []DBIType{DBIDefault, DBIDupSort, DBIDupFixed})
	defer cleanEnv(path, t)

	env := currentEnv()
	ensure.DeepEqual(t, len(env.dbis), 3)
	ensure.False(t, env.dbis[0].isDupSort)
	ensure.True(t, env.dbis[1].isDupSort)
	ensure.True(t, env.dbis[2].isDupFixed)
}
