package store_test

import (
	"path/filepath"
	"testing"

	"src.adam.sh/pkg/store"
	"src.adam.sh/pkg/store/storetest"
	"src.adam.sh/pkg/vals"
)

func TestSnapshot(t *testing.T) {
	storetest.TestSnapshot(t, store.MustTempStore(t))
}

func TestNewStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	st, err := store.NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveSnapshot("s", vals.Dict{"x": vals.Num(1)}); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st, err = store.NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	d, err := st.Snapshot("s")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(vals.Dict{"x": vals.Num(1)}) {
		t.Errorf("got %s after reopening", vals.DictValue(d))
	}
}

func TestNewStore_BadPath(t *testing.T) {
	if _, err := store.NewStore(filepath.Join(t.TempDir(), "no", "such", "dir", "db")); err == nil {
		t.Errorf("NewStore in missing directory returns nil error")
	}
}
