// Package storetest keeps test suites against storedefs.Store.
package storetest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.adam.sh/pkg/store/storedefs"
	"src.adam.sh/pkg/tt"
	"src.adam.sh/pkg/vals"
)

// TestSnapshot tests the snapshot functionality of a Store.
func TestSnapshot(t *testing.T, store storedefs.Store) {
	if _, err := store.Snapshot("dialog"); !errors.Is(err, storedefs.ErrNoSnapshot) {
		t.Errorf("Snapshot of missing snapshot returns %v, want ErrNoSnapshot", err)
	}

	d := vals.Dict{
		"width":   vals.Num(12.5),
		"name":    vals.String("Example"),
		"enabled": vals.Bool(true),
		"unit":    vals.NameValue("inches"),
		"nothing": vals.Empty,
		"size":    vals.Of(vals.MakeArray(1, 2)),
		"opts":    vals.Of(vals.MakeDict("a", "x")),
	}
	if err := store.SaveSnapshot("dialog", d); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	got, err := store.Snapshot("dialog")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !got.Equal(d) {
		t.Errorf("Snapshot returns %s, want %s", vals.DictValue(got), vals.DictValue(d))
	}

	// Saving again replaces the snapshot.
	if err := store.SaveSnapshot("dialog", vals.Dict{"width": vals.Num(3)}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	got, _ = store.Snapshot("dialog")
	if want := (vals.Dict{"width": vals.Num(3)}); !got.Equal(want) {
		t.Errorf("Snapshot after overwrite returns %s, want %s", vals.DictValue(got), vals.DictValue(want))
	}

	store.SaveSnapshot("b", vals.Dict{})
	store.SaveSnapshot("a", vals.Dict{})
	names, err := store.Snapshots()
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if want := []string{"a", "b", "dialog"}; !cmp.Equal(names, want) {
		t.Errorf("Snapshots returns %v, want %v", names, want)
	}

	if err := store.DelSnapshot("dialog"); err != nil {
		t.Errorf("DelSnapshot: %v", err)
	}
	if _, err := store.Snapshot("dialog"); !errors.Is(err, storedefs.ErrNoSnapshot) {
		t.Errorf("Snapshot after DelSnapshot returns %v, want ErrNoSnapshot", err)
	}
	// Deleting a missing snapshot is not an error.
	tt.Test(t, tt.Fn("DelSnapshot", store.DelSnapshot), tt.Table{
		tt.Args("dialog").Rets(nil),
	})
}
