package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSet(t *testing.T) {
	x := 1
	t.Run("inner", func(t *testing.T) {
		Set(t, &x, 2)
		if x != 2 {
			t.Errorf("x = %d during test, want 2", x)
		}
	})
	if x != 1 {
		t.Errorf("x = %d after test, want 1", x)
	}
}

func TestRecover(t *testing.T) {
	if r := Recover(func() {}); r != nil {
		t.Errorf("Recover(no panic) -> %v", r)
	}
	if r := Recover(func() { panic("boom") }); r != "boom" {
		t.Errorf("Recover(panic) -> %v", r)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := WriteFiles(t, map[string]string{"a/b.txt": "hi"})
	data, err := os.ReadFile(filepath.Join(dir, "a", "b.txt"))
	if err != nil || string(data) != "hi" {
		t.Errorf("read back %q, %v", data, err)
	}
}

var dedentTests = []struct {
	in, want string
}{
	{"\n    a\n      b\n    c", "a\n  b\nc"},
	{"  a\n\n  b", "a\n\nb"},
	{"\ta\n  b", "\ta\n  b"},
	{"no indent", "no indent"},
}

func TestDedent(t *testing.T) {
	for _, test := range dedentTests {
		if got := Dedent(test.in); got != test.want {
			t.Errorf("Dedent(%q) -> %q, want %q", test.in, got, test.want)
		}
	}
}
