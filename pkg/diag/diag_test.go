package diag

import (
	"errors"
	"strings"
	"testing"

	"src.adam.sh/pkg/testutil"
)

func setMarkers(t *testing.T) {
	testutil.Set(t, &culpritLineBegin, "<")
	testutil.Set(t, &culpritLineEnd, ">")
	testutil.Set(t, &messageStart, "{")
	testutil.Set(t, &messageEnd, "}")
}

func TestEmbeddingRangingImplementsRanger(t *testing.T) {
	type aRanger struct{ Ranging }
	r := Ranging{1, 10}
	s := Ranger(aRanger{Ranging{1, 10}})
	if s.Range() != r {
		t.Errorf("s.Range() = %v, want %v", s.Range(), r)
	}
}

func TestMixedRanging(t *testing.T) {
	got := MixedRanging(Ranging{1, 2}, Ranging{5, 9})
	if want := (Ranging{1, 9}); got != want {
		t.Errorf("MixedRanging -> %v, want %v", got, want)
	}
}

func TestContextPosition(t *testing.T) {
	src := "sheet s {\n  x : 1 +;\n}"
	c := NewContext("[test]", src, Ranging{19, 20})
	line, col := c.Position()
	if line != 2 || col != 10 {
		t.Errorf("Position() -> %d, %d, want 2, 10", line, col)
	}
	if got := c.Describe(); got != "[test]:2:10" {
		t.Errorf("Describe() -> %q", got)
	}
}

func TestError(t *testing.T) {
	setMarkers(t)
	err := &Error{
		Type:    "parse error",
		Message: "bad expression",
		Context: *NewContext("[test]", "x : (1 +);", Ranging{4, 9}),
	}
	if got, want := err.Error(), "parse error: [test]:1:5: bad expression"; got != want {
		t.Errorf("Error() -> %q, want %q", got, want)
	}
	if got, want := err.Range(), (Ranging{4, 9}); got != want {
		t.Errorf("Range() -> %v, want %v", got, want)
	}
	wantShow := "Parse error: {bad expression}\n  [test]:1:5: x : <(1 +)>;"
	if got := err.Show(""); got != wantShow {
		t.Errorf("Show() -> %q, want %q", got, wantShow)
	}
}

func TestErrors(t *testing.T) {
	e1 := &Error{Type: "parse error", Message: "a", Context: *NewContext("f", "xy", Ranging{0, 1})}
	e2 := &Error{Type: "parse error", Message: "b", Context: *NewContext("f", "xy", Ranging{1, 2})}
	var err error = Errors{e1, e2}
	if !strings.HasPrefix(err.Error(), "multiple errors: ") {
		t.Errorf("Error() -> %q", err.Error())
	}
	if got := UnpackErrors(err); len(got) != 2 {
		t.Errorf("UnpackErrors(Errors) -> %v", got)
	}
	if got := UnpackErrors(e1); len(got) != 1 || got[0] != e1 {
		t.Errorf("UnpackErrors(*Error) -> %v", got)
	}
	if got := UnpackErrors(errors.New("x")); got != nil {
		t.Errorf("UnpackErrors(other) -> %v", got)
	}
}

func TestShowError(t *testing.T) {
	var sb strings.Builder
	ShowError(&sb, errors.New("plain"))
	if got := sb.String(); got != "\033[31;1mplain\033[m\n" {
		t.Errorf("ShowError(plain) wrote %q", got)
	}
}
