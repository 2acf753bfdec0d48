package vals_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "src.adam.sh/pkg/vals"
)

func TestDictYAMLRoundTrip(t *testing.T) {
	d := MakeDict(
		"name", Name("ok"),
		"text", "hello",
		"count", 3,
		"ratio", 0.25,
		"flag", true,
		"nothing", nil,
		"list", MakeArray(1, "two", Name("three")),
		"nested", MakeDict("x", 1),
	)
	data, err := MarshalDict(d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "!name ok") {
		t.Errorf("names should carry the !name tag, got:\n%s", data)
	}
	back, err := UnmarshalDict(data)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(d, back) {
		t.Errorf("round trip (-want +got):\n%s", cmp.Diff(d, back))
	}
}

func TestUnmarshalDict_Errors(t *testing.T) {
	if _, err := UnmarshalDict([]byte("- 1\n- 2\n")); err == nil {
		t.Errorf("want error for a sequence document")
	}
	if _, err := UnmarshalDict([]byte("a: !!binary aGk=\n")); err == nil {
		t.Errorf("want error for binary tag")
	}
	d, err := UnmarshalDict(nil)
	if err != nil || len(d) != 0 {
		t.Errorf("UnmarshalDict(nil) -> %v, %v", d, err)
	}
}

func TestMarshalDict_PlainScalars(t *testing.T) {
	data, err := MarshalDict(MakeDict("a", 1, "b", 0.5, "c", "x", "d", "true"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "a: 1\nb: 0.5\nc: x\nd: \"true\"\n"; string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}
