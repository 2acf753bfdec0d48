// Package progtest contains utilities for testing [prog.Program]
// implementations.
package progtest

import (
	"io"
	"os"
	"strings"
	"testing"

	"src.adam.sh/pkg/prog"
)

// Case is a test case for Test, created with ThatAdam.
type Case struct {
	args  []string
	stdin string
	want  result
}

type result struct {
	exit           int
	stdout, stderr output
}

type output struct {
	content string
	partial bool
	checked bool
}

// ThatAdam returns a new Case with the specified command-line arguments. The
// program name should not be included. By default the case expects the
// program to exit with 0 without writing anything.
func ThatAdam(args ...string) Case {
	return Case{args: args}
}

// WithStdin returns an altered Case that feeds the given string to the
// program's stdin.
func (c Case) WithStdin(s string) Case {
	c.stdin = s
	return c
}

// DoesNothing returns c itself. It is useful to mark tests that otherwise
// don't have any expectations.
func (c Case) DoesNothing() Case {
	return c
}

// ExitsWith returns an altered Case that requires the program to exit with
// the given code.
func (c Case) ExitsWith(code int) Case {
	c.want.exit = code
	return c
}

// WritesStdout returns an altered Case that requires the program to write
// exactly the given text to stdout.
func (c Case) WritesStdout(s string) Case {
	c.want.stdout = output{s, false, true}
	return c
}

// WritesStdoutContaining returns an altered Case that requires stdout to
// contain the given text.
func (c Case) WritesStdoutContaining(s string) Case {
	c.want.stdout = output{s, true, true}
	return c
}

// WritesStderr returns an altered Case that requires the program to write
// exactly the given text to stderr.
func (c Case) WritesStderr(s string) Case {
	c.want.stderr = output{s, false, true}
	return c
}

// WritesStderrContaining returns an altered Case that requires stderr to
// contain the given text.
func (c Case) WritesStderrContaining(s string) Case {
	c.want.stderr = output{s, true, true}
	return c
}

// Test runs test cases against a given program.
func Test(t *testing.T, p prog.Program, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.args, " "), func(t *testing.T) {
			t.Helper()
			exit, stdout, stderr := Run(t, p, c.stdin, c.args...)
			if exit != c.want.exit {
				t.Errorf("got exit %v, want %v", exit, c.want.exit)
			}
			checkOutput(t, "stdout", stdout, c.want.stdout)
			checkOutput(t, "stderr", stderr, c.want.stderr)
		})
	}
}

func checkOutput(t *testing.T, name, got string, want output) {
	t.Helper()
	switch {
	case !want.checked:
		if got != "" {
			t.Errorf("got %s %q, want empty", name, got)
		}
	case want.partial:
		if !strings.Contains(got, want.content) {
			t.Errorf("got %s %q, want string containing %q", name, got, want.content)
		}
	default:
		if got != want.content {
			t.Errorf("got %s %q, want %q", name, got, want.content)
		}
	}
}

// Run runs a Program with the given stdin and arguments, and returns its exit
// status and output.
func Run(t testing.TB, p prog.Program, stdin string, args ...string) (exit int, stdout, stderr string) {
	t.Helper()
	r0, w0 := pipe(t)
	r1, w1 := pipe(t)
	r2, w2 := pipe(t)
	go func() {
		io.WriteString(w0, stdin)
		w0.Close()
	}()
	outCh, errCh := readAllAsync(r1), readAllAsync(r2)
	exit = prog.Run([3]*os.File{r0, w1, w2}, append([]string{"adam"}, args...), p)
	w1.Close()
	w2.Close()
	return exit, <-outCh, <-errCh
}

func pipe(t testing.TB) (*os.File, *os.File) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return r, w
}

func readAllAsync(r io.Reader) <-chan string {
	ch := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(r)
		ch <- string(b)
	}()
	return ch
}
