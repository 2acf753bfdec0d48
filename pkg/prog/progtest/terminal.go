//go:build unix

package progtest

import (
	"os"
	"testing"

	"github.com/creack/pty"
	"src.adam.sh/pkg/prog"
)

// RunInTerminal runs a Program with its stdout connected to a pseudo
// terminal, and returns its exit status along with what it wrote to the
// terminal and to stderr.
func RunInTerminal(t testing.TB, p prog.Program, args ...string) (exit int, term, stderr string) {
	t.Helper()
	ptm, tty, err := pty.Open()
	if err != nil {
		t.Skipf("cannot open pty: %v", err)
	}
	defer ptm.Close()
	r0, w0 := pipe(t)
	w0.Close()
	r2, w2 := pipe(t)
	termCh, errCh := readAllAsync(ptm), readAllAsync(r2)
	exit = prog.Run([3]*os.File{r0, tty, w2}, append([]string{"adam"}, args...), p)
	// Closing the tty makes reads from the master side return EIO once
	// everything has been read.
	tty.Close()
	w2.Close()
	return exit, <-termCh, <-errCh
}

