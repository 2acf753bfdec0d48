// Adam evaluates property sheets: sets of cells whose values are computed
// from one another by expressions, as used to model the state of dialogs.
// It also prints layouts and serves a language server for sheet files.
package main

import (
	"os"

	"src.adam.sh/pkg/buildinfo"
	"src.adam.sh/pkg/lsp"
	"src.adam.sh/pkg/prog"
	"src.adam.sh/pkg/prog/sheetprog"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(buildinfo.Program{}, lsp.Program{}, sheetprog.Program{})))
}
