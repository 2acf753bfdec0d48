// Package sheetprog implements the main subprogram of Adam, which evaluates
// a sheet or prints a layout.
package sheetprog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
	"src.adam.sh/pkg/adam"
	"src.adam.sh/pkg/diag"
	"src.adam.sh/pkg/fn"
	"src.adam.sh/pkg/logutil"
	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/prog"
	"src.adam.sh/pkg/sheet"
	"src.adam.sh/pkg/store"
	"src.adam.sh/pkg/store/storedefs"
	"src.adam.sh/pkg/vals"
)

var logger = logutil.GetLogger("[sheetprog] ")

// Program is the sheet subprogram. It runs when none of the other
// subprograms do.
type Program struct{}

// Run runs the program.
func (Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if len(args) != 1 {
		return prog.BadUsage("need exactly one file")
	}
	if (f.Save != "" || f.Restore != "") && f.DB == "" {
		return prog.BadUsage("-save and -restore need -db")
	}
	color, err := useColor(f.Color, fds[1])
	if err != nil {
		return prog.BadUsage(err.Error())
	}

	src, err := readSource(args[0])
	if err != nil {
		fmt.Fprintln(fds[2], err)
		return prog.Exit(2)
	}
	funcs, err := loadFunctions(f.Fn)
	if err != nil {
		diag.ShowError(fds[2], err)
		return prog.Exit(2)
	}
	cfg := adam.Config{Functions: funcs}
	out := &printer{w: fds[1], color: color, yaml: f.YAML}

	var st storedefs.Store
	if f.DB != "" {
		db, err := store.NewStore(f.DB)
		if err != nil {
			fmt.Fprintf(fds[2], "cannot open database %q: %v\n", f.DB, err)
			return prog.Exit(2)
		}
		defer db.Close()
		st = db
	}

	var broken []vals.Name
	if f.Layout {
		err = runLayout(src, cfg, f, st, out)
	} else {
		broken, err = runSheet(src, cfg, f, st, out)
	}
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return prog.BadUsage(usage.msg)
	case err != nil:
		diag.ShowError(fds[2], err)
		return prog.Exit(2)
	}
	for _, n := range broken {
		diag.Complainf(fds[2], "invariant %s does not hold", n)
	}
	if len(broken) > 0 {
		return prog.Exit(1)
	}
	return nil
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// A cell store, either a sheet.Sheet or a basicsheet.Sheet.
type cells interface {
	Inspect(vals.Array) (vals.Value, error)
	Set(vals.Name, vals.Value) error
	SetAll(vals.Dict) error
	Contributing() vals.Dict
}

// Evaluates a sheet and prints its values. It returns the names of broken
// invariants.
func runSheet(src parse.Source, cfg adam.Config, f *prog.Flags, st storedefs.Store, out *printer) ([]vals.Name, error) {
	s, name, err := adam.Sheet(src, cfg)
	if err != nil {
		return nil, err
	}
	logger.Printf("loaded sheet %s", name)
	// Initial values are needed to evaluate assignments.
	if _, err := s.Update(); err != nil {
		return nil, err
	}
	if err := apply(s, f, st); err != nil {
		return nil, err
	}
	if _, err := s.Update(); err != nil {
		return nil, err
	}

	d := s.Contributing()
	names := s.Names(sheet.Interface)
	for _, n := range s.Names(sheet.Output) {
		d[n], _ = s.Get(n)
		names = append(names, n)
	}
	if err := out.values(names, d); err != nil {
		return nil, err
	}
	if err := save(s, f, st); err != nil {
		return nil, err
	}
	return s.BrokenInvariants(), nil
}

func runLayout(src parse.Source, cfg adam.Config, f *prog.Flags, st storedefs.Store, out *printer) error {
	s, name, err := adam.Layout(src, cfg)
	if err != nil {
		return err
	}
	if err := apply(s, f, st); err != nil {
		return err
	}
	if f.YAML {
		d := s.Contributing()
		if err := out.values(vals.SortedKeys(d), d); err != nil {
			return err
		}
	} else if err := s.Print(out.w, string(name)); err != nil {
		return err
	}
	return save(s, f, st)
}

// Restores the snapshot named by -restore, then applies -set assignments.
func apply(s cells, f *prog.Flags, st storedefs.Store) error {
	if f.Restore != "" {
		d, err := st.Snapshot(f.Restore)
		if err != nil {
			return fmt.Errorf("cannot restore %q: %w", f.Restore, err)
		}
		if err := s.SetAll(d); err != nil {
			return err
		}
	}
	for i, assignment := range f.Set {
		name, code, ok := strings.Cut(assignment, "=")
		if !ok || !parse.IsIdentifier(strings.TrimSpace(name)) {
			return usageError{fmt.Sprintf("bad -set %q, want name=expression", assignment)}
		}
		expr, err := parse.Expression(parse.Source{Name: fmt.Sprintf("[-set %d]", i+1), Code: code})
		if err != nil {
			return err
		}
		v, err := s.Inspect(expr)
		if err != nil {
			return err
		}
		if err := s.Set(vals.Name(strings.TrimSpace(name)), v); err != nil {
			return err
		}
	}
	return nil
}

func save(s cells, f *prog.Flags, st storedefs.Store) error {
	if f.Save == "" {
		return nil
	}
	return st.SaveSnapshot(f.Save, s.Contributing())
}

func loadFunctions(files []string) (*fn.Registry, error) {
	srcs := make([]parse.Source, len(files))
	for i, file := range files {
		src, err := readSource(file)
		if err != nil {
			return nil, err
		}
		srcs[i] = src
	}
	return adam.Functions(srcs...)
}

var errSourceNotUTF8 = errors.New("source is not UTF-8")

func readSource(fname string) (parse.Source, error) {
	name, err := filepath.Abs(fname)
	if err != nil {
		return parse.Source{}, fmt.Errorf("cannot get full path of %q: %w", fname, err)
	}
	bytes, err := os.ReadFile(name)
	if err != nil {
		return parse.Source{}, fmt.Errorf("cannot read %q: %w", fname, err)
	}
	if !utf8.Valid(bytes) {
		return parse.Source{}, fmt.Errorf("cannot read %q: %w", fname, errSourceNotUTF8)
	}
	return parse.Source{Name: name, Code: string(bytes)}, nil
}

func useColor(mode string, out *os.File) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		fd := out.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd), nil
	default:
		return false, fmt.Errorf("bad -color %q, want auto, always or never", mode)
	}
}

type printer struct {
	w     io.Writer
	color bool
	yaml  bool
}

const (
	nameStart = "\033[36m"
	nameEnd   = "\033[m"
)

// Writes values of the given names, one "name: repr" per line, or as a YAML
// mapping.
func (p *printer) values(names []vals.Name, d vals.Dict) error {
	if p.yaml {
		data, err := vals.MarshalDict(d)
		if err != nil {
			return err
		}
		_, err = p.w.Write(data)
		return err
	}
	var sb strings.Builder
	for _, n := range names {
		if p.color {
			sb.WriteString(nameStart + string(n) + nameEnd)
		} else {
			sb.WriteString(string(n))
		}
		sb.WriteString(": " + vals.Repr(d[n]) + "\n")
	}
	_, err := io.WriteString(p.w, sb.String())
	return err
}
