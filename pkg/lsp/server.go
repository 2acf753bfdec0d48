package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"src.adam.sh/pkg/adam"
	"src.adam.sh/pkg/diag"
	"src.adam.sh/pkg/fn"
	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/sheet"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type server struct {
	content map[lsp.DocumentURI]string
}

func newServer() *server {
	return &server{make(map[lsp.DocumentURI]string)}
}

func handler(s *server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"initialize":              s.initialize,
		"textDocument/didOpen":    s.didOpen,
		"textDocument/didChange":  s.didChange,
		"textDocument/didClose":   s.didClose,
		"textDocument/hover":      s.hover,
		"textDocument/completion": s.completion,

		// Required by spec.
		"initialized": noop,
		"shutdown":    noop,
		"exit":        noop,
		// Called by clients even when server doesn't advertise support:
		// https://microsoft.github.io/language-server-protocol/specification#workspace_didChangeWatchedFiles
		"workspace/didChangeWatchedFiles": noop,
	})
}

type method func(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error)

func noop(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, nil
}

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	// Requests are handled one at a time, in the order they arrive.
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, conn, params)
	})
}

// Handler implementations. These are all called synchronously.

func (s *server) initialize(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
				},
			},
			HoverProvider:      true,
			CompletionProvider: &lsp.CompletionOptions{},
		},
	}, nil
}

func (s *server) didOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	uri, content := params.TextDocument.URI, params.TextDocument.Text
	s.content[uri] = content
	s.publishDiagnostics(ctx, conn, uri)
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil || len(params.ContentChanges) == 0 {
		return nil, errInvalidParams
	}

	// ContentChanges includes full text since the server is only advertised to
	// support that; see the initialize method.
	uri, content := params.TextDocument.URI, params.ContentChanges[0].Text
	s.content[uri] = content
	s.publishDiagnostics(ctx, conn, uri)
	return nil, nil
}

func (s *server) didClose(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidCloseTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	delete(s.content, params.TextDocument.URI)
	return nil, nil
}

func (s *server) hover(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	content := s.content[params.TextDocument.URI]
	o, _ := adam.Parse(parse.Source{Name: string(params.TextDocument.URI), Code: content})
	idx := lspPositionToIdx(content, params.Position)
	if c, ok := o.CellAt(idx); ok {
		r := lspRangeFromRange(content, c)
		return lsp.Hover{Contents: []lsp.MarkedString{markdown(describeCell(c))}, Range: &r}, nil
	}
	if f, ok := o.FunctionAt(idx); ok {
		r := lspRangeFromRange(content, f)
		return lsp.Hover{Contents: []lsp.MarkedString{markdown(describeFunction(f))}, Range: &r}, nil
	}
	return lsp.Hover{}, nil
}

func markdown(s string) lsp.MarkedString {
	return lsp.MarkedString{Language: "markdown", Value: s}
}

// Returns something like "interface cell `x`: `5 <== y * 2`".
func describeCell(c parse.Cell) string {
	var sb strings.Builder
	sb.WriteString(c.Kind.String() + " cell `" + string(c.Name) + "`")
	var parts []string
	if c.Init != nil {
		if text, err := parse.FormatExpression(c.Init); err == nil {
			parts = append(parts, text)
		}
	}
	if c.Expr != nil {
		if text, err := parse.FormatExpression(c.Expr); err == nil {
			parts = append(parts, "<== "+text)
		}
	}
	if len(parts) > 0 {
		sb.WriteString(": `" + strings.Join(parts, " ") + "`")
	}
	return sb.String()
}

func describeFunction(f parse.FunctionDef) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = string(p)
	}
	return "function `" + string(f.Name) + "(" + strings.Join(params, ", ") + ")`"
}

func (s *server) completion(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.CompletionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	content := s.content[params.TextDocument.URI]
	o, _ := adam.Parse(parse.Source{Name: string(params.TextDocument.URI), Code: content})
	dot := lspPositionToIdx(content, params.Position)
	begin := dot
	for begin > 0 && isIdentByte(content[begin-1]) {
		begin--
	}
	prefix := content[begin:dot]
	replace := lspRangeFromRange(content, diag.Ranging{From: begin, To: dot})

	items := []lsp.CompletionItem{}
	add := func(name string, kind lsp.CompletionItemKind) {
		if strings.HasPrefix(name, prefix) {
			items = append(items, lsp.CompletionItem{
				Label:    name,
				Kind:     kind,
				TextEdit: &lsp.TextEdit{Range: replace, NewText: name},
			})
		}
	}
	for _, c := range o.Cells {
		add(string(c.Name), lsp.CIKVariable)
	}
	for _, name := range s.functions().Names() {
		add(string(name), lsp.CIKFunction)
	}
	for _, name := range vm.BuiltinNames() {
		add(string(name), lsp.CIKFunction)
	}
	return items, nil
}

func isIdentByte(b byte) bool {
	return b == '_' || '0' <= b && b <= '9' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

// Returns the functions defined in all open function files. Files with
// errors contribute the functions before the error.
func (s *server) functions() *fn.Registry {
	r := fn.NewRegistry()
	uris := make([]string, 0, len(s.content))
	for uri := range s.content {
		uris = append(uris, string(uri))
	}
	sort.Strings(uris)
	for _, uri := range uris {
		code := s.content[lsp.DocumentURI(uri)]
		if adam.DetectKind(code) != adam.FunctionFile {
			continue
		}
		o, _ := adam.Parse(parse.Source{Name: uri, Code: code})
		for _, def := range o.Functions {
			// Duplicates are reported in diagnostics of their own file.
			r.Add(fn.FromDef(def))
		}
	}
	return r
}

func (s *server) publishDiagnostics(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI) {
	conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: s.diagnostics(uri)})
}

func (s *server) diagnostics(uri lsp.DocumentURI) []lsp.Diagnostic {
	content := s.content[uri]
	src := parse.Source{Name: string(uri), Code: content}
	o, err := adam.Parse(src)
	if err != nil {
		return parseDiagnostics(content, err)
	}
	switch o.Kind {
	case adam.SheetFile:
		_, _, err = adam.Sheet(src, adam.Config{Functions: s.functions()})
	case adam.LayoutFile:
		_, _, err = adam.Layout(src, adam.Config{Functions: s.functions()})
	default:
		_, err = adam.Functions(src)
	}
	if err == nil {
		return []lsp.Diagnostic{}
	}
	if ds := parseDiagnostics(content, err); len(ds) > 0 {
		return ds
	}
	return []lsp.Diagnostic{{
		Range:    lspRangeFromRange(content, errorRange(o, err)),
		Severity: lsp.Error,
		Source:   "sheet",
		Message:  err.Error(),
	}}
}

func parseDiagnostics(content string, err error) []lsp.Diagnostic {
	entries := diag.UnpackErrors(err)
	diags := make([]lsp.Diagnostic, len(entries))
	for i, err := range entries {
		diags[i] = lsp.Diagnostic{
			Range:    lspRangeFromRange(content, err),
			Severity: lsp.Error,
			Source:   "parse",
			Message:  err.Message,
		}
	}
	return diags
}

// Finds the declaration to blame for an error without position information.
func errorRange(o *adam.Outline, err error) diag.Ranging {
	var name vals.Name
	var noCell *sheet.NoCellError
	var cycle *sheet.CycleError
	var dup *fn.DuplicateFunctionError
	switch {
	case errors.As(err, &noCell):
		name = noCell.Referrer
	case errors.As(err, &cycle) && len(cycle.Cells) > 0:
		name = cycle.Cells[0]
	case errors.As(err, &dup):
		// Blame the second definition.
		var found bool
		for _, f := range o.Functions {
			if f.Name == dup.Name {
				if found {
					return f.Ranging
				}
				found = true
			}
		}
	}
	for _, c := range o.Cells {
		if c.Name == name {
			return c.Ranging
		}
	}
	return diag.Ranging{}
}

func lspRangeFromRange(s string, r diag.Ranger) lsp.Range {
	rg := r.Range()
	return lsp.Range{
		Start: lspPositionFromIdx(s, rg.From),
		End:   lspPositionFromIdx(s, rg.To),
	}
}

func lspPositionToIdx(s string, pos lsp.Position) int {
	var idx int
	walkString(s, func(i int, p lsp.Position) bool {
		idx = i
		return p.Line < pos.Line || (p.Line == pos.Line && p.Character < pos.Character)
	})
	return idx
}

func lspPositionFromIdx(s string, idx int) lsp.Position {
	var pos lsp.Position
	walkString(s, func(i int, p lsp.Position) bool {
		pos = p
		return i < idx
	})
	return pos
}

// Generates (index, lspPosition) pairs in s, stopping if f returns false.
func walkString(s string, f func(i int, p lsp.Position) bool) {
	var p lsp.Position
	lastCR := false

	for i, r := range s {
		if !f(i, p) {
			return
		}
		switch {
		case r == '\r':
			p.Line++
			p.Character = 0
		case r == '\n':
			if lastCR {
				// Ignore \n if it's part of a \r\n sequence
			} else {
				p.Line++
				p.Character = 0
			}
		case r <= 0xFFFF:
			// Encoded in UTF-16 with one unit
			p.Character++
		default:
			// Encoded in UTF-16 with two units
			p.Character += 2
		}
		lastCR = r == '\r'
	}
	f(len(s), p)
}
