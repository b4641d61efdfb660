// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path"
	"sort"
	"strconv"
	"strings"
)

// maxIncludeDepth bounds #include nesting.
const maxIncludeDepth = 64

// Source is one effect source text.
type Source struct {
	// Name identifies the source in diagnostics. When Options.FS is set it
	// is also the source's path inside FS.
	Name string
	Text string
}

// Options configures the preprocessor.
type Options struct {
	// FS resolves #include directives. Nil disables includes.
	FS fs.FS

	// Dir is the directory quoted includes of the main source are resolved
	// against. Defaults to the directory of Source.Name.
	Dir string

	// SystemPaths are searched for <file> includes, and for "file" includes
	// not found next to the including file.
	SystemPaths []string

	// Defines are predefined macros. A key may carry a parameter list,
	// e.g. "SQR(x)" with value "((x)*(x))".
	Defines map[string]string

	// LineMarkers writes #line markers wherever the output stops mapping
	// contiguously onto a source file.
	LineMarkers bool

	// Logger receives directive tracing. Nil discards.
	Logger *log.Logger
}

// Output is the result of preprocessing.
type Output struct {
	Text string

	// Dependencies are the files read besides the main source, sorted.
	Dependencies []string

	// Lines maps output lines back to their sources.
	Lines LineMap
}

type frame struct {
	path    string // path inside FS
	dir     string // directory for quoted includes
	display string // name used in diagnostics, changed by #line
	delta   int    // added to physical line numbers, changed by #line
	base    int    // depth of the conditional stack when the file was entered
	raw     []string
}

type conditional struct {
	parentActive bool
	active       bool
	taken        bool
	sawElse      bool
	line         int
}

type preprocessor struct {
	opts   Options
	log    *log.Logger
	macros macroTable

	conds []conditional
	stack []string
	once  map[string]bool
	deps  map[string]bool

	buf     strings.Builder
	outLine int
	lines   LineMap
}

// Preprocess expands directives and macros in src.
func Preprocess(src Source, opts Options) (*Output, error) {
	p := &preprocessor{
		opts:   opts,
		log:    opts.Logger,
		macros: make(macroTable),
		once:   make(map[string]bool),
		deps:   make(map[string]bool),
	}
	if p.log == nil {
		p.log = log.New(io.Discard, "", 0)
	}

	names := make([]string, 0, len(opts.Defines))
	for name := range opts.Defines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m, err := parseDefine(name + " " + opts.Defines[name])
		if err != nil {
			return nil, &SourceError{File: "<command line>", Message: err.Error()}
		}
		p.macros[m.name] = m
	}

	dir := opts.Dir
	if dir == "" {
		dir = path.Dir(src.Name)
	}
	if err := p.file(src.Name, dir, src.Text); err != nil {
		return nil, err
	}

	out := &Output{
		Text:  p.buf.String(),
		Lines: p.lines,
	}
	for dep := range p.deps {
		out.Dependencies = append(out.Dependencies, dep)
	}
	sort.Strings(out.Dependencies)
	return out, nil
}

func (p *preprocessor) file(name, dir, text string) error {
	clean, unterminated := stripComments(text)
	if unterminated != 0 {
		return &SourceError{File: name, Line: unterminated, Message: "unterminated comment"}
	}
	f := &frame{
		path:    name,
		dir:     dir,
		display: name,
		base:    len(p.conds),
		raw:     strings.Split(text, "\n"),
	}
	p.stack = append(p.stack, name)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	lines := splitLines(clean)
	for i := 0; i < len(lines); {
		n, err := p.line(f, lines[i:])
		if err != nil {
			return err
		}
		i += n
	}
	if len(p.conds) > f.base {
		c := p.conds[len(p.conds)-1]
		p.conds = p.conds[:f.base]
		return p.errorf(f, c.line, 0, "unterminated conditional directive")
	}
	return nil
}

// isDirective reports whether a logical line is a preprocessing directive.
func isDirective(text string) bool {
	return strings.HasPrefix(strings.TrimLeft(text, " \t"), "#")
}

// line processes the first of lines and reports how many logical lines it
// consumed. A macro call whose arguments continue on following text lines
// consumes those lines too.
func (p *preprocessor) line(f *frame, lines []logicalLine) (int, error) {
	ll := lines[0]
	if isDirective(ll.text) {
		trimmed := strings.TrimLeft(ll.text, " \t")
		col := len(ll.text) - len(trimmed) + 1
		spliced, err := p.directive(f, ll, strings.TrimLeft(trimmed[1:], " \t"), col)
		if err != nil {
			return 0, err
		}
		start := 0
		if !spliced {
			start = -1
		}
		// A directive line becomes an empty line, an #include line becomes
		// the included text.
		for i := start; i < ll.span-1; i++ {
			p.emit("", f, ll.line+i+1)
		}
		return 1, nil
	}
	if !p.active() {
		for i := 0; i < ll.span; i++ {
			p.emit("", f, ll.line+i)
		}
		return 1, nil
	}

	used := 1
	text, err := p.expandLine(f, ll)
	for errors.Is(err, errUnterminatedArgs) && used < len(lines) && !isDirective(lines[used].text) {
		next := lines[used]
		ll = logicalLine{text: ll.text + " " + next.text, line: ll.line, span: ll.span + next.span}
		used++
		text, err = p.expandLine(f, ll)
	}
	if err != nil {
		return 0, p.errorf(f, ll.line, 0, "%v", err)
	}
	// The joined lines are emitted as empty lines after the expansion.
	p.emit(text, f, ll.line)
	for i := 1; i < ll.span; i++ {
		p.emit("", f, ll.line+i)
	}
	return used, nil
}

func (p *preprocessor) expandLine(f *frame, ll logicalLine) (string, error) {
	toks := tokenize(ll.text)
	for i, tok := range toks {
		if tok.kind != tokIdent {
			continue
		}
		if _, user := p.macros[tok.text]; user {
			continue
		}
		switch tok.text {
		case "__LINE__":
			toks[i] = token{kind: tokNumber, text: strconv.Itoa(ll.line + f.delta)}
		case "__FILE__":
			toks[i] = token{kind: tokString, text: strconv.Quote(f.display)}
		}
	}
	out, err := p.macros.expand(toks, nil, 0)
	if err != nil {
		return "", err
	}
	return joinTokens(out), nil
}

// emit writes one output line that came from physical line line of f.
func (p *preprocessor) emit(text string, f *frame, line int) {
	file, src := f.display, line+f.delta
	if p.opts.LineMarkers && !p.lines.contiguous(p.outLine+1, file, src) {
		identity := len(p.lines.segments) == 0 && src == 1 && len(p.stack) == 1 && f.delta == 0
		if !identity {
			fmt.Fprintf(&p.buf, "#line %d %s\n", src, strconv.Quote(file))
			p.outLine++
			p.lines.record(p.outLine, file, src-1)
		}
	}
	p.buf.WriteString(text)
	p.buf.WriteByte('\n')
	p.outLine++
	p.lines.record(p.outLine, file, src)
}

func (p *preprocessor) active() bool {
	return len(p.conds) == 0 || p.conds[len(p.conds)-1].active
}

func (p *preprocessor) errorf(f *frame, line, col int, format string, args ...any) error {
	e := &SourceError{
		File:    f.display,
		Line:    line + f.delta,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	}
	if f.delta == 0 && f.display == f.path && line >= 1 && line <= len(f.raw) {
		e.Text = strings.TrimRight(f.raw[line-1], "\r")
	}
	return e
}

// directive handles one directive line. body is the text after '#'. It
// reports whether the directive spliced text into the output in place of
// its own line.
func (p *preprocessor) directive(f *frame, ll logicalLine, body string, col int) (bool, error) {
	n := 0
	for n < len(body) && isIdentChar(body[n]) {
		n++
	}
	name, rest := body[:n], body[n:]
	if name == "" && strings.TrimSpace(body) == "" {
		return false, nil
	}

	switch name {
	case "if", "ifdef", "ifndef":
		return false, p.openConditional(f, ll, name, rest)
	case "elif":
		return false, p.elif(f, ll, rest)
	case "else":
		return false, p.elseBranch(f, ll)
	case "endif":
		if len(p.conds) <= f.base {
			return false, p.errorf(f, ll.line, col, "#endif without #if")
		}
		p.conds = p.conds[:len(p.conds)-1]
		return false, nil
	}

	if !p.active() {
		return false, nil
	}

	switch name {
	case "define":
		m, err := parseDefine(rest)
		if err != nil {
			return false, p.errorf(f, ll.line, col, "%v", err)
		}
		if old, ok := p.macros[m.name]; ok && !sameMacro(old, m) {
			p.log.Printf("%s:%d: redefinition of macro %s", f.display, ll.line+f.delta, m.name)
		}
		p.macros[m.name] = m
	case "undef":
		id := strings.TrimSpace(rest)
		if !isIdentifier(id) {
			return false, p.errorf(f, ll.line, col, "#undef requires a macro name")
		}
		delete(p.macros, id)
	case "include":
		return true, p.include(f, ll, rest, col)
	case "line":
		return false, p.lineDirective(f, ll, rest, col)
	case "error":
		return false, p.errorf(f, ll.line, col, "#error %s", strings.TrimSpace(rest))
	case "pragma":
		arg := strings.TrimSpace(rest)
		if arg == "once" {
			p.once[f.path] = true
			return false, nil
		}
		p.log.Printf("%s:%d: ignoring #pragma %s", f.display, ll.line+f.delta, arg)
	default:
		return false, p.errorf(f, ll.line, col, "unknown directive #%s", name)
	}
	return false, nil
}

func sameMacro(a, b *macro) bool {
	if a.funcLike != b.funcLike || a.variadic != b.variadic || len(a.params) != len(b.params) {
		return false
	}
	for i := range a.params {
		if a.params[i] != b.params[i] {
			return false
		}
	}
	return joinTokens(a.body) == joinTokens(b.body)
}

func (p *preprocessor) openConditional(f *frame, ll logicalLine, kind, rest string) error {
	c := conditional{parentActive: p.active(), line: ll.line}
	if c.parentActive {
		var v bool
		switch kind {
		case "if":
			var err error
			if v, err = p.condition(rest); err != nil {
				return p.errorf(f, ll.line, 0, "%v", err)
			}
		default:
			id := strings.TrimSpace(rest)
			if !isIdentifier(id) {
				return p.errorf(f, ll.line, 0, "#%s requires a macro name", kind)
			}
			_, v = p.macros[id]
			if kind == "ifndef" {
				v = !v
			}
		}
		c.active, c.taken = v, v
	}
	p.conds = append(p.conds, c)
	return nil
}

func (p *preprocessor) elif(f *frame, ll logicalLine, rest string) error {
	if len(p.conds) <= f.base {
		return p.errorf(f, ll.line, 0, "#elif without #if")
	}
	c := &p.conds[len(p.conds)-1]
	if c.sawElse {
		return p.errorf(f, ll.line, 0, "#elif after #else")
	}
	if !c.parentActive || c.taken {
		c.active = false
		return nil
	}
	v, err := p.condition(rest)
	if err != nil {
		return p.errorf(f, ll.line, 0, "%v", err)
	}
	c.active, c.taken = v, v
	return nil
}

func (p *preprocessor) elseBranch(f *frame, ll logicalLine) error {
	if len(p.conds) <= f.base {
		return p.errorf(f, ll.line, 0, "#else without #if")
	}
	c := &p.conds[len(p.conds)-1]
	if c.sawElse {
		return p.errorf(f, ll.line, 0, "#else after #else")
	}
	c.sawElse = true
	c.active = c.parentActive && !c.taken
	c.taken = true
	return nil
}

func (p *preprocessor) include(f *frame, ll logicalLine, rest string, col int) error {
	arg := strings.TrimSpace(rest)
	if arg != "" && arg[0] != '"' && arg[0] != '<' {
		toks, err := p.macros.expand(tokenize(arg), nil, 0)
		if err != nil {
			return p.errorf(f, ll.line, col, "%v", err)
		}
		arg = strings.TrimSpace(joinTokens(toks))
	}

	var name string
	var system bool
	switch {
	case len(arg) >= 2 && arg[0] == '"' && strings.IndexByte(arg[1:], '"') > 0:
		name = arg[1 : 1+strings.IndexByte(arg[1:], '"')]
	case len(arg) >= 2 && arg[0] == '<' && strings.IndexByte(arg, '>') > 1:
		name = arg[1:strings.IndexByte(arg, '>')]
		system = true
	default:
		return p.errorf(f, ll.line, col, "#include expects \"FILE\" or <FILE>")
	}

	if p.opts.FS == nil {
		return p.errorf(f, ll.line, col, "cannot include %q: no file system", name)
	}
	if len(p.stack) >= maxIncludeDepth {
		return p.errorf(f, ll.line, col, "#include nested too deeply")
	}

	resolved, err := p.resolve(f, name, system)
	if err != nil {
		return p.errorf(f, ll.line, col, "%v", err)
	}
	for _, open := range p.stack {
		if open == resolved {
			return p.errorf(f, ll.line, col, "recursive include of %q", resolved)
		}
	}
	if p.once[resolved] {
		p.log.Printf("%s:%d: skipping %s (#pragma once)", f.display, ll.line+f.delta, resolved)
		return nil
	}

	data, err := fs.ReadFile(p.opts.FS, resolved)
	if err != nil {
		return p.errorf(f, ll.line, col, "cannot read %q: %v", resolved, err)
	}
	p.deps[resolved] = true
	p.log.Printf("%s:%d: including %s", f.display, ll.line+f.delta, resolved)
	return p.file(resolved, path.Dir(resolved), string(data))
}

var errIncludeNotFound = errors.New("include file not found")

func (p *preprocessor) resolve(f *frame, name string, system bool) (string, error) {
	var candidates []string
	if !system {
		candidates = append(candidates, path.Join(f.dir, name))
	}
	for _, dir := range p.opts.SystemPaths {
		candidates = append(candidates, path.Join(dir, name))
	}
	for _, c := range candidates {
		if !fs.ValidPath(c) {
			continue
		}
		if st, err := fs.Stat(p.opts.FS, c); err == nil && !st.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", errIncludeNotFound, name)
}

func (p *preprocessor) lineDirective(f *frame, ll logicalLine, rest string, col int) error {
	toks, err := p.macros.expand(tokenize(rest), nil, 0)
	if err != nil {
		return p.errorf(f, ll.line, col, "%v", err)
	}
	var args []token
	for _, t := range toks {
		if t.kind != tokSpace {
			args = append(args, t)
		}
	}
	if len(args) == 0 || len(args) > 2 || args[0].kind != tokNumber {
		return p.errorf(f, ll.line, col, "#line expects a line number and an optional file name")
	}
	n, err := strconv.Atoi(args[0].text)
	if err != nil || n < 1 {
		return p.errorf(f, ll.line, col, "invalid line number %q", args[0].text)
	}
	display := f.display
	if len(args) == 2 {
		if args[1].kind != tokString {
			return p.errorf(f, ll.line, col, "#line file name must be a string")
		}
		s, err := strconv.Unquote(args[1].text)
		if err != nil {
			return p.errorf(f, ll.line, col, "invalid file name %s", args[1].text)
		}
		display = s
	}
	// The line after the directive is line n.
	f.delta = n - (ll.line + ll.span)
	f.display = display
	return nil
}
