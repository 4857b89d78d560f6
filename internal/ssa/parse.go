package ssa

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"tlog.app/go/errors"

	"github.com/you-not-fish/ssaopt/internal/types"
)

// Parse reads a module in the format written by FprintModule:
// optional "type Name <type>" declarations followed by functions.
// Lines starting with '#' or "//" are comments.
//
// Value IDs and block IDs are taken from the text. Void values (Store,
// Zero) are numbered after the highest ID in their function. An Alloca
// without an explicit alignment gets the natural alignment of its
// element type.
func Parse(name string, r io.Reader) (*Module, error) {
	p := &reader{file: name, named: make(map[string]*types.Named)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		p.lines = append(p.lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read %v", name)
	}

	mod, err := p.module()
	if err != nil {
		return nil, errors.Wrap(err, "parse %v", name)
	}
	return mod, nil
}

// ParseString is Parse on an in-memory source.
func ParseString(src string) (*Module, error) {
	return Parse("<string>", strings.NewReader(src))
}

// MustParse is ParseString that panics on error. It is meant for tests
// and fixtures known to be valid.
func MustParse(src string) *Module {
	m, err := ParseString(src)
	if err != nil {
		panic(err)
	}
	return m
}

type reader struct {
	file  string
	lines []string
	pos   int // index of the next line to read
	line  int // 1-based number of the line being parsed

	mod   Module
	named map[string]*types.Named
}

func (p *reader) errorf(format string, args ...interface{}) error {
	return errors.New("line %d: %v", p.line, errors.New(format, args...))
}

// nextLine returns the next non-blank, non-comment line.
func (p *reader) nextLine() (string, bool) {
	for p.pos < len(p.lines) {
		s := p.lines[p.pos]
		p.pos++
		p.line = p.pos
		t := strings.TrimSpace(s)
		if t == "" || strings.HasPrefix(t, "#") || strings.HasPrefix(t, "//") {
			continue
		}
		return t, true
	}
	return "", false
}

// peekLine returns the next significant line without consuming it.
func (p *reader) peekLine() (string, bool) {
	pos, line := p.pos, p.line
	s, ok := p.nextLine()
	p.pos, p.line = pos, line
	return s, ok
}

func (p *reader) module() (*Module, error) {
	// Declare every named type first so declarations may refer to each
	// other in any order.
	for _, s := range p.lines {
		t := strings.TrimSpace(s)
		if !strings.HasPrefix(t, "type ") {
			continue
		}
		fields := strings.Fields(t)
		if len(fields) < 3 {
			continue
		}
		if _, dup := p.named[fields[1]]; dup {
			return nil, errors.New("type %s redeclared", fields[1])
		}
		n := types.NewNamed(fields[1], nil)
		p.named[fields[1]] = n
		p.mod.Types = append(p.mod.Types, n)
	}

	for {
		s, ok := p.nextLine()
		if !ok {
			break
		}
		lx, err := lex(s)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		switch lx.peek().text {
		case "type":
			if err := p.typeDecl(lx); err != nil {
				return nil, err
			}
		case "func":
			f, err := p.function(lx)
			if err != nil {
				return nil, err
			}
			if p.mod.Func(f.Name) != nil {
				return nil, p.errorf("func %s redeclared", f.Name)
			}
			p.mod.Funcs = append(p.mod.Funcs, f)
		default:
			return nil, p.errorf("expected type or func, found %q", lx.peek().text)
		}
	}

	for _, n := range p.mod.Types {
		if n.Underlying() == nil {
			return nil, errors.New("type %s has no definition", n.Name())
		}
	}

	mod := p.mod
	return &mod, nil
}

func (p *reader) typeDecl(lx *lexer) error {
	lx.next() // type
	name := lx.next()
	if name.kind != tokWord {
		return p.errorf("expected type name")
	}
	t, err := p.typ(lx)
	if err != nil {
		return err
	}
	if _, ok := t.(*types.Named); ok {
		return p.errorf("type %s: alias of named type %s", name.text, t)
	}
	if !lx.done() {
		return p.errorf("unexpected %q after type", lx.peek().text)
	}
	p.named[name.text].SetUnderlying(t)
	return nil
}

// typ parses a type expression.
func (p *reader) typ(lx *lexer) (types.Type, error) {
	tok := lx.next()
	switch {
	case tok.is("*"):
		elem, err := p.typ(lx)
		if err != nil {
			return nil, err
		}
		return types.NewPointer(elem), nil

	case tok.is("["):
		n, err := strconv.ParseInt(lx.next().text, 10, 64)
		if err != nil || n < 0 {
			return nil, p.errorf("bad array length")
		}
		if err := p.expect(lx, "]"); err != nil {
			return nil, err
		}
		elem, err := p.typ(lx)
		if err != nil {
			return nil, err
		}
		return types.NewArray(n, elem), nil

	case tok.kind == tokWord && tok.text == "struct":
		if err := p.expect(lx, "{"); err != nil {
			return nil, err
		}
		var fields []*types.Var
		for !lx.accept("}") {
			if len(fields) > 0 {
				if err := p.expect(lx, ";"); err != nil {
					return nil, err
				}
			}
			name := lx.next()
			if name.kind != tokWord {
				return nil, p.errorf("expected field name, found %q", name.text)
			}
			ft, err := p.typ(lx)
			if err != nil {
				return nil, err
			}
			fields = append(fields, types.NewVar(name.text, ft))
		}
		return types.NewStruct(fields), nil

	case tok.kind == tokWord:
		if b := types.LookupBasic(tok.text); b != nil {
			return b, nil
		}
		if n, ok := p.named[tok.text]; ok {
			return n, nil
		}
		return nil, p.errorf("unknown type %q", tok.text)
	}
	return nil, p.errorf("expected type, found %q", tok.text)
}

func (p *reader) expect(lx *lexer, text string) error {
	if !lx.accept(text) {
		return p.errorf("expected %q, found %q", text, lx.peek().text)
	}
	return nil
}

// pendingValue is a value whose arguments are resolved once the whole
// function has been read, since phis refer forward.
type pendingValue struct {
	v    *Value
	args []string // "vN" or "" for a nil argument
	line int
}

type pendingBlock struct {
	b       *Block
	preds   []string
	succs   []string
	control string
	line    int
}

// function parses a function header and its blocks.
func (p *reader) function(lx *lexer) (*Func, error) {
	lx.next() // func
	name := lx.next()
	if name.kind != tokWord {
		return nil, p.errorf("expected function name")
	}
	if err := p.expect(lx, "("); err != nil {
		return nil, err
	}
	var params []*types.Var
	for !lx.accept(")") {
		if len(params) > 0 {
			if err := p.expect(lx, ","); err != nil {
				return nil, err
			}
		}
		pname := lx.next()
		if pname.kind != tokWord {
			return nil, p.errorf("expected parameter name")
		}
		pt, err := p.typ(lx)
		if err != nil {
			return nil, err
		}
		params = append(params, types.NewVar(pname.text, pt))
	}
	var result types.Type
	if !lx.accept(":") {
		t, err := p.typ(lx)
		if err != nil {
			return nil, err
		}
		result = t
		if err := p.expect(lx, ":"); err != nil {
			return nil, err
		}
	}

	f := &Func{Name: name.text, Sig: types.NewFunc(params, result)}

	values := make(map[string]*Value)
	blocks := make(map[string]*Block)
	var pvals []pendingValue
	var pblocks []*pendingBlock
	var voids []*Value
	var cur *pendingBlock
	maxValue, maxBlock := ID(-1), ID(-1)

	for {
		s, ok := p.peekLine()
		if !ok || strings.HasPrefix(s, "func ") || strings.HasPrefix(s, "type ") {
			break
		}
		p.nextLine()
		lx, err := lex(s)
		if err != nil {
			return nil, p.errorf("%v", err)
		}

		first := lx.peek()
		if id, ok := parseRef(first.text, 'b'); ok && len(lx.toks) > 1 && lx.toks[1].is(":") {
			// Block header.
			if cur != nil && cur.b.Kind == BlockInvalid {
				return nil, p.errorf("block %s has no terminator", cur.b)
			}
			if _, dup := blocks[first.text]; dup {
				return nil, p.errorf("block %s redeclared", first.text)
			}
			lx.next()
			lx.next()
			b := &Block{ID: id, Func: f}
			if id > maxBlock {
				maxBlock = id
			}
			blocks[first.text] = b
			f.Blocks = append(f.Blocks, b)
			cur = &pendingBlock{b: b, line: p.line}
			pblocks = append(pblocks, cur)
			if lx.accept("(") {
				if !lx.accept("entry") || !lx.accept(")") {
					return nil, p.errorf("malformed block label")
				}
			}
			if lx.peek().kind == tokBackArrow {
				lx.next()
				for !lx.done() {
					cur.preds = append(cur.preds, lx.next().text)
				}
			}
			if !lx.done() {
				return nil, p.errorf("unexpected %q in block header", lx.peek().text)
			}
			continue
		}

		if cur == nil {
			return nil, p.errorf("value outside of a block")
		}
		if cur.b.Kind != BlockInvalid {
			return nil, p.errorf("%s: value after terminator", cur.b)
		}

		if done, err := p.terminator(lx, cur); err != nil {
			return nil, err
		} else if done {
			continue
		}

		pv, err := p.value(lx, f, cur.b)
		if err != nil {
			return nil, err
		}
		v := pv.v
		if v.Op.IsVoid() {
			voids = append(voids, v)
		} else {
			key := v.String()
			if _, dup := values[key]; dup {
				return nil, p.errorf("value %s redefined", key)
			}
			values[key] = v
			if v.ID > maxValue {
				maxValue = v.ID
			}
		}
		cur.b.Values = append(cur.b.Values, v)
		pvals = append(pvals, pv)
	}

	if len(f.Blocks) == 0 {
		return nil, p.errorf("func %s has no blocks", f.Name)
	}
	if cur.b.Kind == BlockInvalid {
		return nil, p.errorf("block %s has no terminator", cur.b)
	}
	f.Entry = f.Blocks[0]
	f.nextBlockID = maxBlock + 1
	f.nextValueID = maxValue + 1
	for _, v := range voids {
		v.ID = f.nextValueID
		f.nextValueID++
	}

	// Resolve references.
	for _, pv := range pvals {
		for _, a := range pv.args {
			if a == "" {
				pv.v.Args = append(pv.v.Args, nil)
				continue
			}
			arg, ok := values[a]
			if !ok {
				p.line = pv.line
				return nil, p.errorf("undefined value %s", a)
			}
			pv.v.AddArg(arg)
		}
	}
	for _, pb := range pblocks {
		p.line = pb.line
		for _, s := range pb.succs {
			b, ok := blocks[s]
			if !ok {
				return nil, p.errorf("undefined block %s", s)
			}
			pb.b.Succs = append(pb.b.Succs, b)
		}
		for _, s := range pb.preds {
			b, ok := blocks[s]
			if !ok {
				return nil, p.errorf("undefined block %s", s)
			}
			pb.b.Preds = append(pb.b.Preds, b)
		}
		if pb.control != "" {
			c, ok := values[pb.control]
			if !ok {
				return nil, p.errorf("undefined value %s", pb.control)
			}
			pb.b.AddControl(c)
		}
	}

	return f, nil
}

// terminator parses a block terminator line. It reports false if the line
// is not a terminator.
func (p *reader) terminator(lx *lexer, pb *pendingBlock) (bool, error) {
	switch lx.peek().text {
	case "Plain":
		lx.next()
		pb.b.Kind = BlockPlain
		if lx.peek().kind == tokArrow {
			lx.next()
			pb.succs = append(pb.succs, lx.next().text)
		}
	case "If":
		lx.next()
		pb.b.Kind = BlockIf
		pb.control = lx.next().text
		if lx.peek().kind != tokArrow {
			return false, p.errorf("expected -> in If")
		}
		lx.next()
		pb.succs = append(pb.succs, lx.next().text, lx.next().text)
	case "Return":
		lx.next()
		pb.b.Kind = BlockReturn
		if !lx.done() {
			pb.control = lx.next().text
		}
	case "Exit":
		lx.next()
		pb.b.Kind = BlockExit
	default:
		return false, nil
	}
	if !lx.done() {
		return false, p.errorf("unexpected %q after terminator", lx.peek().text)
	}
	return true, nil
}

// value parses "[vN =] Op [<type>] [[aux]] [{name}] args...".
func (p *reader) value(lx *lexer, f *Func, b *Block) (pendingValue, error) {
	pv := pendingValue{line: p.line}

	var id ID = -1
	if len(lx.toks) > 1 && lx.toks[1].is("=") {
		n, ok := parseRef(lx.next().text, 'v')
		if !ok {
			return pv, p.errorf("bad value name %q", lx.toks[0].text)
		}
		lx.next()
		id = n
	}

	opTok := lx.next()
	op, ok := opByName[opTok.text]
	if !ok {
		return pv, p.errorf("unknown op %q", opTok.text)
	}
	if op.IsVoid() != (id < 0) {
		if id < 0 {
			return pv, p.errorf("%s needs a result name", op)
		}
		return pv, p.errorf("%s produces no value", op)
	}

	v := &Value{ID: id, Op: op, Block: b}
	pv.v = v

	if lx.accept("<") {
		t, err := p.typ(lx)
		if err != nil {
			return pv, err
		}
		if err := p.expect(lx, ">"); err != nil {
			return pv, err
		}
		v.Type = t
	}

	hasAuxInt := lx.peek().is("[")
	if lx.accept("[") {
		aux := lx.next().text
		if err := p.expect(lx, "]"); err != nil {
			return pv, err
		}
		switch op {
		case OpICmp, OpFCmp:
			pred, ok := LookupPredicate(op, aux)
			if !ok {
				return pv, p.errorf("unknown %s predicate %q", op, aux)
			}
			v.AuxInt = int64(pred)
		case OpConstFloat:
			x, err := strconv.ParseFloat(aux, 64)
			if err != nil {
				return pv, p.errorf("bad float %q", aux)
			}
			v.AuxFloat = x
		default:
			x, err := strconv.ParseInt(aux, 10, 64)
			if err != nil {
				return pv, p.errorf("bad integer %q", aux)
			}
			v.AuxInt = x
		}
	} else if op == OpICmp || op == OpFCmp {
		return pv, p.errorf("%s needs a predicate", op)
	}

	if lx.accept("{") {
		v.Aux = lx.next().text
		if err := p.expect(lx, "}"); err != nil {
			return pv, err
		}
	}

	for !lx.done() {
		if lx.accept("<") {
			if !lx.accept("nil") || !lx.accept(">") {
				return pv, p.errorf("malformed nil argument")
			}
			pv.args = append(pv.args, "")
			continue
		}
		a := lx.next().text
		if _, ok := parseRef(a, 'v'); !ok {
			return pv, p.errorf("bad argument %q", a)
		}
		pv.args = append(pv.args, a)
	}

	// An argument without an explicit index is found by name.
	if op == OpArg && !hasAuxInt && f.Sig != nil {
		found := false
		for i, prm := range f.Sig.Params() {
			if prm.Name() == v.Name() {
				v.AuxInt = int64(i)
				found = true
				break
			}
		}
		if !found {
			return pv, p.errorf("unknown parameter %q", v.Name())
		}
	}

	if op == OpAlloca && v.AuxInt == 0 {
		if elem := types.Elem(v.Type); elem != nil {
			v.AuxInt = types.DefaultSizes.Alignof(elem)
		}
	}

	return pv, nil
}

// parseRef parses "vN" or "bN".
func parseRef(s string, prefix byte) (ID, bool) {
	if len(s) < 2 || s[0] != prefix {
		return 0, false
	}
	n, err := strconv.ParseInt(s[1:], 10, 32)
	if err != nil || n < 0 {
		return 0, false
	}
	return ID(n), true
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokWord
	tokPunct
	tokArrow     // ->
	tokBackArrow // <-
)

type token struct {
	kind tokKind
	text string
}

func (t token) is(s string) bool {
	return (t.kind == tokPunct || t.kind == tokWord) && t.text == s
}

type lexer struct {
	toks []token
	pos  int
}

const punct = "*[]{}()<>,;:="

func lex(s string) (*lexer, error) {
	lx := &lexer{}
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '-' && i+1 < len(s) && s[i+1] == '>':
			lx.toks = append(lx.toks, token{tokArrow, "->"})
			i += 2
		case c == '<' && i+1 < len(s) && s[i+1] == '-':
			lx.toks = append(lx.toks, token{tokBackArrow, "<-"})
			i += 2
		case strings.IndexByte(punct, c) >= 0:
			lx.toks = append(lx.toks, token{tokPunct, string(c)})
			i++
		default:
			j := i
			for j < len(s) && s[j] != ' ' && s[j] != '\t' && strings.IndexByte(punct, s[j]) < 0 {
				j++
			}
			lx.toks = append(lx.toks, token{tokWord, s[i:j]})
			i = j
		}
	}
	return lx, nil
}

func (lx *lexer) done() bool { return lx.pos >= len(lx.toks) }

func (lx *lexer) peek() token {
	if lx.done() {
		return token{kind: tokEOF}
	}
	return lx.toks[lx.pos]
}

func (lx *lexer) next() token {
	t := lx.peek()
	if !lx.done() {
		lx.pos++
	}
	return t
}

func (lx *lexer) accept(s string) bool {
	if lx.peek().is(s) {
		lx.pos++
		return true
	}
	return false
}
