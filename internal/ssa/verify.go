package ssa

import (
	"fmt"
	"strings"

	"tlog.app/go/errors"

	"github.com/you-not-fish/ssaopt/internal/types"
)

// verifier collects every problem found in one function so that a
// single run reports all of them.
type verifier struct {
	f    *Func
	errs []string
}

func (vr *verifier) errorf(where fmt.Stringer, format string, args ...interface{}) {
	msg := "func " + vr.f.Name
	if where != nil {
		msg += ", " + where.String()
	}
	vr.errs = append(vr.errs, msg+": "+fmt.Sprintf(format, args...))
}

func (vr *verifier) err() error {
	if len(vr.errs) == 0 {
		return nil
	}
	return errors.New("SSA verification failed:\n  %s", strings.Join(vr.errs, "\n  "))
}

// at names a value inside its block for error messages.
type at struct {
	b *Block
	v *Value
}

func (p at) String() string { return p.b.String() + ", " + p.v.String() }

// Verify checks that f is well formed: block and edge shape, value
// placement, operand types and use lists. The error lists every
// violation found.
func Verify(f *Func) error {
	vr := &verifier{f: f}
	if f.Entry == nil || len(f.Blocks) == 0 {
		vr.errorf(nil, "entry block is nil")
		return vr.err()
	}
	if f.Blocks[0] != f.Entry {
		vr.errorf(nil, "Blocks[0] is not the entry block")
	}
	if n := len(f.Entry.Preds); n != 0 {
		vr.errorf(f.Entry, "entry block has %d predecessors, want 0", n)
	}

	inFunc := make(map[*Block]bool, len(f.Blocks))
	defined := make(map[*Value]bool)
	for _, b := range f.Blocks {
		inFunc[b] = true
		for _, v := range b.Values {
			defined[v] = true
		}
	}

	for _, b := range f.Blocks {
		vr.block(b, inFunc)
		for _, v := range b.Values {
			vr.value(b, v, defined)
		}
		for i, c := range b.Controls {
			if c != nil && !defined[c] {
				vr.errorf(b, "control[%d] (%s) not found in function", i, c)
			}
		}
	}
	vr.useLists()
	return vr.err()
}

func (vr *verifier) block(b *Block, inFunc map[*Block]bool) {
	if b.Func != vr.f {
		vr.errorf(b, "block Func pointer mismatch")
	}

	wantSuccs, wantControls := -1, -1
	switch b.Kind {
	case BlockPlain:
		wantSuccs = 1
	case BlockIf:
		wantSuccs, wantControls = 2, 1
	case BlockReturn, BlockExit:
		wantSuccs = 0
	default:
		vr.errorf(b, "block has invalid kind")
	}
	if wantSuccs >= 0 && len(b.Succs) != wantSuccs {
		vr.errorf(b, "%s block has %d succs, want %d", b.Kind, len(b.Succs), wantSuccs)
	}
	if wantControls >= 0 && len(b.Controls) != wantControls {
		vr.errorf(b, "%s block has %d controls, want %d", b.Kind, len(b.Controls), wantControls)
	}

	for _, s := range b.Succs {
		switch {
		case !inFunc[s]:
			vr.errorf(b, "successor %s not in function", s)
		case s.PredIndex(b) < 0:
			vr.errorf(b, "successor %s does not have %s as predecessor", s, b)
		}
	}
	for _, p := range b.Preds {
		switch {
		case !inFunc[p]:
			vr.errorf(b, "predecessor %s not in function", p)
		case !containsBlock(p.Succs, b):
			vr.errorf(b, "predecessor %s does not have %s as successor", p, b)
		}
	}

	for i, c := range b.Controls {
		if c == nil && b.Kind != BlockReturn {
			vr.errorf(b, "control[%d] is nil", i)
		}
	}
	if b.Kind == BlockIf && len(b.Controls) == 1 {
		if c := b.Controls[0]; c != nil && c.Type != nil && !types.IsBoolean(c.Type) {
			vr.errorf(b, "condition %s has type %s, want bool", c, c.Type)
		}
	}
}

func (vr *verifier) value(b *Block, v *Value, defined map[*Value]bool) {
	where := at{b, v}
	if v.Block != b {
		vr.errorf(where, "value Block pointer is %v, want %s", v.Block, b)
	}
	// A call of a function without a result has no type.
	if v.Type == nil && !v.Op.IsVoid() && v.Op != OpStaticCall {
		vr.errorf(where, "non-void %s value has nil Type", v.Op)
	}
	for i, a := range v.Args {
		switch {
		case a == nil:
			vr.errorf(where, "arg[%d] is nil", i)
		case !defined[a]:
			vr.errorf(where, "arg[%d] (%s) not found in function", i, a)
		}
	}
	if v.Op == OpPhi && len(v.Args) != len(b.Preds) {
		vr.errorf(where, "phi has %d args but block has %d preds", len(v.Args), len(b.Preds))
	}
	if v.Op == OpArg && vr.f.Sig != nil {
		if n := vr.f.Sig.NumParams(); v.AuxInt < 0 || v.AuxInt >= int64(n) {
			vr.errorf(where, "arg index %d out of range for %d params", v.AuxInt, n)
		}
	}
	if msg := checkOperands(v); msg != "" {
		vr.errorf(where, "%s: %s", v.Op, msg)
	}
}

// useLists checks that Uses counts every argument slot and control that
// refers to a value, and that users has one entry per argument slot.
func (vr *verifier) useLists() {
	uses := make(map[*Value]int32)
	slots := make(map[*Value]map[*Value]int)
	for _, b := range vr.f.Blocks {
		for _, v := range b.Values {
			for _, a := range v.Args {
				if a == nil {
					continue
				}
				uses[a]++
				if slots[a] == nil {
					slots[a] = make(map[*Value]int)
				}
				slots[a][v]++
			}
		}
		for _, c := range b.Controls {
			if c != nil {
				uses[c]++
			}
		}
	}
	for _, b := range vr.f.Blocks {
		for _, v := range b.Values {
			if v.Uses != uses[v] {
				vr.errorf(at{b, v}, "Uses is %d, found %d references", v.Uses, uses[v])
			}
			users := make(map[*Value]int)
			for _, u := range v.users {
				users[u]++
			}
			if !sameCounts(users, slots[v]) {
				vr.errorf(at{b, v}, "user list does not match argument slots")
			}
		}
	}
}

// arity is the fixed argument count of each op, or -1 if variable.
func arity(op Op) int {
	switch op.Class() {
	case ClassConst, ClassAlloc, ClassArg:
		return 0
	case ClassUnary, ClassLoad, ClassConv, ClassCopy:
		return 1
	case ClassBinary, ClassCompare:
		return 2
	case ClassStore:
		if op == OpZero {
			return 1
		}
		return 2
	}
	return -1
}

// checkOperands returns a description of what is wrong with v's
// operands, or "".
func checkOperands(v *Value) string {
	if n := arity(v.Op); n >= 0 && len(v.Args) != n {
		return fmt.Sprintf("has %d args, want %d", len(v.Args), n)
	}
	for _, a := range v.Args {
		if a == nil {
			return "" // reported elsewhere
		}
		if a.Op.IsVoid() {
			return fmt.Sprintf("uses void value %s", a)
		}
	}

	switch v.Op.Class() {
	case ClassAlloc:
		if v.Type == nil || !types.IsPointer(v.Type) {
			return fmt.Sprintf("alloca type %v is not a pointer", v.Type)
		}

	case ClassLoad:
		elem := pointee(v.Args[0])
		if elem == nil {
			return fmt.Sprintf("address %s is not a pointer", v.Args[0])
		}
		if v.Type != nil && !types.Identical(elem, v.Type) {
			return fmt.Sprintf("loads %s through %s", v.Type, v.Args[0].Type)
		}

	case ClassStore:
		elem := pointee(v.Args[0])
		if elem == nil {
			return fmt.Sprintf("address %s is not a pointer", v.Args[0])
		}
		if v.Op == OpStore && v.Args[1].Type != nil && !types.Identical(elem, v.Args[1].Type) {
			return fmt.Sprintf("stores %s through %s", v.Args[1].Type, v.Args[0].Type)
		}

	case ClassFieldAddr:
		if len(v.Args) < 2 {
			return "needs a base and at least one index"
		}
		elem, err := IndexedType(v.Args[0].Type, v.Args[1:])
		if err != nil {
			return err.Error()
		}
		if v.Type != nil && !types.Identical(types.Elem(v.Type), elem) {
			return fmt.Sprintf("result %s does not point to %s", v.Type, elem)
		}

	case ClassCompare:
		if v.Type != nil && !types.IsBoolean(v.Type) {
			return fmt.Sprintf("result type %s, want bool", v.Type)
		}
		x, y := v.Args[0].Type, v.Args[1].Type
		if x != nil && y != nil && !types.Identical(x, y) {
			return fmt.Sprintf("compares %s with %s", x, y)
		}
		p := v.Predicate()
		if v.Op == OpICmp && !p.IsInt() || v.Op == OpFCmp && !p.IsFloat() {
			return fmt.Sprintf("bad predicate %d", v.AuxInt)
		}

	case ClassPhi:
		for i, a := range v.Args {
			if a.Type != nil && v.Type != nil && !types.Identical(a.Type, v.Type) {
				return fmt.Sprintf("arg[%d] %s has type %s, want %s", i, a, a.Type, v.Type)
			}
		}
	}
	return ""
}

func pointee(v *Value) types.Type {
	if v.Type == nil {
		return nil
	}
	return types.Elem(v.Type)
}

// IndexedType returns the type addressed by a GEP with the given base
// pointer type and indices. The first index steps over the pointer;
// each following index selects an array element or, as a Const64, a
// struct field.
func IndexedType(base types.Type, indices []*Value) (types.Type, error) {
	if base == nil || !types.IsPointer(base) {
		return nil, errors.New("base type %v is not a pointer", base)
	}
	if len(indices) == 0 {
		return nil, errors.New("no indices")
	}
	t := types.Elem(base)
	for i, idx := range indices {
		if idx.Type != nil && !types.IsInteger(idx.Type) {
			return nil, errors.New("index %d has type %s", i, idx.Type)
		}
		if i == 0 {
			continue
		}
		switch u := t.Underlying().(type) {
		case *types.Struct:
			n, ok := idx.IsConstInt()
			if !ok {
				return nil, errors.New("struct index %d is not a constant", i)
			}
			if n < 0 || n >= int64(u.NumFields()) {
				return nil, errors.New("field index %d out of range for %s", n, t)
			}
			t = u.Field(int(n)).Type()
		case *types.Array:
			t = u.Elem()
		default:
			return nil, errors.New("cannot index into %s", t)
		}
	}
	return t, nil
}

func sameCounts(a, b map[*Value]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, n := range a {
		if b[k] != n {
			return false
		}
	}
	return true
}

func containsBlock(bs []*Block, b *Block) bool {
	for _, x := range bs {
		if x == b {
			return true
		}
	}
	return false
}

// VerifyDom runs Verify and then checks the dominator tree left by
// ComputeDom against the SSA property: every definition dominates its
// uses. Unreachable blocks are not checked.
func VerifyDom(f *Func) error {
	if err := Verify(f); err != nil {
		return err
	}
	vr := &verifier{f: f}
	reachable := Reachable(f)

	if f.Entry.Idom != nil {
		vr.errorf(f.Entry, "entry has non-nil Idom %s", f.Entry.Idom)
	}

	pos := make(map[*Value]int)
	for _, b := range f.Blocks {
		for i, v := range b.Values {
			pos[v] = i
		}
	}

	for _, b := range f.Blocks {
		if !reachable[b] {
			continue
		}
		if b != f.Entry {
			switch b.Idom {
			case nil:
				vr.errorf(b, "reachable block has nil Idom")
			case b:
				vr.errorf(b, "block is its own Idom")
			}
		}

		for _, v := range b.Values {
			for i, a := range v.Args {
				if a == nil {
					continue
				}
				if v.Op == OpPhi {
					// The definition must reach the end of the matching
					// predecessor, when that edge can be taken.
					if i >= len(b.Preds) || !reachable[b.Preds[i]] {
						continue
					}
					if p := b.Preds[i]; !Dominates(a.Block, p) {
						vr.errorf(at{b, v}, "phi arg[%d] %s defined in %s which does not dominate pred %s", i, a, a.Block, p)
					}
					continue
				}
				if a.Block == b {
					if pos[a] >= pos[v] {
						vr.errorf(at{b, v}, "arg[%d] %s defined at index %d, used at index %d (same block)", i, a, pos[a], pos[v])
					}
				} else if !Dominates(a.Block, b) {
					vr.errorf(at{b, v}, "arg[%d] %s defined in %s which does not dominate %s", i, a, a.Block, b)
				}
			}
		}

		for i, c := range b.Controls {
			if c != nil && c.Block != b && !Dominates(c.Block, b) {
				vr.errorf(b, "control[%d] %s defined in %s which does not dominate %s", i, c, c.Block, b)
			}
		}
	}
	return vr.err()
}
