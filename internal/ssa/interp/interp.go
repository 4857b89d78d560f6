// Package interp is a reference interpreter for SSA functions. It gives
// programs an observable meaning, so transformations can be checked
// for preserving it.
//
// Runtime values are int64 for integers, float64 for floats, bool, and
// *Cell for pointers (nil is the nil pointer).
package interp

import (
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"
	"tlog.app/go/errors"

	"github.com/you-not-fish/ssaopt/internal/ssa"
	"github.com/you-not-fish/ssaopt/internal/types"
)

// DefaultMaxSteps bounds the number of values and terminators evaluated
// by one top-level call.
const DefaultMaxSteps = 1 << 20

// ErrExit is returned when execution reaches an Exit block.
var ErrExit = errors.New("program exit")

// Extern implements a function that is not defined in the module.
type Extern func(args []interface{}) (interface{}, error)

// Cell is a memory location created by an Alloca. Aggregate cells hold
// one sub-cell per struct field or array element.
type Cell struct {
	Type  types.Type
	Val   interface{}
	Elems []*Cell
}

// Interp executes the functions of one module.
type Interp struct {
	mod      *ssa.Module
	externs  map[string]Extern
	MaxSteps int

	steps int
	depth int
}

// New returns an interpreter for m.
func New(m *ssa.Module) *Interp {
	return &Interp{
		mod:      m,
		externs:  make(map[string]Extern),
		MaxSteps: DefaultMaxSteps,
	}
}

// Register makes fn callable under name. Module functions take
// precedence over externs.
func (in *Interp) Register(name string, fn Extern) {
	in.externs[name] = fn
}

// Run interprets the function called name in m.
func Run(m *ssa.Module, name string, args ...interface{}) (interface{}, error) {
	return New(m).Call(name, args...)
}

// Call runs the function called name and returns its result, or nil for
// a function without one.
func (in *Interp) Call(name string, args ...interface{}) (interface{}, error) {
	in.steps = 0
	return in.call(name, args)
}

func (in *Interp) call(name string, args []interface{}) (interface{}, error) {
	if f := in.mod.Func(name); f != nil {
		return in.CallFunc(f, args)
	}
	if ext, ok := in.externs[name]; ok {
		return ext(args)
	}
	return nil, errors.New("call of undefined function %s", name)
}

// CallFunc runs f with the given arguments.
func (in *Interp) CallFunc(f *ssa.Func, args []interface{}) (interface{}, error) {
	if f.Sig != nil && len(args) != f.Sig.NumParams() {
		return nil, errors.New("%s: got %d arguments, want %d", f.Name, len(args), f.Sig.NumParams())
	}
	if in.depth > 1000 {
		return nil, errors.New("%s: call depth exceeded", f.Name)
	}
	in.depth++
	defer func() { in.depth-- }()

	ssa.Logger().Debug("interp: call", zap.String("func", f.Name), zap.Int("args", len(args)))

	fr := &frame{in: in, f: f, args: args, vals: make(map[*ssa.Value]interface{})}
	return fr.run()
}

type frame struct {
	in   *Interp
	f    *ssa.Func
	args []interface{}
	vals map[*ssa.Value]interface{}
}

func (fr *frame) step() error {
	fr.in.steps++
	if fr.in.MaxSteps > 0 && fr.in.steps > fr.in.MaxSteps {
		return errors.New("step limit %d exceeded", fr.in.MaxSteps)
	}
	return nil
}

func (fr *frame) run() (interface{}, error) {
	var prev *ssa.Block
	b := fr.f.Entry
	for {
		if err := fr.enter(b, prev); err != nil {
			return nil, err
		}
		for _, v := range b.Values {
			if v.Op == ssa.OpPhi {
				continue
			}
			if err := fr.step(); err != nil {
				return nil, err
			}
			x, err := fr.eval(v)
			if err == ErrExit {
				return nil, err
			}
			if err != nil {
				return nil, errors.Wrap(err, "%s: %s", fr.f.Name, v.LongString())
			}
			if !v.Op.IsVoid() {
				fr.vals[v] = x
			}
		}

		if err := fr.step(); err != nil {
			return nil, err
		}
		switch b.Kind {
		case ssa.BlockPlain:
			if len(b.Succs) != 1 {
				return nil, errors.New("%s: %s: malformed plain block", fr.f.Name, b)
			}
			prev, b = b, b.Succs[0]
		case ssa.BlockIf:
			if !b.IsConditional() {
				return nil, errors.New("%s: %s: malformed if block", fr.f.Name, b)
			}
			c, ok := fr.vals[b.Controls[0]].(bool)
			if !ok {
				return nil, errors.New("%s: %s: condition is not a bool", fr.f.Name, b)
			}
			next := b.Succs[1]
			if c {
				next = b.Succs[0]
			}
			prev, b = b, next
		case ssa.BlockReturn:
			if len(b.Controls) == 0 || b.Controls[0] == nil {
				return nil, nil
			}
			return fr.vals[b.Controls[0]], nil
		case ssa.BlockExit:
			return nil, ErrExit
		default:
			return nil, errors.New("%s: %s: invalid block kind", fr.f.Name, b)
		}
	}
}

// enter evaluates the phis of b for the edge from prev. All phis read
// their arguments before any of them is assigned.
func (fr *frame) enter(b, prev *ssa.Block) error {
	if prev == nil {
		return nil
	}
	idx := b.PredIndex(prev)
	if idx < 0 {
		return errors.New("%s: %s is not a predecessor of %s", fr.f.Name, prev, b)
	}
	var phis []*ssa.Value
	var vals []interface{}
	for _, v := range b.Values {
		if v.Op != ssa.OpPhi {
			continue
		}
		if idx >= len(v.Args) || v.Args[idx] == nil {
			return errors.New("%s: %s has no argument for %s", fr.f.Name, v, prev)
		}
		phis = append(phis, v)
		vals = append(vals, fr.vals[v.Args[idx]])
	}
	for i, v := range phis {
		fr.vals[v] = vals[i]
	}
	return nil
}

func (fr *frame) arg(v *ssa.Value, i int) interface{} {
	return fr.vals[v.Args[i]]
}

func (fr *frame) eval(v *ssa.Value) (interface{}, error) {
	switch v.Op.Class() {
	case ssa.ClassConst:
		switch v.Op {
		case ssa.OpConst64:
			return wrap(v.Type, v.AuxInt), nil
		case ssa.OpConstFloat:
			return roundFloat(v.Type, v.AuxFloat), nil
		case ssa.OpConstBool:
			return v.AuxInt != 0, nil
		case ssa.OpConstNil:
			return (*Cell)(nil), nil
		}

	case ssa.ClassArg:
		if v.AuxInt < 0 || int(v.AuxInt) >= len(fr.args) {
			return nil, errors.New("argument %d out of range", v.AuxInt)
		}
		return fr.args[v.AuxInt], nil

	case ssa.ClassCopy:
		return fr.arg(v, 0), nil

	case ssa.ClassBinary:
		return binary(v, fr.arg(v, 0), fr.arg(v, 1))

	case ssa.ClassUnary:
		x := fr.arg(v, 0)
		switch v.Op {
		case ssa.OpNeg:
			return wrap(v.Type, -x.(int64)), nil
		case ssa.OpNegF:
			return -x.(float64), nil
		case ssa.OpNot:
			return !x.(bool), nil
		}

	case ssa.ClassCompare:
		return compare(v, fr.arg(v, 0), fr.arg(v, 1))

	case ssa.ClassConv:
		x := fr.arg(v, 0)
		switch v.Op {
		case ssa.OpIntToFloat:
			return roundFloat(v.Type, float64(x.(int64))), nil
		case ssa.OpFloatToInt:
			return wrap(v.Type, int64(x.(float64))), nil
		}

	case ssa.ClassAlloc:
		elem := types.Elem(v.Type)
		if elem == nil {
			return nil, errors.New("alloca of non-pointer type %v", v.Type)
		}
		return newCell(elem), nil

	case ssa.ClassLoad:
		c, err := deref(fr.arg(v, 0))
		if err != nil {
			return nil, err
		}
		if c.Elems != nil || types.IsAggregate(c.Type) {
			return nil, errors.New("load of aggregate %s", c.Type)
		}
		return c.Val, nil

	case ssa.ClassStore:
		c, err := deref(fr.arg(v, 0))
		if err != nil {
			return nil, err
		}
		if v.Op == ssa.OpZero {
			zero(c)
			return nil, nil
		}
		if types.IsAggregate(c.Type) {
			return nil, errors.New("store of aggregate %s", c.Type)
		}
		c.Val = fr.arg(v, 1)
		return nil, nil

	case ssa.ClassFieldAddr:
		return fr.gep(v)

	case ssa.ClassCall:
		name, _ := v.Aux.(string)
		args := make([]interface{}, len(v.Args))
		for i := range v.Args {
			args[i] = fr.arg(v, i)
		}
		return fr.in.call(name, args)
	}
	return nil, errors.New("cannot evaluate %s", v.Op)
}

func (fr *frame) gep(v *ssa.Value) (interface{}, error) {
	c, err := deref(fr.arg(v, 0))
	if err != nil {
		return nil, err
	}
	if len(v.Args) < 2 {
		return nil, errors.New("GEP without indices")
	}
	if first := fr.arg(v, 1).(int64); first != 0 {
		return nil, errors.New("GEP steps %d elements past a single object", first)
	}
	for i := 2; i < len(v.Args); i++ {
		idx := fr.arg(v, i).(int64)
		if idx < 0 || idx >= int64(len(c.Elems)) {
			return nil, errors.New("index %d out of range for %s", idx, c.Type)
		}
		c = c.Elems[idx]
	}
	return c, nil
}

func deref(p interface{}) (*Cell, error) {
	c, ok := p.(*Cell)
	if !ok {
		return nil, errors.New("address is not a pointer: %v", p)
	}
	if c == nil {
		return nil, errors.New("nil pointer dereference")
	}
	return c, nil
}

// newCell returns a zero-initialized cell of type t.
func newCell(t types.Type) *Cell {
	c := &Cell{Type: t}
	switch u := t.Underlying().(type) {
	case *types.Struct:
		c.Elems = make([]*Cell, u.NumFields())
		for i := range c.Elems {
			c.Elems[i] = newCell(u.Field(i).Type())
		}
	case *types.Array:
		c.Elems = make([]*Cell, u.Len())
		for i := range c.Elems {
			c.Elems[i] = newCell(u.Elem())
		}
	default:
		c.Val = zeroValue(t)
	}
	return c
}

func zero(c *Cell) {
	if c.Elems == nil {
		c.Val = zeroValue(c.Type)
		return
	}
	for _, e := range c.Elems {
		zero(e)
	}
}

func zeroValue(t types.Type) interface{} {
	switch {
	case types.IsBoolean(t):
		return false
	case types.IsFloat(t):
		return 0.0
	case types.IsInteger(t):
		return int64(0)
	}
	return (*Cell)(nil)
}

// wrap truncates x to the width of integer type t, sign-extending.
func wrap(t types.Type, x int64) int64 {
	if b, ok := t.Underlying().(*types.Basic); ok && b.Bits() < 64 && b.Info()&types.InfoInteger != 0 {
		shift := uint(64 - b.Bits())
		return x << shift >> shift
	}
	return x
}

func roundFloat(t types.Type, x float64) float64 {
	if b, ok := t.Underlying().(*types.Basic); ok && b.Kind() == types.Float32 {
		return float64(float32(x))
	}
	return x
}

// unsigned returns the bits of x as an unsigned value of t's width.
func unsigned(t types.Type, x int64) uint64 {
	if b, ok := t.Underlying().(*types.Basic); ok && b.Bits() < 64 && b.Info()&types.InfoInteger != 0 {
		return uint64(x) & (1<<uint(b.Bits()) - 1)
	}
	return uint64(x)
}

func binary(v *ssa.Value, x, y interface{}) (interface{}, error) {
	if xb, ok := x.(bool); ok {
		yb := y.(bool)
		switch v.Op {
		case ssa.OpAnd:
			return xb && yb, nil
		case ssa.OpOr:
			return xb || yb, nil
		case ssa.OpXor:
			return xb != yb, nil
		}
		return nil, errors.New("%s on bool", v.Op)
	}

	if xf, ok := x.(float64); ok {
		yf := y.(float64)
		var r float64
		switch v.Op {
		case ssa.OpAddF:
			r = xf + yf
		case ssa.OpSubF:
			r = xf - yf
		case ssa.OpMulF:
			r = xf * yf
		case ssa.OpDivF:
			r = xf / yf
		default:
			return nil, errors.New("%s on float", v.Op)
		}
		return roundFloat(v.Type, r), nil
	}

	a, b := x.(int64), y.(int64)
	var r int64
	switch v.Op {
	case ssa.OpAdd:
		r = a + b
	case ssa.OpSub:
		r = a - b
	case ssa.OpMul:
		r = a * b
	case ssa.OpDiv, ssa.OpMod:
		if b == 0 {
			return nil, errors.New("integer divide by zero")
		}
		if v.Op == ssa.OpDiv {
			r = a / b
		} else {
			r = a % b
		}
	case ssa.OpAnd:
		r = a & b
	case ssa.OpOr:
		r = a | b
	case ssa.OpXor:
		r = a ^ b
	case ssa.OpShl, ssa.OpShr:
		if b < 0 {
			return nil, errors.New("negative shift amount %d", b)
		}
		if v.Op == ssa.OpShl {
			r = a << uint64(b)
		} else {
			r = a >> uint64(b)
		}
	default:
		return nil, errors.New("%s on int", v.Op)
	}
	return wrap(v.Type, r), nil
}

func compare(v *ssa.Value, x, y interface{}) (interface{}, error) {
	p := v.Predicate()

	if v.Op == ssa.OpFCmp {
		a, b := x.(float64), y.(float64)
		uno := math.IsNaN(a) || math.IsNaN(b)
		switch p {
		case ssa.FCmpFalse:
			return false, nil
		case ssa.FCmpTrue:
			return true, nil
		case ssa.FCmpORD:
			return !uno, nil
		case ssa.FCmpUNO:
			return uno, nil
		}
		var r bool
		switch p {
		case ssa.FCmpOEQ, ssa.FCmpUEQ:
			r = a == b
		case ssa.FCmpOGT, ssa.FCmpUGT:
			r = a > b
		case ssa.FCmpOGE, ssa.FCmpUGE:
			r = a >= b
		case ssa.FCmpOLT, ssa.FCmpULT:
			r = a < b
		case ssa.FCmpOLE, ssa.FCmpULE:
			r = a <= b
		case ssa.FCmpONE, ssa.FCmpUNE:
			r = a != b
		default:
			return nil, errors.New("bad float predicate %v", p)
		}
		if uno {
			// Ordered predicates fail on NaN, unordered ones hold.
			return p >= ssa.FCmpUEQ, nil
		}
		return r, nil
	}

	switch a := x.(type) {
	case *Cell, bool:
		switch p {
		case ssa.ICmpEQ:
			return x == y, nil
		case ssa.ICmpNE:
			return x != y, nil
		}
		if ab, ok := a.(bool); ok {
			return compareInts(v, p, b2i(ab), b2i(y.(bool)))
		}
		return nil, errors.New("ordered comparison of pointers")
	case int64:
		return compareInts(v, p, a, y.(int64))
	}
	return nil, errors.New("cannot compare %T", x)
}

func compareInts(v *ssa.Value, p ssa.Predicate, a, b int64) (interface{}, error) {
	t := v.Args[0].Type
	ua, ub := unsigned(t, a), unsigned(t, b)
	switch p {
	case ssa.ICmpEQ:
		return a == b, nil
	case ssa.ICmpNE:
		return a != b, nil
	case ssa.ICmpSGT:
		return a > b, nil
	case ssa.ICmpSGE:
		return a >= b, nil
	case ssa.ICmpSLT:
		return a < b, nil
	case ssa.ICmpSLE:
		return a <= b, nil
	case ssa.ICmpUGT:
		return ua > ub, nil
	case ssa.ICmpUGE:
		return ua >= ub, nil
	case ssa.ICmpULT:
		return ua < ub, nil
	case ssa.ICmpULE:
		return ua <= ub, nil
	}
	return nil, errors.New("bad integer predicate %v", p)
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// ParseArgs converts textual arguments to runtime values for f's
// parameters.
func ParseArgs(f *ssa.Func, ss []string) ([]interface{}, error) {
	n := 0
	if f.Sig != nil {
		n = f.Sig.NumParams()
	}
	if len(ss) != n {
		return nil, errors.New("%s takes %d arguments, got %d", f.Name, n, len(ss))
	}
	args := make([]interface{}, n)
	for i, s := range ss {
		p := f.Sig.Param(i)
		var err error
		switch t := p.Type(); {
		case types.IsBoolean(t):
			args[i], err = strconv.ParseBool(s)
		case types.IsInteger(t):
			var x int64
			x, err = strconv.ParseInt(s, 0, 64)
			args[i] = wrap(t, x)
		case types.IsFloat(t):
			var x float64
			x, err = strconv.ParseFloat(s, 64)
			args[i] = roundFloat(t, x)
		default:
			err = errors.New("cannot pass %s from the command line", t)
		}
		if err != nil {
			return nil, errors.Wrap(err, "argument %s", p.Name())
		}
	}
	return args, nil
}

// Format renders a runtime value.
func Format(x interface{}) string {
	switch x := x.(type) {
	case nil:
		return "void"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case *Cell:
		if x == nil {
			return "nil"
		}
		return fmt.Sprintf("&%s", x.Type)
	}
	return fmt.Sprint(x)
}
