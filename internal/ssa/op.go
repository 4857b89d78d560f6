// Package ssa implements the SSA (Static Single Assignment) intermediate
// representation consumed by the optimization passes.
package ssa

// Op represents an SSA operation code.
type Op int

const (
	OpInvalid Op = iota

	// Constants
	OpConst64    // integer constant; AuxInt = value
	OpConstFloat // float constant; AuxFloat = value
	OpConstBool  // bool constant; AuxInt = 0 or 1
	OpConstNil   // nil pointer constant

	// Integer arithmetic and bitwise ops
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd // also logical and on bool
	OpOr  // also logical or on bool
	OpXor // also logical xor on bool
	OpShl
	OpShr

	// Float arithmetic
	OpAddF
	OpSubF
	OpMulF
	OpDivF

	// Unary
	OpNeg  // -int
	OpNegF // -float
	OpNot  // !bool

	// Comparison; AuxInt = Predicate
	OpICmp // integer, bool or pointer comparison
	OpFCmp // float comparison

	// Memory
	OpAlloca // stack allocation; Type = *T; AuxInt = alignment; Aux = optional name
	OpLoad   // load from pointer; Args[0] = ptr
	OpStore  // store to pointer; Args[0] = ptr, Args[1] = val; void
	OpZero   // zero-fill memory; Args[0] = ptr; void

	// Address computation
	OpGEP // element address; Args[0] = base ptr, Args[1:] = indices

	// Conversion
	OpIntToFloat
	OpFloatToInt

	// Calls
	OpStaticCall // direct call; Aux = callee name; Args = arguments

	// SSA-specific
	OpPhi  // φ function; Args = one per predecessor
	OpCopy // value copy (identity)
	OpArg  // function argument; AuxInt = param index; Aux = param name

	opCount // sentinel; must be last
)

// OpClass partitions ops into the instruction kinds passes dispatch on.
// Every op belongs to exactly one class.
type OpClass int

const (
	ClassInvalid OpClass = iota
	ClassConst
	ClassBinary
	ClassUnary
	ClassCompare
	ClassAlloc
	ClassLoad
	ClassStore
	ClassFieldAddr
	ClassConv
	ClassCall
	ClassPhi
	ClassCopy
	ClassArg
)

var classNames = [...]string{
	ClassInvalid:   "invalid",
	ClassConst:     "const",
	ClassBinary:    "binary",
	ClassUnary:     "unary",
	ClassCompare:   "compare",
	ClassAlloc:     "alloc",
	ClassLoad:      "load",
	ClassStore:     "store",
	ClassFieldAddr: "fieldaddr",
	ClassConv:      "conv",
	ClassCall:      "call",
	ClassPhi:       "phi",
	ClassCopy:      "copy",
	ClassArg:       "arg",
}

func (c OpClass) String() string {
	if c >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

// OpInfo holds metadata about an SSA operation.
type OpInfo struct {
	Name   string  // human-readable name
	Class  OpClass // instruction kind
	IsPure bool    // true if the op has no side effects
	IsVoid bool    // true if the op produces no value (Store, Zero)
}

// opInfoTable maps each Op to its OpInfo.
// Index by Op value.
var opInfoTable = [opCount]OpInfo{
	OpInvalid: {Name: "Invalid"},

	OpConst64:    {Name: "Const64", Class: ClassConst, IsPure: true},
	OpConstFloat: {Name: "ConstFloat", Class: ClassConst, IsPure: true},
	OpConstBool:  {Name: "ConstBool", Class: ClassConst, IsPure: true},
	OpConstNil:   {Name: "ConstNil", Class: ClassConst, IsPure: true},

	OpAdd: {Name: "Add", Class: ClassBinary, IsPure: true},
	OpSub: {Name: "Sub", Class: ClassBinary, IsPure: true},
	OpMul: {Name: "Mul", Class: ClassBinary, IsPure: true},
	// Division traps on zero, so it is not pure.
	OpDiv: {Name: "Div", Class: ClassBinary},
	OpMod: {Name: "Mod", Class: ClassBinary},
	OpAnd: {Name: "And", Class: ClassBinary, IsPure: true},
	OpOr:  {Name: "Or", Class: ClassBinary, IsPure: true},
	OpXor: {Name: "Xor", Class: ClassBinary, IsPure: true},
	OpShl: {Name: "Shl", Class: ClassBinary, IsPure: true},
	OpShr: {Name: "Shr", Class: ClassBinary, IsPure: true},

	OpAddF: {Name: "AddF", Class: ClassBinary, IsPure: true},
	OpSubF: {Name: "SubF", Class: ClassBinary, IsPure: true},
	OpMulF: {Name: "MulF", Class: ClassBinary, IsPure: true},
	OpDivF: {Name: "DivF", Class: ClassBinary, IsPure: true},

	OpNeg:  {Name: "Neg", Class: ClassUnary, IsPure: true},
	OpNegF: {Name: "NegF", Class: ClassUnary, IsPure: true},
	OpNot:  {Name: "Not", Class: ClassUnary, IsPure: true},

	OpICmp: {Name: "ICmp", Class: ClassCompare, IsPure: true},
	OpFCmp: {Name: "FCmp", Class: ClassCompare, IsPure: true},

	OpAlloca: {Name: "Alloca", Class: ClassAlloc},
	OpLoad:   {Name: "Load", Class: ClassLoad},
	OpStore:  {Name: "Store", Class: ClassStore, IsVoid: true},
	OpZero:   {Name: "Zero", Class: ClassStore, IsVoid: true},

	OpGEP: {Name: "GEP", Class: ClassFieldAddr, IsPure: true},

	OpIntToFloat: {Name: "IntToFloat", Class: ClassConv, IsPure: true},
	OpFloatToInt: {Name: "FloatToInt", Class: ClassConv, IsPure: true},

	OpStaticCall: {Name: "StaticCall", Class: ClassCall},

	OpPhi:  {Name: "Phi", Class: ClassPhi, IsPure: true},
	OpCopy: {Name: "Copy", Class: ClassCopy, IsPure: true},
	OpArg:  {Name: "Arg", Class: ClassArg, IsPure: true},
}

// opByName is the reverse of opInfoTable, used by the reader.
var opByName = func() map[string]Op {
	m := make(map[string]Op, opCount)
	for op := OpInvalid + 1; op < opCount; op++ {
		m[opInfoTable[op].Name] = op
	}
	return m
}()

// String returns the human-readable name of the op.
func (o Op) String() string {
	if o >= 0 && int(o) < len(opInfoTable) {
		return opInfoTable[o].Name
	}
	return "unknown"
}

// Info returns the OpInfo for this op.
func (o Op) Info() OpInfo {
	if o >= 0 && int(o) < len(opInfoTable) {
		return opInfoTable[o]
	}
	return OpInfo{Name: "unknown"}
}

// Class returns the instruction kind of this op.
func (o Op) Class() OpClass {
	return o.Info().Class
}

// IsPure returns true if this op has no side effects.
func (o Op) IsPure() bool {
	return o.Info().IsPure
}

// IsVoid returns true if this op produces no value.
func (o Op) IsVoid() bool {
	return o.Info().IsVoid
}
