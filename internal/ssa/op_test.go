package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpTable(t *testing.T) {
	for op := OpInvalid + 1; op < opCount; op++ {
		info := op.Info()
		if !assert.NotEmpty(t, info.Name, "Op(%d)", op) {
			continue
		}
		assert.NotEqual(t, ClassInvalid, info.Class, "%s has no class", op)
		assert.Equal(t, op, opByName[info.Name], info.Name)
		assert.False(t, info.IsPure && info.IsVoid, "%s is pure and void", op)
	}
	assert.Len(t, opByName, int(opCount)-1)
}

func TestOpProperties(t *testing.T) {
	tests := []struct {
		op    Op
		name  string
		class OpClass
		pure  bool
		void  bool
	}{
		{OpConst64, "Const64", ClassConst, true, false},
		{OpConstNil, "ConstNil", ClassConst, true, false},
		{OpArg, "Arg", ClassArg, true, false},
		{OpAdd, "Add", ClassBinary, true, false},
		{OpXor, "Xor", ClassBinary, true, false},
		{OpDiv, "Div", ClassBinary, false, false},
		{OpMod, "Mod", ClassBinary, false, false},
		{OpNeg, "Neg", ClassUnary, true, false},
		{OpIntToFloat, "IntToFloat", ClassConv, true, false},
		{OpICmp, "ICmp", ClassCompare, true, false},
		{OpFCmp, "FCmp", ClassCompare, true, false},
		{OpAlloca, "Alloca", ClassAlloc, false, false},
		{OpLoad, "Load", ClassLoad, false, false},
		{OpStore, "Store", ClassStore, false, true},
		{OpZero, "Zero", ClassStore, false, true},
		{OpGEP, "GEP", ClassFieldAddr, true, false},
		{OpPhi, "Phi", ClassPhi, true, false},
		{OpCopy, "Copy", ClassCopy, true, false},
		{OpStaticCall, "StaticCall", ClassCall, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.op.String())
			assert.Equal(t, tt.class, tt.op.Class())
			assert.Equal(t, tt.pure, tt.op.IsPure(), "IsPure")
			assert.Equal(t, tt.void, tt.op.IsVoid(), "IsVoid")
		})
	}

	assert.Equal(t, "Invalid", OpInvalid.String())
	assert.Equal(t, ClassInvalid, OpInvalid.Class())
	assert.Equal(t, "unknown", opCount.String())
}

func TestLookupPredicate(t *testing.T) {
	tests := []struct {
		op    Op
		name  string
		want  Predicate
		float bool
	}{
		{OpICmp, "eq", ICmpEQ, false},
		{OpICmp, "ugt", ICmpUGT, false},
		{OpICmp, "sle", ICmpSLE, false},
		{OpFCmp, "ugt", FCmpUGT, true},
		{OpFCmp, "oeq", FCmpOEQ, true},
		{OpFCmp, "false", FCmpFalse, true},
		{OpFCmp, "true", FCmpTrue, true},
	}
	for _, tt := range tests {
		p, ok := LookupPredicate(tt.op, tt.name)
		if assert.True(t, ok, "%s %s", tt.op, tt.name) {
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.name, p.String())
			assert.Equal(t, tt.float, p.IsFloat())
			assert.Equal(t, !tt.float, p.IsInt())
		}
	}

	_, ok := LookupPredicate(OpICmp, "oeq")
	assert.False(t, ok, "oeq is a float predicate")
	_, ok = LookupPredicate(OpAdd, "eq")
	assert.False(t, ok, "Add takes no predicate")
}

func TestBlockKindString(t *testing.T) {
	for kind, want := range map[BlockKind]string{
		BlockPlain:   "plain",
		BlockIf:      "if",
		BlockReturn:  "ret",
		BlockExit:    "exit",
		BlockInvalid: "invalid",
	} {
		assert.Equal(t, want, kind.String())
	}
}
