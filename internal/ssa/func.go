package ssa

import (
	"fmt"

	"github.com/you-not-fish/ssaopt/internal/types"
)

// Func is a function in SSA form. Blocks[0] is Entry.
type Func struct {
	Name   string
	Sig    *types.Func
	Blocks []*Block
	Entry  *Block

	nextValueID ID
	nextBlockID ID
}

// NewFunc returns a function holding only an empty entry block.
func NewFunc(name string, sig *types.Func) *Func {
	f := &Func{Name: name, Sig: sig}
	f.Entry = f.NewBlock(BlockPlain)
	return f
}

// NewBlock appends a fresh block of the given kind.
func (f *Func) NewBlock(kind BlockKind) *Block {
	b := &Block{ID: f.nextBlockID, Kind: kind, Func: f}
	f.nextBlockID++
	f.Blocks = append(f.Blocks, b)
	return b
}

// newValue allocates a value without placing it in a block.
func (f *Func) newValue(b *Block, op Op, typ types.Type, args []*Value) *Value {
	v := &Value{ID: f.nextValueID, Op: op, Type: typ, Block: b}
	f.nextValueID++
	for _, arg := range args {
		v.AddArg(arg)
	}
	return v
}

// NewValue creates a new Value at the end of the given block.
func (f *Func) NewValue(b *Block, op Op, typ types.Type, args ...*Value) *Value {
	v := f.newValue(b, op, typ, args)
	b.Values = append(b.Values, v)
	return v
}

// NewValueAtFront creates a new Value at the start of the given block.
func (f *Func) NewValueAtFront(b *Block, op Op, typ types.Type, args ...*Value) *Value {
	v := f.newValue(b, op, typ, args)
	b.Values = append(b.Values, nil)
	copy(b.Values[1:], b.Values)
	b.Values[0] = v
	return v
}

// NewValueBefore creates a new Value immediately before at, in at's block.
func (f *Func) NewValueBefore(at *Value, op Op, typ types.Type, args ...*Value) *Value {
	b := at.Block
	i := b.indexOf(at)
	if i < 0 {
		panic(fmt.Sprintf("ssa: %s is not in %s", at, b))
	}
	v := f.newValue(b, op, typ, args)
	b.Values = append(b.Values, nil)
	copy(b.Values[i+1:], b.Values[i:])
	b.Values[i] = v
	return v
}

// ReplaceUses redirects every use of old, in value arguments and block
// controls, to new. Afterwards old.Uses is zero.
func (f *Func) ReplaceUses(old, new *Value) {
	if old == new {
		return
	}
	users := append([]*Value(nil), old.users...)
	for _, u := range users {
		for i, a := range u.Args {
			if a == old {
				u.ReplaceArg(i, new)
			}
		}
	}
	if old.Uses == 0 {
		return
	}
	for _, b := range f.Blocks {
		for i, c := range b.Controls {
			if c == old {
				b.ReplaceControl(i, new)
			}
		}
	}
}

// RemoveValue unlinks v from its block and releases its arguments.
// v must have no remaining uses.
func (f *Func) RemoveValue(v *Value) {
	if v.Uses != 0 {
		panic(fmt.Sprintf("ssa: removing %s from %s with %d uses", v.LongString(), f.Name, v.Uses))
	}
	b := v.Block
	i := b.indexOf(v)
	if i < 0 {
		panic(fmt.Sprintf("ssa: %s is not in %s", v, b))
	}
	v.resetArgs()
	copy(b.Values[i:], b.Values[i+1:])
	b.Values[len(b.Values)-1] = nil
	b.Values = b.Values[:len(b.Values)-1]
	v.Block = nil
}

func (b *Block) indexOf(v *Value) int {
	for i, x := range b.Values {
		if x == v {
			return i
		}
	}
	return -1
}

func (f *Func) NumBlocks() int { return len(f.Blocks) }

// NumValues counts the values in all blocks.
func (f *Func) NumValues() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Values)
	}
	return n
}

// Allocas returns the allocations of block b in program order.
func Allocas(b *Block) []*Value {
	var list []*Value
	for _, v := range b.Values {
		if v.Op.Class() == ClassAlloc {
			list = append(list, v)
		}
	}
	return list
}

// Module is a set of named types and functions read from one source.
type Module struct {
	Types []*types.Named
	Funcs []*Func
}

// Func returns the function called name, or nil.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Type returns the named type called name, or nil.
func (m *Module) Type(name string) *types.Named {
	for _, t := range m.Types {
		if t.Name() == name {
			return t
		}
	}
	return nil
}
