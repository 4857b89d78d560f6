package ssa

import (
	"fmt"
	"strconv"

	"github.com/you-not-fish/ssaopt/internal/types"
)

// ID numbers values and blocks within a Func.
type ID int32

// Value is one SSA definition.
type Value struct {
	ID ID
	Op Op
	// Type is nil for Store and Zero and for calls that return nothing.
	Type types.Type
	Args []*Value
	// Block is nil once the value has been removed.
	Block *Block

	// AuxInt carries an integer constant, a comparison predicate, an
	// alignment or a parameter index, depending on Op.
	AuxInt   int64
	AuxFloat float64
	// Aux carries a name: the variable of an Alloca or Arg, the callee of
	// a StaticCall, or a type.
	Aux interface{}

	// Uses counts references from Args and from block Controls.
	Uses int32
	// users has one entry per Args slot that refers to this value.
	users []*Value
}

func (v *Value) String() string { return "v" + strconv.Itoa(int(v.ID)) }

// LongString is the value's line in printed form.
func (v *Value) LongString() string { return formatValue(v) }

// Users returns the values that use v as an argument. A value appears
// once per argument slot, so a user referencing v twice appears twice.
// The slice must not be modified; copy it before changing v's uses.
func (v *Value) Users() []*Value {
	return v.users
}

// Name returns the name carried in Aux, or "" if there is none.
func (v *Value) Name() string {
	s, _ := v.Aux.(string)
	return s
}

// AddArg appends a value to the argument list and records the use.
func (v *Value) AddArg(arg *Value) {
	v.Args = append(v.Args, arg)
	arg.addUser(v)
}

// ReplaceArg replaces the argument at index i, adjusting uses.
// A nil slot (an unfilled phi argument) is allowed on either side.
func (v *Value) ReplaceArg(i int, new *Value) {
	if old := v.Args[i]; old != nil {
		old.removeUser(v)
	}
	v.Args[i] = new
	if new != nil {
		new.addUser(v)
	}
}

// resetArgs drops every argument, releasing its uses.
func (v *Value) resetArgs() {
	for _, arg := range v.Args {
		if arg != nil {
			arg.removeUser(v)
		}
	}
	v.Args = nil
}

func (v *Value) addUser(u *Value) {
	v.users = append(v.users, u)
	v.Uses++
}

func (v *Value) removeUser(u *Value) {
	for i, x := range v.users {
		if x == u {
			last := len(v.users) - 1
			copy(v.users[i:], v.users[i+1:])
			v.users[last] = nil
			v.users = v.users[:last]
			v.Uses--
			return
		}
	}
	panic(fmt.Sprintf("ssa: %s is not a user of %s", u, v))
}

func (v *Value) IsPure() bool { return v.Op.IsPure() }

// IsConstInt reports whether v is an integer constant, and its value.
func (v *Value) IsConstInt() (int64, bool) {
	if v.Op == OpConst64 {
		return v.AuxInt, true
	}
	return 0, false
}
