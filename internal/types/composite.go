package types

import (
	"strconv"
	"strings"
)

// Array is the fixed-length type [N]Elem.
type Array struct {
	typ
	n    int64
	elem Type
}

// NewArray returns the type [n]elem.
func NewArray(n int64, elem Type) *Array { return &Array{n: n, elem: elem} }

func (a *Array) Len() int64       { return a.n }
func (a *Array) Elem() Type       { return a.elem }
func (a *Array) Underlying() Type { return a }

func (a *Array) String() string {
	return "[" + strconv.FormatInt(a.n, 10) + "]" + a.elem.String()
}

// Struct is an ordered list of named fields. Its memory layout is
// computed by Sizes on first use and kept with the type.
type Struct struct {
	typ
	fields []*Var
	layout *Layout
}

// Layout describes where the fields of a struct live in memory.
type Layout struct {
	Size    int64
	Align   int64
	Offsets []int64 // one per field
}

// NewStruct returns a struct type with the given fields.
func NewStruct(fields []*Var) *Struct { return &Struct{fields: fields} }

func (s *Struct) NumFields() int   { return len(s.fields) }
func (s *Struct) Field(i int) *Var { return s.fields[i] }
func (s *Struct) Fields() []*Var   { return s.fields }
func (s *Struct) Underlying() Type { return s }

// FieldIndex returns the index of the field called name, or -1.
func (s *Struct) FieldIndex(name string) int {
	for i, f := range s.fields {
		if f.Name() == name {
			return i
		}
	}
	return -1
}

func (s *Struct) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.Name() + " " + f.Type().String()
	}
	return "struct{" + strings.Join(parts, "; ") + "}"
}

// Pointer is the type *Elem.
type Pointer struct {
	typ
	elem Type
}

// NewPointer returns the type *elem.
func NewPointer(elem Type) *Pointer { return &Pointer{elem: elem} }

func (p *Pointer) Elem() Type       { return p.elem }
func (p *Pointer) Underlying() Type { return p }
func (p *Pointer) String() string   { return "*" + p.elem.String() }

// Func is a function signature. A nil result means the function returns
// nothing.
type Func struct {
	typ
	params []*Var
	result Type
}

// NewFunc returns a signature with the given parameters and result.
func NewFunc(params []*Var, result Type) *Func { return &Func{params: params, result: result} }

func (f *Func) Params() []*Var   { return f.params }
func (f *Func) NumParams() int   { return len(f.params) }
func (f *Func) Param(i int) *Var { return f.params[i] }
func (f *Func) Result() Type     { return f.result }
func (f *Func) Underlying() Type { return f }

func (f *Func) String() string {
	parts := make([]string, len(f.params))
	for i, p := range f.params {
		parts[i] = p.Type().String()
	}
	s := "func(" + strings.Join(parts, ", ") + ")"
	if f.result != nil {
		s += " " + f.result.String()
	}
	return s
}
