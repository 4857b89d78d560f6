package types

// Var is a struct field or a function parameter.
type Var struct {
	name string
	typ  Type
}

func NewVar(name string, typ Type) *Var { return &Var{name: name, typ: typ} }

func (v *Var) Name() string { return v.name }
func (v *Var) Type() Type   { return v.typ }
