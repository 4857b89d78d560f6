package types

// Named is a declared type. Its underlying type may be filled in after
// creation so that a declaration can refer to itself through a pointer.
type Named struct {
	typ
	name       string
	underlying Type
}

func NewNamed(name string, underlying Type) *Named {
	return &Named{name: name, underlying: underlying}
}

func (n *Named) Name() string         { return n.name }
func (n *Named) SetUnderlying(u Type) { n.underlying = u }
func (n *Named) Underlying() Type     { return n.underlying }
func (n *Named) String() string       { return n.name }
