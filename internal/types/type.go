// Package types is the type model of the SSA form. It covers scalars,
// pointers, structs, arrays, signatures and named types.
package types

// Type is implemented by every type in this package.
type Type interface {
	// Underlying strips any Named wrappers. Other types return themselves.
	Underlying() Type
	String() string
	aType()
}

type typ struct{}

func (typ) aType() {}
