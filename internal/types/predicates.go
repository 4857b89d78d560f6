package types

// Identical reports whether x and y denote the same type. Named types are
// identical only to themselves; everything else compares structurally.
func Identical(x, y Type) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	switch x := x.(type) {
	case *Basic:
		y, ok := y.(*Basic)
		return ok && x.kind == y.kind
	case *Array:
		y, ok := y.(*Array)
		return ok && x.n == y.n && Identical(x.elem, y.elem)
	case *Pointer:
		y, ok := y.(*Pointer)
		return ok && Identical(x.elem, y.elem)
	case *Struct:
		y, ok := y.(*Struct)
		return ok && sameVars(x.fields, y.fields, true)
	case *Func:
		y, ok := y.(*Func)
		return ok && sameVars(x.params, y.params, false) &&
			(x.result == nil) == (y.result == nil) &&
			(x.result == nil || Identical(x.result, y.result))
	}
	return false
}

// sameVars compares two variable lists by type, and by name too when
// names is set. Parameter names never matter.
func sameVars(a, b []*Var, names bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if names && a[i].name != b[i].name {
			return false
		}
		if !Identical(a[i].typ, b[i].typ) {
			return false
		}
	}
	return true
}

func hasInfo(T Type, info BasicInfo) bool {
	b, ok := T.Underlying().(*Basic)
	return ok && b.info&info != 0
}

func IsBoolean(T Type) bool { return hasInfo(T, InfoBoolean) }
func IsInteger(T Type) bool { return hasInfo(T, InfoInteger) }
func IsFloat(T Type) bool   { return hasInfo(T, InfoFloat) }

func IsPointer(T Type) bool {
	_, ok := T.Underlying().(*Pointer)
	return ok
}

// IsAggregate reports whether T is a struct or an array. Values of these
// types only live in memory.
func IsAggregate(T Type) bool {
	switch T.Underlying().(type) {
	case *Struct, *Array:
		return true
	}
	return false
}

// AsStruct returns the struct underlying T, or nil.
func AsStruct(T Type) *Struct {
	s, _ := T.Underlying().(*Struct)
	return s
}

// Elem returns what T points to, or nil if T is not a pointer.
func Elem(T Type) Type {
	if p, ok := T.Underlying().(*Pointer); ok {
		return p.elem
	}
	return nil
}
