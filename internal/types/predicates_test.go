package types

import "testing"

func TestIdentical(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same basic", Typ[Int], Typ[Int], true},
		{"diff basic", Typ[Int], Typ[Int32], false},
		{"same array", NewArray(10, Typ[Int]), NewArray(10, Typ[Int]), true},
		{"diff array len", NewArray(10, Typ[Int]), NewArray(5, Typ[Int]), false},
		{"diff array elem", NewArray(10, Typ[Int]), NewArray(10, Typ[Float]), false},
		{"same ptr", NewPointer(Typ[Int]), NewPointer(Typ[Int]), true},
		{"diff ptr", NewPointer(Typ[Int]), NewPointer(Typ[Float]), false},
		{"nil", nil, Typ[Int], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Identical(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Identical(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIdenticalStruct(t *testing.T) {
	// Struct identity is by structure, not name
	s1 := NewStruct([]*Var{NewVar("x", Typ[Int]), NewVar("y", Typ[Float])})
	s2 := NewStruct([]*Var{NewVar("x", Typ[Int]), NewVar("y", Typ[Float])})
	s3 := NewStruct([]*Var{NewVar("a", Typ[Int]), NewVar("b", Typ[Float])})
	s4 := NewStruct([]*Var{NewVar("x", Typ[Int]), NewVar("y", Typ[Int])})

	if !Identical(s1, s2) {
		t.Error("Identical structs with same fields should be identical")
	}
	if Identical(s1, s3) {
		t.Error("Structs with different field names should not be identical")
	}
	if Identical(s1, s4) {
		t.Error("Structs with different field types should not be identical")
	}
}

func TestIdenticalNamed(t *testing.T) {
	st := NewStruct([]*Var{NewVar("x", Typ[Int])})
	a := NewNamed("A", st)
	b := NewNamed("B", st)

	if !Identical(a, a) {
		t.Error("named type should be identical to itself")
	}
	if Identical(a, b) {
		t.Error("distinct named types should not be identical")
	}
	if Identical(a, st) {
		t.Error("named type should not be identical to its underlying struct")
	}
}

func TestIdenticalFunc(t *testing.T) {
	f1 := NewFunc([]*Var{NewVar("x", Typ[Int])}, Typ[Bool])
	f2 := NewFunc([]*Var{NewVar("y", Typ[Int])}, Typ[Bool]) // different param name
	f3 := NewFunc([]*Var{NewVar("x", Typ[Float])}, Typ[Bool])
	f4 := NewFunc([]*Var{NewVar("x", Typ[Int])}, nil)

	if !Identical(f1, f2) {
		t.Error("param names must not affect identity")
	}
	if Identical(f1, f3) {
		t.Error("different param types should not be identical")
	}
	if Identical(f1, f4) {
		t.Error("void and non-void results should not be identical")
	}
}

func TestClassPredicates(t *testing.T) {
	st := NewStruct([]*Var{NewVar("x", Typ[Int])})
	named := NewNamed("S", st)

	tests := []struct {
		typ                                  Type
		boolean, integer, float, ptr, aggreg bool
	}{
		{Typ[Bool], true, false, false, false, false},
		{Typ[Int32], false, true, false, false, false},
		{Typ[Int], false, true, false, false, false},
		{Typ[Float32], false, false, true, false, false},
		{NewPointer(st), false, false, false, true, false},
		{st, false, false, false, false, true},
		{named, false, false, false, false, true},
		{NewArray(4, Typ[Int]), false, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := IsBoolean(tt.typ); got != tt.boolean {
				t.Errorf("IsBoolean = %v, want %v", got, tt.boolean)
			}
			if got := IsInteger(tt.typ); got != tt.integer {
				t.Errorf("IsInteger = %v, want %v", got, tt.integer)
			}
			if got := IsFloat(tt.typ); got != tt.float {
				t.Errorf("IsFloat = %v, want %v", got, tt.float)
			}
			if got := IsPointer(tt.typ); got != tt.ptr {
				t.Errorf("IsPointer = %v, want %v", got, tt.ptr)
			}
			if got := IsAggregate(tt.typ); got != tt.aggreg {
				t.Errorf("IsAggregate = %v, want %v", got, tt.aggreg)
			}
		})
	}
}
