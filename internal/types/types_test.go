package types

import "testing"

func TestBasicTypes(t *testing.T) {
	tests := []struct {
		kind BasicKind
		name string
		info BasicInfo
		bits int
	}{
		{Bool, "bool", InfoBoolean, 1},
		{Int32, "int32", InfoInteger, 32},
		{Int, "int", InfoInteger, 64},
		{Float32, "float32", InfoFloat, 32},
		{Float, "float", InfoFloat, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := Typ[tt.kind]
			if typ == nil {
				t.Fatalf("Typ[%d] is nil", tt.kind)
			}
			if typ.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", typ.Kind(), tt.kind)
			}
			if typ.Info() != tt.info {
				t.Errorf("Info() = %v, want %v", typ.Info(), tt.info)
			}
			if typ.String() != tt.name {
				t.Errorf("String() = %q, want %q", typ.String(), tt.name)
			}
			if typ.Bits() != tt.bits {
				t.Errorf("Bits() = %d, want %d", typ.Bits(), tt.bits)
			}
			if LookupBasic(tt.name) != typ {
				t.Errorf("LookupBasic(%q) did not return Typ[%d]", tt.name, tt.kind)
			}
			if typ.Underlying() != typ {
				t.Errorf("Underlying() != self")
			}
		})
	}

	if LookupBasic("string") != nil {
		t.Error("LookupBasic(string) should be nil")
	}
}

func TestArrayType(t *testing.T) {
	elem := Typ[Int]
	arr := NewArray(10, elem)

	if arr.Len() != 10 {
		t.Errorf("Len() = %d, want 10", arr.Len())
	}
	if arr.Elem() != elem {
		t.Errorf("Elem() != expected element type")
	}
	if arr.String() != "[10]int" {
		t.Errorf("String() = %q, want %q", arr.String(), "[10]int")
	}
}

func TestPointerType(t *testing.T) {
	ptr := NewPointer(Typ[Int])

	if ptr.Elem() != Typ[Int] {
		t.Errorf("Elem() != expected base type")
	}
	if ptr.String() != "*int" {
		t.Errorf("String() = %q, want %q", ptr.String(), "*int")
	}
	if Elem(ptr) != Typ[Int] {
		t.Errorf("Elem(ptr) = %v, want int", Elem(ptr))
	}
	if Elem(Typ[Int]) != nil {
		t.Errorf("Elem(int) should be nil")
	}
}

func TestStructType(t *testing.T) {
	st := NewStruct([]*Var{
		NewVar("x", Typ[Int]),
		NewVar("p", NewPointer(Typ[Float])),
	})

	if st.NumFields() != 2 {
		t.Fatalf("NumFields() = %d, want 2", st.NumFields())
	}
	if st.Field(1).Name() != "p" {
		t.Errorf("Field(1).Name() = %q, want p", st.Field(1).Name())
	}
	if st.FieldIndex("p") != 1 || st.FieldIndex("q") != -1 {
		t.Errorf("FieldIndex = %d, %d; want 1, -1", st.FieldIndex("p"), st.FieldIndex("q"))
	}
	want := "struct{x int; p *float}"
	if st.String() != want {
		t.Errorf("String() = %q, want %q", st.String(), want)
	}
}

func TestFuncType(t *testing.T) {
	sig := NewFunc([]*Var{NewVar("a", Typ[Int]), NewVar("b", Typ[Bool])}, Typ[Float])
	if sig.NumParams() != 2 {
		t.Errorf("NumParams() = %d, want 2", sig.NumParams())
	}
	if sig.String() != "func(int, bool) float" {
		t.Errorf("String() = %q", sig.String())
	}

	void := NewFunc(nil, nil)
	if void.Result() != nil {
		t.Errorf("Result() = %v, want nil", void.Result())
	}
	if void.String() != "func()" {
		t.Errorf("String() = %q, want func()", void.String())
	}
}

func TestNamedType(t *testing.T) {
	pair := NewNamed("Pair", nil)
	st := NewStruct([]*Var{NewVar("a", Typ[Int]), NewVar("next", NewPointer(pair))})
	pair.SetUnderlying(st)

	if pair.String() != "Pair" {
		t.Errorf("String() = %q, want Pair", pair.String())
	}
	if pair.Underlying() != st {
		t.Errorf("Underlying() != struct")
	}
	if AsStruct(pair) != st {
		t.Errorf("AsStruct(Pair) != struct")
	}
	if st.String() != "struct{a int; next *Pair}" {
		t.Errorf("struct String() = %q", st.String())
	}
}
