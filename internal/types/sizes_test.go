package types

import "testing"

func TestSizeofAlignof(t *testing.T) {
	sizes := DefaultSizes

	tests := []struct {
		typ         Type
		size, align int64
	}{
		{Typ[Bool], 1, 1},
		{Typ[Int32], 4, 4},
		{Typ[Int], 8, 8},
		{Typ[Float32], 4, 4},
		{Typ[Float], 8, 8},
		{NewPointer(Typ[Int]), SizePtr, AlignPtr},
		{NewFunc(nil, nil), SizePtr, AlignPtr},
		{NewArray(3, Typ[Int32]), 12, 4},
		{NewArray(0, Typ[Int]), 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := sizes.Sizeof(tt.typ); got != tt.size {
				t.Errorf("Sizeof(%s) = %d, want %d", tt.typ, got, tt.size)
			}
			if got := sizes.Alignof(tt.typ); got != tt.align {
				t.Errorf("Alignof(%s) = %d, want %d", tt.typ, got, tt.align)
			}
		})
	}
}

func TestStructLayout(t *testing.T) {
	// a at 0, b at 8 followed by 7 bytes of padding, c at 16.
	st := NewStruct([]*Var{
		NewVar("a", Typ[Int]),
		NewVar("b", Typ[Bool]),
		NewVar("c", Typ[Int]),
	})
	l := DefaultSizes.Layout(st)

	for i, want := range []int64{0, 8, 16} {
		if l.Offsets[i] != want {
			t.Errorf("Offsets[%d] = %d, want %d", i, l.Offsets[i], want)
		}
	}
	if l.Size != 24 || l.Align != 8 {
		t.Errorf("layout = %d/%d, want 24/8", l.Size, l.Align)
	}
	if DefaultSizes.Layout(st) != l {
		t.Errorf("layout not cached")
	}
}

func TestStructLayoutEmpty(t *testing.T) {
	l := DefaultSizes.Layout(NewStruct(nil))
	if l.Size != 0 || l.Align != 1 {
		t.Errorf("layout = %d/%d, want 0/1", l.Size, l.Align)
	}
}

func TestNestedStructLayout(t *testing.T) {
	sizes := DefaultSizes

	inner := NewStruct([]*Var{
		NewVar("x", Typ[Int32]),
		NewVar("y", Typ[Int32]),
	})
	outer := NewNamed("Outer", NewStruct([]*Var{
		NewVar("a", Typ[Bool]),
		NewVar("inner", inner),
		NewVar("tail", NewArray(2, Typ[Bool])),
	}))

	// a at 0, inner at 4 (8 bytes), tail at 12 (2 bytes): 14 rounded to 16.
	if got := sizes.Sizeof(outer); got != 16 {
		t.Errorf("Sizeof(Outer) = %d, want 16", got)
	}
	if got := sizes.Alignof(outer); got != 4 {
		t.Errorf("Alignof(Outer) = %d, want 4", got)
	}
	if got := sizes.Offsetof(AsStruct(outer), 1); got != 4 {
		t.Errorf("Offsetof(inner) = %d, want 4", got)
	}
	if got := sizes.Offsetof(AsStruct(outer), 2); got != 12 {
		t.Errorf("Offsetof(tail) = %d, want 12", got)
	}
}
