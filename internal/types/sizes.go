package types

// Target pointer size and alignment in bytes.
const (
	SizePtr  = 8
	AlignPtr = 8
)

// Sizes computes sizes, alignments and struct layouts for a 64-bit
// target where scalars are naturally aligned.
type Sizes struct{}

// DefaultSizes is the layout used when nothing else is configured.
var DefaultSizes = &Sizes{}

// Sizeof returns the size of T in bytes.
func (s *Sizes) Sizeof(T Type) int64 {
	size, _ := s.sizeAlign(T)
	return size
}

// Alignof returns the alignment of T in bytes.
func (s *Sizes) Alignof(T Type) int64 {
	_, align := s.sizeAlign(T)
	return align
}

// Offsetof returns the byte offset of field i of st.
func (s *Sizes) Offsetof(st *Struct, i int) int64 {
	return s.Layout(st).Offsets[i]
}

// Layout returns the layout of st, computing it on first use.
func (s *Sizes) Layout(st *Struct) *Layout {
	if st.layout != nil {
		return st.layout
	}
	l := &Layout{Align: 1, Offsets: make([]int64, len(st.fields))}
	var off int64
	for i, f := range st.fields {
		size, align := s.sizeAlign(f.Type())
		off = roundUp(off, align)
		l.Offsets[i] = off
		off += size
		if align > l.Align {
			l.Align = align
		}
	}
	l.Size = roundUp(off, l.Align)
	st.layout = l
	return l
}

func (s *Sizes) sizeAlign(T Type) (size, align int64) {
	switch t := T.Underlying().(type) {
	case *Basic:
		n := int64(t.Bits()+7) / 8
		return n, n
	case *Array:
		size, align = s.sizeAlign(t.Elem())
		if t.Len() == 0 {
			return 0, 1
		}
		return t.Len() * size, align
	case *Struct:
		l := s.Layout(t)
		return l.Size, l.Align
	case *Pointer, *Func:
		return SizePtr, AlignPtr
	}
	return 0, 1
}

// roundUp rounds x up to a multiple of the power of two a.
func roundUp(x, a int64) int64 {
	return (x + a - 1) &^ (a - 1)
}
