package types

// BasicKind enumerates the scalar types.
type BasicKind int

const (
	Invalid BasicKind = iota
	Bool
	Int32
	Int // 64-bit
	Float32
	Float // 64-bit
)

// BasicInfo is a set of properties of a scalar type.
type BasicInfo int

const (
	InfoBoolean BasicInfo = 1 << iota
	InfoInteger
	InfoFloat

	InfoNumeric = InfoInteger | InfoFloat
)

// Basic is a scalar type.
type Basic struct {
	typ
	kind BasicKind
	info BasicInfo
	name string
	bits int
}

func (b *Basic) Kind() BasicKind  { return b.kind }
func (b *Basic) Info() BasicInfo  { return b.info }
func (b *Basic) Name() string     { return b.name }
func (b *Basic) Bits() int        { return b.bits }
func (b *Basic) Underlying() Type { return b }
func (b *Basic) String() string   { return b.name }

// Typ is indexed by BasicKind. Typ[Invalid] is nil.
var Typ = [...]*Basic{
	Bool:    {kind: Bool, info: InfoBoolean, name: "bool", bits: 1},
	Int32:   {kind: Int32, info: InfoInteger, name: "int32", bits: 32},
	Int:     {kind: Int, info: InfoInteger, name: "int", bits: 64},
	Float32: {kind: Float32, info: InfoFloat, name: "float32", bits: 32},
	Float:   {kind: Float, info: InfoFloat, name: "float", bits: 64},
}

var basicByName = func() map[string]*Basic {
	m := make(map[string]*Basic, len(Typ))
	for _, b := range Typ {
		if b != nil {
			m[b.name] = b
		}
	}
	return m
}()

// LookupBasic returns the scalar type spelled name, or nil.
func LookupBasic(name string) *Basic { return basicByName[name] }
