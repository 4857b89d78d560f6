package ssa

// Predicate is the condition tested by an OpICmp or OpFCmp value.
// It is stored in the value's AuxInt.
type Predicate int64

// Float predicates. "O" predicates are false if either operand is NaN,
// "U" predicates are true if either operand is NaN.
const (
	FCmpFalse Predicate = iota
	FCmpOEQ
	FCmpOGT
	FCmpOGE
	FCmpOLT
	FCmpOLE
	FCmpONE
	FCmpORD
	FCmpUNO
	FCmpUEQ
	FCmpUGT
	FCmpUGE
	FCmpULT
	FCmpULE
	FCmpUNE
	FCmpTrue

	firstICmp
)

// Integer predicates.
const (
	ICmpEQ Predicate = firstICmp + iota
	ICmpNE
	ICmpUGT
	ICmpUGE
	ICmpULT
	ICmpULE
	ICmpSGT
	ICmpSGE
	ICmpSLT
	ICmpSLE

	predicateCount
)

var predicateNames = [predicateCount]string{
	FCmpFalse: "false",
	FCmpOEQ:   "oeq",
	FCmpOGT:   "ogt",
	FCmpOGE:   "oge",
	FCmpOLT:   "olt",
	FCmpOLE:   "ole",
	FCmpONE:   "one",
	FCmpORD:   "ord",
	FCmpUNO:   "uno",
	FCmpUEQ:   "ueq",
	FCmpUGT:   "ugt",
	FCmpUGE:   "uge",
	FCmpULT:   "ult",
	FCmpULE:   "ule",
	FCmpUNE:   "une",
	FCmpTrue:  "true",

	ICmpEQ:  "eq",
	ICmpNE:  "ne",
	ICmpUGT: "ugt",
	ICmpUGE: "uge",
	ICmpULT: "ult",
	ICmpULE: "ule",
	ICmpSGT: "sgt",
	ICmpSGE: "sge",
	ICmpSLT: "slt",
	ICmpSLE: "sle",
}

// String returns the textual name of the predicate. Float and integer
// predicates share some names (ugt, ult, ...); the op disambiguates.
func (p Predicate) String() string {
	if p >= 0 && p < predicateCount {
		return predicateNames[p]
	}
	return "badpred"
}

// IsFloat reports whether p is a float predicate.
func (p Predicate) IsFloat() bool {
	return p >= FCmpFalse && p <= FCmpTrue
}

// IsInt reports whether p is an integer predicate.
func (p Predicate) IsInt() bool {
	return p >= ICmpEQ && p < predicateCount
}

// LookupPredicate returns the predicate called name for the given
// comparison op.
func LookupPredicate(op Op, name string) (Predicate, bool) {
	lo, hi := FCmpFalse, FCmpTrue
	if op == OpICmp {
		lo, hi = ICmpEQ, ICmpSLE
	} else if op != OpFCmp {
		return 0, false
	}
	for p := lo; p <= hi; p++ {
		if predicateNames[p] == name {
			return p, true
		}
	}
	return 0, false
}

// Predicate returns the comparison predicate of an OpICmp or OpFCmp value.
func (v *Value) Predicate() Predicate {
	return Predicate(v.AuxInt)
}
