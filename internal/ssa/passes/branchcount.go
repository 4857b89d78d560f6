package passes

import (
	"go.uber.org/zap"

	"github.com/you-not-fish/ssaopt/internal/ssa"
)

// BranchCount returns the branch statistics analysis. It never modifies
// the function.
func BranchCount(st *Stats) Pass {
	return Pass{
		Name: "brcount",
		Fn: func(f *ssa.Func) bool {
			ClassifyBranches(f, &st.Branch)
			return false
		},
		PreservesAll: true,
	}
}

// ClassifyBranches counts the branch terminators of f into st.
//
// Every conditional branch counts as Cond; if its condition is a
// comparison it also counts under the comparison's bucket. A condition
// computed by a phi counts once per incoming integer eq/ne comparison.
// Conditions built by other instructions are not bucketed.
func ClassifyBranches(f *ssa.Func, st *BranchStats) {
	log := ssa.Logger()

	for _, b := range f.Blocks {
		if !b.IsBranch() {
			continue
		}
		switch {
		case b.IsConditional():
			st.Cond++
			classifyCond(f, b, b.Cond(), st)
		case b.IsUnconditional():
			st.Uncond++
		default:
			log.Warn("brcount: malformed branch",
				zap.String("func", f.Name),
				zap.Stringer("block", b),
				zap.Stringer("kind", b.Kind),
				zap.Int("controls", len(b.Controls)),
				zap.Int("succs", len(b.Succs)))
		}
	}
}

func classifyCond(f *ssa.Func, b *ssa.Block, cond *ssa.Value, st *BranchStats) {
	log := ssa.Logger()

	switch cond.Op.Class() {
	case ssa.ClassCompare:
		countPredicate(cond.Predicate(), st)

	case ssa.ClassPhi:
		for _, in := range cond.Args {
			if in == nil || in.Op != ssa.OpICmp {
				continue
			}
			// Only the equality sense of an incoming comparison is attributed.
			switch in.Predicate() {
			case ssa.ICmpEQ:
				st.Eq++
			case ssa.ICmpNE:
				st.NEq++
			}
		}

	case ssa.ClassBinary:
		log.Debug("brcount: condition computed by binary op, not classified",
			zap.String("func", f.Name),
			zap.Stringer("block", b),
			zap.String("cond", cond.LongString()))

	default:
		log.Debug("brcount: unclassified condition",
			zap.String("func", f.Name),
			zap.Stringer("block", b),
			zap.Stringer("op", cond.Op))
	}
}

// countPredicate adds one to the bucket of p. The always-true/false and
// ordered/unordered float predicates belong to no bucket.
func countPredicate(p ssa.Predicate, st *BranchStats) {
	switch p {
	case ssa.ICmpEQ, ssa.FCmpOEQ, ssa.FCmpUEQ:
		st.Eq++
	case ssa.ICmpSGT, ssa.ICmpUGT, ssa.FCmpOGT, ssa.FCmpUGT:
		st.Gt++
	case ssa.ICmpSLT, ssa.ICmpULT, ssa.FCmpOLT, ssa.FCmpULT:
		st.Lt++
	case ssa.ICmpNE, ssa.FCmpONE, ssa.FCmpUNE:
		st.NEq++
	case ssa.ICmpUGE, ssa.ICmpSGE, ssa.FCmpOGE, ssa.FCmpUGE:
		st.Ge++
	case ssa.ICmpULE, ssa.ICmpSLE, ssa.FCmpOLE, ssa.FCmpULE:
		st.Le++
	}
}
