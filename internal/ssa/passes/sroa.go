package passes

import (
	"fmt"

	"github.com/oleiade/lane"
	"go.uber.org/zap"

	"github.com/you-not-fish/ssaopt/internal/ssa"
	"github.com/you-not-fish/ssaopt/internal/types"
)

//go:generate mockgen -source=sroa.go -destination=mock_promoter_test.go -package=passes

// Promoter lifts scalar allocas into SSA values.
type Promoter interface {
	// IsPromotable reports whether alloca can be handed to Promote.
	IsPromotable(alloca *ssa.Value) bool

	// Promote rewrites the given allocas, all accepted by IsPromotable,
	// and removes them from f.
	Promote(f *ssa.Func, allocas []*ssa.Value)
}

// SROA performs scalar replacement of aggregates: struct allocas whose
// address is only used to compute field addresses are split into one
// alloca per field, and scalar allocas are promoted to SSA values, until
// neither makes progress.
type SROA struct {
	Promoter Promoter
	Stats    *SROAStats
}

// NewSROA returns an SROA using Mem2Reg for promotion.
func NewSROA(st *SROAStats) *SROA {
	return &SROA{Promoter: Mem2Reg{}, Stats: st}
}

// ScalarRepl returns the SROA pass.
func ScalarRepl(st *Stats) Pass {
	s := NewSROA(&st.SROA)
	return Pass{Name: "sroa", Fn: s.Run}
}

// PromoteMem returns a pass that only promotes scalar allocas.
func PromoteMem(st *Stats) Pass {
	s := NewSROA(&st.SROA)
	return Pass{Name: "mem2reg", Fn: s.promote}
}

// RunAggregatePromotion runs SROA on f with the default promoter and
// reports whether f changed.
func RunAggregatePromotion(f *ssa.Func, st *Stats) bool {
	return NewSROA(&st.SROA).Run(f)
}

// Run alternates promotion and splitting until a fixpoint and reports
// whether f changed.
func (s *SROA) Run(f *ssa.Func) bool {
	ssa.Logger().Debug("sroa: start", zap.String("func", f.Name))

	changed := s.promote(f)
	for {
		if !s.scalarRepl(f) {
			break
		}
		changed = true
		if !s.promote(f) {
			break
		}
	}
	return changed
}

// promote repeatedly collects the promotable allocas of the entry block
// and promotes them as one batch, until none are left.
func (s *SROA) promote(f *ssa.Func) bool {
	log := ssa.Logger()

	changed := false
	for {
		var batch []*ssa.Value
		for _, v := range ssa.Allocas(f.Entry) {
			if s.Promoter.IsPromotable(v) {
				batch = append(batch, v)
			} else {
				log.Debug("sroa: not promotable",
					zap.String("func", f.Name), zap.String("alloca", v.LongString()))
			}
		}
		if len(batch) == 0 {
			break
		}

		s.Promoter.Promote(f, batch)
		s.Stats.Promoted += int64(len(batch))
		changed = true
		log.Debug("sroa: promoted",
			zap.String("func", f.Name), zap.Int("allocas", len(batch)))
	}
	return changed
}

// scalarRepl splits every eligible struct alloca of the entry block.
// Field allocas are split in turn when they are structs themselves.
func (s *SROA) scalarRepl(f *ssa.Func) bool {
	log := ssa.Logger()

	work := lane.NewStack()
	for _, a := range ssa.Allocas(f.Entry) {
		work.Push(a)
	}

	changed := false
	for !work.Empty() {
		a := work.Pop().(*ssa.Value)

		var st *types.Struct
		if a.Type != nil {
			if elem := types.Elem(a.Type); elem != nil {
				st = types.AsStruct(elem)
			}
		}
		if st == nil {
			log.Debug("sroa: not a struct alloca",
				zap.String("func", f.Name), zap.String("alloca", a.LongString()))
			continue
		}
		if !CanSplit(a) {
			continue
		}

		fields := make([]*ssa.Value, st.NumFields())
		for i := range fields {
			fa := f.NewValueBefore(a, ssa.OpAlloca, types.NewPointer(st.Field(i).Type()))
			fa.AuxInt = a.AuxInt
			fa.Aux = fmt.Sprintf("%s.sroa.%d", allocaName(a), i)
			fields[i] = fa
			work.Push(fa)
			log.Debug("sroa: new alloca",
				zap.String("func", f.Name), zap.String("alloca", fa.LongString()))
		}

		geps := append([]*ssa.Value(nil), a.Users()...)
		for _, g := range geps {
			idx, _ := g.Args[2].IsConstInt()
			if idx < 0 || idx >= int64(len(fields)) {
				panic(fmt.Sprintf("sroa: field index %d out of range in %s (%s has %d fields)",
					idx, g.LongString(), a, len(fields)))
			}
			log.Debug("sroa: replace field address",
				zap.String("func", f.Name), zap.Stringer("gep", g), zap.Stringer("field", fields[idx]))
			f.ReplaceUses(g, fields[idx])
			f.RemoveValue(g)
		}
		f.RemoveValue(a)

		s.Stats.Expanded++
		changed = true
	}
	return changed
}

// CanSplit reports whether every use of alloca is a field address
// computation of the form GEP alloca, 0, <const>.
func CanSplit(alloca *ssa.Value) bool {
	skip := func(reason string, u *ssa.Value) bool {
		fields := []zap.Field{zap.String("alloca", alloca.LongString()), zap.String("reason", reason)}
		if u != nil {
			fields = append(fields, zap.String("user", u.LongString()))
		}
		ssa.Logger().Debug("sroa: cannot split", fields...)
		return false
	}

	if int(alloca.Uses) != len(alloca.Users()) {
		return skip("address used by a terminator", nil)
	}
	for _, u := range alloca.Users() {
		if u.Op.Class() != ssa.ClassFieldAddr {
			return skip("user is not a field address", u)
		}
		for _, idx := range u.Args[1:] {
			if idx == alloca {
				return skip("address used as an index", u)
			}
		}
		if len(u.Args) != 3 {
			return skip("only 2 indices allowed", u)
		}
		if u.Args[0].Type == nil || !types.IsPointer(u.Args[0].Type) {
			return skip("base must be a pointer", u)
		}
		if n, ok := u.Args[1].IsConstInt(); !ok || n != 0 {
			return skip("first index must be zero", u)
		}
		if _, ok := u.Args[2].IsConstInt(); !ok {
			return skip("second index must be a constant", u)
		}
	}
	return true
}

func allocaName(a *ssa.Value) string {
	if name := a.Name(); name != "" {
		return name
	}
	return a.String()
}
