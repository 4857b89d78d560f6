package passes

import (
	"github.com/oleiade/lane"
	"go.uber.org/zap"

	"github.com/you-not-fish/ssaopt/internal/ssa"
	"github.com/you-not-fish/ssaopt/internal/types"
)

// Mem2Reg promotes stack allocas to SSA registers by inserting phi nodes
// and renaming variables. It is the default Promoter.
type Mem2Reg struct{}

// IsPromotable reports whether a can be promoted: a scalar alloca used
// only as the address of loads, the destination of stores and the
// operand of zero-fills, all at its own element type.
func (Mem2Reg) IsPromotable(a *ssa.Value) bool {
	if a.Op != ssa.OpAlloca || a.Block == nil || a.Type == nil {
		return false
	}
	elem := types.Elem(a.Type)
	if elem == nil || types.IsAggregate(elem) {
		return false
	}
	// Block controls count as uses but are not in the user list.
	if int(a.Uses) != len(a.Users()) {
		return false
	}
	for _, u := range a.Users() {
		switch u.Op {
		case ssa.OpLoad:
			if u.Type == nil || !types.Identical(u.Type, elem) {
				return false
			}
		case ssa.OpStore:
			if u.Args[0] != a || u.Args[1] == a {
				return false
			}
			if t := u.Args[1].Type; t == nil || !types.Identical(t, elem) {
				return false
			}
		case ssa.OpZero:
		default:
			return false
		}
	}
	return true
}

// Promote rewrites every alloca in allocas into SSA values. Each must
// satisfy IsPromotable. The allocas and all their loads, stores and
// zero-fills are removed.
func (Mem2Reg) Promote(f *ssa.Func, allocas []*ssa.Value) {
	if len(allocas) == 0 {
		return
	}

	// Ensure dominance tree is available.
	ssa.ComputeDom(f)
	df := ssa.ComputeDomFrontier(f)

	// For each alloca, find blocks that define (store/zero to) it.
	defBlocks := make(map[*ssa.Value][]*ssa.Block, len(allocas))
	for _, a := range allocas {
		defBlocks[a] = findDefBlocks(a)
	}

	m := &promotion{
		f:        f,
		allocas:  allocas,
		isAlloca: make(map[*ssa.Value]bool, len(allocas)),
		zero:     make(map[*ssa.Value]*ssa.Value, len(allocas)),
		phiMap:   make(map[*ssa.Block]map[*ssa.Value]*ssa.Value),
		phiVar:   make(map[*ssa.Value]*ssa.Value),
	}
	for _, a := range allocas {
		m.isAlloca[a] = true
		// Created up front: the walk below iterates block values and
		// must not see the entry block grow. Unused ones are removed.
		m.zeroOf(a)
	}

	// Insert phi nodes at iterated dominance frontier.
	m.insertPhis(defBlocks, df)

	// Rename variables using domtree preorder walk.
	m.rename()

	// Anything the walk did not reach, and dead phis.
	m.finish()
}

// promotion holds the state of one Promote call.
type promotion struct {
	f        *ssa.Func
	allocas  []*ssa.Value
	isAlloca map[*ssa.Value]bool

	// zero holds the zero constant of each alloca's element type.
	zero map[*ssa.Value]*ssa.Value

	// phiMap[block][alloca] is the phi inserted for alloca in block;
	// phiVar maps it back.
	phiMap map[*ssa.Block]map[*ssa.Value]*ssa.Value
	phiVar map[*ssa.Value]*ssa.Value
	phis   []*ssa.Value
}

// findDefBlocks returns the blocks containing stores/zeros to the given alloca.
func findDefBlocks(alloca *ssa.Value) []*ssa.Block {
	seen := make(map[*ssa.Block]bool)
	var blocks []*ssa.Block
	for _, u := range alloca.Users() {
		if u.Op.Class() != ssa.ClassStore {
			continue
		}
		if !seen[u.Block] {
			seen[u.Block] = true
			blocks = append(blocks, u.Block)
		}
	}
	return blocks
}

// insertPhis places phi nodes at the iterated dominance frontier for each alloca.
func (m *promotion) insertPhis(defBlocks map[*ssa.Value][]*ssa.Block, df map[*ssa.Block][]*ssa.Block) {
	for _, alloca := range m.allocas {
		elemType := types.Elem(alloca.Type)

		for _, b := range iteratedDF(defBlocks[alloca], df) {
			phi := m.f.NewValueAtFront(b, ssa.OpPhi, elemType)
			// One nil slot per predecessor, filled in by rename.
			phi.Args = make([]*ssa.Value, len(b.Preds))

			if m.phiMap[b] == nil {
				m.phiMap[b] = make(map[*ssa.Value]*ssa.Value)
			}
			m.phiMap[b][alloca] = phi
			m.phiVar[phi] = alloca
			m.phis = append(m.phis, phi)
		}
	}
}

// iteratedDF computes the iterated dominance frontier from a set of defining blocks.
func iteratedDF(defs []*ssa.Block, df map[*ssa.Block][]*ssa.Block) []*ssa.Block {
	var result []*ssa.Block
	inResult := make(map[*ssa.Block]bool)
	inWorklist := make(map[*ssa.Block]bool, len(defs))

	worklist := lane.NewStack()
	for _, b := range defs {
		inWorklist[b] = true
		worklist.Push(b)
	}

	for !worklist.Empty() {
		b := worklist.Pop().(*ssa.Block)

		for _, d := range df[b] {
			if !inResult[d] {
				inResult[d] = true
				result = append(result, d)
				if !inWorklist[d] {
					inWorklist[d] = true
					worklist.Push(d)
				}
			}
		}
	}
	return result
}

// zeroOf returns the zero value for alloca's element type, creating it
// at the start of the entry block on first use.
func (m *promotion) zeroOf(alloca *ssa.Value) *ssa.Value {
	if z, ok := m.zero[alloca]; ok {
		return z
	}
	z := makeZero(m.f, types.Elem(alloca.Type))
	m.zero[alloca] = z
	return z
}

// rename walks the dominator tree in preorder, tracking reaching definitions
// for each alloca and wiring up phi arguments.
func (m *promotion) rename() {
	f := m.f

	// Stacks of reaching definitions. An empty stack means the slot has
	// not been written yet and reads as zero.
	stacks := make(map[*ssa.Value][]*ssa.Value, len(m.allocas))
	reaching := func(alloca *ssa.Value) *ssa.Value {
		if st := stacks[alloca]; len(st) > 0 {
			return st[len(st)-1]
		}
		return m.zeroOf(alloca)
	}

	var dead []*ssa.Value

	var visit func(b *ssa.Block)
	visit = func(b *ssa.Block) {
		// Count definitions pushed in this block to pop later.
		pushCounts := make(map[*ssa.Value]int, len(m.allocas))

		// 1. Process values in order. Phis inserted here are new
		// definitions and sit at the front of the block.
		for _, v := range b.Values {
			var alloca *ssa.Value
			switch v.Op {
			case ssa.OpPhi:
				alloca = m.phiVar[v]
				if alloca == nil || m.phiMap[b][alloca] != v {
					continue
				}
				stacks[alloca] = append(stacks[alloca], v)
				pushCounts[alloca]++
				continue
			case ssa.OpLoad, ssa.OpStore, ssa.OpZero:
				alloca = v.Args[0]
			}
			if alloca == nil || !m.isAlloca[alloca] {
				continue
			}

			switch v.Op {
			case ssa.OpLoad:
				f.ReplaceUses(v, reaching(alloca))
			case ssa.OpStore:
				stacks[alloca] = append(stacks[alloca], v.Args[1])
				pushCounts[alloca]++
			case ssa.OpZero:
				stacks[alloca] = append(stacks[alloca], m.zeroOf(alloca))
				pushCounts[alloca]++
			}
			dead = append(dead, v)
		}

		// 2. Fill successor phis.
		for _, s := range b.Succs {
			pm, ok := m.phiMap[s]
			if !ok {
				continue
			}
			for i, p := range s.Preds {
				if p != b {
					continue
				}
				for alloca, phi := range pm {
					phi.ReplaceArg(i, reaching(alloca))
				}
			}
		}

		// 3. Recurse into dominated blocks.
		for _, child := range b.Dominees {
			visit(child)
		}

		// 4. Pop definitions pushed in this block.
		for alloca, count := range pushCounts {
			stacks[alloca] = stacks[alloca][:len(stacks[alloca])-count]
		}
	}

	visit(f.Entry)

	for _, v := range dead {
		f.RemoveValue(v)
	}
}

// finish handles what the dominator walk cannot see: accesses in
// unreachable blocks read zero and are dropped, phi slots for edges from
// unreachable predecessors get zero. Then trivial and unused phis are
// folded away and the allocas removed.
func (m *promotion) finish() {
	f := m.f

	for _, a := range m.allocas {
		users := append([]*ssa.Value(nil), a.Users()...)
		for _, u := range users {
			if u.Block == nil {
				continue
			}
			if u.Op == ssa.OpLoad {
				f.ReplaceUses(u, m.zeroOf(a))
			}
			ssa.Logger().Debug("mem2reg: dropping unreachable access",
				zap.String("func", f.Name), zap.Stringer("value", u))
			f.RemoveValue(u)
		}
	}

	for _, phi := range m.phis {
		for i, arg := range phi.Args {
			if arg == nil {
				phi.ReplaceArg(i, m.zeroOf(m.phiVar[phi]))
			}
		}
	}

	removed := make(map[*ssa.Value]bool)
	for changed := true; changed; {
		changed = false
		for _, phi := range m.phis {
			if removed[phi] {
				continue
			}
			if trivial := trivialPhi(phi); trivial != nil {
				f.ReplaceUses(phi, trivial)
			}
			if phi.Uses == 0 {
				f.RemoveValue(phi)
				removed[phi] = true
				changed = true
			}
		}
	}

	for _, a := range m.allocas {
		f.RemoveValue(a)
	}
	for _, z := range m.zero {
		if z.Uses == 0 {
			f.RemoveValue(z)
		}
	}
}

// makeZero creates a zero constant for the given type at the start of
// the entry block, where it dominates every use.
func makeZero(f *ssa.Func, t types.Type) *ssa.Value {
	switch typ := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case typ.Info()&types.InfoFloat != 0:
			return f.NewValueAtFront(f.Entry, ssa.OpConstFloat, t)
		case typ.Info()&types.InfoBoolean != 0:
			return f.NewValueAtFront(f.Entry, ssa.OpConstBool, t)
		}
	case *types.Pointer, *types.Func:
		return f.NewValueAtFront(f.Entry, ssa.OpConstNil, t)
	}
	return f.NewValueAtFront(f.Entry, ssa.OpConst64, t)
}

// trivialPhi returns the single non-self value if the phi is trivial
// (all args are the same value or self-references), or nil if non-trivial.
func trivialPhi(phi *ssa.Value) *ssa.Value {
	var unique *ssa.Value
	for _, arg := range phi.Args {
		if arg == nil || arg == phi {
			continue
		}
		if unique == nil {
			unique = arg
		} else if arg != unique {
			return nil // multiple distinct args
		}
	}
	return unique // may be nil if all args are self or nil
}
