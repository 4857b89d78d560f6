package ssa

import "github.com/oleiade/lane"

// ReversePostOrder returns the blocks reachable from f.Entry, each one
// before all of its successors except along back edges.
func ReversePostOrder(f *Func) []*Block {
	type cursor struct {
		b *Block
		i int
	}

	seen := map[*Block]bool{f.Entry: true}
	post := make([]*Block, 0, len(f.Blocks))

	work := lane.NewStack()
	work.Push(&cursor{b: f.Entry})
	for !work.Empty() {
		c := work.Head().(*cursor)
		if c.i == len(c.b.Succs) {
			work.Pop()
			post = append(post, c.b)
			continue
		}
		s := c.b.Succs[c.i]
		c.i++
		if !seen[s] {
			seen[s] = true
			work.Push(&cursor{b: s})
		}
	}

	rpo := make([]*Block, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	return rpo
}

// Reachable returns the blocks reachable from f.Entry.
func Reachable(f *Func) map[*Block]bool {
	seen := map[*Block]bool{f.Entry: true}
	q := lane.NewQueue()
	for q.Enqueue(f.Entry); !q.Empty(); {
		b := q.Dequeue().(*Block)
		for _, s := range b.Succs {
			if !seen[s] {
				seen[s] = true
				q.Enqueue(s)
			}
		}
	}
	return seen
}

// ComputeDom fills in Idom and Dominees for every block of f using the
// iterative algorithm of Cooper, Harvey and Kennedy. Unreachable blocks
// end up with a nil Idom and no Dominees.
func ComputeDom(f *Func) {
	for _, b := range f.Blocks {
		b.Idom, b.Dominees = nil, nil
	}
	rpo := ReversePostOrder(f)

	// Work on RPO numbers; idom[i] == -1 means not yet known.
	num := make(map[*Block]int, len(rpo))
	for i, b := range rpo {
		num[b] = i
	}
	idom := make([]int, len(rpo))
	for i := range idom {
		idom[i] = -1
	}
	idom[0] = 0

	meet := func(a, b int) int {
		for a != b {
			for a > b {
				a = idom[a]
			}
			for b > a {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for i := 1; i < len(rpo); i++ {
			d := -1
			for _, p := range rpo[i].Preds {
				j, ok := num[p]
				if !ok || idom[j] < 0 {
					continue
				}
				if d < 0 {
					d = j
				} else {
					d = meet(d, j)
				}
			}
			if d >= 0 && idom[i] != d {
				idom[i] = d
				changed = true
			}
		}
	}

	for i := 1; i < len(rpo); i++ {
		if idom[i] < 0 {
			continue
		}
		parent := rpo[idom[i]]
		rpo[i].Idom = parent
		parent.Dominees = append(parent.Dominees, rpo[i])
	}
}

// Dominates reports whether a dominates b. Every block dominates itself.
// ComputeDom must have run.
func Dominates(a, b *Block) bool {
	for ; b != nil; b = b.Idom {
		if b == a {
			return true
		}
	}
	return false
}

// ComputeDomFrontier returns the dominance frontier of every block that
// has a non-empty one. ComputeDom must have run.
func ComputeDomFrontier(f *Func) map[*Block][]*Block {
	df := make(map[*Block][]*Block)
	for _, join := range f.Blocks {
		if len(join.Preds) < 2 {
			continue
		}
		for _, p := range join.Preds {
			for r := p; r != nil && r != join.Idom; r = r.Idom {
				if n := len(df[r]); n == 0 || df[r][n-1] != join {
					df[r] = append(df[r], join)
				}
			}
		}
	}
	return df
}
