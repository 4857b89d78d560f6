package ssa

import "strconv"

// BlockKind says how control leaves a block.
type BlockKind int

const (
	BlockInvalid BlockKind = iota
	BlockPlain             // jump to Succs[0]
	BlockIf                // Controls[0] ? Succs[0] : Succs[1]
	BlockReturn            // return Controls[0], if any
	BlockExit              // stop the program
)

func (k BlockKind) String() string {
	switch k {
	case BlockInvalid:
		return "invalid"
	case BlockPlain:
		return "plain"
	case BlockIf:
		return "if"
	case BlockReturn:
		return "ret"
	case BlockExit:
		return "exit"
	}
	return "unknown"
}

// Block is a basic block: straight-line Values and a terminator described
// by Kind, Controls and Succs.
type Block struct {
	ID   ID
	Kind BlockKind
	Func *Func

	Controls []*Value
	Succs    []*Block
	// Preds is ordered; argument i of every phi in the block flows in
	// from Preds[i].
	Preds  []*Block
	Values []*Value

	// Set by ComputeDom.
	Idom     *Block
	Dominees []*Block
}

func (b *Block) String() string { return "b" + strconv.Itoa(int(b.ID)) }

// AddSucc links b -> succ on both ends.
func (b *Block) AddSucc(succ *Block) {
	b.Succs = append(b.Succs, succ)
	succ.Preds = append(succ.Preds, b)
}

// SetControl makes v the only control of b.
func (b *Block) SetControl(v *Value) {
	b.resetControls()
	b.AddControl(v)
}

func (b *Block) AddControl(v *Value) {
	b.Controls = append(b.Controls, v)
	if v != nil {
		v.Uses++
	}
}

func (b *Block) ReplaceControl(i int, v *Value) {
	if old := b.Controls[i]; old != nil {
		old.Uses--
	}
	b.Controls[i] = v
	if v != nil {
		v.Uses++
	}
}

func (b *Block) resetControls() {
	for _, c := range b.Controls {
		if c != nil {
			c.Uses--
		}
	}
	b.Controls = nil
}

// IsBranch reports whether control stays in the function after b.
func (b *Block) IsBranch() bool { return b.Kind == BlockPlain || b.Kind == BlockIf }

// IsConditional reports whether b is a well-formed two-way branch.
func (b *Block) IsConditional() bool {
	return b.Kind == BlockIf && len(b.Succs) == 2 && len(b.Controls) == 1 && b.Controls[0] != nil
}

// IsUnconditional reports whether b is a well-formed jump.
func (b *Block) IsUnconditional() bool {
	return b.Kind == BlockPlain && len(b.Succs) == 1 && len(b.Controls) == 0
}

// Cond returns the condition of a conditional branch and nil otherwise.
func (b *Block) Cond() *Value {
	if b.IsConditional() {
		return b.Controls[0]
	}
	return nil
}

// PredIndex returns the position of p in b.Preds, or -1.
func (b *Block) PredIndex(p *Block) int {
	for i, q := range b.Preds {
		if q == p {
			return i
		}
	}
	return -1
}

func (b *Block) NumValues() int { return len(b.Values) }
