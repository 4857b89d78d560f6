package passes

import (
	"fmt"
	"io"
)

// BranchStats counts branch terminators by shape and by the comparison
// that decides them.
type BranchStats struct {
	Cond   int64
	Uncond int64
	Eq     int64
	NEq    int64
	Gt     int64
	Ge     int64
	Lt     int64
	Le     int64
}

// SROAStats counts the work of the aggregate promotion passes.
type SROAStats struct {
	Expanded int64 // aggregate allocas broken up
	Promoted int64 // scalar allocas promoted to registers
}

// Stats holds every counter of a run. Counters only grow; nothing in
// this package resets them. A Stats must not be shared between
// goroutines; run concurrent workers on their own copies and Add them.
type Stats struct {
	Branch BranchStats
	SROA   SROAStats
}

// Add accumulates o into s.
func (s *Stats) Add(o *Stats) {
	s.Branch.Cond += o.Branch.Cond
	s.Branch.Uncond += o.Branch.Uncond
	s.Branch.Eq += o.Branch.Eq
	s.Branch.NEq += o.Branch.NEq
	s.Branch.Gt += o.Branch.Gt
	s.Branch.Ge += o.Branch.Ge
	s.Branch.Lt += o.Branch.Lt
	s.Branch.Le += o.Branch.Le
	s.SROA.Expanded += o.SROA.Expanded
	s.SROA.Promoted += o.SROA.Promoted
}

type statLine struct {
	val  int64
	pass string
	desc string
}

func (s *Stats) lines() []statLine {
	return []statLine{
		{s.Branch.Cond, "brcount", "Number of conditional branches"},
		{s.Branch.Uncond, "brcount", "Number of unconditional branches"},
		{s.Branch.Eq, "brcount", "Number of conditional branches on an equality test"},
		{s.Branch.NEq, "brcount", "Number of conditional branches on an inequality test"},
		{s.Branch.Gt, "brcount", "Number of conditional branches on a greater than test"},
		{s.Branch.Ge, "brcount", "Number of conditional branches on a greater or equal test"},
		{s.Branch.Lt, "brcount", "Number of conditional branches on a less than test"},
		{s.Branch.Le, "brcount", "Number of conditional branches on a less or equal test"},
		{s.SROA.Expanded, "sroa", "Number of aggregate allocas broken up"},
		{s.SROA.Promoted, "sroa", "Number of scalar allocas promoted to register"},
	}
}

// Fprint writes a statistics report with one line per non-zero counter.
// Nothing is written if every counter is zero.
func (s *Stats) Fprint(w io.Writer) {
	lines := s.lines()
	width := 1
	nonZero := false
	for _, l := range lines {
		if l.val == 0 {
			continue
		}
		nonZero = true
		if n := len(fmt.Sprint(l.val)); n > width {
			width = n
		}
	}
	if !nonZero {
		return
	}

	fmt.Fprintln(w, "===-------------------------------------------------------------------------===")
	fmt.Fprintln(w, "                          ... Statistics Collected ...")
	fmt.Fprintln(w, "===-------------------------------------------------------------------------===")
	fmt.Fprintln(w)
	for _, l := range lines {
		if l.val == 0 {
			continue
		}
		fmt.Fprintf(w, "%*d %-7s - %s\n", width, l.val, l.pass, l.desc)
	}
	fmt.Fprintln(w)
}
