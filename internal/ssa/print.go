package ssa

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/you-not-fish/ssaopt/internal/types"
)

// Fprint writes f to w in the text form read by Parse:
//
//	func add1(n int) int:
//	  b0: (entry)
//	    v0 = Arg <int> {n}
//	    v1 = Const64 <int> [1]
//	    v2 = Add <int> v0 v1
//	    Return v2
func Fprint(w io.Writer, f *Func) {
	var sb strings.Builder
	writeFunc(&sb, f)
	io.WriteString(w, sb.String())
}

func writeFunc(sb *strings.Builder, f *Func) {
	sb.WriteString("func " + f.Name + "(")
	var result types.Type
	if f.Sig != nil {
		for i, p := range f.Sig.Params() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Name() + " " + p.Type().String())
		}
		result = f.Sig.Result()
	}
	sb.WriteString(")")
	if result != nil {
		sb.WriteString(" " + result.String())
	}
	sb.WriteString(":\n")

	for _, b := range f.Blocks {
		sb.WriteString("  " + b.String() + ":")
		if b == f.Entry {
			sb.WriteString(" (entry)")
		}
		if len(b.Preds) > 0 {
			sb.WriteString(" <-")
			for _, p := range b.Preds {
				sb.WriteString(" " + p.String())
			}
		}
		sb.WriteByte('\n')
		for _, v := range b.Values {
			sb.WriteString("    " + formatValue(v) + "\n")
		}
		sb.WriteString("    " + terminator(b) + "\n")
	}
}

// formatValue renders one value line without indentation.
func formatValue(v *Value) string {
	var sb strings.Builder
	if !v.Op.IsVoid() {
		sb.WriteString(v.String() + " = ")
	}
	sb.WriteString(v.Op.String())
	if v.Type != nil {
		sb.WriteString(" <" + v.Type.String() + ">")
	}

	switch {
	case v.Op == OpConstFloat:
		sb.WriteString(" [" + strconv.FormatFloat(v.AuxFloat, 'g', -1, 64) + "]")
	case v.Op == OpICmp || v.Op == OpFCmp:
		sb.WriteString(" [" + v.Predicate().String() + "]")
	case v.Op == OpConst64 || v.Op == OpConstBool || v.AuxInt != 0:
		sb.WriteString(" [" + strconv.FormatInt(v.AuxInt, 10) + "]")
	}

	switch a := v.Aux.(type) {
	case nil:
	case string:
		sb.WriteString(" {" + a + "}")
	case types.Type:
		sb.WriteString(" {" + a.String() + "}")
	default:
		fmt.Fprintf(&sb, " {%v}", a)
	}

	for _, a := range v.Args {
		if a == nil {
			sb.WriteString(" <nil>")
		} else {
			sb.WriteString(" " + a.String())
		}
	}
	return sb.String()
}

func terminator(b *Block) string {
	var ctl *Value
	if len(b.Controls) > 0 {
		ctl = b.Controls[0]
	}
	switch b.Kind {
	case BlockPlain:
		if len(b.Succs) == 0 {
			return "Plain"
		}
		return "Plain -> " + b.Succs[0].String()
	case BlockIf:
		if ctl == nil || len(b.Succs) < 2 {
			return "If (malformed)"
		}
		return "If " + ctl.String() + " -> " + b.Succs[0].String() + " " + b.Succs[1].String()
	case BlockReturn:
		if ctl == nil {
			return "Return"
		}
		return "Return " + ctl.String()
	case BlockExit:
		return "Exit"
	}
	return "???"
}

// Sprint returns Fprint output as a string.
func Sprint(f *Func) string {
	var sb strings.Builder
	writeFunc(&sb, f)
	return sb.String()
}

// Print writes f to standard output.
func Print(f *Func) { Fprint(os.Stdout, f) }

// FprintModule writes the type declarations of m followed by its
// functions, separated by blank lines.
func FprintModule(w io.Writer, m *Module) {
	io.WriteString(w, SprintModule(m))
}

// SprintModule returns FprintModule output as a string.
func SprintModule(m *Module) string {
	var sb strings.Builder
	for _, t := range m.Types {
		sb.WriteString("type " + t.Name() + " " + t.Underlying().String() + "\n")
	}
	for i, f := range m.Funcs {
		if i > 0 || len(m.Types) > 0 {
			sb.WriteByte('\n')
		}
		writeFunc(&sb, f)
	}
	return sb.String()
}
