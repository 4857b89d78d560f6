// Package passes implements the optimization and analysis passes that run
// over SSA functions, and the pipeline that sequences them.
package passes

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"tlog.app/go/errors"

	"github.com/you-not-fish/ssaopt/internal/ssa"
)

// Pass describes a single SSA pass.
type Pass struct {
	Name string

	// Fn runs the pass on f and reports whether f changed.
	Fn func(f *ssa.Func) bool

	// PreservesAll is set by analyses that never modify the function.
	PreservesAll bool
}

// Config controls pass execution behavior.
type Config struct {
	DumpBefore string    // dump SSA before this pass ("*" for all)
	DumpAfter  string    // dump SSA after this pass ("*" for all)
	Verify     bool      // verify SSA before/after each pass
	DumpFunc   string    // restrict dumps to this function name
	Out        io.Writer // destination of dumps; os.Stderr if nil
}

// Run executes the given passes on f in order and reports whether any
// of them changed f.
//
// With cfg.Verify set, the function is verified around every pass, and a
// pass that claims PreservesAll must leave the printed function unchanged.
func Run(f *ssa.Func, passes []Pass, cfg Config) (bool, error) {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	changed := false
	for _, p := range passes {
		if shouldDump(cfg.DumpBefore, p.Name) && matchFunc(cfg.DumpFunc, f.Name) {
			fmt.Fprintf(out, "--- before %s (%s) ---\n", p.Name, f.Name)
			ssa.Fprint(out, f)
			fmt.Fprintln(out)
		}

		var before string
		if cfg.Verify {
			if err := ssa.Verify(f); err != nil {
				return changed, errors.Wrap(err, "verify before %s", p.Name)
			}
			if p.PreservesAll {
				before = ssa.Sprint(f)
			}
		}

		if p.Fn(f) {
			changed = true
		}

		if cfg.Verify {
			if err := ssa.Verify(f); err != nil {
				return changed, errors.Wrap(err, "verify after %s", p.Name)
			}
			if p.PreservesAll && ssa.Sprint(f) != before {
				return changed, errors.New("pass %s preserves all but modified %s", p.Name, f.Name)
			}
		}

		if shouldDump(cfg.DumpAfter, p.Name) && matchFunc(cfg.DumpFunc, f.Name) {
			fmt.Fprintf(out, "--- after %s (%s) ---\n", p.Name, f.Name)
			ssa.Fprint(out, f)
			fmt.Fprintln(out)
		}
	}
	return changed, nil
}

func shouldDump(pattern, name string) bool {
	return pattern == "*" || pattern == name
}

func matchFunc(filter, name string) bool {
	return filter == "" || filter == name
}

// Constructor creates a fresh instance of a pass.
type Constructor func() Pass

// Builder maps pass names to constructors and assembles pipelines from
// comma-separated pass lists.
type Builder struct {
	ctors map[string]Constructor
}

// NewBuilder returns a builder with no passes registered.
func NewBuilder() *Builder {
	return &Builder{ctors: make(map[string]Constructor)}
}

// Register adds a pass under name. Registering a name twice panics.
func (b *Builder) Register(name string, ctor Constructor) {
	if _, dup := b.ctors[name]; dup {
		panic(fmt.Sprintf("passes: %s registered twice", name))
	}
	b.ctors[name] = ctor
}

// Names returns the registered pass names in sorted order.
func (b *Builder) Names() []string {
	names := make([]string, 0, len(b.ctors))
	for name := range b.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build returns the pipeline described by list, e.g. "brcount,sroa".
// Empty entries are ignored.
func (b *Builder) Build(list string) ([]Pass, error) {
	var pipeline []Pass
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ctor, ok := b.ctors[name]
		if !ok {
			return nil, errors.New("unknown pass %q (known: %s)", name, strings.Join(b.Names(), ", "))
		}
		pipeline = append(pipeline, ctor())
	}
	return pipeline, nil
}

// StandardBuilder returns a builder with the built-in passes, all
// recording into st.
func StandardBuilder(st *Stats) *Builder {
	b := NewBuilder()
	b.Register("brcount", func() Pass { return BranchCount(st) })
	b.Register("sroa", func() Pass { return ScalarRepl(st) })
	b.Register("mem2reg", func() Pass { return PromoteMem(st) })
	return b
}
