// Package main implements the ssaopt driver: it reads functions in the SSA
// text format, runs a pass pipeline over them and prints the result.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"tlog.app/go/errors"

	"github.com/you-not-fish/ssaopt/internal/ssa"
	"github.com/you-not-fish/ssaopt/internal/ssa/interp"
	"github.com/you-not-fish/ssaopt/internal/ssa/passes"
)

// Driver flags
var (
	passList   = flag.String("passes", "sroa", "Comma-separated pass pipeline")
	listPasses = flag.Bool("list-passes", false, "List available passes")
	printStats = flag.Bool("stats", false, "Print pass statistics")
	emitSSA    = flag.Bool("emit-ssa", false, "Output SSA after the pipeline")
	ssaVerify  = flag.Bool("ssa-verify", false, "Verify SSA before and after each pass")
	dumpBefore = flag.String("dump-before", "", "Dump SSA before pass (name or \"*\")")
	dumpAfter  = flag.String("dump-after", "", "Dump SSA after pass (name or \"*\")")
	dumpFunc   = flag.String("dump-func", "", "Only dump specific function")
	runFunc    = flag.String("run", "", "Interpret function after the pipeline and print its result")
	runArgs    = flag.String("args", "", "Comma-separated arguments for -run")
	verbose    = flag.Bool("v", false, "Debug logging")
	version    = flag.Bool("version", false, "Print version")
)

// Version information
const Version = "0.1.0-dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "SSA Optimizer %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: ssaopt [options] <file.ssa>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("ssaopt version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		os.Exit(0)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		ssa.SetLogger(l)
	}

	if *listPasses {
		for _, name := range passes.StandardBuilder(&passes.Stats{}).Names() {
			fmt.Println(name)
		}
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "error: no input file")
		fmt.Fprintln(os.Stderr, "usage: ssaopt [options] <file.ssa>")
		os.Exit(1)
	}

	code := runFile(args[0])
	if *verbose {
		_ = ssa.Logger().Sync()
	}
	os.Exit(code)
}

// runFile optimizes every function of filename and returns an exit code.
func runFile(filename string) int {
	m, err := readModule(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	var st passes.Stats
	pipeline, err := passes.StandardBuilder(&st).Build(*passList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	passCfg := passes.Config{
		DumpBefore: *dumpBefore,
		DumpAfter:  *dumpAfter,
		Verify:     *ssaVerify,
		DumpFunc:   *dumpFunc,
		Out:        os.Stderr,
	}

	for _, fn := range m.Funcs {
		if _, err := passes.Run(fn, pipeline, passCfg); err != nil {
			fmt.Fprintf(os.Stderr, "pass pipeline failed for %s:\n%v\n", fn.Name, err)
			return 1
		}
	}

	if *emitSSA {
		emit(os.Stdout, m)
	}

	if *printStats {
		st.Fprint(os.Stderr)
	}

	if *runFunc != "" {
		return runInterp(m, *runFunc, *runArgs)
	}
	return 0
}

func readModule(filename string) (*ssa.Module, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()

	m, err := ssa.Parse(filename, f)
	if err != nil {
		return nil, err
	}
	// Passes assume well-formed input, so reject anything else here.
	for _, fn := range m.Funcs {
		if err := ssa.Verify(fn); err != nil {
			return nil, errors.Wrap(err, "invalid input %v", filename)
		}
	}
	return m, nil
}

// emit prints the module, or only the -dump-func function if set.
func emit(w io.Writer, m *ssa.Module) {
	if *dumpFunc == "" {
		ssa.FprintModule(w, m)
		return
	}
	if fn := m.Func(*dumpFunc); fn != nil {
		ssa.Fprint(w, fn)
	}
}

// runInterp interprets name with the comma-separated args and prints the
// result.
func runInterp(m *ssa.Module, name, list string) int {
	fn := m.Func(name)
	if fn == nil {
		fmt.Fprintf(os.Stderr, "error: no function %s\n", name)
		return 1
	}

	var ss []string
	if list != "" {
		ss = strings.Split(list, ",")
		for i := range ss {
			ss[i] = strings.TrimSpace(ss[i])
		}
	}
	args, err := interp.ParseArgs(fn, ss)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	res, err := interp.Run(m, name, args...)
	if err == interp.ErrExit {
		fmt.Println("exit")
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", errors.Wrap(err, "run %s", name))
		return 1
	}
	fmt.Println(interp.Format(res))
	return 0
}
