package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/you-not-fish/ssaopt/internal/ssa"
	"github.com/you-not-fish/ssaopt/internal/ssa/interp"
	"github.com/you-not-fish/ssaopt/internal/ssa/passes"
)

// TestE2E runs end-to-end tests for all .ssa files in testdata/.
// Each test:
//  1. Parses the program and runs main in the interpreter
//  2. Runs the standard pipeline with verification on every function
//  3. Runs main again on the optimized program
//  4. Compares both outputs against the .golden file
//  5. Runs the pipeline once more and expects no change
func TestE2E(t *testing.T) {
	testFiles, err := filepath.Glob("testdata/*.ssa")
	if err != nil {
		t.Fatal(err)
	}
	if len(testFiles) == 0 {
		t.Fatal("no .ssa test files found in testdata/")
	}

	for _, testFile := range testFiles {
		name := strings.TrimSuffix(filepath.Base(testFile), ".ssa")
		t.Run(name, func(t *testing.T) {
			runE2ETest(t, testFile)
		})
	}
}

// runE2ETest runs a single end-to-end test.
func runE2ETest(t *testing.T, ssaFile string) {
	t.Helper()

	goldenFile := strings.TrimSuffix(ssaFile, ".ssa") + ".golden"
	expected, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}
	want := string(expected)

	m := load(t, ssaFile)

	if got := execute(t, m); got != want {
		t.Fatalf("unoptimized output mismatch:\ngot:  %q\nwant: %q", got, want)
	}

	var st passes.Stats
	if optimize(t, m, &st) == 0 {
		t.Logf("%s: pipeline changed nothing", ssaFile)
	}

	if got := execute(t, m); got != want {
		t.Errorf("optimized output mismatch:\ngot:  %q\nwant: %q\nSSA:\n%s", got, want, ssa.SprintModule(m))
	}

	// A second run must be a no-op.
	before := ssa.SprintModule(m)
	if n := optimize(t, m, &st); n != 0 {
		t.Errorf("second pipeline run changed %d functions", n)
	}
	if after := ssa.SprintModule(m); after != before {
		t.Errorf("second pipeline run modified the program:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func load(t *testing.T, ssaFile string) *ssa.Module {
	t.Helper()

	f, err := os.Open(ssaFile)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	m, err := ssa.Parse(ssaFile, f)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, fn := range m.Funcs {
		ssa.ComputeDom(fn)
		if err := ssa.VerifyDom(fn); err != nil {
			t.Fatalf("input does not verify:\n%v", err)
		}
	}
	return m
}

// optimize runs brcount and sroa over every function of m and returns
// how many functions changed.
func optimize(t *testing.T, m *ssa.Module, st *passes.Stats) int {
	t.Helper()

	pipeline, err := passes.StandardBuilder(st).Build("brcount,sroa")
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}

	n := 0
	for _, fn := range m.Funcs {
		changed, err := passes.Run(fn, pipeline, passes.Config{Verify: true})
		if err != nil {
			t.Fatalf("pass pipeline failed for %s: %v", fn.Name, err)
		}
		if changed {
			n++
		}
		if err := ssa.VerifyDom(fn); err != nil {
			t.Fatalf("dominance broken in %s:\n%v\n%s", fn.Name, err, ssa.Sprint(fn))
		}
	}
	return n
}

// execute runs main with a println extern and returns what it printed.
func execute(t *testing.T, m *ssa.Module) string {
	t.Helper()

	var out strings.Builder
	in := interp.New(m)
	in.Register("println", func(args []interface{}) (interface{}, error) {
		for i, a := range args {
			if i > 0 {
				out.WriteByte(' ')
			}
			out.WriteString(interp.Format(a))
		}
		out.WriteByte('\n')
		return nil, nil
	})

	if _, err := in.Call("main"); err != nil {
		t.Fatalf("run main: %v", err)
	}
	return out.String()
}
