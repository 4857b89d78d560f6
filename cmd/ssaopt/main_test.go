package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const pairSrc = `type P struct{x int; y int}

func eq(a int, b int) bool:
  b0: (entry)
    v0 = Arg <int> {a}
    v1 = Arg <int> {b}
    v2 = Alloca <*P> {p}
    v3 = Const64 <int> [0]
    v4 = Const64 <int> [1]
    v5 = GEP <*int> v2 v3 v3
    v6 = GEP <*int> v2 v3 v4
    Store v5 v0
    Store v6 v1
    v7 = Load <int> v5
    v8 = Load <int> v6
    v9 = ICmp <bool> [eq] v7 v8
    If v9 -> b1 b2
  b1: <- b0
    Return v9
  b2: <- b0
    Return v9
`

func TestRunFileEmitSSA(t *testing.T) {
	filename := writeTempSSAFile(t, pairSrc)
	withFlags(t, func() {
		*emitSSA = true
		*ssaVerify = true
	})

	code, out, errOut := captureOutput(t, func() int {
		return runFile(filename)
	})

	if code != 0 {
		t.Fatalf("runFile exit=%d\nstderr:\n%s\nstdout:\n%s", code, errOut, out)
	}
	if errOut != "" {
		t.Fatalf("unexpected stderr:\n%s", errOut)
	}
	if !strings.Contains(out, "func eq(a int, b int) bool:") {
		t.Fatalf("output missing function header:\n%s", out)
	}
	for _, op := range []string{"Alloca", "GEP", "Load", "Store"} {
		if strings.Contains(out, op) {
			t.Fatalf("output still contains %s:\n%s", op, out)
		}
	}
	if !strings.Contains(out, "ICmp <bool> [eq] v0 v1") {
		t.Fatalf("comparison does not read the arguments:\n%s", out)
	}
}

func TestRunFileStats(t *testing.T) {
	filename := writeTempSSAFile(t, pairSrc)
	withFlags(t, func() {
		*passList = "brcount,sroa"
		*printStats = true
	})

	code, out, errOut := captureOutput(t, func() int {
		return runFile(filename)
	})

	if code != 0 {
		t.Fatalf("runFile exit=%d\nstderr:\n%s", code, errOut)
	}
	if out != "" {
		t.Fatalf("unexpected stdout:\n%s", out)
	}
	for _, want := range []string{
		"1 brcount - Number of conditional branches\n",
		"1 brcount - Number of conditional branches on an equality test\n",
		"1 sroa    - Number of aggregate allocas broken up\n",
		"2 sroa    - Number of scalar allocas promoted to register\n",
	} {
		if !strings.Contains(errOut, want) {
			t.Fatalf("stats missing %q:\n%s", want, errOut)
		}
	}
}

func TestRunFileInterp(t *testing.T) {
	filename := writeTempSSAFile(t, pairSrc)
	withFlags(t, func() {
		*runFunc = "eq"
		*runArgs = "7, 7"
	})

	code, out, errOut := captureOutput(t, func() int {
		return runFile(filename)
	})
	if code != 0 {
		t.Fatalf("runFile exit=%d\nstderr:\n%s", code, errOut)
	}
	if out != "true\n" {
		t.Fatalf("run output = %q, want %q", out, "true\n")
	}

	*runArgs = "7"
	code, _, errOut = captureOutput(t, func() int {
		return runFile(filename)
	})
	if code != 1 || !strings.Contains(errOut, "takes 2 arguments") {
		t.Fatalf("bad argument count: exit=%d\nstderr:\n%s", code, errOut)
	}
}

func TestRunFileDumps(t *testing.T) {
	filename := writeTempSSAFile(t, pairSrc)
	withFlags(t, func() {
		*dumpAfter = "sroa"
		*dumpFunc = "eq"
	})

	code, _, errOut := captureOutput(t, func() int {
		return runFile(filename)
	})
	if code != 0 {
		t.Fatalf("runFile exit=%d\nstderr:\n%s", code, errOut)
	}
	if !strings.Contains(errOut, "--- after sroa (eq) ---") {
		t.Fatalf("missing dump:\n%s", errOut)
	}
}

func TestRunFileErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		flags func()
		want  string
	}{
		{
			name: "parse error",
			src:  "func f():\n  b0: (entry)\n    v0 = Bogus <int>\n    Return\n",
			want: "unknown op",
		},
		{
			name:  "unknown pass",
			src:   pairSrc,
			flags: func() { *passList = "sroa,gvn" },
			want:  `unknown pass "gvn"`,
		},
		{
			name:  "verification",
			src:   "func f() int:\n  b0: (entry)\n    v0 = Const64 <int> [1]\n    v1 = Load <int> v0\n    Return v1\n",
			flags: func() { *ssaVerify = true },
			want:  "invalid input",
		},
		{
			name: "malformed store",
			src:  "func f():\n  b0: (entry)\n    v0 = Alloca <*int> {x}\n    Store v0\n    Return\n",
			want: "has 1 args, want 2",
		},
		{
			name:  "missing function",
			src:   pairSrc,
			flags: func() { *runFunc = "nope" },
			want:  "no function nope",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := writeTempSSAFile(t, tt.src)
			withFlags(t, func() {
				if tt.flags != nil {
					tt.flags()
				}
			})

			code, _, errOut := captureOutput(t, func() int {
				return runFile(filename)
			})
			if code != 1 {
				t.Fatalf("exit=%d, want 1\nstderr:\n%s", code, errOut)
			}
			if !strings.Contains(errOut, "error: ") || !strings.Contains(errOut, tt.want) {
				t.Fatalf("stderr missing %q:\n%s", tt.want, errOut)
			}
		})
	}

	code, _, errOut := captureOutput(t, func() int {
		return runFile(filepath.Join(t.TempDir(), "missing.ssa"))
	})
	if code != 1 || !strings.Contains(errOut, "open input") {
		t.Fatalf("missing file: exit=%d\nstderr:\n%s", code, errOut)
	}
}

// withFlags resets every driver flag to its default, applies set, and
// restores the defaults when the test ends.
func withFlags(t *testing.T, set func()) {
	t.Helper()
	reset := func() {
		*passList = "sroa"
		*printStats = false
		*emitSSA = false
		*ssaVerify = false
		*dumpBefore = ""
		*dumpAfter = ""
		*dumpFunc = ""
		*runFunc = ""
		*runArgs = ""
	}
	reset()
	set()
	t.Cleanup(reset)
}

func writeTempSSAFile(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	filename := filepath.Join(dir, "input.ssa")
	if err := os.WriteFile(filename, []byte(src), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return filename
}

func captureOutput(t *testing.T, fn func() int) (code int, stdout string, stderr string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stderr: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	code = fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	outBytes, _ := io.ReadAll(rOut)
	errBytes, _ := io.ReadAll(rErr)
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}
