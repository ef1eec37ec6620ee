package stacksh

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireCommands(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available: %v", name, err)
		}
	}
}

func TestExternalCommands(t *testing.T) {
	requireCommands(t, "echo", "sh")

	runStackCases(t, []stackCase{
		{"bare word runs a command", `"hello" "world" echo`, []Value{Str("hello world")}},
		{"marker bounds the arguments", `"keep" marker "x" echo`, []Value{Str("keep"), Str("x")}},
		{"explicit argv", `marker "echo" "-n" "one" collect exec`, []Value{Str("one")}},
		{"status is readable", `marker "true" collect exec ok?`, []Value{Str(""), Bool(true)}},
	})

	t.Run("unknown command", func(t *testing.T) {
		err := evalError(t, `no-such-command-stacksh`)
		if err.Type != NameError {
			t.Errorf("Expected NameError, got %s", err.Type)
		}
	})
}

func TestExitStatus(t *testing.T) {
	requireCommands(t, "sh")

	t.Run("non-zero exit is an error", func(t *testing.T) {
		err := evalError(t, `marker "sh" "-c" "echo partial; exit 3" collect exec`)
		if err.Type != ExecError {
			t.Fatalf("Expected ExecError, got %s", err.Type)
		}
		if !err.HasCode || err.Code != 3 {
			t.Errorf("Expected exit code 3, got %d (has code %v)", err.Code, err.HasCode)
		}
		if err.Source != "partial" {
			t.Errorf("Expected captured output %q, got %q", "partial", err.Source)
		}
	})

	t.Run("condition tests the exit status", func(t *testing.T) {
		stack := evalStack(t, `[ marker "sh" "-c" "exit 1" collect exec ] [ "yes" ] [ "no" ] if`)
		expectStack(t, stack, Str("no"))
	})

	t.Run("try captures the exit", func(t *testing.T) {
		stack := evalStack(t, `[ marker "sh" "-c" "exit 4" collect exec ] try error-info "code" get`)
		expectStack(t, stack, Number(4))
	})
}

func TestPipeInput(t *testing.T) {
	requireCommands(t, "cat", "grep")

	runStackCases(t, []stackCase{
		{"string", `"abc" [ cat ] |`, []Value{Str("abc")}},
		{"table as tsv", `"name,n\nx,1\ny,2" into-csv [ cat ] |`, []Value{Str("name\tn\nx\t1\ny\t2")}},
		{"list as lines", `marker "apple" "box" "axe" collect [ "a" grep ] |`, []Value{Str("apple\naxe")}},
		{"round trip through a command", `"a,b\n1,2" into-csv [ cat ] | into-tsv "b" get`, []Value{List{Str("2")}}},
	})
}

func TestProcessEnvironment(t *testing.T) {
	requireCommands(t, "sh", "pwd")

	t.Run("exported variables reach the child", func(t *testing.T) {
		stack := evalStack(t, `"v42" "STACKSH_CHILD" export marker "sh" "-c" 'echo $STACKSH_CHILD' collect exec`)
		expectStack(t, stack, Str("v42"))
	})

	t.Run("scalar locals reach the child", func(t *testing.T) {
		stack := evalStack(t, `[ "inner" "STACKSH_LOCAL" local marker "sh" "-c" 'echo $STACKSH_LOCAL' collect exec ] @`)
		expectStack(t, stack, Str("inner"))
	})

	t.Run("cd changes the child directory", func(t *testing.T) {
		dir, err := filepath.EvalSymlinks(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		s, _ := newTestSession(t)
		s.SetGlobal("dir", Str(dir))
		if err := s.Execute(`$dir cd marker "sh" "-c" "pwd -P" collect exec`); err != nil {
			t.Fatal(err)
		}
		expectStack(t, s.Stack(), Str(dir))
	})

	t.Run("cd rejects files", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "plain")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		s, _ := newTestSession(t)
		s.SetGlobal("file", Str(file))
		err := s.Execute(`$file cd`)
		if err == nil || !strings.Contains(err.Error(), "not a directory") {
			t.Errorf("Expected not a directory error, got %v", err)
		}
	})
}

func TestRaw(t *testing.T) {
	stack := evalStack(t, `marker 1 2 collect [ marker "a" 1 record ] raw`)
	expectStack(t, stack, nums(1, 2), Str("a=1"))
}
