package stacksh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileSession starts a session working in a fresh temporary directory
func newFileSession(t *testing.T) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	s, _ := newTestSession(t)
	s.SetGlobal("tmp", Str(dir))
	require.NoError(t, s.Execute(`$tmp cd`))
	return s, dir
}

func TestReadWriteFiles(t *testing.T) {
	s, dir := newFileSession(t)

	require.NoError(t, s.Execute(`"one\n" "notes.txt" write-file "two" "notes.txt" append-file "notes.txt" read-file`))
	expectStack(t, s.Stack(), Str("one\ntwo"))

	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", string(data))

	t.Run("structured values are written serialized", func(t *testing.T) {
		require.NoError(t, s.Execute(`clear "a,b\n1,2" into-csv "t.tsv" write-file "t.tsv" read-file`))
		expectStack(t, s.Stack(), Str("a\tb\n1\t2"))
	})

	t.Run("missing file", func(t *testing.T) {
		err := s.Execute(`"absent.txt" read-file`)
		ev, ok := err.(*ErrorValue)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, ExecError, ev.Type)
	})
}

func TestDirectories(t *testing.T) {
	s, dir := newFileSession(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	require.NoError(t, s.Execute(`"sub/deep" mkdir "." list-dir "name" get`))
	expectStack(t, s.Stack(), strs("a.txt", "sub"))

	require.NoError(t, s.Execute(`clear "a.txt" file-info dup "size" get swap "dir" get`))
	expectStack(t, s.Stack(), Number(5), Bool(false))

	require.NoError(t, s.Execute(`clear "a.txt" file-exists? "a.txt" rm "a.txt" file-exists?`))
	expectStack(t, s.Stack(), Bool(true), Bool(false))

	err := s.Execute(`"sub" rm`)
	require.Error(t, err, "rm must not remove a non-empty directory")
}

func TestPathOperators(t *testing.T) {
	runStackCases(t, []stackCase{
		{"join-path", `marker "a" "b" "c.txt" collect join-path`, []Value{Str(filepath.Join("a", "b", "c.txt"))}},
		{"dir-name", `"/x/y/z.tar.gz" dir-name`, []Value{Str("/x/y")}},
		{"base-name", `"/x/y/z.tar.gz" base-name`, []Value{Str("z.tar.gz")}},
		{"file-ext", `"/x/y/z.tar.gz" file-ext`, []Value{Str("gz")}},
		{"no extension", `"Makefile" file-ext`, []Value{Str("")}},
		{"absolute stays", `"/etc/../tmp" abs-path`, []Value{Str("/tmp")}},
	})

	t.Run("relative paths follow cd", func(t *testing.T) {
		s, dir := newFileSession(t)
		require.NoError(t, s.Execute(`"x/y" abs-path`))
		expectStack(t, s.Stack(), Str(filepath.Join(dir, "x", "y")))
	})
}
