package stacksh

import (
	"os"
	"path/filepath"
	"strings"
)

// resolvePath makes path absolute against the session working directory
func (ev *Evaluator) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	base, ok := ev.env.Get("PWD")
	if !ok || base == "" {
		base, _ = os.Getwd()
	}
	return filepath.Join(base, path)
}

func fileInfoRecord(name string, info os.FileInfo) *Record {
	return NewRecordBuilder(5).
		Set("name", Str(name)).
		Set("size", Number(info.Size())).
		Set("dir", Bool(info.IsDir())).
		Set("mode", Str(info.Mode().String())).
		Set("mtime", Number(info.ModTime().Unix())).
		Build()
}

// RegisterFilesLib registers file and path builtins. Relative paths are
// taken from $PWD as set by cd.
// Module: files
func (s *Session) RegisterFilesLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("files", name, sigs...)
	}

	// "path" read-file → contents as a string
	reg("read-file", Sig(func(c *Context) error {
		data, err := os.ReadFile(c.ev.resolvePath(c.Str(0)))
		if err != nil {
			return c.Errorf(ExecError, "read-file: %v", err)
		}
		c.Push(Str(data))
		return nil
	}, KindStr))

	write := func(flag int) Handler {
		return func(c *Context) error {
			path := c.ev.resolvePath(c.Str(1))
			f, err := os.OpenFile(path, flag, 0o644)
			if err != nil {
				return c.Errorf(ExecError, "%s: %v", c.Command, err)
			}
			_, err = f.WriteString(Serialize(c.Args[0]))
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return c.Errorf(ExecError, "%s: %v", c.Command, err)
			}
			c.Logger().DebugCat(CatIO, "%s %s", c.Command, path)
			return nil
		}
	}
	// value "path" write-file
	reg("write-file", Sig(write(os.O_WRONLY|os.O_CREATE|os.O_TRUNC), KindAny, KindStr))
	reg("append-file", Sig(write(os.O_WRONLY|os.O_CREATE|os.O_APPEND), KindAny, KindStr))

	reg("file-exists?", Sig(func(c *Context) error {
		_, err := os.Stat(c.ev.resolvePath(c.Str(0)))
		predicate(c, err == nil)
		return nil
	}, KindStr))

	reg("file-info", Sig(func(c *Context) error {
		path := c.ev.resolvePath(c.Str(0))
		info, err := os.Stat(path)
		if err != nil {
			return c.Errorf(ExecError, "file-info: %v", err)
		}
		c.Push(fileInfoRecord(filepath.Base(path), info))
		return nil
	}, KindStr))

	// "dir" list-dir → table of name, size, dir, mode, mtime
	reg("list-dir", Sig(func(c *Context) error {
		entries, err := os.ReadDir(c.ev.resolvePath(c.Str(0)))
		if err != nil {
			return c.Errorf(ExecError, "list-dir: %v", err)
		}
		rows := make(List, 0, len(entries))
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			rows = append(rows, fileInfoRecord(entry.Name(), info))
		}
		c.Push(rows)
		return nil
	}, KindStr))

	reg("mkdir", Sig(func(c *Context) error {
		if err := os.MkdirAll(c.ev.resolvePath(c.Str(0)), 0o755); err != nil {
			return c.Errorf(ExecError, "mkdir: %v", err)
		}
		return nil
	}, KindStr))

	// rm removes a file or an empty directory
	reg("rm", Sig(func(c *Context) error {
		if err := os.Remove(c.ev.resolvePath(c.Str(0))); err != nil {
			return c.Errorf(ExecError, "rm: %v", err)
		}
		return nil
	}, KindStr))

	reg("abs-path", Sig(func(c *Context) error {
		c.Push(Str(c.ev.resolvePath(c.Str(0))))
		return nil
	}, KindStr))

	reg("join-path", Sig(func(c *Context) error {
		items := c.ListArg(0)
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = Serialize(item)
		}
		c.Push(Str(filepath.Join(parts...)))
		return nil
	}, KindList))

	reg("dir-name", Sig(func(c *Context) error {
		c.Push(Str(filepath.Dir(c.Str(0))))
		return nil
	}, KindStr))

	reg("base-name", Sig(func(c *Context) error {
		c.Push(Str(filepath.Base(c.Str(0))))
		return nil
	}, KindStr))

	reg("file-ext", Sig(func(c *Context) error {
		c.Push(Str(strings.TrimPrefix(filepath.Ext(c.Str(0)), ".")))
		return nil
	}, KindStr))
}
