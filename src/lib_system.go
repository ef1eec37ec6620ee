package stacksh

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// lookPath finds an executable using the session PATH rather than the
// process one, so `export` of PATH takes effect
func lookPath(name, path string) (string, bool) {
	if strings.ContainsRune(name, '/') {
		info, err := os.Stat(name)
		return name, err == nil && !info.IsDir()
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, true
		}
	}
	return "", false
}

// commandArgs takes the arguments of an external command off the stack:
// everything above the topmost marker, otherwise the run of scalars on top
func (ev *Evaluator) commandArgs() []string {
	var values []Value
	if items, found := ev.stack.PopToMarker(); found {
		values = items
	} else {
		n := 0
		for {
			v, ok := ev.stack.Peek(n)
			if !ok || !isScalar(v) {
				break
			}
			n++
		}
		values, _ = ev.stack.PopN(n)
	}
	args := make([]string, len(values))
	for i, v := range values {
		args[i] = Serialize(v)
	}
	return args
}

// processEnv is the session environment overlaid with visible scalar locals
func (ev *Evaluator) processEnv() []string {
	overlay := make(map[string]string)
	for name, v := range ev.scope.Flatten() {
		if isScalar(v) {
			overlay[name] = Serialize(v)
		}
	}
	return ev.env.Pairs(overlay)
}

// runExternal runs an OS process. args nil means take them from the stack.
// Output is captured and pushed as a string.
func (ev *Evaluator) runExternal(ctx context.Context, name string, args []string) error {
	path, _ := ev.env.Get("PATH")
	program, found := lookPath(name, path)
	if !found {
		return &ErrorValue{Type: NameError, Message: "unknown word or command: " + name, Command: name}
	}
	if args == nil {
		args = ev.commandArgs()
	}

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Env = ev.processEnv()
	if dir, ok := ev.env.Get("PWD"); ok {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			cmd.Dir = dir
		}
	}
	if input := ev.pipeInput; input != nil {
		ev.pipeInput = nil
		text := Serialize(input)
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		cmd.Stdin = strings.NewReader(text)
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = ev.session.config.Stderr

	ev.session.logger.DebugCat(CatIO, "exec %s %s", program, strings.Join(args, " "))
	err := cmd.Run()
	output := strings.TrimSuffix(stdout.String(), "\n")

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return contextError(ctx, ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return &ErrorValue{Type: ExecError, Message: errors.Wrap(err, "spawn "+name).Error(), Command: name}
		}
		ev.status = false
		if ev.condDepth > 0 {
			ev.stack.Push(Str(output))
			return nil
		}
		return &ErrorValue{
			Type:    ExecError,
			Message: name + " exited with status " + FormatNumber(Number(exitErr.ExitCode())),
			Code:    exitErr.ExitCode(),
			HasCode: true,
			Source:  output,
			Command: name,
		}
	}
	ev.status = true
	ev.stack.Push(Str(output))
	return nil
}

// RegisterSystemLib registers the external process bridge
// Module: system
func (s *Session) RegisterSystemLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("system", name, sigs...)
	}

	// value [block] | feeds value to the stdin of the first external
	// command run inside the block
	reg("|", Sig(func(c *Context) error {
		previous := c.ev.pipeInput
		c.ev.pipeInput = c.Args[0]
		defer func() { c.ev.pipeInput = previous }()
		err := c.Apply(c.BlockArg(1))
		if c.ev.pipeInput != nil {
			c.Logger().DebugCat(CatIO, "pipe input not consumed by any external command")
		}
		return err
	}, KindAny, KindBlock))

	// marker "prog" "arg" collect exec runs an explicit argv
	reg("exec", Sig(func(c *Context) error {
		argv := c.ListArg(0)
		if len(argv) == 0 {
			return c.Errorf(TypeError, "exec needs a non-empty argv list")
		}
		args := make([]string, len(argv)-1)
		for i, a := range argv[1:] {
			args[i] = Serialize(a)
		}
		return c.ev.runExternal(c.ctx, Serialize(argv[0]), args)
	}, KindList))

	// [block] raw turns every list or record the block leaves into text
	reg("raw", Sig(func(c *Context) error {
		st := c.Stack()
		previous := st.MarkLowWater()
		err := c.Apply(c.BlockArg(0))
		low := st.LowWater()
		st.ResumeLowWater(previous)
		if err != nil {
			return err
		}
		items := st.Items()
		for i := low; i < len(items); i++ {
			switch items[i].(type) {
			case List, *Record:
				items[i] = Str(Serialize(items[i]))
			}
		}
		if low < len(items) {
			tail := items[low:]
			st.PopN(len(tail))
			st.Push(tail...)
		}
		return nil
	}, KindBlock))

	// "dir" cd changes the working directory external commands start in
	reg("cd", Sig(func(c *Context) error {
		dir := c.ev.resolvePath(c.Str(0))
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return c.Errorf(ExecError, "cd: not a directory: %s", c.Str(0))
		}
		c.ev.env.Set("PWD", dir)
		return nil
	}, KindStr))
}
