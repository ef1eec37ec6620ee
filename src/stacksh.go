package stacksh

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Session owns everything that lives for one process or script run:
// definitions, environment, builtins, background workers. It is created
// by New and torn down by Close.
type Session struct {
	config    *Config
	logger    *Logger
	operators *OperatorTable
	defs      *Registry
	env       *Environment

	globalsMu sync.RWMutex
	globals   map[string]Value

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	outMu   sync.Mutex

	main *Evaluator
}

// New creates a session with the standard library registered
func New(config *Config) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.normalize()

	logger := NewLoggerWithWriter(config.Debug, config.Stderr)
	if config.LogCategories != "" {
		logger.EnableCategories(config.LogCategories)
	}

	environ := config.Environ
	if environ == nil {
		environ = osEnviron()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		config:    config,
		logger:    logger,
		operators: NewOperatorTable(),
		defs:      NewRegistry(),
		env:       NewEnvironment(environ),
		globals:   make(map[string]Value),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.main = newEvaluator(s, s.defs, s.env, NewScope())
	s.RegisterStandardLibrary()
	logger.DebugCat(CatSystem, "session started (max depth %d, parallel limit %d)",
		config.MaxRecursionDepth, config.ParallelLimit)
	return s
}

// Logger returns the session logger
func (s *Session) Logger() *Logger {
	return s.logger
}

// Config returns the session configuration
func (s *Session) Config() *Config {
	return s.config
}

// Evaluator returns the primary evaluator
func (s *Session) Evaluator() *Evaluator {
	return s.main
}

// Stack returns a copy of the primary stack, bottom first
func (s *Session) Stack() []Value {
	return s.main.stack.Items()
}

// Definitions returns the session definition registry
func (s *Session) Definitions() *Registry {
	return s.defs
}

// WordNames lists user definitions followed by builtin operator names
func (s *Session) WordNames() []string {
	return append(s.defs.Names(), s.operators.Names()...)
}

// RegisterOperator adds a builtin operator. Later registrations replace
// earlier ones.
func (s *Session) RegisterOperator(name string, sigs ...Signature) {
	s.operators.Register("host", name, sigs...)
}

// RegisterOperatorInModule adds a builtin operator tagged with a module name
func (s *Session) RegisterOperatorInModule(module, name string, sigs ...Signature) {
	s.operators.Register(module, name, sigs...)
}

// SetGlobal binds a read-only session variable such as $ARGV
func (s *Session) SetGlobal(name string, value Value) {
	s.globalsMu.Lock()
	defer s.globalsMu.Unlock()
	s.globals[name] = value
}

func (s *Session) global(name string) (Value, bool) {
	s.globalsMu.RLock()
	defer s.globalsMu.RUnlock()
	v, ok := s.globals[name]
	return v, ok
}

// Execute parses and evaluates source on the primary evaluator.
// Parse errors are reported before anything runs.
func (s *Session) Execute(source string) error {
	return s.ExecuteContext(s.ctx, source, "")
}

// ExecuteFile evaluates source with a filename attached to positions
func (s *Session) ExecuteFile(source, filename string) error {
	return s.ExecuteContext(s.ctx, source, filename)
}

// ExecuteContext evaluates source under ctx
func (s *Session) ExecuteContext(ctx context.Context, source, filename string) error {
	exprs, err := NewParser(source, filename).ParseExpressions()
	if err != nil {
		s.logger.DebugCat(CatParse, "parse failed: %v", err)
		return err
	}
	err = s.main.Evaluate(ctx, exprs)
	if sig, ok := err.(flowSignal); ok {
		if sig == signalReturn {
			return nil
		}
		return NewError(EvalError, "%s", sig.Error())
	}
	return err
}

// ReportError logs an evaluation error with source context
func (s *Session) ReportError(err error, source string) {
	if ev, ok := err.(*ErrorValue); ok {
		s.logger.CommandError(ev, strings.Split(source, "\n"))
		return
	}
	s.logger.Error("%v", err)
}

// Emit writes text to the session output. Workers share the writer.
func (s *Session) Emit(text string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := io.WriteString(s.config.Stdout, text); err != nil {
		s.logger.WarnCat(CatIO, "write to stdout failed: %v", err)
	}
}

// Emitf formats and writes text to the session output
func (s *Session) Emitf(format string, args ...interface{}) {
	s.Emit(fmt.Sprintf(format, args...))
}

// Close cancels all background work and waits for workers to exit
func (s *Session) Close() error {
	s.cancel()
	s.workers.Wait()
	s.logger.DebugCat(CatSystem, "session closed")
	return nil
}
