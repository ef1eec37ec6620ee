package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/peterh/liner"
	"github.com/phroun/stacksh"
	"github.com/pkg/errors"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var version = "dev" // set via -ldflags at build time

const (
	colorYellow = "\x1b[93m"
	colorReset  = "\x1b[0m"

	promptMain  = "stacksh> "
	promptCont  = "....... "
	historyFile = ".stacksh_history"
)

// exitError carries a process exit code out of RunE
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// stderrSupportsColor checks if stderr is a terminal that supports color output
func stderrSupportsColor() bool {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return false
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// errorPrintf prints an error message to stderr, using color if supported
func errorPrintf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if stderrSupportsColor() {
		fmt.Fprintf(os.Stderr, "%s%s%s", colorYellow, message, colorReset)
	} else {
		fmt.Fprint(os.Stderr, message)
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		errorPrintf("stacksh: %v\n", err)
		os.Exit(2)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:     "stacksh [script] [args...]",
		Short:   "A postfix stack shell",
		Version: version,
		Example: "  stacksh -c '2 3 plus print'\n  stacksh build.stk release\n  echo '\"hi\" print' | stacksh",
		Args:    cobra.ArbitraryArgs,
		// script arguments belong to the script, not to us
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	addFlags(cmd.Flags())
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("STACKSH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return cmd
}

func addFlags(flags *pflag.FlagSet) {
	flags.StringP("command", "c", "", "evaluate the given source instead of a script file")
	flags.String("config", "", "settings file (yaml, json or toml) readable with `config`")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-categories", "", "comma separated debug categories (parse,command,io,async,...)")
	flags.String("log-file", "", "also write log records to a rotating file")
	flags.Int("max-recursion-depth", 0, "maximum nesting of block applications")
	flags.Int("parallel-limit", 0, "default worker cap for parallel operators")
}

// settings loads the optional config file then maps dashed flag names onto
// the keys ConfigFromViper reads
func settings(v *viper.Viper) (*stacksh.Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	for _, key := range []string{"log-categories", "max-recursion-depth", "parallel-limit"} {
		if v.IsSet(key) && !v.IsSet(strings.ReplaceAll(key, "-", "_")) {
			v.Set(strings.ReplaceAll(key, "-", "_"), v.Get(key))
		}
	}
	return stacksh.ConfigFromViper(v), nil
}

// addFileLog tees every log record into a rotating file
func addFileLog(logger *logrus.Logger, path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	writer, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return err
	}
	logger.AddHook(lfshook.NewHook(
		lfshook.WriterMap{
			logrus.TraceLevel: writer,
			logrus.DebugLevel: writer,
			logrus.InfoLevel:  writer,
			logrus.WarnLevel:  writer,
			logrus.ErrorLevel: writer,
			logrus.FatalLevel: writer,
			logrus.PanicLevel: writer,
		},
		&logrus.JSONFormatter{},
	))
	return nil
}

func run(cmd *cobra.Command, v *viper.Viper, args []string) error {
	config, err := settings(v)
	if err != nil {
		return err
	}

	session := stacksh.New(config)
	defer session.Close()

	if path := v.GetString("log-file"); path != "" {
		if err := addFileLog(session.Logger().Backend(), path); err != nil {
			return errors.Wrap(err, "open log file")
		}
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go func() {
		if _, ok := <-sigc; ok {
			session.Close()
			os.Exit(130)
		}
	}()

	if source := v.GetString("command"); cmd.Flags().Changed("command") {
		session.SetArgs(args)
		return runSource(session, source, "-c")
	}

	if len(args) > 0 {
		filename := findScriptFile(args[0])
		if filename == "" {
			return errors.Errorf("script not found: %s", args[0])
		}
		data, err := os.ReadFile(filename)
		if err != nil {
			return errors.Wrap(err, "read script")
		}
		session.SetArgs(args[1:])
		return runSource(session, string(data), filename)
	}

	session.SetArgs(nil)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "read stdin")
		}
		return runSource(session, string(data), "<stdin>")
	}
	return runREPL(session)
}

// findScriptFile accepts the name as given or with a .stk extension
func findScriptFile(filename string) string {
	if _, err := os.Stat(filename); err == nil {
		return filename
	}
	if filepath.Ext(filename) == "" {
		if _, err := os.Stat(filename + ".stk"); err == nil {
			return filename + ".stk"
		}
	}
	return ""
}

func runSource(session *stacksh.Session, source, filename string) error {
	if err := session.ExecuteFile(source, filename); err != nil {
		session.ReportError(err, source)
		var ev *stacksh.ErrorValue
		if errors.As(err, &ev) && ev.HasCode && ev.Code > 0 {
			return &exitError{code: ev.Code}
		}
		return &exitError{code: 1}
	}
	return nil
}

func runREPL(session *stacksh.Session) error {
	fmt.Fprintf(os.Stderr, "stacksh %s. Ctrl-D to leave.\n", version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		return completeWord(session, line)
	})

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		code, ok := readByParseProbe(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" || trimmed == "quit" {
			return nil
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if err := session.Execute(code); err != nil {
			session.ReportError(err, code)
		}
		displayStack(session)
	}
}

// readByParseProbe keeps prompting while the buffered input is an
// incomplete parse (open bracket or string)
func readByParseProbe(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		_, perr := stacksh.Parse(src)
		var ev *stacksh.ErrorValue
		if errors.As(perr, &ev) && ev.Incomplete() {
			continue
		}
		return src, true
	}
}

func displayStack(session *stacksh.Session) {
	items := session.Stack()
	if len(items) == 0 {
		return
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = stacksh.Repr(item)
	}
	fmt.Println("= " + strings.Join(parts, " "))
}

// completeWord offers builtin and defined names for the last word on the line
func completeWord(session *stacksh.Session, line string) []string {
	start := strings.LastIndexAny(line, " \t[") + 1
	prefix, word := line[:start], line[start:]
	if word == "" {
		return nil
	}
	var out []string
	for _, name := range session.WordNames() {
		if strings.HasPrefix(name, word) {
			out = append(out, prefix+name)
		}
	}
	return out
}
