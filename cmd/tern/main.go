package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/goccy/go-yaml"
	"github.com/jessevdk/go-flags"
	"github.com/peterh/liner"

	"github.com/tern-lang/tern"
)

const (
	appName     = "tern"
	historyFile = ".tern_history"
	promptMain  = "==> "
	promptCont  = "... "
)

var banner = fmt.Sprintf("Tern %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", tern.Version)

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

type options struct {
	Output  string `short:"o" long:"output" default:"tern" choice:"tern" choice:"json" choice:"yaml" description:"Output format"`
	Type    bool   `short:"t" long:"type" description:"Print the inferred type instead of the normal form"`
	Cache   string `long:"cache" description:"Directory for the persisted import cache"`
	Version bool   `short:"V" long:"version" description:"Print the version and exit"`
	Args    struct {
		File string `positional-arg-name:"FILE"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS] [FILE]\n\nEvaluate a Tern configuration file, or start a REPL when no file is given."
	if _, err := parser.Parse(); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(2)
	}
	if opts.Version {
		fmt.Println(tern.Version)
		return
	}

	var engineOpts []tern.EngineOption
	if opts.Cache != "" {
		engineOpts = append(engineOpts, tern.WithEngineDiskCache(tern.NewDiskCache(opts.Cache)))
	}
	engine := tern.New(engineOpts...)

	if opts.Args.File == "" {
		os.Exit(runRepl(engine, &opts))
	}
	os.Exit(runFile(engine, &opts))
}

func runFile(engine *tern.Engine, opts *options) int {
	file := opts.Args.File
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseDir := filepath.Dir(fileAbsOrOrig(file))
	var out *tern.Expr
	if opts.Type {
		parsed, perr := tern.ParseExpr(string(src))
		if perr != nil {
			fmt.Fprintln(os.Stderr, tern.WrapErrorWithName(perr, file, string(src)).Error())
			return 1
		}
		out, err = engine.TypeOf(ctx, parsed, baseDir)
	} else {
		out, err = engine.RunSource(ctx, file, string(src), baseDir)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	text, err := formatOutput(out, opts.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	fmt.Println(text)
	return 0
}

func formatOutput(e *tern.Expr, format string) (string, error) {
	switch format {
	case "json":
		v, err := tern.ToInterface(e)
		if err != nil {
			return "", err
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "yaml":
		v, err := tern.ToInterface(e)
		if err != nil {
			return "", err
		}
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(data), "\n"), nil
	default:
		return tern.Render(e), nil
	}
}

func fileAbsOrOrig(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func runRepl(engine *tern.Engine, opts *options) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = "."
	}

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if strings.HasPrefix(trimmed, ":") {
			if handled, quit := replCommand(engine, trimmed, baseDir); quit {
				return 0
			} else if handled {
				ln.AppendHistory(code)
				continue
			}
			fmt.Printf("unknown command. Type :quit to exit.\n")
			continue
		}
		if trimmed == "" {
			continue
		}

		out, err := engine.RunSource(context.Background(), "<repl>", code, baseDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		text, err := formatOutput(out, opts.Output)
		if err != nil {
			text = tern.Render(out)
		}
		fmt.Println(blue(text))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// replCommand handles ":"-prefixed REPL commands. ":type EXPR" prints the
// inferred type of EXPR without normalizing the value.
func replCommand(engine *tern.Engine, cmd, baseDir string) (handled, quit bool) {
	switch {
	case strings.EqualFold(cmd, ":quit"):
		return true, true
	case strings.HasPrefix(cmd, ":type "):
		src := strings.TrimPrefix(cmd, ":type ")
		parsed, err := tern.ParseExpr(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(tern.WrapErrorWithSource(err, src).Error()))
			return true, false
		}
		t, err := engine.TypeOf(context.Background(), parsed, baseDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return true, false
		}
		fmt.Println(blue(tern.Render(t)))
		return true, false
	}
	return false, false
}

// readByParseProbe reads lines until the accumulated input parses, hits a
// non-recoverable parse error, or the parse error is clearly terminal. An
// unexpected end of input keeps the continuation prompt going so multi-line
// let-chains and records can be typed naturally.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.TrimSpace(src) == "" || strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, perr := tern.ParseExpr(src)
		if perr == nil {
			return src, true
		}
		if isIncomplete(perr) {
			continue
		}
		return src, true
	}
}

func isIncomplete(err error) bool {
	var pe *tern.ParseError
	return errors.As(err, &pe) && strings.Contains(pe.Msg, "end of input")
}
