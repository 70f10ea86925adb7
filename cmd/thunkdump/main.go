// Command thunkdump compiles sample call targets into thunks, prints their
// instruction listings and optionally calls them.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/compiler"
	"github.com/wippyai/thunk/emit"
)

func main() {
	var (
		modeName    = flag.String("mode", "indirect", "Access mode for by-ref value parameters (indirect, direct)")
		sampleName  = flag.String("sample", "", "Sample to compile (default: all)")
		list        = flag.Bool("list", false, "List samples and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Log compilation to stderr")
	)
	flag.Parse()

	mode, ok := thunk.ParseAccessMode(*modeName)
	if !ok {
		fmt.Fprintln(os.Stderr, "Usage: thunkdump [-mode indirect|direct] [-sample name [args...]]")
		fmt.Fprintln(os.Stderr, "       thunkdump -list")
		fmt.Fprintln(os.Stderr, "       thunkdump -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		compiler.SetLogger(logger)
		emit.SetLogger(logger)
	}

	c := compiler.New(compiler.WithAccessMode(mode), compiler.WithModule(emit.NewModule("thunkdump")))

	if *interactive {
		if err := runInteractive(c); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(os.Stdout, c, *sampleName, flag.Args(), *list, styled); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, c *compiler.Compiler, sampleName string, values []string, listOnly, styled bool) error {
	if listOnly {
		for _, s := range samples() {
			fmt.Fprintf(w, "%-18s %s\n", s.name, s.desc)
		}
		return nil
	}

	selected := samples()
	if sampleName != "" {
		s, ok := findSample(sampleName)
		if !ok {
			return fmt.Errorf("unknown sample %q (see -list)", sampleName)
		}
		selected = []sample{s}
	} else if len(values) > 0 {
		return fmt.Errorf("arguments require -sample")
	}

	var last *emit.Program
	for i, s := range selected {
		if i > 0 {
			fmt.Fprintln(w)
		}
		p, err := c.CompileProgram(s.desc, nil)
		if err != nil {
			return err
		}
		last = p
		if styled {
			fmt.Fprintln(w, titleStyle.Render(s.desc.String())+" "+helpStyle.Render(s.about))
		} else {
			fmt.Fprintf(w, "%s  (%s)\n", s.desc, s.about)
		}
		fmt.Fprint(w, emit.Disassemble(p))
	}

	if sampleName == "" {
		return nil
	}
	s := selected[0]
	if len(values) == 0 && len(s.desc.Params) > 0 {
		return nil
	}

	res, args, err := invoke(last.Func(), s, values)
	if err != nil {
		return err
	}
	out := "result: " + res
	if len(args) > 0 {
		out += "\nargs:   " + strings.Join(args, ", ")
	}
	if styled {
		out = resultStyle.Render(out)
	}
	fmt.Fprintf(w, "\n%s\n", out)
	return nil
}

// invoke calls th once with values parsed for the parameters of s and
// returns the formatted result and argument slots.
func invoke(th thunk.Thunk, s sample, values []string) (string, []string, error) {
	args, err := parseArgs(s.desc, values)
	if err != nil {
		return "", nil, err
	}
	var recv thunk.Handle
	if s.recv != nil {
		recv = s.recv()
	}
	res, err := call(th, recv, args)
	if err != nil {
		return "", nil, err
	}
	return formatHandle(res), formatArgs(s.desc, args), nil
}

// call runs th, reporting a panic in the target as an error.
func call(th thunk.Thunk, recv thunk.Handle, args []thunk.Handle) (res thunk.Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("call panicked: %v", r)
		}
	}()
	return th(recv, args), nil
}
