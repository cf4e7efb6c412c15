// Package main provides the CLI entry point for sheetdump.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/ukaji3/sheetdump-go/pkg/sheetdump"
	"go.alis.build/alog"
)

const prompt = "Enter the path to the Excel file: "

var (
	outputPath string
	separator  string
	password   string
	verbose    bool
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the command and returns the process exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdin, stdout)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	rootCmd.SetArgs(args)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetdump [input.xlsx]",
		Short: "Print the first sheet of an Excel file as tab-separated text",
		Long: `sheetdump prints every cell of the first sheet of an Excel file,
one row per line, each value followed by a tab.

Without an argument the path is read from standard input.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, stdin, stdout)
		},
	}
	rootCmd.SetOut(stdout)

	bindFlags(rootCmd.Flags())
	return rootCmd
}

func bindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	fs.StringVar(&separator, "separator", sheetdump.DefaultSeparator, "Separator written after every cell value")
	fs.StringVar(&password, "password", "", "Password of an encrypted workbook")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Log debug information to stderr")
}

func run(cmd *cobra.Command, args []string, stdin io.Reader, stdout io.Writer) error {
	ctx := cmd.Context()
	if verbose {
		alog.SetLevel(alog.LevelDebug)
	}

	var inputPath string
	if len(args) == 1 {
		inputPath = args[0]
	} else {
		if isTerminal(stdin) {
			fmt.Fprint(cmd.ErrOrStderr(), prompt)
		}
		p, err := readPath(stdin)
		if err != nil {
			return err
		}
		inputPath = p
	}

	opts := sheetdump.Options{
		Password: password,
	}
	if cmd.Flags().Changed("separator") {
		opts.Separator = &separator
	}

	w := stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return sheetdump.NewIOError("write", outputPath, errors.WithStack(err))
		}
		defer f.Close()
		w = f
	}

	alog.Debugf(ctx, "reading %s", inputPath)
	return sheetdump.Dump(ctx, inputPath, w, opts)
}

// readPath reads one line from r. Only the line terminator is removed.
func readPath(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", sheetdump.NewIOError("read", "stdin", errors.WithStack(err))
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return "", sheetdump.NewIOError("read", "stdin", errors.WithStack(sheetdump.ErrNoPath))
	}
	return line, nil
}

// reportError prints a failure and the stack trace recorded where it was wrapped.
func reportError(w io.Writer, err error) {
	var ioErr *sheetdump.IOError
	if !errors.As(err, &ioErr) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Error reading Excel file: %v\n", err)
	if st := sheetdump.StackTrace(err); st != nil {
		fmt.Fprintf(w, "%+v\n", st)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
