package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/iley/exprc/internal/codegen"
	"github.com/iley/exprc/internal/compiler"
	"github.com/iley/exprc/internal/diag"
	"github.com/iley/exprc/internal/util"
)

const (
	targetFlagName         = "target"
	emitFlagName           = "emit"
	outputFlagName         = "output"
	allowTrailingFlagName  = "allow-trailing"
	checkedNumbersFlagName = "checked-numbers"
	verboseFlagName        = "verbose"
)

const (
	emitAsm    = "asm"
	emitAST    = "ast"
	emitTokens = "tokens"
)

func newApp(stdout, stderr io.Writer) *cli.App {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)

	return &cli.App{
		Name:      "exprc",
		Usage:     "compile an arithmetic expression into a program that exits with its value",
		ArgsUsage: "<expression>",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    targetFlagName,
				Aliases: []string{"t"},
				Value:   codegen.DefaultTarget().String(),
				Usage:   "target: x86_64-linux, aarch64-linux or aarch64-darwin",
			},
			&cli.StringFlag{
				Name:  emitFlagName,
				Value: emitAsm,
				Usage: "what to print: asm, ast or tokens",
			},
			&cli.StringFlag{
				Name:    outputFlagName,
				Aliases: []string{"o"},
				Value:   "-",
				Usage:   "output file, - for stdout",
			},
			&cli.BoolFlag{
				Name:  allowTrailingFlagName,
				Usage: "ignore tokens after a complete expression",
			},
			&cli.BoolFlag{
				Name:  checkedNumbersFlagName,
				Usage: "reject numerals that do not fit in 64 bits",
			},
			&cli.BoolFlag{
				Name:  verboseFlagName,
				Usage: "log compilation stages",
			},
		},
		// Exit codes are handled by run so the app can be driven from tests.
		HideHelpCommand: true,
		// Usage errors are rendered by run, without the help page.
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return err
		},
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(c *cli.Context) error {
			if c.Bool(verboseFlagName) {
				log.SetLevel(logrus.DebugLevel)
			}
			return compile(c, log, stderr)
		},
	}
}

func compile(c *cli.Context, log *logrus.Logger, stderr io.Writer) error {
	if c.NArg() != 1 {
		diag.Report(stderr, "", errors.Errorf("expected exactly one expression argument, got %d", c.NArg()))
		fmt.Fprintf(stderr, "usage: %s [options] <expression>\n", c.App.Name)
		return cli.Exit("", 1)
	}
	input := c.Args().First()

	target, err := codegen.TargetFromName(c.String(targetFlagName))
	if err != nil {
		diag.Report(stderr, input, err)
		return cli.Exit("", 1)
	}
	opts := compiler.Options{
		Target:         target,
		AllowTrailing:  c.Bool(allowTrailingFlagName),
		CheckedNumbers: c.Bool(checkedNumbersFlagName),
	}

	start := time.Now()
	output, err := render(c.String(emitFlagName), input, opts)
	if err != nil {
		diag.Report(stderr, input, err)
		return cli.Exit("", 1)
	}
	log.WithFields(logrus.Fields{
		"target":  target,
		"emit":    c.String(emitFlagName),
		"bytes":   len(output),
		"elapsed": time.Since(start),
	}).Debug("compiled expression")

	if err := writeOutput(c.App.Writer, c.String(outputFlagName), output); err != nil {
		diag.Report(stderr, input, err)
		return cli.Exit("", 1)
	}
	return nil
}

func render(emit, input string, opts compiler.Options) ([]byte, error) {
	switch emit {
	case emitAsm:
		result, err := compiler.Compile(input, opts)
		if err != nil {
			return nil, err
		}
		return result.Assembly, nil
	case emitAST:
		node, err := compiler.Parse(input, opts)
		if err != nil {
			return nil, err
		}
		return []byte(node.String() + "\n"), nil
	case emitTokens:
		lexemes, err := compiler.Tokenize(input, opts)
		if err != nil {
			return nil, err
		}
		var out []byte
		for _, lex := range lexemes {
			out = fmt.Appendf(out, "%s %s\n", lex.Loc, lex)
		}
		return out, nil
	}
	return nil, errors.Errorf("unknown --emit value %q", emit)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing output")
	}
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	err := app.Run(util.EndOptionsBeforeExpression(args))
	if err == nil {
		return 0
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return exitErr.ExitCode()
	}
	diag.Report(stderr, "", err)
	return 1
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}
