package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iley/exprc/internal/codegen"
	"github.com/iley/exprc/internal/compiler"
	"github.com/iley/exprc/internal/diag"
	"github.com/iley/exprc/internal/suite"
	"github.com/iley/exprc/internal/toolchain"
	"github.com/iley/exprc/internal/util"
)

// errReported marks failures that were already rendered to stderr.
var errReported = errors.New("reported")

type options struct {
	target         string
	allowTrailing  bool
	checkedNumbers bool
	configPath     string
	outputFile     string
	keep           bool
	emulate        bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "expr",
		Short:         "Build and run arithmetic expressions as native programs",
		Long:          "Compiles an expression with exprc and links it with the host C toolchain into a program whose exit status is the expression's value.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVarP(&opts.target, "target", "t", codegen.DefaultTarget().String(), "target architecture")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML toolchain config; EXPRC_CC overrides its driver")
	rootCmd.PersistentFlags().BoolVar(&opts.allowTrailing, "allow-trailing", false, "ignore tokens after a complete expression")
	rootCmd.PersistentFlags().BoolVar(&opts.checkedNumbers, "checked-numbers", false, "reject numerals that do not fit in 64 bits")

	buildCmd := &cobra.Command{
		Use:   "build <expression>",
		Short: "Build an executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return build(cmd.Context(), opts, args[0], stdout, stderr)
		},
	}
	buildCmd.Flags().BoolVarP(&opts.keep, "keep", "k", false, "keep the intermediate .s file")
	buildCmd.Flags().StringVarP(&opts.outputFile, "output", "o", "a.out", "output file name")

	runCmd := &cobra.Command{
		Use:   "run <expression>",
		Short: "Build and run an expression, printing its exit status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpression(cmd.Context(), opts, args[0], stdout, stderr)
		},
	}
	runCmd.Flags().BoolVar(&opts.emulate, "emulate", false, "run on the built-in emulator instead of the native toolchain")

	rootCmd.AddCommand(buildCmd, runCmd)
	return rootCmd
}

func compileExpression(opts *options, input string, stderr io.Writer) (*compiler.Result, error) {
	target, err := codegen.TargetFromName(opts.target)
	if err != nil {
		diag.Report(stderr, input, err)
		return nil, errReported
	}
	result, err := compiler.Compile(input, compiler.Options{
		Target:         target,
		AllowTrailing:  opts.allowTrailing,
		CheckedNumbers: opts.checkedNumbers,
	})
	if err != nil {
		diag.Report(stderr, input, err)
		return nil, errReported
	}
	return result, nil
}

func loadToolchain(opts *options) (toolchain.Config, error) {
	cfg, err := toolchain.LoadConfig(opts.configPath)
	if err != nil {
		return toolchain.Config{}, err
	}
	return cfg.WithEnv(os.LookupEnv)
}

func build(ctx context.Context, opts *options, input string, stdout, stderr io.Writer) error {
	result, err := compileExpression(opts, input, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadToolchain(opts)
	if err != nil {
		return err
	}

	outputDir := filepath.Dir(opts.outputFile)
	baseName := filepath.Base(opts.outputFile)
	runner := toolchain.NewRunner(cfg, outputDir)
	binFile, err := runner.Build(ctx, result.Assembly, baseName)
	if !opts.keep {
		os.Remove(filepath.Join(outputDir, baseName+".s"))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Built %s\n", binFile)
	return nil
}

func runExpression(ctx context.Context, opts *options, input string, stdout, stderr io.Writer) error {
	result, err := compileExpression(opts, input, stderr)
	if err != nil {
		return err
	}

	var executor suite.Executor = suite.EmulatorExecutor{}
	if !opts.emulate {
		cfg, err := loadToolchain(opts)
		if err != nil {
			return err
		}
		executor = toolchain.NewRunner(cfg, "")
	}

	status, err := executor.Execute(ctx, result)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d\n", status)
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(util.EndOptionsBeforeExpression(args))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			diag.Report(stderr, "", err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
