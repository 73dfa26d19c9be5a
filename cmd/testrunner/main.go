package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/iley/exprc/internal/codegen"
	"github.com/iley/exprc/internal/compiler"
	"github.com/iley/exprc/internal/suite"
	"github.com/iley/exprc/internal/toolchain"
)

const (
	casesFlagName   = "cases"
	configFlagName  = "config"
	targetFlagName  = "target"
	emulateFlagName = "emulate"
	jobsFlagName    = "jobs"
	verboseFlagName = "verbose"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
)

// errCasesFailed signals a completed run with at least one failing case.
var errCasesFailed = errors.New("some cases failed")

func newApp(stdout, stderr io.Writer) *cli.App {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.InfoLevel)

	return &cli.App{
		Name:      "testrunner",
		Usage:     "compile and run the expression cases, checking exit statuses",
		ArgsUsage: "[case number or name...]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  casesFlagName,
				Value: "tests/cases.yaml",
				Usage: "YAML file with the cases",
			},
			&cli.StringFlag{
				Name:  configFlagName,
				Usage: "YAML toolchain config; EXPRC_CC overrides its driver",
			},
			&cli.StringFlag{
				Name:  targetFlagName,
				Value: codegen.DefaultTarget().String(),
				Usage: "code generation target",
			},
			&cli.BoolFlag{
				Name:  emulateFlagName,
				Usage: "run programs on the built-in emulator instead of the native toolchain",
			},
			&cli.IntFlag{
				Name:  jobsFlagName,
				Value: runtime.NumCPU(),
				Usage: "number of cases to run in parallel",
			},
			&cli.BoolFlag{
				Name:  verboseFlagName,
				Usage: "log every case",
			},
		},
		HideHelpCommand: true,
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return err
		},
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(c *cli.Context) error {
			if c.Bool(verboseFlagName) {
				log.SetLevel(logrus.DebugLevel)
			}
			return runCases(c, log)
		},
	}
}

func newExecutor(c *cli.Context, log *logrus.Logger) (suite.Executor, string, error) {
	if c.Bool(emulateFlagName) {
		return suite.EmulatorExecutor{}, "emulator", nil
	}
	cfg, err := toolchain.LoadConfig(c.String(configFlagName))
	if err != nil {
		return nil, "", err
	}
	cfg, err = cfg.WithEnv(os.LookupEnv)
	if err != nil {
		return nil, "", err
	}
	log.WithFields(logrus.Fields{
		"driver":  cfg.Driver,
		"flags":   cfg.Flags,
		"timeout": cfg.Timeout,
	}).Debug("using native toolchain")
	return toolchain.NewRunner(cfg, ""), cfg.Driver, nil
}

func runCases(c *cli.Context, log *logrus.Logger) error {
	target, err := codegen.TargetFromName(c.String(targetFlagName))
	if err != nil {
		return err
	}

	cases, err := suite.LoadCases(c.String(casesFlagName))
	if err != nil {
		return err
	}
	cases, err = suite.Filter(cases, c.Args().Slice())
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Fprintf(c.App.Writer, "No cases found in %s\n", c.String(casesFlagName))
		return nil
	}

	executor, executorName, err := newExecutor(c, log)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"cases":  len(cases),
		"target": target,
		"jobs":   c.Int(jobsFlagName),
	}).Debug("running cases")

	start := time.Now()
	results, runErr := suite.Run(c.Context, cases, suite.Options{
		Compile:  compiler.Options{Target: target},
		Executor: executor,
		Jobs:     c.Int(jobsFlagName),
	})
	if results == nil && runErr != nil {
		return runErr
	}

	passed := printResults(c.App.Writer, results, log)
	printSummary(c.App.Writer, target, executorName, passed, len(results)-passed, time.Since(start))

	if runErr != nil {
		return errCasesFailed
	}
	return nil
}

func printResults(out io.Writer, results []suite.Result, log *logrus.Logger) int {
	passed := 0
	for _, r := range results {
		log.WithFields(logrus.Fields{
			"case":     r.Case.Name,
			"input":    r.Case.Input,
			"status":   r.Status,
			"duration": r.Duration,
		}).Debug("case finished")

		if r.Passed {
			fmt.Fprintf(out, "%s %s\n", passColor.Sprint("PASS"), r.Case.Name)
			passed++
		} else {
			fmt.Fprintf(out, "%s %s: %v\n", failColor.Sprint("FAIL"), r.Case.Name, r.Err)
		}
	}
	return passed
}

func printSummary(out io.Writer, target codegen.Target, executor string, passed, failed int, elapsed time.Duration) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Target", "Executor", "Passed", "Failed", "Total", "Elapsed"})
	table.Append([]string{
		target.String(),
		executor,
		strconv.Itoa(passed),
		strconv.Itoa(failed),
		strconv.Itoa(passed + failed),
		elapsed.Round(time.Millisecond).String(),
	})
	table.Render()
}

func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	err := app.RunContext(context.Background(), args)
	if err == nil {
		return 0
	}
	if !errors.Is(err, errCasesFailed) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}
