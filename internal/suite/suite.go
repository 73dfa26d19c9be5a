// Package suite runs a table of expressions with expected exit statuses
// against the compiler.
package suite

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/iley/exprc/internal/compiler"
	"github.com/iley/exprc/internal/emulator"
)

// Case is one expression with its expected outcome. Exactly one of Status
// and Error is set.
type Case struct {
	Name   string `yaml:"name"`
	Input  string `yaml:"input"`
	Status *int   `yaml:"status,omitempty"`
	Error  bool   `yaml:"error,omitempty"`
}

type casesFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases reads and validates a YAML case file.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading cases from %s", path)
	}
	return ParseCases(data)
}

func ParseCases(data []byte) ([]Case, error) {
	var f casesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parsing cases")
	}

	var result *multierror.Error
	seen := make(map[string]bool)
	for i, c := range f.Cases {
		switch {
		case c.Name == "":
			result = multierror.Append(result, errors.Errorf("case #%d has no name", i+1))
		case seen[c.Name]:
			result = multierror.Append(result, errors.Errorf("duplicate case %s", c.Name))
		case (c.Status == nil) == !c.Error:
			result = multierror.Append(result, errors.Errorf("case %s must set exactly one of status and error", c.Name))
		}
		seen[c.Name] = true
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return f.Cases, nil
}

// Filter selects cases by exact name or by their numeric "NN_" prefix.
func Filter(cases []Case, ids []string) ([]Case, error) {
	if len(ids) == 0 {
		return cases, nil
	}
	var selected []Case
	for _, id := range ids {
		found := false
		for _, c := range cases {
			if c.Name == id || strings.HasPrefix(c.Name, id+"_") {
				selected = append(selected, c)
				found = true
			}
		}
		if !found {
			return nil, errors.Errorf("case not found: %s", id)
		}
	}
	return selected, nil
}

// Executor runs a compiled program and reports its exit status.
type Executor interface {
	Execute(ctx context.Context, result *compiler.Result) (int, error)
}

// EmulatorExecutor runs programs in-process on the emulator.
type EmulatorExecutor struct{}

func (EmulatorExecutor) Execute(ctx context.Context, result *compiler.Result) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	value, err := emulator.Run(result.Program)
	if err != nil {
		return 0, err
	}
	return emulator.ExitStatus(value), nil
}

type Options struct {
	Compile  compiler.Options
	Executor Executor
	// Jobs bounds the number of cases in flight. Zero or less means no limit.
	Jobs int
}

type Result struct {
	Case     Case
	Passed   bool
	Status   int
	Err      error
	Duration time.Duration
}

// Run executes every case and returns results in input order. The returned
// error aggregates all failures and is nil when every case passed.
func Run(ctx context.Context, cases []Case, opts Options) ([]Result, error) {
	if opts.Executor == nil {
		opts.Executor = EmulatorExecutor{}
	}

	results := make([]Result, len(cases))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			start := time.Now()
			results[i] = runCase(ctx, c, opts)
			results[i].Duration = time.Since(start)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var failures *multierror.Error
	for _, r := range results {
		if !r.Passed {
			failures = multierror.Append(failures, errors.Wrap(r.Err, r.Case.Name))
		}
	}
	return results, failures.ErrorOrNil()
}

func runCase(ctx context.Context, c Case, opts Options) Result {
	r := Result{Case: c}

	compiled, err := compiler.Compile(c.Input, opts.Compile)
	if c.Error {
		if err == nil {
			r.Err = errors.Errorf("expected a compile error for %q", c.Input)
			return r
		}
		r.Passed = true
		return r
	}
	if err != nil {
		r.Err = err
		return r
	}

	status, err := opts.Executor.Execute(ctx, compiled)
	if err != nil {
		r.Err = errors.Wrap(err, "execution failed")
		return r
	}
	r.Status = status
	if status != *c.Status {
		r.Err = errors.Errorf("exit status %d, expected %d", status, *c.Status)
		return r
	}
	r.Passed = true
	return r
}
