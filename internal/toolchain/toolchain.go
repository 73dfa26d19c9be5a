// Package toolchain assembles, links and runs generated programs with the
// host C compiler driver.
package toolchain

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/iley/exprc/internal/compiler"
)

// EnvCC overrides the driver and its flags, e.g. EXPRC_CC="clang --target=x86_64-linux-gnu".
const EnvCC = "EXPRC_CC"

const defaultTimeout = 30 * time.Second

type Config struct {
	Driver  string        `yaml:"driver"`
	Flags   []string      `yaml:"flags"`
	Timeout time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return defaultConfigFor(runtime.GOOS, runtime.GOARCH)
}

func defaultConfigFor(goos, goarch string) Config {
	cfg := Config{Driver: "cc", Timeout: defaultTimeout}
	if goos == "darwin" {
		switch goarch {
		case "amd64":
			cfg.Flags = []string{"-arch", "x86_64"}
		default:
			cfg.Flags = []string{"-arch", "arm64"}
		}
	}
	return cfg
}

// LoadConfig reads a YAML file over DefaultConfig. Fields missing from the
// file keep their defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading toolchain config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing toolchain config %s", path)
	}
	if cfg.Driver == "" {
		return Config{}, errors.Errorf("toolchain config %s: driver must not be empty", path)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg, nil
}

// WithEnv applies the EXPRC_CC override, if set, using lookup to read it.
func (c Config) WithEnv(lookup func(string) (string, bool)) (Config, error) {
	value, ok := lookup(EnvCC)
	if !ok || value == "" {
		return c, nil
	}
	words, err := shellquote.Split(value)
	if err != nil {
		return Config{}, errors.Wrapf(err, "parsing %s", EnvCC)
	}
	if len(words) == 0 {
		return c, nil
	}
	c.Driver = words[0]
	c.Flags = words[1:]
	return c, nil
}

// Runner builds and runs programs. Build writes into WorkDir.
type Runner struct {
	Config  Config
	WorkDir string
}

func NewRunner(cfg Config, workDir string) *Runner {
	return &Runner{Config: cfg, WorkDir: workDir}
}

// BuildCommand returns the driver invocation that turns <name>.s into <name>.
func (r *Runner) BuildCommand(name string) []string {
	src := filepath.Join(r.WorkDir, name+".s")
	bin := filepath.Join(r.WorkDir, name)
	args := []string{r.Config.Driver}
	args = append(args, r.Config.Flags...)
	return append(args, "-o", bin, src)
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Config.Timeout)
}

// Build writes assembly to <WorkDir>/<name>.s and links it into an
// executable. It returns the executable's path.
func (r *Runner) Build(ctx context.Context, assembly []byte, name string) (string, error) {
	src := filepath.Join(r.WorkDir, name+".s")
	if err := os.WriteFile(src, assembly, 0o644); err != nil {
		return "", errors.Wrap(err, "writing assembly")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	argv := r.BuildCommand(name)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", errors.Wrapf(err, "%s failed: %s", shellquote.Join(argv...), output)
	}
	return filepath.Join(r.WorkDir, name), nil
}

// Run executes bin and returns its exit status. A non-zero status is not an
// error; failing to start or being killed is.
func (r *Runner) Run(ctx context.Context, bin string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin)
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return 0, errors.Wrapf(err, "running %s", bin)
}

// Execute builds and runs a compiled expression in a scratch directory that
// is removed afterwards.
func (r *Runner) Execute(ctx context.Context, result *compiler.Result) (int, error) {
	dir, err := os.MkdirTemp(r.WorkDir, "exprc-")
	if err != nil {
		return 0, errors.Wrap(err, "creating work directory")
	}
	defer os.RemoveAll(dir)

	scratch := &Runner{Config: r.Config, WorkDir: dir}
	bin, err := scratch.Build(ctx, result.Assembly, "main")
	if err != nil {
		return 0, err
	}
	return scratch.Run(ctx, bin)
}
