package toolchain

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iley/exprc/internal/codegen"
	"github.com/iley/exprc/internal/compiler"
)

func TestDefaultConfig(t *testing.T) {
	linux := defaultConfigFor("linux", "amd64")
	assert.Equal(t, "cc", linux.Driver)
	assert.Empty(t, linux.Flags)
	assert.Equal(t, defaultTimeout, linux.Timeout)

	assert.Equal(t, []string{"-arch", "arm64"}, defaultConfigFor("darwin", "arm64").Flags)
	assert.Equal(t, []string{"-arch", "x86_64"}, defaultConfigFor("darwin", "amd64").Flags)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolchain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: clang\nflags: [--target=aarch64-linux-gnu, -static]\ntimeout: 5s\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Driver:  "clang",
		Flags:   []string{"--target=aarch64-linux-gnu", "-static"},
		Timeout: 5 * time.Second,
	}, cfg)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolchain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: gcc\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gcc", cfg.Driver)
	assert.Equal(t, DefaultConfig().Flags, cfg.Flags)
	assert.Equal(t, defaultTimeout, cfg.Timeout)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("driver: [\n"), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty-driver.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("driver: \"\"\n"), 0o644))
	_, err = LoadConfig(empty)
	assert.Error(t, err)
}

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestWithEnv(t *testing.T) {
	base := Config{Driver: "cc", Timeout: time.Second}

	cfg, err := base.WithEnv(env(nil))
	require.NoError(t, err)
	assert.Equal(t, base, cfg)

	cfg, err = base.WithEnv(env(map[string]string{EnvCC: `zig cc -target "x86_64-linux-musl"`}))
	require.NoError(t, err)
	assert.Equal(t, "zig", cfg.Driver)
	assert.Equal(t, []string{"cc", "-target", "x86_64-linux-musl"}, cfg.Flags)
	assert.Equal(t, time.Second, cfg.Timeout)

	_, err = base.WithEnv(env(map[string]string{EnvCC: `cc "unterminated`}))
	assert.Error(t, err)
}

func TestBuildCommand(t *testing.T) {
	r := NewRunner(Config{Driver: "cc", Flags: []string{"-arch", "arm64"}}, "/work")
	assert.Equal(t, []string{"cc", "-arch", "arm64", "-o", "/work/case", "/work/case.s"}, r.BuildCommand("case"))
}

func TestBuildFailure(t *testing.T) {
	r := NewRunner(Config{Driver: "false", Timeout: time.Second}, t.TempDir())
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false(1) not available")
	}
	_, err := r.Build(context.Background(), []byte("garbage\n"), "broken")
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("no C compiler driver available")
	}
	var target codegen.Target
	switch {
	case runtime.GOOS == "linux" && runtime.GOARCH == "amd64":
		target = codegen.TargetX86_64Linux
	case runtime.GOOS == "linux" && runtime.GOARCH == "arm64":
		target = codegen.TargetAARCH64Linux
	case runtime.GOOS == "darwin" && runtime.GOARCH == "arm64":
		target = codegen.TargetAARCH64Darwin
	default:
		t.Skipf("no native target for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	tests := []struct {
		input    string
		expected int
	}{
		{"42", 42},
		{"5+20-4", 21},
		{"5+6*7", 47},
		{"-3+5", 2},
		{"2>=2", 1},
		{"300", 44},
	}

	runner := NewRunner(DefaultConfig(), t.TempDir())
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := compiler.Compile(tt.input, compiler.Options{Target: target})
			require.NoError(t, err)
			status, err := runner.Execute(context.Background(), result)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}
