package codegen

import (
	"fmt"
	"io"
	"runtime"

	"github.com/iley/exprc/internal/ast"
	"github.com/iley/exprc/internal/codegen/aarch64_darwin"
	"github.com/iley/exprc/internal/codegen/aarch64_linux"
	"github.com/iley/exprc/internal/codegen/asm"
	"github.com/iley/exprc/internal/codegen/common"
	"github.com/iley/exprc/internal/codegen/x86_64_linux"
)

type Target int

const (
	TargetX86_64Linux Target = iota
	TargetAARCH64Linux
	TargetAARCH64Darwin
)

var targetNames = map[Target]string{
	TargetX86_64Linux:   "x86_64-linux",
	TargetAARCH64Linux:  "aarch64-linux",
	TargetAARCH64Darwin: "aarch64-darwin",
}

// Targets lists every supported target in a stable order.
func Targets() []Target {
	return []Target{TargetX86_64Linux, TargetAARCH64Linux, TargetAARCH64Darwin}
}

func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// Arch is the instruction set the target's programs are written in.
func (t Target) Arch() asm.Arch {
	if t == TargetX86_64Linux {
		return asm.ArchX86_64
	}
	return asm.ArchAArch64
}

func TargetFromName(name string) (Target, error) {
	switch name {
	case "x86_64-linux", "amd64-linux":
		return TargetX86_64Linux, nil
	case "aarch64-linux", "arm64-linux":
		return TargetAARCH64Linux, nil
	case "aarch64-darwin", "arm64-darwin":
		return TargetAARCH64Darwin, nil
	}
	return 0, fmt.Errorf("unknown target: %s", name)
}

func DefaultTarget() Target {
	return defaultTargetFor(runtime.GOOS, runtime.GOARCH)
}

func defaultTargetFor(goos, goarch string) Target {
	if goos == "darwin" {
		return TargetAARCH64Darwin
	}
	if goarch == "arm64" {
		return TargetAARCH64Linux
	}
	return TargetX86_64Linux
}

func codeGeneratorFor(target Target) (common.CodeGenerator, error) {
	switch target {
	case TargetX86_64Linux:
		return &x86_64_linux.CodeGenerator{}, nil
	case TargetAARCH64Linux:
		return &aarch64_linux.CodeGenerator{}, nil
	case TargetAARCH64Darwin:
		return &aarch64_darwin.CodeGenerator{}, nil
	}
	return nil, fmt.Errorf("unknown target: %v", target)
}

// Lower translates the tree into the target's instruction list without
// formatting it.
func Lower(target Target, node ast.Node) (asm.Program, error) {
	cg, err := codeGeneratorFor(target)
	if err != nil {
		return asm.Program{}, err
	}
	return cg.Generate(node), nil
}

// Format renders a lowered program as assembly text for target.
func Format(out io.Writer, target Target, p asm.Program) error {
	cg, err := codeGeneratorFor(target)
	if err != nil {
		return err
	}
	cg.Format(out, p)
	return nil
}

func Generate(out io.Writer, target Target, node ast.Node) error {
	cg, err := codeGeneratorFor(target)
	if err != nil {
		return err
	}
	cg.Format(out, cg.Generate(node))
	return nil
}
