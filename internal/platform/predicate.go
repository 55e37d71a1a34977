package platform

import (
	"fmt"
)

// ExtensionChecker answers conjunctive extension queries.
type ExtensionChecker interface {
	HasExtensions(names ...string) bool
}

// Predicate is an immutable platform condition. Its value is fixed when the
// predicate is built; evaluating it later never re-queries the host.
type Predicate struct {
	value bool
}

// NewPredicate wraps a raw condition.
func NewPredicate(condition bool) Predicate {
	return Predicate{value: condition}
}

// Extend returns base AND "every extension is present". The result can
// only be true when base is true.
func Extend(base Predicate, checker ExtensionChecker, extensions ...string) Predicate {
	if !base.value {
		return Predicate{}
	}
	return Predicate{value: checker.HasExtensions(extensions...)}
}

// Evaluate returns the predicate's truth value.
func (p Predicate) Evaluate() bool {
	return p.value
}

// Target names one of the standard OS/CPU combinations.
type Target int

const (
	LinuxX86 Target = iota + 1
	LinuxX86_64
	LinuxARM32
	LinuxARM64
	LinuxRiscV32
	LinuxRiscV64
	MacOSX86
	MacOSX86_64
	MacOSARM32
	MacOSARM64
	WinX86
	WinX86_64
	WinARM32
	WinARM64
	WinRiscV32
	WinRiscV64
	Android
)

var targetNames = map[Target]string{
	LinuxX86:     "linux_x86",
	LinuxX86_64:  "linux_x86_64",
	LinuxARM32:   "linux_arm_32",
	LinuxARM64:   "linux_arm_64",
	LinuxRiscV32: "linux_risc_v_32",
	LinuxRiscV64: "linux_risc_v_64",
	MacOSX86:     "macos_x86",
	MacOSX86_64:  "macos_x86_64",
	MacOSARM32:   "macos_arm_32",
	MacOSARM64:   "macos_arm_64",
	WinX86:       "win_x86",
	WinX86_64:    "win_x86_64",
	WinARM32:     "win_arm_32",
	WinARM64:     "win_arm_64",
	WinRiscV32:   "win_risc_v_32",
	WinRiscV64:   "win_risc_v_64",
	Android:      "android",
}

// Targets lists every standard target in declaration order.
func Targets() []Target {
	targets := make([]Target, 0, len(targetNames))
	for t := LinuxX86; t <= Android; t++ {
		targets = append(targets, t)
	}
	return targets
}

// String returns the snake_case target name used in manifests.
func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// ParseTarget resolves a manifest target name.
func ParseTarget(name string) (Target, error) {
	for t, n := range targetNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown platform target: %q", name)
}

// matches evaluates the target against a platform identity. The 32-bit
// targets exclude 64-bit word sizes so that they never shadow the 64-bit
// variants regardless of registration order.
func (t Target) matches(i *Info) bool {
	desktopLinux := i.IsDesktop() && i.IsLinux()
	switch t {
	case LinuxX86:
		return desktopLinux && i.IsX86() && !i.Is64()
	case LinuxX86_64:
		return desktopLinux && i.IsAMD64()
	case LinuxARM32:
		return desktopLinux && i.IsARM() && !i.Is64()
	case LinuxARM64:
		return desktopLinux && i.IsARM() && i.Is64()
	case LinuxRiscV32:
		return i.IsLinux() && i.IsRiscV() && !i.Is64()
	case LinuxRiscV64:
		return i.IsLinux() && i.IsRiscV() && i.Is64()
	case MacOSX86:
		return i.IsMacOS() && i.IsX86() && !i.Is64()
	case MacOSX86_64:
		return i.IsMacOS() && i.IsX86() && i.Is64()
	case MacOSARM32:
		return i.IsMacOS() && i.IsARM() && !i.Is64()
	case MacOSARM64:
		return i.IsMacOS() && i.IsARM() && i.Is64()
	case WinX86:
		return i.IsWindows() && i.IsX86() && !i.Is64()
	case WinX86_64:
		return i.IsWindows() && i.IsAMD64()
	case WinARM32:
		return i.IsWindows() && i.IsARM() && !i.Is64()
	case WinARM64:
		return i.IsWindows() && i.IsARM() && i.Is64()
	case WinRiscV32:
		return i.IsWindows() && i.IsRiscV() && !i.Is64()
	case WinRiscV64:
		return i.IsWindows() && i.IsRiscV() && i.Is64()
	case Android:
		return i.IsAndroid()
	default:
		return false
	}
}
