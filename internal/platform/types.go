// Package platform provides host detection for native library selection.
//
// It detects OS, architecture, Linux distribution details and the CPU
// instruction-set extensions of the running machine, and turns them into
// immutable predicates that decide which packaged native binary variant
// applies. The package uses gopsutil for distribution and CPU flag
// detection with golang.org/x/sys/cpu as a fallback, and can expose the
// same information as a read-only table to Lua manifests.
package platform

import (
	"context"
	"strings"
)

// Linux distribution family constants.
// These represent canonical family names for grouping related distributions.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows", "android", ...
	Arch     string // normalized GOARCH ("amd64", "386", "arm64", "arm", "riscv64", ...)
	ArchRaw  string // architecture as reported by the host (e.g., "x86_64", "aarch64")
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Family   string // canonical family (e.g., "debian", "rhel", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Distro contains Linux distribution information.
// This is nil on non-Linux platforms.
type Distro struct {
	ID      string // distro ID (e.g., "ubuntu")
	Family  string // canonical family (e.g., "debian")
	Version string // version (e.g., "22.04")
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is desktop/server Linux.
// Android reports its own OS and is not Linux for selection purposes.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsAndroid returns true if the platform is Android.
func (i *Info) IsAndroid() bool {
	return i.OS == "android"
}

// IsDesktop returns true for operating systems where libraries are loaded
// from a configurable list of system directories.
func (i *Info) IsDesktop() bool {
	switch i.OS {
	case "linux", "darwin", "windows", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos":
		return true
	default:
		return false
	}
}

// IsX86 returns true for the x86 family (32 and 64 bit).
func (i *Info) IsX86() bool {
	return i.Arch == "386" || i.Arch == "amd64"
}

// IsAMD64 returns true if the architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == "amd64"
}

// IsARM returns true for the ARM family (32 and 64 bit).
func (i *Info) IsARM() bool {
	return i.Arch == "arm" || i.Arch == "arm64"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// IsRiscV returns true for RISC-V architectures.
func (i *Info) IsRiscV() bool {
	return strings.HasPrefix(i.Arch, "riscv")
}

// IsPPC returns true for PowerPC architectures.
func (i *Info) IsPPC() bool {
	return strings.HasPrefix(i.Arch, "ppc")
}

// IsPPC64LE returns true for little-endian 64-bit PowerPC.
func (i *Info) IsPPC64LE() bool {
	return i.Arch == "ppc64le"
}

// IsS390 returns true for IBM Z architectures.
func (i *Info) IsS390() bool {
	return strings.HasPrefix(i.Arch, "s390")
}

// IsSparc returns true for SPARC architectures.
func (i *Info) IsSparc() bool {
	return strings.HasPrefix(i.Arch, "sparc")
}

// Is64 returns true if the architecture has a 64-bit word size.
func (i *Info) Is64() bool {
	return strings.Contains(i.Arch, "64") || i.Arch == "s390x"
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + arm64).
func (i *Info) IsAppleSilicon() bool {
	return i.OS == "darwin" && i.Arch == "arm64"
}

// IsDebianFamily returns true if the Linux distribution is Debian-based.
func (i *Info) IsDebianFamily() bool {
	return i.OS == "linux" && i.Family == FamilyDebian
}

// IsRHELFamily returns true if the Linux distribution is RHEL-based.
func (i *Info) IsRHELFamily() bool {
	return i.OS == "linux" && i.Family == FamilyRHEL
}

// IsAlpine returns true if the Linux distribution is Alpine (musl libc).
func (i *Info) IsAlpine() bool {
	return i.OS == "linux" && i.Family == FamilyAlpine
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
