package platform

import (
	"strings"
)

// familyMap maps distribution names to their canonical family names.
// This is used to normalize variations of family strings from gopsutil.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// archAliases maps kernel/uname architecture spellings to GOARCH names.
var archAliases = map[string]string{
	"x86_64":  "amd64",
	"x64":     "amd64",
	"amd64":   "amd64",
	"i386":    "386",
	"i686":    "386",
	"x86":     "386",
	"386":     "386",
	"aarch64": "arm64",
	"arm64":   "arm64",
	"armv7l":  "arm",
	"armv6l":  "arm",
	"arm":     "arm",
	"riscv64": "riscv64",
	"ppc64le": "ppc64le",
	"ppc64":   "ppc64",
	"s390x":   "s390x",
}

// normalizeArch converts architecture spellings to GOARCH-style names.
// Unknown architectures are passed through lower-cased so that string
// predicates still have something to match against.
func normalizeArch(arch string) string {
	normalized := strings.ToLower(strings.TrimSpace(arch))
	if canonical, ok := archAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
// Uses a package-level lookup table for explicit mapping.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}

	// Return "unknown" for unrecognized families
	return FamilyUnknown
}
