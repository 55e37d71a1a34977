package platform

import (
	"golang.org/x/sys/cpu"
)

// runtimeFeatures lists the extensions golang.org/x/sys/cpu detected for
// the running process. Names follow the Linux /proc/cpuinfo spelling.
func runtimeFeatures() []string {
	var names []string
	add := func(present bool, name string) {
		if present {
			names = append(names, name)
		}
	}

	add(cpu.X86.HasAES, "aes")
	add(cpu.X86.HasADX, "adx")
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.X86.HasBMI1, "bmi1")
	add(cpu.X86.HasBMI2, "bmi2")
	add(cpu.X86.HasERMS, "erms")
	add(cpu.X86.HasFMA, "fma")
	add(cpu.X86.HasOSXSAVE, "osxsave")
	add(cpu.X86.HasPCLMULQDQ, "pclmulqdq")
	add(cpu.X86.HasPOPCNT, "popcnt")
	add(cpu.X86.HasRDRAND, "rdrand")
	add(cpu.X86.HasRDSEED, "rdseed")
	add(cpu.X86.HasSSE2, "sse2")
	add(cpu.X86.HasSSE3, "sse3")
	add(cpu.X86.HasSSSE3, "ssse3")
	add(cpu.X86.HasSSE41, "sse4_1")
	add(cpu.X86.HasSSE42, "sse4_2")

	add(cpu.ARM64.HasFP, "fp")
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasAES, "aes")
	add(cpu.ARM64.HasPMULL, "pmull")
	add(cpu.ARM64.HasSHA1, "sha1")
	add(cpu.ARM64.HasSHA2, "sha2")
	add(cpu.ARM64.HasCRC32, "crc32")
	add(cpu.ARM64.HasATOMICS, "atomics")

	return names
}
