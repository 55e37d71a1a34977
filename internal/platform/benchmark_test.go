package platform

import "testing"

func BenchmarkFeatures_Has(b *testing.B) {
	features := StaticFeatures("avx", "avx2", "bmi1", "f16c", "fma", "sse4_1", "sse4_2")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = features.Has("avx", "avx2", "bmi1", "f16c", "fma", "sse4_1", "sse4_2")
	}
}

func BenchmarkNormalizeArch(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = normalizeArch("x86_64")
	}
}

func BenchmarkTarget(b *testing.B) {
	host := NewHost(&Info{OS: "linux", Arch: "amd64"}, StaticFeatures())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = host.Target(LinuxX86_64)
	}
}
