package platform_test

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
)

func ExampleHost_Require() {
	host := platform.NewHost(&platform.Info{OS: "linux", Arch: "amd64"}, platform.StaticFeatures("avx", "avx2", "fma"))

	general := host.Target(platform.LinuxX86_64)
	withFMA := host.Require(general, "avx2", "fma")
	withAVX512 := host.Require(general, "avx512f")

	fmt.Println(general.Evaluate(), withFMA.Evaluate(), withAVX512.Evaluate())
	// Output: true true false
}

func ExampleFeatures_Has() {
	features := platform.StaticFeatures("PF_AVX2_INSTRUCTIONS_AVAILABLE")
	fmt.Println(features.Has("avx2"), features.Has())
	// Output: true true
}
