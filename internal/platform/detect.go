package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect performs platform detection and returns platform information.
// It uses runtime.GOOS and runtime.GOARCH for OS and architecture,
// and gopsutil for the kernel architecture and Linux distribution details.
//
// Detection failures other than context cancellation are not fatal:
// distro fields stay empty and ArchRaw falls back to GOARCH.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      runtime.GOOS,
		Arch:    normalizeArch(runtime.GOARCH),
		ArchRaw: runtime.GOARCH,
	}

	if kernelArch, err := host.KernelArch(); err == nil && kernelArch != "" {
		info.ArchRaw = kernelArch
	}

	// Detect Linux distribution details using gopsutil (Linux only)
	if runtime.GOOS == "linux" {
		platform, family, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			// Check if context was cancelled - this is a hard failure
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			return info, nil
		}

		platform = normalizePlatform(platform)
		family = mapFamily(family)
		version = normalizePlatform(version)

		// Only set fields if we got valid data
		if platform != "" {
			info.Platform = platform
			info.Family = family
			info.Version = version
		}
	}

	return info, nil
}
