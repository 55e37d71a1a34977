package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable creates a read-only platform table and injects it into the Lua state as a global.
// This should be called before loading any manifest code.
func InjectPlatformTable(L *lua.LState, host *Host) error {
	info := host.Info()
	platformTable := L.NewTable()

	// Basic OS and architecture
	L.SetField(platformTable, "os", lua.LString(info.OS))
	L.SetField(platformTable, "arch", lua.LString(info.Arch))
	L.SetField(platformTable, "arch_raw", lua.LString(info.ArchRaw))

	// OS booleans
	L.SetField(platformTable, "is_linux", lua.LBool(info.IsLinux()))
	L.SetField(platformTable, "is_macos", lua.LBool(info.IsMacOS()))
	L.SetField(platformTable, "is_windows", lua.LBool(info.IsWindows()))
	L.SetField(platformTable, "is_android", lua.LBool(info.IsAndroid()))
	L.SetField(platformTable, "is_desktop", lua.LBool(info.IsDesktop()))

	// Architecture booleans
	L.SetField(platformTable, "is_x86", lua.LBool(info.IsX86()))
	L.SetField(platformTable, "is_amd64", lua.LBool(info.IsAMD64()))
	L.SetField(platformTable, "is_arm", lua.LBool(info.IsARM()))
	L.SetField(platformTable, "is_arm64", lua.LBool(info.IsARM64()))
	L.SetField(platformTable, "is_riscv", lua.LBool(info.IsRiscV()))
	L.SetField(platformTable, "is_64", lua.LBool(info.Is64()))
	L.SetField(platformTable, "is_apple_silicon", lua.LBool(info.IsAppleSilicon()))
	L.SetField(platformTable, "is_ppc", lua.LBool(info.IsPPC()))
	L.SetField(platformTable, "is_ppc64le", lua.LBool(info.IsPPC64LE()))
	L.SetField(platformTable, "is_s390", lua.LBool(info.IsS390()))
	L.SetField(platformTable, "is_sparc", lua.LBool(info.IsSparc()))

	// Standard targets, e.g. platform.linux_x86_64
	for _, t := range Targets() {
		L.SetField(platformTable, t.String(), lua.LBool(host.Target(t).Evaluate()))
	}

	// Linux distribution (nil on non-Linux)
	if distro := info.GetDistro(); distro != nil {
		distroTable := L.NewTable()
		L.SetField(distroTable, "id", lua.LString(distro.ID))
		L.SetField(distroTable, "family", lua.LString(distro.Family))
		L.SetField(distroTable, "version", lua.LString(distro.Version))
		L.SetField(platformTable, "distro", distroTable)
	} else {
		L.SetField(platformTable, "distro", lua.LNil)
	}

	// Family booleans, e.g. platform.is_alpine to pick a musl build
	L.SetField(platformTable, "is_debian_family", lua.LBool(info.IsDebianFamily()))
	L.SetField(platformTable, "is_rhel_family", lua.LBool(info.IsRHELFamily()))
	L.SetField(platformTable, "is_alpine", lua.LBool(info.IsAlpine()))

	// has_extensions("avx", "avx2", ...) -> bool
	L.SetField(platformTable, "has_extensions", L.NewFunction(func(L *lua.LState) int {
		names := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			names = append(names, L.CheckString(i))
		}
		L.Push(lua.LBool(host.HasExtensions(names...)))
		return 1
	}))

	// Helper function: when(condition, value)
	// Returns value if condition is true, nil otherwise
	L.SetField(platformTable, "when", L.NewFunction(func(L *lua.LState) int {
		cond := L.CheckBool(1)
		value := L.Get(2)
		if cond {
			L.Push(value)
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))

	L.SetGlobal("platform", makeReadOnly(L, platformTable))

	return nil
}

// makeReadOnly makes a Lua table read-only by creating a proxy table with a metatable.
// The proxy redirects reads to the original table but prevents all writes.
func makeReadOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()

	L.SetField(mt, "__index", table)

	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))

	// Prevent changing the metatable itself
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)

	return proxy
}
