// Package manifest reads declarative descriptions of a packaged native
// library: where the archive lives, how the loader is configured, and the
// ordered candidate variants with the platform each one targets.
//
// # Lua manifests
//
// Lua manifests run in a sandboxed gopher-lua VM with a read-only
// "platform" table describing the host. They assign a global "nativeload"
// table:
//
//	nativeload = {
//	    library = {
//	        base_name      = "foo",
//	        compressed_dir = "natives",
//	        extraction_dir = "build/natives",
//	        archive        = "natives.jar",
//	    },
//	    options = {
//	        logging                     = true,
//	        retry_with_clean_extraction = true,
//	        max_loading_failures        = 2,
//	        criterion                   = "incremental",
//	    },
//	    enhanced = {
//	        { path = "linux/x86-64-fma", target = "linux_x86_64", extensions = { "avx2", "fma" } },
//	    },
//	    candidates = {
//	        { path = "linux/x86-64-musl", target = "linux_x86_64", when = platform.is_alpine },
//	        { path = "linux/x86-64", when = platform.linux_x86_64 },
//	        { path = "macos/arm64",  when = platform.macos_arm_64 },
//	    },
//	}
//
// A candidate names its target either by "target" (a standard target name
// such as "win_x86_64") or by "when" (any boolean computed in Lua), or
// both, in which case both must hold.
//
// # YAML manifests
//
// YAML manifests carry the same keys without Lua evaluation, so candidates
// use "target" only.
//
// Candidate order is significant in both formats: the loader binds the
// first candidate that matches, so list specific variants before the
// general ones they refine.
package manifest
