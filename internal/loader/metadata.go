package loader

import (
	"runtime"
)

// CallingStackMetadata accompanies every lifecycle notification. Cause is
// nil for success notifications and set for failure and retry ones.
type CallingStackMetadata struct {
	// Frame is the loader function that dispatched the notification.
	Frame     runtime.Frame
	Criterion Criterion
	Cause     error
}

// newMetadata captures the caller of the dispatch helper that calls it.
func newMetadata(criterion Criterion, cause error) CallingStackMetadata {
	pcs := make([]uintptr, 1)
	// Skip runtime.Callers, newMetadata and the dispatch helper.
	runtime.Callers(3, pcs)
	frame, _ := runtime.CallersFrames(pcs).Next()
	return CallingStackMetadata{Frame: frame, Criterion: criterion, Cause: cause}
}
