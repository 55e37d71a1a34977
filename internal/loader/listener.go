package loader

// LoadingListener observes the loading state machine. Notifications are
// delivered synchronously on the goroutine that called LoadLibrary and may
// call back into the Loader they receive, for example to fall back to
// SystemLoad from OnLoadingFailure. The loader bounds only its own
// clean-extraction retries; escalation across criteria driven by a
// listener must be bounded by the listener.
type LoadingListener interface {
	OnLoadingSuccess(l *Loader, md CallingStackMetadata)
	OnLoadingFailure(l *Loader, md CallingStackMetadata)
	OnRetryCriterionExecution(l *Loader, md CallingStackMetadata)
}

// SystemDetectionListener observes platform selection.
type SystemDetectionListener interface {
	OnSystemFound(l *Loader, c *Candidate)
	OnSystemNotFound(l *Loader)
}

// LoadingListenerFuncs adapts plain functions to LoadingListener. Nil
// fields are skipped.
type LoadingListenerFuncs struct {
	Success func(l *Loader, md CallingStackMetadata)
	Failure func(l *Loader, md CallingStackMetadata)
	Retry   func(l *Loader, md CallingStackMetadata)
}

func (f LoadingListenerFuncs) OnLoadingSuccess(l *Loader, md CallingStackMetadata) {
	if f.Success != nil {
		f.Success(l, md)
	}
}

func (f LoadingListenerFuncs) OnLoadingFailure(l *Loader, md CallingStackMetadata) {
	if f.Failure != nil {
		f.Failure(l, md)
	}
}

func (f LoadingListenerFuncs) OnRetryCriterionExecution(l *Loader, md CallingStackMetadata) {
	if f.Retry != nil {
		f.Retry(l, md)
	}
}

// SystemDetectionListenerFuncs adapts plain functions to
// SystemDetectionListener.
type SystemDetectionListenerFuncs struct {
	Found    func(l *Loader, c *Candidate)
	NotFound func(l *Loader)
}

func (f SystemDetectionListenerFuncs) OnSystemFound(l *Loader, c *Candidate) {
	if f.Found != nil {
		f.Found(l, c)
	}
}

func (f SystemDetectionListenerFuncs) OnSystemNotFound(l *Loader) {
	if f.NotFound != nil {
		f.NotFound(l)
	}
}
