package extract

// LocalizingListener observes the lookup of an entry inside an archive.
type LocalizingListener interface {
	OnLocalizationSuccess(l *Locator)
	OnLocalizationFailure(l *Locator, err error)
}

// Listener observes an extraction attempt. Exactly one of
// OnExtractionCompleted or OnExtractionFailure fires per attempt, then
// OnExtractionFinalization fires once.
type Listener interface {
	OnExtractionCompleted(e *Extractor)
	OnExtractionFailure(e *Extractor, err error)
	OnExtractionFinalization(e *Extractor, l *Locator)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Completed    func(e *Extractor)
	Failure      func(e *Extractor, err error)
	Finalization func(e *Extractor, l *Locator)
}

func (f ListenerFuncs) OnExtractionCompleted(e *Extractor) {
	if f.Completed != nil {
		f.Completed(e)
	}
}

func (f ListenerFuncs) OnExtractionFailure(e *Extractor, err error) {
	if f.Failure != nil {
		f.Failure(e, err)
	}
}

func (f ListenerFuncs) OnExtractionFinalization(e *Extractor, l *Locator) {
	if f.Finalization != nil {
		f.Finalization(e, l)
	}
}

// LocalizingListenerFuncs adapts plain functions to LocalizingListener.
type LocalizingListenerFuncs struct {
	Success func(l *Locator)
	Failure func(l *Locator, err error)
}

func (f LocalizingListenerFuncs) OnLocalizationSuccess(l *Locator) {
	if f.Success != nil {
		f.Success(l)
	}
}

func (f LocalizingListenerFuncs) OnLocalizationFailure(l *Locator, err error) {
	if f.Failure != nil {
		f.Failure(l, err)
	}
}
