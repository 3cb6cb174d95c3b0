package mirror

// Reporter receives user-visible progress for each entry. Implementations
// must be safe for concurrent use.
type Reporter interface {
	ContainerCreated(path, id string)
	Processing(path string)
	Uploaded(path string)
	UploadFailed(path string, err error)
	Skipped(path string, err error)
}

// NopReporter discards all progress.
type NopReporter struct{}

// Ensure interface compliance.
var _ Reporter = NopReporter{}

func (NopReporter) ContainerCreated(string, string) {}
func (NopReporter) Processing(string)               {}
func (NopReporter) Uploaded(string)                 {}
func (NopReporter) UploadFailed(string, error)      {}
func (NopReporter) Skipped(string, error)           {}
