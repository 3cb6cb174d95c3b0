package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rectifier/rectify/pkg/remote"
)

type createCall struct {
	Name     string
	ParentID string
	ID       string
}

type uploadCall struct {
	Object remote.Object
	Body   string
}

// fakeStorage records calls and tracks the peak number of concurrent uploads.
type fakeStorage struct {
	delay      time.Duration
	failUpload map[string]bool
	failCreate map[string]bool

	mu      sync.Mutex
	seq     int
	creates []createCall
	uploads []uploadCall
	preflt  int

	inFlight atomic.Int64
	peak     atomic.Int64
}

var _ remote.Storage = (*fakeStorage)(nil)

var errSimulated = errors.New("simulated network error")

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		failUpload: map[string]bool{},
		failCreate: map[string]bool{},
	}
}

func (f *fakeStorage) Preflight(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.preflt++

	return nil
}

func (f *fakeStorage) CreateContainer(_ context.Context, name, parentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreate[name] {
		return "", errSimulated
	}

	f.seq++
	id := fmt.Sprintf("container-%d", f.seq)
	f.creates = append(f.creates, createCall{Name: name, ParentID: parentID, ID: id})

	return id, nil
}

func (f *fakeStorage) Upload(_ context.Context, obj remote.Object, body io.Reader) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.uploads = append(f.uploads, uploadCall{Object: obj, Body: string(b)})

	if f.failUpload[obj.Name] {
		return "", errSimulated
	}

	f.seq++

	return fmt.Sprintf("file-%d", f.seq), nil
}

func (f *fakeStorage) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.creates) + len(f.uploads) + f.preflt
}

// uploadedNames returns the names of all attempted uploads.
func (f *fakeStorage) uploadedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.uploads))
	for _, u := range f.uploads {
		names = append(names, u.Object.Name)
	}

	return names
}

// recordingReporter collects progress events.
type recordingReporter struct {
	mu         sync.Mutex
	processing []string
	uploaded   []string
	failed     []string
	skipped    []string
	containers []string
}

func (r *recordingReporter) ContainerCreated(path, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers = append(r.containers, path)
}

func (r *recordingReporter) Processing(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processing = append(r.processing, path)
}

func (r *recordingReporter) Uploaded(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploaded = append(r.uploaded, path)
}

func (r *recordingReporter) UploadFailed(path string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, path)
}

func (r *recordingReporter) Skipped(path string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, path)
}
