package mirror

import (
	"context"
	"fmt"

	"github.com/rectifier/rectify/pkg/remote"
	"github.com/sirupsen/logrus"
)

// uploadTask binds one local file to the container it is uploaded into.
type uploadTask struct {
	path     string
	name     string
	parentID string
	size     int64
	convert  bool
}

// upload runs t once a gate slot is free. Any failure is reported and
// swallowed so that sibling tasks are unaffected.
func (b *Builder) upload(ctx context.Context, t uploadTask) {
	if err := b.gate.Acquire(ctx, 1); err != nil {
		b.uploadFailed(t, fmt.Errorf("waiting for upload slot: %w", err))

		return
	}
	defer b.gate.Release(1)

	b.reporter.Processing(t.path)

	id, err := b.uploadFile(ctx, t)
	if err != nil {
		b.uploadFailed(t, err)

		return
	}

	b.stats.uploaded.Add(1)
	b.stats.bytes.Add(t.size)

	b.log.WithFields(logrus.Fields{
		"path":   t.path,
		"parent": t.parentID,
		"id":     id,
	}).Debug("Uploaded file")

	b.reporter.Uploaded(t.path)
}

// uploadFile streams the file at t.path to the store.
func (b *Builder) uploadFile(ctx context.Context, t uploadTask) (string, error) {
	f, err := b.fs.Open(t.path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = f.Close() }()

	obj := remote.Object{
		Name:     t.name,
		ParentID: t.parentID,
	}

	if t.convert {
		if conv, ok := remote.ConversionFor(t.name); ok {
			obj.Conversion = &conv
		}
	}

	id, err := b.store.Upload(ctx, obj, f)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (b *Builder) uploadFailed(t uploadTask, err error) {
	b.stats.failed.Add(1)

	fields := logrus.Fields{
		"path":   t.path,
		"parent": t.parentID,
	}

	if code := remote.StatusCode(err); code != 0 {
		fields["status"] = code
	}

	b.log.WithError(err).WithFields(fields).Warn("Failed to upload file")
	b.reporter.UploadFailed(t.path, err)
}
