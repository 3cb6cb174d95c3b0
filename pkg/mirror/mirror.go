// Package mirror recreates a local directory tree inside a remote storage
// backend. Subdirectories become remote containers (created before anything
// is placed in them) and files are uploaded through a concurrency gate shared
// by the whole tree.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/rectifier/rectify/pkg/remote"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the number of uploads allowed in flight at once.
const DefaultConcurrency = 4

var (
	// ErrNotDirectory is returned when the local root is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	errSpecialFile = errors.New("not a regular file or directory")
	errSymlinkLoop = errors.New("symlink points to an ancestor directory")
)

// Builder mirrors local directories into a remote.Storage. The upload gate
// is created with the Builder and shared by every Mirror call and every
// recursion level.
type Builder struct {
	log      logrus.FieldLogger
	fs       billy.Filesystem
	store    remote.Storage
	gate     *semaphore.Weighted
	reporter Reporter
	stats    counters
}

// Option configures a Builder.
type Option func(*Builder)

// WithConcurrency sets the number of uploads allowed in flight at once.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.gate = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithReporter sets the receiver of per-entry progress.
func WithReporter(r Reporter) Option {
	return func(b *Builder) {
		if r != nil {
			b.reporter = r
		}
	}
}

// New creates a Builder reading from fs and writing to store.
func New(
	log logrus.FieldLogger,
	fs billy.Filesystem,
	store remote.Storage,
	opts ...Option,
) *Builder {
	b := &Builder{
		log:      log.WithField("component", "mirror"),
		fs:       fs,
		store:    store,
		gate:     semaphore.NewWeighted(DefaultConcurrency),
		reporter: NopReporter{},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Mirror recreates the contents of localPath inside containerID. It returns
// once every entry has been created, uploaded or failed. Upload failures are
// reported and counted but do not fail the call; failures to list a directory
// or create a container do.
func (b *Builder) Mirror(ctx context.Context, localPath, containerID string) error {
	if containerID == "" {
		return remote.ErrEmptyContainerID
	}

	info, err := b.fs.Stat(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", localPath, ErrNotDirectory)
	}

	b.log.WithFields(logrus.Fields{
		"path":      localPath,
		"container": containerID,
	}).Debug("Mirroring directory tree")

	return b.mirror(ctx, localPath, containerID, []os.FileInfo{info})
}

// Summary returns the totals accumulated by all Mirror calls so far.
func (b *Builder) Summary() Summary {
	return b.stats.snapshot()
}

// mirror processes one directory level. Every entry is scheduled into a group
// local to this level before any of them is awaited. ancestors holds the
// resolved directories from the root down to dir.
func (b *Builder) mirror(
	ctx context.Context,
	dir, containerID string,
	ancestors []os.FileInfo,
) error {
	entries, err := b.fs.ReadDir(dir)
	if err != nil {
		if len(ancestors) > 1 && errors.Is(err, os.ErrPermission) {
			b.skip(dir, err)

			return nil
		}

		return fmt.Errorf("listing %s: %w", dir, err)
	}

	var g errgroup.Group

	for _, entry := range entries {
		p := b.fs.Join(dir, entry.Name())

		info, err := b.resolve(p, entry, ancestors)
		if err != nil {
			b.skip(p, err)

			continue
		}

		if info.IsDir() {
			childID, err := b.store.CreateContainer(ctx, entry.Name(), containerID)
			if err != nil {
				err = fmt.Errorf("creating container for %s: %w", p, err)

				// Work already scheduled at this level still runs to completion.
				return errors.Join(err, g.Wait())
			}

			b.stats.containers.Add(1)
			b.reporter.ContainerCreated(p, childID)

			chain := append(slices.Clip(ancestors), info)

			g.Go(func() error {
				return b.mirror(ctx, p, childID, chain)
			})

			continue
		}

		task := uploadTask{
			path:     p,
			name:     entry.Name(),
			parentID: containerID,
			size:     info.Size(),
			convert:  remote.Convertible(entry.Name()),
		}

		g.Go(func() error {
			b.upload(ctx, task)

			return nil
		})
	}

	return g.Wait()
}

// resolve follows symlinks and rejects anything that is neither a regular
// file nor a directory, as well as links back into the current path.
func (b *Builder) resolve(p string, entry os.FileInfo, ancestors []os.FileInfo) (os.FileInfo, error) {
	info := entry

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := b.fs.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("resolving symlink: %w", err)
		}

		if target.IsDir() && slices.ContainsFunc(ancestors, func(a os.FileInfo) bool {
			return os.SameFile(a, target)
		}) {
			return nil, errSymlinkLoop
		}

		info = target
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", info.Mode().Type(), errSpecialFile)
	}

	return info, nil
}

func (b *Builder) skip(p string, err error) {
	b.stats.skipped.Add(1)
	b.log.WithError(err).WithField("path", p).Warn("Skipping entry")
	b.reporter.Skipped(p, err)
}
