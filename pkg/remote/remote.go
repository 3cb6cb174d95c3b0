// Package remote provides the storage backends a local directory tree is
// mirrored into.
package remote

import (
	"context"
	"errors"
	"io"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"google.golang.org/api/googleapi"
)

var (
	// ErrEmptyContainerID is returned when a container id is required but empty.
	ErrEmptyContainerID = errors.New("container id is empty")

	// ErrNotContainer is returned by Preflight when the destination exists
	// but cannot hold children.
	ErrNotContainer = errors.New("destination is not a container")
)

// Storage is a hierarchical remote store that containers and blobs can be
// created in.
type Storage interface {
	// Preflight verifies that containerID is reachable and writable before
	// any work is scheduled against it.
	Preflight(ctx context.Context, containerID string) error

	// CreateContainer creates a new container called name under parentID and
	// returns its id. Every call creates a new node; existing containers with
	// the same name are not looked up.
	CreateContainer(ctx context.Context, name, parentID string) (string, error)

	// Upload streams body into a new blob described by obj and returns the
	// id assigned by the service.
	Upload(ctx context.Context, obj Object, body io.Reader) (string, error)
}

// Object describes a blob to create.
type Object struct {
	Name     string
	ParentID string

	// Conversion is nil when the blob is stored as-is.
	Conversion *Conversion
}

// StatusCode extracts the HTTP status code from a backend error, or 0 when
// the error did not come from an HTTP response.
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}

	var rerr *awshttp.ResponseError
	if errors.As(err, &rerr) {
		return rerr.HTTPStatusCode()
	}

	return 0
}
