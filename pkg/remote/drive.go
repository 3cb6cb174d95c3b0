package remote

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// driveStorage implements Storage on top of the Google Drive v3 API.
type driveStorage struct {
	log logrus.FieldLogger
	svc *drive.Service
}

// Ensure interface compliance.
var _ Storage = (*driveStorage)(nil)

// NewDrive authenticates with the service account key in credentialsFile
// using full Drive scope and returns a Drive backed Storage.
func NewDrive(
	ctx context.Context,
	log logrus.FieldLogger,
	credentialsFile string,
) (Storage, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	cfg, err := google.JWTConfigFromJSON(b, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file %s: %w", credentialsFile, err)
	}

	svc, err := drive.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	log.WithField("account", cfg.Email).Debug("Authenticated with service account")

	return NewDriveFromService(log, svc), nil
}

// NewDriveFromService wraps an already configured Drive service.
func NewDriveFromService(log logrus.FieldLogger, svc *drive.Service) Storage {
	return &driveStorage{
		log: log.WithField("component", "drive"),
		svc: svc,
	}
}

// Preflight checks that containerID names an accessible folder.
func (d *driveStorage) Preflight(ctx context.Context, containerID string) error {
	if containerID == "" {
		return ErrEmptyContainerID
	}

	f, err := d.svc.Files.Get(containerID).
		Fields("id", "name", "mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("looking up folder %s: %w", containerID, err)
	}

	if f.MimeType != MediaTypeFolder {
		return fmt.Errorf("%s (%s): %w", containerID, f.MimeType, ErrNotContainer)
	}

	d.log.WithFields(logrus.Fields{
		"folder_id": f.Id,
		"name":      f.Name,
	}).Debug("Destination folder verified")

	return nil
}

// CreateContainer creates a folder under parentID.
func (d *driveStorage) CreateContainer(
	ctx context.Context, name, parentID string,
) (string, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: MediaTypeFolder,
	}

	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	f, err := d.svc.Files.Create(meta).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("creating folder %q: %w", name, err)
	}

	return f.Id, nil
}

// Upload creates a file from body. With a conversion attached, the bytes are
// declared as the source type and Drive converts them to the target type.
func (d *driveStorage) Upload(
	ctx context.Context, obj Object, body io.Reader,
) (string, error) {
	meta := &drive.File{
		Name:    obj.Name,
		Parents: []string{obj.ParentID},
	}

	var mediaOpts []googleapi.MediaOption

	if obj.Conversion != nil {
		meta.MimeType = obj.Conversion.TargetType
		mediaOpts = append(mediaOpts, googleapi.ContentType(obj.Conversion.SourceType))
	}

	f, err := d.svc.Files.Create(meta).
		Media(body, mediaOpts...).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("uploading %q: %w", obj.Name, err)
	}

	return f.Id, nil
}
