package remote

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rectifier/rectify/pkg/config"
	"github.com/sirupsen/logrus"
)

// s3Storage implements Storage for S3-compatible object stores. A container
// is a key prefix marked by a zero-byte "<prefix>/" object. Container ids are
// relative to the configured prefix.
type s3Storage struct {
	log    logrus.FieldLogger
	cfg    *config.S3Config
	client *s3.Client
}

// Ensure interface compliance.
var _ Storage = (*s3Storage)(nil)

// NewS3 creates a new S3 backed Storage from the given configuration.
func NewS3(log logrus.FieldLogger, cfg *config.S3Config) Storage {
	return &s3Storage{
		log:    log.WithField("component", "s3"),
		cfg:    cfg,
		client: newS3Client(cfg),
	}
}

func newS3Client(cfg *config.S3Config) *s3.Client {
	return s3.New(s3.Options{}, func(o *s3.Options) {
		if cfg.Region != "" {
			o.Region = cfg.Region
		} else {
			o.Region = config.DefaultS3Region
		}

		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}

		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}

		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, "",
			)
		}
	})
}

// Preflight verifies S3 connectivity by writing a small test object into
// the destination prefix and removing it again.
func (s *s3Storage) Preflight(ctx context.Context, containerID string) error {
	if containerID == "" {
		return ErrEmptyContainerID
	}

	content := fmt.Sprintf("rectify write test: %s", time.Now().UTC().Format(time.RFC3339))
	key := s.resolveKey(containerID, ".rectify-write-test")

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("writing test object to s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("removing test object s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}

	return nil
}

// CreateContainer writes the marker object for parentID/name and returns the
// new prefix as its id. Re-creating an existing prefix overwrites the marker.
func (s *s3Storage) CreateContainer(
	ctx context.Context, name, parentID string,
) (string, error) {
	id := path.Join(parentID, name)
	key := s.resolveKey(id) + "/"

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(""),
		ContentType: aws.String("application/x-directory"),
	})
	if err != nil {
		return "", fmt.Errorf("creating prefix %s: %w", key, err)
	}

	return id, nil
}

// Upload puts body under the parent prefix. S3 has no conversion, so the
// conversion target is recorded as object metadata only.
func (s *s3Storage) Upload(
	ctx context.Context, obj Object, body io.Reader,
) (string, error) {
	key := s.resolveKey(obj.ParentID, obj.Name)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}

	if obj.Conversion != nil {
		input.ContentType = aws.String(obj.Conversion.SourceType)
		input.Metadata = map[string]string{
			"conversion-target": obj.Conversion.TargetType,
		}
	} else {
		ct, err := detectContentType(obj.Name, body)
		if err != nil {
			return "", fmt.Errorf("detecting content type of %s: %w", obj.Name, err)
		}

		input.ContentType = aws.String(ct)
	}

	if s.cfg.StorageClass != "" {
		input.StorageClass = s3types.StorageClass(s.cfg.StorageClass)
	}

	if s.cfg.ACL != "" {
		input.ACL = s3types.ObjectCannedACL(s.cfg.ACL)
	}

	s.log.WithFields(logrus.Fields{
		"key":    key,
		"bucket": s.cfg.Bucket,
	}).Debug("Uploading object")

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("PutObject %s: %w", key, err)
	}

	return key, nil
}

// resolveKey joins the configured prefix with the given key elements.
func (s *s3Storage) resolveKey(elems ...string) string {
	prefix := strings.Trim(s.cfg.Prefix, "/")
	key := strings.Trim(path.Join(elems...), "/")

	if prefix == "" {
		return key
	}

	return prefix + "/" + key
}

// detectContentType returns a MIME type based on file extension, sniffing
// the content when the extension is unknown and body can be rewound.
func detectContentType(name string, body io.Reader) (string, error) {
	if ext := filepath.Ext(name); ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct, nil
		}
	}

	rs, ok := body.(io.ReadSeeker)
	if !ok {
		return "application/octet-stream", nil
	}

	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", err
	}

	mt, err := mimetype.DetectReader(rs)
	if err != nil {
		return "", err
	}

	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return "", err
	}

	return mt.String(), nil
}
