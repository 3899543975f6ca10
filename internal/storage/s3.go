// Package storage persists meeting artifacts (recordings, notes,
// transcription output) in S3.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// S3Client abstracts the S3 API operations used by [MeetingStore].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// MeetingStore stores meeting artifacts under meetings/{meetingId}/ in a
// single bucket. The caller configures the [s3.Client] with credentials,
// region and endpoint.
type MeetingStore struct {
	client S3Client
	bucket string
	log    zerolog.Logger
}

// NewMeetingStore creates an S3-backed meeting artifact store.
func NewMeetingStore(client S3Client, bucket string, log zerolog.Logger) *MeetingStore {
	return &MeetingStore{
		client: client,
		bucket: bucket,
		log:    log.With().Str("component", "meeting-store").Logger(),
	}
}

// Bucket returns the bucket this store writes to.
func (s *MeetingStore) Bucket() string {
	return s.bucket
}

// MeetingKey builds the object key for a meeting artifact, e.g.
// MeetingKey("mtg-1", "recording.mp4") -> "meetings/mtg-1/recording.mp4".
func MeetingKey(meetingID string, parts ...string) string {
	return path.Join(append([]string{"meetings", meetingID}, parts...)...)
}

// URI returns the s3:// URI for a key in this store's bucket.
func (s *MeetingStore) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

// ParseURI splits an s3://bucket/key URI.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 URI: %s", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 URI: %s", uri)
	}
	return bucket, key, nil
}

// UploadFile streams a local file to the given key and returns its s3 URI.
func (s *MeetingStore) UploadFile(ctx context.Context, localPath, key, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	return s.upload(ctx, f, key, contentType)
}

// UploadBytes writes a byte payload to the given key and returns its s3 URI.
func (s *MeetingStore) UploadBytes(ctx context.Context, data []byte, key, contentType string) (string, error) {
	return s.upload(ctx, bytes.NewReader(data), key, contentType)
}

func (s *MeetingStore) upload(ctx context.Context, body io.Reader, key, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to upload object")
		return "", err
	}

	uri := s.URI(key)
	s.log.Info().Str("uri", uri).Msg("Uploaded object")
	return uri, nil
}

// Download reads the full object at key. Returns an error wrapping
// os.ErrNotExist when the key does not exist.
func (s *MeetingStore) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("download %s: %w", key, os.ErrNotExist)
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Delete removes the object at key. S3 DeleteObject is idempotent, so
// deleting a missing key succeeds.
func (s *MeetingStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// Exists checks whether the object at key exists.
func (s *MeetingStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isNotFound reports whether err indicates the S3 object does not exist.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
