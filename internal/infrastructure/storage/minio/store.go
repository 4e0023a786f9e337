package minio

import (
	"bytes"
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// noSuchKey is the S3 error code for a missing object.
const noSuchKey = "NoSuchKey"

// Store implements storage.Store over the registry bucket. Object names
// are the document file names, optionally below a key prefix.
type Store struct {
	api    API
	bucket string
	prefix string
}

func NewStore(client *Client) *Store {
	return &Store{
		api:    client.API(),
		bucket: client.config.Bucket,
		prefix: client.config.Prefix,
	}
}

func (s *Store) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	opts := minio.PutObjectOptions{ContentType: "application/json"}
	_, err := s.api.PutObject(ctx, s.bucket, s.objectName(name), bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageIO, "put object %s", name)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, s.objectName(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError(err, name)
	}
	defer obj.Close()

	// minio fetches lazily, so a missing object surfaces on the read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapObjectError(err, name)
	}
	return data, nil
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.api.StatObject(ctx, s.bucket, s.objectName(name), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == noSuchKey {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrCodeStorageIO, "stat object %s", name)
	}
	return true, nil
}

func mapObjectError(err error, name string) error {
	if minio.ToErrorResponse(err).Code == noSuchKey {
		return errors.Wrapf(err, errors.ErrCodeObjectNotFound, "object %s", name)
	}
	return errors.Wrapf(err, errors.ErrCodeStorageIO, "get object %s", name)
}
