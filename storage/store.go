// Package storage gives the pipeline core a minimal table-read and
// table-write capability so the partitioning and encoding logic never
// touches a storage engine directly. Paths name either local files or
// s3://bucket/key objects; every call is a blocking, all-or-nothing
// unit of work.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/openfraud/fraudpipe/arrowops"
)

type ITableStore interface {
	ReadTable(ctx context.Context, path string) (arrow.Record, error)
	WriteTable(ctx context.Context, record arrow.Record, path string) error
	ReadBlob(ctx context.Context, path string) ([]byte, error)
	WriteBlob(ctx context.Context, path string, data []byte) error
}

type StoreOptions struct {
	// S3, when set, enables object storage for s3:// paths.
	S3 *ObjectStorageOptions
}

type Store struct {
	logger *slog.Logger
	mem    *memory.GoAllocator

	objectStorage IObjectStorage
}

func NewStore(
	ctx context.Context,
	logger *slog.Logger,
	mem *memory.GoAllocator,
	options StoreOptions,
) (*Store, error) {

	var objectStorage IObjectStorage
	if options.S3 != nil {
		s3Storage, err := NewObjectStorage(ctx, logger, *options.S3)
		if err != nil {
			return nil, errs.Wrap(err)
		}
		objectStorage = s3Storage
	}

	return &Store{
		logger:        logger,
		mem:           mem,
		objectStorage: objectStorage,
	}, nil
}

// NewStoreWithObjectStorage wires an explicit object storage
// implementation, used by tests to substitute a mock client.
func NewStoreWithObjectStorage(logger *slog.Logger, mem *memory.GoAllocator, objectStorage IObjectStorage) *Store {
	return &Store{
		logger:        logger,
		mem:           mem,
		objectStorage: objectStorage,
	}
}

func (obj *Store) ReadTable(ctx context.Context, path string) (arrow.Record, error) {
	if isObjectPath(path) {
		data, err := obj.ReadBlob(ctx, path)
		if err != nil {
			return nil, err
		}
		return arrowops.RecordFromParquetBytes(ctx, obj.mem, data)
	}
	return arrowops.ReadParquetFile(ctx, obj.mem, path)
}

func (obj *Store) WriteTable(ctx context.Context, record arrow.Record, path string) error {
	if isObjectPath(path) {
		data, err := arrowops.RecordToParquetBytes(ctx, record)
		if err != nil {
			return err
		}
		return obj.WriteBlob(ctx, path, data)
	}
	return arrowops.WriteRecordToParquetFile(ctx, record, path)
}

func (obj *Store) ReadBlob(ctx context.Context, path string) ([]byte, error) {
	if isObjectPath(path) {
		bucket, key, err := obj.splitObjectPath(path)
		if err != nil {
			return nil, err
		}
		return obj.objectStorage.Download(ctx, bucket, key)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	return data, nil
}

func (obj *Store) WriteBlob(ctx context.Context, path string, data []byte) error {
	if isObjectPath(path) {
		bucket, key, err := obj.splitObjectPath(path)
		if err != nil {
			return err
		}
		return obj.objectStorage.Upload(ctx, bucket, key, data)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.NewStackError(err)
	}
	return nil
}

const objectPathPrefix = "s3://"

func isObjectPath(path string) bool {
	return strings.HasPrefix(path, objectPathPrefix)
}

func (obj *Store) splitObjectPath(path string) (string, string, error) {
	if obj.objectStorage == nil {
		return "", "", errs.NewStackError(fmt.Errorf("%w: %s", ErrObjectStorageNotConfigured, path))
	}

	trimmed := strings.TrimPrefix(path, objectPathPrefix)
	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return "", "", errs.NewStackError(fmt.Errorf("%w: %s", ErrInvalidObjectPath, path))
	}
	return bucket, key, nil
}
