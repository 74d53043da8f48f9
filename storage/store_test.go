package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openfraud/fraudpipe/arrowops"
	"github.com/openfraud/fraudpipe/elements"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func buildSampleRecord(mem *memory.GoAllocator) arrow.Record {
	recBldr := array.NewRecordBuilder(mem, elements.PredictionSchema())
	defer recBldr.Release()
	recBldr.Field(0).(*array.StringBuilder).AppendValues([]string{"evt-a", "evt-b", "evt-c"}, nil)
	recBldr.Field(1).(*array.Float64Builder).AppendValues([]float64{0.1, 0.5, 0.9}, nil)
	return recBldr.NewRecord()
}

func TestStoreLocalTableRoundTrip(t *testing.T) {

	ctx := context.Background()
	mem := memory.NewGoAllocator()

	store, err := NewStore(ctx, testLogger(), mem, StoreOptions{})
	require.NoError(t, err)

	record := buildSampleRecord(mem)
	defer record.Release()

	path := filepath.Join(t.TempDir(), "predictions.parquet")
	require.NoError(t, store.WriteTable(ctx, record, path))

	loaded, err := store.ReadTable(ctx, path)
	require.NoError(t, err)
	defer loaded.Release()

	assert.Equal(t, record.NumRows(), loaded.NumRows())
	assert.True(t, array.RecordEqual(record, loaded))
}

func TestStoreLocalBlobRoundTrip(t *testing.T) {

	ctx := context.Background()
	mem := memory.NewGoAllocator()

	store, err := NewStore(ctx, testLogger(), mem, StoreOptions{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "encoding.json")
	payload := []byte(`{"posEntryMode": {"81": 1.0}}`)
	require.NoError(t, store.WriteBlob(ctx, path, payload))

	loaded, err := store.ReadBlob(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, payload, loaded)
}

func TestStoreReadMissingFileSurfacesError(t *testing.T) {

	ctx := context.Background()
	mem := memory.NewGoAllocator()

	store, err := NewStore(ctx, testLogger(), mem, StoreOptions{})
	require.NoError(t, err)

	_, err = store.ReadBlob(ctx, filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStoreObjectPathValidation(t *testing.T) {

	ctx := context.Background()
	mem := memory.NewGoAllocator()

	// s3 path without object storage configured
	store, err := NewStore(ctx, testLogger(), mem, StoreOptions{})
	require.NoError(t, err)
	_, err = store.ReadBlob(ctx, "s3://bucket/key.parquet")
	assert.True(t, errors.Is(err, ErrObjectStorageNotConfigured))
	assert.True(t, errors.Is(err, elements.ErrConfiguration))

	// malformed object paths
	mocked := NewStoreWithObjectStorage(testLogger(), mem, new(MockObjectStorage))
	for _, path := range []string{"s3://", "s3://bucket", "s3://bucket/"} {
		_, err := mocked.ReadBlob(ctx, path)
		assert.Truef(t, errors.Is(err, ErrInvalidObjectPath), "path %s", path)
	}
}

func TestStoreObjectTableRoundTrip(t *testing.T) {

	ctx := context.Background()
	mem := memory.NewGoAllocator()

	record := buildSampleRecord(mem)
	defer record.Release()

	objectStorage := new(MockObjectStorage)
	store := NewStoreWithObjectStorage(testLogger(), mem, objectStorage)

	var uploaded []byte
	objectStorage.On("Upload", ctx, "models", "run-1/predictions.parquet", mock.Anything).
		Run(func(args mock.Arguments) {
			uploaded = args.Get(3).([]byte)
		}).
		Return(nil)

	require.NoError(t, store.WriteTable(ctx, record, "s3://models/run-1/predictions.parquet"))
	require.NotEmpty(t, uploaded)

	objectStorage.On("Download", ctx, "models", "run-1/predictions.parquet").
		Return(uploaded, nil)

	loaded, err := store.ReadTable(ctx, "s3://models/run-1/predictions.parquet")
	require.NoError(t, err)
	defer loaded.Release()

	assert.True(t, array.RecordEqual(record, loaded))
	objectStorage.AssertExpectations(t)

	// the uploaded payload is plain parquet, readable without the store
	direct, err := arrowops.RecordFromParquetBytes(ctx, mem, uploaded)
	require.NoError(t, err)
	defer direct.Release()
	assert.Equal(t, record.NumRows(), direct.NumRows())
}
