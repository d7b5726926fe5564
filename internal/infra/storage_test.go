package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/nozzip/seccional/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectClient struct {
	mock.Mock
}

func (m *mockObjectClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *mockObjectClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockObjectClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func sampleArchivedDay() ledger.ArchivedDay {
	at := time.Date(2024, 5, 10, 22, 5, 0, 0, time.UTC)
	return ledger.ArchivedDay{
		Date:         "2024-05-10",
		TotalBalance: decimal.NewFromInt(1800),
		Movements:    map[string]ledger.Movement{"cash": {Income: decimal.NewFromInt(300), Expense: decimal.Zero}},
		ArchivedAt:   at,
	}
}

func TestArchiveStore_EnsureBucketCreatesMissing(t *testing.T) {
	client := new(mockObjectClient)
	client.On("BucketExists", mock.Anything, "archives").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "archives", mock.Anything).Return(nil)

	store := NewArchiveStore(client, "archives", nil)
	require.NoError(t, store.EnsureBucket(context.Background()))
	client.AssertExpectations(t)
}

func TestArchiveStore_EnsureBucketExisting(t *testing.T) {
	client := new(mockObjectClient)
	client.On("BucketExists", mock.Anything, "archives").Return(true, nil)

	store := NewArchiveStore(client, "archives", nil)
	require.NoError(t, store.EnsureBucket(context.Background()))
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestArchiveStore_PutWritesJSONUnderDateKey(t *testing.T) {
	day := sampleArchivedDay()
	client := new(mockObjectClient)
	client.On("PutObject", mock.Anything, "archives", "archives/2024-05-10.json", mock.Anything, mock.Anything,
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "application/json" })).
		Return(minio.UploadInfo{Key: "archives/2024-05-10.json"}, nil)

	store := NewArchiveStore(client, "archives", nil)
	require.NoError(t, store.Put(context.Background(), day))
	client.AssertExpectations(t)
}

func TestArchiveStore_GetDecodes(t *testing.T) {
	day := sampleArchivedDay()
	raw, err := json.Marshal(day)
	require.NoError(t, err)

	client := new(mockObjectClient)
	client.On("GetObject", mock.Anything, "archives", "archives/2024-05-10.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(raw)), nil)

	store := NewArchiveStore(client, "archives", nil)
	got, err := store.Get(context.Background(), "2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", got.Date)
	assert.Equal(t, "1800", got.TotalBalance.String())
	assert.Equal(t, "300", got.Movements["cash"].Income.String())
}

func TestArchiveStore_BreakerOpensOnRepeatedFailures(t *testing.T) {
	client := new(mockObjectClient)
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection refused"))

	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour})
	store := NewArchiveStore(client, "archives", cb)

	assert.Error(t, store.Put(context.Background(), sampleArchivedDay()))
	assert.Error(t, store.Put(context.Background(), sampleArchivedDay()))
	assert.ErrorIs(t, store.Put(context.Background(), sampleArchivedDay()), ErrCircuitOpen)
	assert.Equal(t, CBOpen, store.State())
	client.AssertNumberOfCalls(t, "PutObject", 2)
}

func TestNewObjectClient_EmptyEndpointDisables(t *testing.T) {
	c, err := NewObjectClient(StorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}
