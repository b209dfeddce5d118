package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, job *entity.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockRepo) Update(ctx context.Context, job *entity.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*entity.Job)
	return job, args.Error(1)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) StatVideo(ctx context.Context, key string) (*port.VideoObject, error) {
	args := m.Called(ctx, key)
	obj, _ := args.Get(0).(*port.VideoObject)
	return obj, args.Error(1)
}

func (m *mockStorage) DownloadVideo(ctx context.Context, key, dest string) error {
	return m.Called(ctx, key, dest).Error(0)
}

func (m *mockStorage) UploadFrame(ctx context.Context, key string, r io.Reader, size int64) error {
	return m.Called(ctx, key, r, size).Error(0)
}

func (m *mockStorage) FrameURL(ctx context.Context, key, fileName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, fileName, expiry)
	return args.String(0), args.Error(1)
}

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) ExtractLastFrame(ctx context.Context, file entity.SourceFile) (*entity.ExtractionResult, error) {
	args := m.Called(ctx, file)
	res, _ := args.Get(0).(*entity.ExtractionResult)
	return res, args.Error(1)
}

type mockStatus struct{ mock.Mock }

func (m *mockStatus) PublishStatus(ctx context.Context, msg entity.ExtractionStatusMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type mockDLQ struct{ mock.Mock }

func (m *mockDLQ) PublishToDLQ(ctx context.Context, raw []byte, reason string) error {
	return m.Called(ctx, raw, reason).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyFailure(ctx context.Context, email, jobID, fileName, message string) error {
	return m.Called(ctx, email, jobID, fileName, message).Error(0)
}
