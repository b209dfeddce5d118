package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/i18n"
	"github.com/ysyms/lastFrameV2/internal/infra/email"
	"github.com/ysyms/lastFrameV2/internal/infra/ffmpeg"
	miniostorage "github.com/ysyms/lastFrameV2/internal/infra/minio"
	"github.com/ysyms/lastFrameV2/internal/infra/postgres"
	"github.com/ysyms/lastFrameV2/internal/infra/rabbitmq"
	"github.com/ysyms/lastFrameV2/internal/infra/raster"
	"github.com/ysyms/lastFrameV2/internal/usecase"
	"github.com/ysyms/lastFrameV2/pkg/logger"
)

const (
	exchange     = "lastframe.video"
	requestQueue = "video.lastframe"
	statusQueue  = "video.lastframe.status"
	dlqQueue     = "video.lastframe.dlq"
)

type stack struct {
	pool    *pgxpool.Pool
	rmqConn *amqp.Connection
	minio   *miniogo.Client
	cancel  context.CancelFunc
}

// startStack runs postgres, rabbitmq and minio containers and a consumer
// wired exactly like cmd/worker.
func startStack(t *testing.T, ctx context.Context) *stack {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("jobs"),
		tcpostgres.WithUsername("job_user"),
		tcpostgres.WithPassword("job_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pgContainer.Terminate(context.Background()) })

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rmqContainer, err := tcrabbitmq.Run(ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { rmqContainer.Terminate(context.Background()) })

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { minioContainer.Terminate(context.Background()) })

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	require.NoError(t, postgres.RunMigrations(pgConnStr, "../../migrations"))

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     minioEndpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UploadBucket: "uploads",
		FrameBucket:  "frames",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBuckets(ctx))

	minioClient, err := miniogo.New(minioEndpoint, &miniogo.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)

	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	t.Cleanup(func() { rmqConn.Close() })

	pub, err := rabbitmq.NewPublisher(rmqConn, exchange)
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log, err := logger.New("debug")
	require.NoError(t, err)

	tempDir := t.TempDir()
	extractor := usecase.NewLastFrameExtractor(
		ffmpeg.NewDecoder(ffmpeg.DecoderConfig{TempDir: tempDir}, log),
		raster.NewEncoder(png.DefaultCompression),
		log,
		usecase.ExtractorConfig{},
	)
	uc := usecase.NewProcessExtractionUseCase(
		postgres.NewJobRepository(pool), storage, extractor,
		rabbitmq.NewStatusPublisher(pub, statusQueue),
		rabbitmq.NewDLQPublisher(pub, dlqQueue),
		email.NewSMTPNotifier("localhost", 1025, "test@test.local", log),
		log,
		usecase.ProcessExtractionConfig{
			TempDir:         tempDir,
			MaxAttempts:     3,
			DefaultLanguage: i18n.English,
		},
	)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:              rmqURL,
		Queue:            requestQueue,
		RoutingKey:       requestQueue,
		Exchange:         exchange,
		DLQ:              dlqQueue,
		StatusQueue:      statusQueue,
		StatusRoutingKey: statusQueue,
		Prefetch:         1,
		WorkerCount:      1,
		BaseDelayMs:      100,
	}, uc.Execute, log)
	require.NoError(t, err)
	t.Cleanup(func() { consumer.Close() })

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	t.Cleanup(consumerCancel)
	go consumer.Start(consumerCtx)

	// Give consumer time to start
	time.Sleep(500 * time.Millisecond)

	return &stack{pool: pool, rmqConn: rmqConn, minio: minioClient, cancel: consumerCancel}
}

func (s *stack) publish(t *testing.T, ctx context.Context, body []byte) {
	t.Helper()
	ch, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer ch.Close()
	require.NoError(t, ch.PublishWithContext(ctx, exchange, requestQueue, false, false,
		amqp.Publishing{ContentType: "application/json", Body: body},
	))
}

func (s *stack) awaitStatus(t *testing.T, jobID uuid.UUID) entity.ExtractionStatusMessage {
	t.Helper()
	ch, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	deliveries, err := ch.Consume(statusQueue, "", true, false, false, false, nil)
	require.NoError(t, err)

	timeout := time.After(2 * time.Minute)
	for {
		select {
		case d := <-deliveries:
			var msg entity.ExtractionStatusMessage
			require.NoError(t, json.Unmarshal(d.Body, &msg))
			if msg.JobID == jobID && (msg.Status == entity.JobStatusCompleted || msg.ErrorKind != "") {
				return msg
			}
		case <-timeout:
			t.Fatal("timeout waiting for status message")
		}
	}
}

func renderVideo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	out := filepath.Join(t.TempDir(), "pattern.mp4")
	cmd := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=3:size=320x240:rate=25",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-y", out)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("cannot render test video: %v: %s", err, b)
	}
	return out
}

func TestExtractLastFrameEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	videoPath := renderVideo(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	s := startStack(t, ctx)

	videoKey := "testuser/pattern.mp4"
	_, err := s.minio.FPutObject(ctx, "uploads", videoKey, videoPath, miniogo.PutObjectOptions{
		ContentType: "video/mp4",
	})
	require.NoError(t, err)

	jobID := uuid.New()
	body, err := json.Marshal(entity.ExtractionRequestMessage{
		JobID:    jobID,
		UserID:   "testuser",
		VideoKey: videoKey,
		FileName: "my.holiday.clip.mp4",
		Language: "zh-CN",
	})
	require.NoError(t, err)
	s.publish(t, ctx, body)

	status := s.awaitStatus(t, jobID)
	assert.Equal(t, entity.JobStatusCompleted, status.Status)
	assert.Equal(t, "my.holiday.clip_last_frame.png", status.ImageName)
	assert.Equal(t, 320, status.Width)
	assert.Equal(t, 240, status.Height)
	assert.Equal(t, i18n.Lookup(i18n.Chinese).Success, status.Message)
	assert.NotEmpty(t, status.DownloadURL)

	obj, err := s.minio.GetObject(ctx, "frames", status.ImageKey, miniogo.GetObjectOptions{})
	require.NoError(t, err)
	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())

	var dbStatus string
	var width, height int
	err = s.pool.QueryRow(ctx,
		"SELECT status, width, height FROM extraction_jobs WHERE id=$1", jobID,
	).Scan(&dbStatus, &width, &height)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", dbStatus)
	assert.Equal(t, 320, width)
	assert.Equal(t, 240, height)
}

func TestNonVideoUploadFailsWithInvalidType(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	s := startStack(t, ctx)

	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0644))
	videoKey := "testuser/notes.txt"
	_, err := s.minio.FPutObject(ctx, "uploads", videoKey, notes, miniogo.PutObjectOptions{
		ContentType: "text/plain",
	})
	require.NoError(t, err)

	jobID := uuid.New()
	body, err := json.Marshal(entity.ExtractionRequestMessage{
		JobID:    jobID,
		UserID:   "testuser",
		VideoKey: videoKey,
	})
	require.NoError(t, err)
	s.publish(t, ctx, body)

	status := s.awaitStatus(t, jobID)
	assert.Equal(t, entity.JobStatusFailed, status.Status)
	assert.Equal(t, entity.ErrInvalidInputType, status.ErrorKind)
	assert.Equal(t, entity.CategoryWrongInputType, status.ErrorCategory)
	assert.Equal(t, i18n.Lookup(i18n.English).ErrorType, status.Message)
}

func TestMalformedMessageGoesToDLQ(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s := startStack(t, ctx)

	s.publish(t, ctx, []byte(`{invalid json`))

	// Wait and verify message landed in DLQ
	time.Sleep(2 * time.Second)

	dlqCh, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer dlqCh.Close()

	dlqMsg, ok, err := dlqCh.Get(dlqQueue, true)
	require.NoError(t, err)
	assert.True(t, ok, "malformed message should be in DLQ")
	assert.Equal(t, `{invalid json`, string(dlqMsg.Body))
}
