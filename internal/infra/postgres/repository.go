package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO extraction_jobs (
			id, user_id, video_key, file_name, content_type, file_size,
			image_key, image_name, status, width, height, video_duration,
			seek_time, attempt, max_attempts, error_kind, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.FileName, job.ContentType, job.FileSize,
		job.ImageKey, job.ImageName, string(job.Status), job.Width, job.Height, job.VideoDuration,
		job.SeekTime, job.Attempt, job.MaxAttempts, string(job.ErrorKind), job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE extraction_jobs SET
			status=$2, image_key=$3, image_name=$4, width=$5, height=$6,
			video_duration=$7, seek_time=$8, attempt=$9, error_kind=$10,
			error_message=$11, updated_at=$12, completed_at=$13
		WHERE id=$1`

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ImageKey, job.ImageName, job.Width, job.Height,
		job.VideoDuration, job.SeekTime, job.Attempt, string(job.ErrorKind),
		job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, port.ErrJobNotFound)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `
		SELECT id, user_id, video_key, file_name, content_type, file_size,
			image_key, image_name, status, width, height, video_duration,
			seek_time, attempt, max_attempts, error_kind, error_message,
			created_at, updated_at, completed_at
		FROM extraction_jobs WHERE id=$1`

	job := &entity.Job{}
	var status, errKind string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.FileName, &job.ContentType, &job.FileSize,
		&job.ImageKey, &job.ImageName, &status, &job.Width, &job.Height, &job.VideoDuration,
		&job.SeekTime, &job.Attempt, &job.MaxAttempts, &errKind, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	job.ErrorKind = entity.ErrorKind(errKind)
	return job, nil
}
