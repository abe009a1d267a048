package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
)

const (
	exportQueueKey  = "export_jobs_queue"
	exportJobPrefix = "export_job:"
	exportJobTTL    = 24 * time.Hour
)

var ErrJobNotFound = errors.New("export job not found")

// ExportQueue holds pending export jobs in a redis list and job state in
// per-job keys with a TTL. Export results are transient artifacts, so redis
// is their system of record.
type ExportQueue struct {
	client *redis.Client
}

func NewExportQueue(redisClient *redis.Client) *ExportQueue {
	return &ExportQueue{client: redisClient}
}

func (q *ExportQueue) Enqueue(ctx context.Context, job *models.ExportJob) error {
	if err := q.SaveJob(ctx, job); err != nil {
		return err
	}

	return q.client.LPush(ctx, exportQueueKey, job.ID.String()).Err()
}

// Dequeue blocks up to the given timeout waiting for the next job id.
// Redis nil means the wait timed out with an empty queue.
func (q *ExportQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.ExportJob, error) {
	result, err := q.client.BRPop(ctx, timeout, exportQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("invalid queue result")
	}

	return q.GetJob(ctx, result[1])
}

func (q *ExportQueue) SaveJob(ctx context.Context, job *models.ExportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal export job: %w", err)
	}

	key := exportJobPrefix + job.ID.String()
	if err := q.client.Set(ctx, key, data, exportJobTTL).Err(); err != nil {
		return fmt.Errorf("failed to save export job: %w", err)
	}

	return nil
}

func (q *ExportQueue) GetJob(ctx context.Context, jobID string) (*models.ExportJob, error) {
	data, err := q.client.Get(ctx, exportJobPrefix+jobID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get export job: %w", err)
	}

	var job models.ExportJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal export job: %w", err)
	}

	return &job, nil
}
