// internal/workers/decision/calculate-suggested-range/handler.go
package calculatesuggestedrange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/common/metrics"
	"agriloan-workers/internal/decision"
	"agriloan-workers/internal/models"
	"agriloan-workers/internal/repository"
)

const (
	TaskType = "calculate-suggested-range"
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.ApplicationRecord, error)
}

type Handler struct {
	config *Config
	repo   Repository
	cache  *redis.Client
	logger logger.Logger
}

// NewHandler accepts a nil cache; the range is cheap to recompute, the cache
// only smooths repeated reviewer screen loads.
func NewHandler(config *Config, repo Repository, cache *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		repo:   repo,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			errorCode = "APPLICATION_NOT_FOUND"
		case errors.Is(err, decision.ErrInvalidRange):
			errorCode = "INVALID_RANGE"
		case errors.Is(err, repository.ErrQueryFailed):
			errorCode = "QUERY_EXECUTION_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	cacheKey := fmt.Sprintf("suggested-range:%s", input.ApplicationID)

	if cached := h.cacheGet(ctx, cacheKey); cached != nil {
		cached.FromCache = true
		return cached, nil
	}

	record, err := h.repo.Get(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	rng, err := decision.SuggestedRange(
		record.Payload.Input.Loan.LoanAmount,
		record.Payload.Input.Financial.AnnualRevenue,
		record.TotalScore,
	)
	if err != nil {
		return nil, err
	}

	output := &Output{
		ApplicationID:  record.ID,
		SuggestedRange: rng,
		Conditions:     decision.DefaultConditions(record.Payload.Assessment.Scores),
		TotalScore:     record.TotalScore,
	}

	h.cacheSet(ctx, cacheKey, output)

	h.logger.Info("suggested range calculated", map[string]interface{}{
		"applicationId": record.ID,
		"min":           rng.Min,
		"max":           rng.Max,
		"conditions":    len(output.Conditions),
	})

	return output, nil
}

func (h *Handler) cacheGet(ctx context.Context, key string) *Output {
	if h.cache == nil {
		return nil
	}

	raw, err := h.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		h.logger.Warn("cache read failed", map[string]interface{}{"error": err, "key": key})
		return nil
	}

	var output Output
	if err := json.Unmarshal([]byte(raw), &output); err != nil {
		h.logger.Warn("cache entry corrupt", map[string]interface{}{"error": err, "key": key})
		return nil
	}
	return &output
}

func (h *Handler) cacheSet(ctx context.Context, key string, output *Output) {
	if h.cache == nil {
		return
	}

	raw, err := json.Marshal(output)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, raw, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("cache write failed", map[string]interface{}{"error": err, "key": key})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
