// internal/workers/application/query-applications/handler.go
package queryapplications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/common/metrics"
	"agriloan-workers/internal/models"
	"agriloan-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "query-applications"
)

var (
	ErrInvalidStatusFilter = errors.New("INVALID_STATUS_FILTER")
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.ApplicationRecord, error)
	List(ctx context.Context, filter repository.ListFilter) ([]models.ApplicationSummary, error)
}

type Handler struct {
	config *Config
	repo   Repository
	logger logger.Logger
}

func NewHandler(config *Config, repo Repository, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		repo:   repo,
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
		case errors.Is(err, ErrInvalidStatusFilter):
			errorCode = "VALIDATION_FAILED"
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
	if input.ApplicationID != "" {
		record, err := h.repo.Get(ctx, input.ApplicationID)
		if err != nil {
			return nil, err
		}
		return &Output{Application: record, Count: 1}, nil
	}

	if input.Status != "" && input.Status != models.StatusPending && !models.ValidDecision(input.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatusFilter, input.Status)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}

	summaries, err := h.repo.List(ctx, repository.ListFilter{
		Status: input.Status,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("applications listed", map[string]interface{}{
		"status": input.Status,
		"count":  len(summaries),
	})

	return &Output{Applications: summaries, Count: len(summaries)}, nil
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
