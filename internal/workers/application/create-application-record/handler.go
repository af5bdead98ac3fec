// internal/workers/application/create-application-record/handler.go
package createapplicationrecord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/common/metrics"
	"agriloan-workers/internal/models"
	"agriloan-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "create-application-record"
)

// Repository is the slice of the application repository this worker needs.
type Repository interface {
	Create(ctx context.Context, input models.ApplicationInput, assessment models.AssessmentResult) (*models.ApplicationRecord, error)
}

// Indexer mirrors the created record into the reporting index. Optional.
type Indexer interface {
	Index(ctx context.Context, record *models.ApplicationRecord) error
}

type Handler struct {
	config  *Config
	repo    Repository
	indexer Indexer
	logger  logger.Logger
}

func NewHandler(config *Config, repo Repository, indexer Indexer, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		repo:    repo,
		indexer: indexer,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		if errors.Is(err, repository.ErrQueryFailed) {
			errorCode = "DATABASE_INSERT_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	record, err := h.repo.Create(ctx, input.Application, input.Assessment)
	if err != nil {
		return nil, err
	}

	// The SQL row is canonical; a failed index write is re-mirrorable later.
	if h.config.IndexEnabled && h.indexer != nil {
		if err := h.indexer.Index(ctx, record); err != nil {
			h.logger.Warn("reporting index write failed", map[string]interface{}{
				"error":         err,
				"applicationId": record.ID,
			})
		}
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId": record.ID,
		"fullName":      record.FullName,
		"totalScore":    record.TotalScore,
	})

	return &Output{
		ApplicationID:   record.ID,
		Status:          record.Status,
		TotalScore:      record.TotalScore,
		ApplicationDate: record.ApplicationDate.UTC().Format(time.RFC3339),
	}, nil
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
