// internal/workers/application/delete-application/handler.go
package deleteapplication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agriloan-workers/internal/common/auth"
	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/common/metrics"
	"agriloan-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "delete-application"
)

var (
	ErrUnauthorized = errors.New("UNAUTHORIZED")
)

type Repository interface {
	Delete(ctx context.Context, id string) error
}

// Indexer removes the reporting document when the row goes away. Optional.
type Indexer interface {
	Remove(ctx context.Context, id string) error
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
		switch {
		case errors.Is(err, ErrUnauthorized):
			errorCode = "UNAUTHORIZED"
		case errors.Is(err, repository.ErrNotFound):
			errorCode = "APPLICATION_NOT_FOUND"
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
	// Capability check happens once, here; nothing below re-checks.
	decision := auth.AuthorizeReviewer(input.Actor.Roles, h.config.AllowedRoles)
	if !decision.Authorized {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, decision.Reason)
	}

	if err := h.repo.Delete(ctx, input.ApplicationID); err != nil {
		return nil, err
	}

	if h.indexer != nil {
		if err := h.indexer.Remove(ctx, input.ApplicationID); err != nil {
			h.logger.Warn("reporting index removal failed", map[string]interface{}{
				"error":         err,
				"applicationId": input.ApplicationID,
			})
		}
	}

	h.logger.Info("application deleted", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"deletedBy":     input.Actor.UserID,
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		Deleted:       true,
		DeletedAt:     time.Now().UTC().Format(time.RFC3339),
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
