// internal/workers/decision/commit-decision/handler.go
package commitdecision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"agriloan-workers/internal/common/auth"
	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/common/metrics"
	"agriloan-workers/internal/decision"
	"agriloan-workers/internal/models"
	"agriloan-workers/internal/repository"
)

const (
	TaskType = "commit-decision"
)

var (
	ErrUnauthorized         = errors.New("UNAUTHORIZED")
	ErrInvalidDecision      = errors.New("INVALID_DECISION")
	ErrInvalidAllocation    = errors.New("INVALID_ALLOCATION")
	ErrRoleResolutionFailed = errors.New("ROLE_RESOLUTION_FAILED")
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.ApplicationRecord, error)
	CommitDecision(ctx context.Context, id string, d models.InstitutionDecision) (*models.ApplicationRecord, error)
}

// RoleResolver fetches role facts when the job variables carry only a user
// id. Satisfied by the Keycloak client; optional.
type RoleResolver interface {
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
}

type Handler struct {
	config   *Config
	repo     Repository
	resolver RoleResolver
	logger   logger.Logger
}

func NewHandler(config *Config, repo Repository, resolver RoleResolver, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		repo:     repo,
		resolver: resolver,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		errorCode := h.mapErrorToCode(err)
		retries := h.getRetryCount(err)
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

// execute enforces the one-way lifecycle: capability first, payload shape
// second, range recomputation third, and only then the single conditional
// write. Any error before the write leaves the application untouched.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	roles := input.Actor.Roles
	if len(roles) == 0 && h.resolver != nil {
		resolved, err := h.resolver.GetUserRoles(ctx, input.Actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRoleResolutionFailed, err)
		}
		roles = resolved
	}

	authz := auth.AuthorizeReviewer(roles, h.config.AllowedRoles)
	if !authz.Authorized {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, authz.Reason)
	}

	if !models.ValidDecision(input.Decision) {
		return nil, fmt.Errorf("%w: %q is not a committable decision", ErrInvalidDecision, input.Decision)
	}
	if input.Decision != models.StatusRejected && input.AllocatedAmount == nil {
		return nil, fmt.Errorf("%w: allocatedAmount is required for %s", ErrInvalidAllocation, input.Decision)
	}

	record, err := h.repo.Get(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	// The range is advisory, but it is recomputed here rather than trusted
	// from the job variables so a stale reviewer screen can't smuggle in an
	// outdated window.
	rng, err := decision.SuggestedRange(
		record.Payload.Input.Loan.LoanAmount,
		record.Payload.Input.Financial.AnnualRevenue,
		record.TotalScore,
	)
	if err != nil {
		return nil, err
	}

	if input.AllocatedAmount != nil && !rng.Contains(*input.AllocatedAmount) && !input.AcknowledgeOutOfRange {
		return nil, fmt.Errorf("%w: amount %d outside suggested range [%d, %d] without acknowledgement",
			ErrInvalidAllocation, *input.AllocatedAmount, rng.Min, rng.Max)
	}

	verdict := models.InstitutionDecision{
		Decision:        input.Decision,
		SuggestedRange:  rng,
		AllocatedAmount: input.AllocatedAmount,
		Conditions:      input.Conditions,
		Notes:           input.Notes,
		DecidedBy:       input.Actor.UserID,
		DecidedAt:       time.Now().UTC(),
	}

	committed, err := h.repo.CommitDecision(ctx, input.ApplicationID, verdict)
	if err != nil {
		return nil, err
	}

	h.logger.Info("decision committed", map[string]interface{}{
		"applicationId": committed.ID,
		"decision":      verdict.Decision,
		"decidedBy":     verdict.DecidedBy,
	})

	return &Output{
		ApplicationID: committed.ID,
		Status:        committed.Status,
		Decision:      *committed.Decision,
		DecidedAt:     committed.Decision.DecidedAt.UTC().Format(time.RFC3339),
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

func (h *Handler) mapErrorToCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrInvalidDecision):
		return "INVALID_DECISION"
	case errors.Is(err, ErrInvalidAllocation):
		return "INVALID_ALLOCATION"
	case errors.Is(err, decision.ErrInvalidRange):
		return "INVALID_RANGE"
	case errors.Is(err, repository.ErrNotFound):
		return "APPLICATION_NOT_FOUND"
	case errors.Is(err, repository.ErrConflict):
		return "DECISION_CONFLICT"
	case errors.Is(err, ErrRoleResolutionFailed):
		return "ROLE_RESOLUTION_FAILED"
	case errors.Is(err, repository.ErrQueryFailed):
		return "QUERY_EXECUTION_FAILED"
	}
	return "UNKNOWN_ERROR"
}

func (h *Handler) getRetryCount(err error) int32 {
	if errors.Is(err, repository.ErrQueryFailed) || errors.Is(err, ErrRoleResolutionFailed) {
		return 3
	}
	return 0
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
