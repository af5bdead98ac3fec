// internal/workers/decision/commit-decision/handler_test.go
package commitdecision

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/decision"
	"agriloan-workers/internal/models"
	"agriloan-workers/internal/repository"
)

// fakeRepo mimics the conditional write: a decision lands only while the
// record is still PENDING.
type fakeRepo struct {
	records map[string]*models.ApplicationRecord
	commits int
}

func (f *fakeRepo) Get(_ context.Context, id string) (*models.ApplicationRecord, error) {
	if r, ok := f.records[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: application %s", repository.ErrNotFound, id)
}

func (f *fakeRepo) CommitDecision(_ context.Context, id string, d models.InstitutionDecision) (*models.ApplicationRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: application %s", repository.ErrNotFound, id)
	}
	if r.Status != models.StatusPending || r.Decision != nil {
		return nil, fmt.Errorf("%w: application %s already decided", repository.ErrConflict, id)
	}
	f.commits++
	r.Status = d.Decision
	r.Decision = &d
	return r, nil
}

type fakeResolver struct {
	roles map[string][]string
	err   error
}

func (f *fakeResolver) GetUserRoles(_ context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.roles[userID], nil
}

func pendingRecord(loanAmount, annualRevenue, totalScore float64) *models.ApplicationRecord {
	return &models.ApplicationRecord{
		ID:         "app-001",
		LoanAmount: loanAmount,
		TotalScore: totalScore,
		Status:     models.StatusPending,
		Payload: models.ApplicationPayload{
			Input: models.ApplicationInput{
				Financial: models.FinancialDetails{AnnualRevenue: annualRevenue},
				Loan:      models.LoanDetails{LoanAmount: loanAmount},
			},
			Assessment: models.AssessmentResult{TotalScore: totalScore},
		},
	}
}

func newRepo() *fakeRepo {
	// Suggested range for this record: 25000..45000.
	return &fakeRepo{records: map[string]*models.ApplicationRecord{
		"app-001": pendingRecord(50000, 80000, 70),
	}}
}

func reviewerInput() *Input {
	amount := int64(30000)
	return &Input{
		ApplicationID:   "app-001",
		Actor:           models.Actor{UserID: "user-7", Roles: []string{"loan-reviewer"}},
		Decision:        models.StatusApproved,
		AllocatedAmount: &amount,
		Notes:           "standard approval",
	}
}

func TestExecuteApproves(t *testing.T) {
	repo := newRepo()
	h := NewHandler(LoadConfig(), repo, nil, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), reviewerInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, output.Status)
	assert.Equal(t, int64(30000), *output.Decision.AllocatedAmount)
	assert.Equal(t, int64(25000), output.Decision.SuggestedRange.Min)
	assert.Equal(t, int64(45000), output.Decision.SuggestedRange.Max)
	assert.Equal(t, "user-7", output.Decision.DecidedBy)
	assert.Equal(t, 1, repo.commits)
}

func TestExecuteSecondCommitConflicts(t *testing.T) {
	repo := newRepo()
	h := NewHandler(LoadConfig(), repo, nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), reviewerInput())
	require.NoError(t, err)

	input := reviewerInput()
	input.Decision = models.StatusRejected
	input.AllocatedAmount = nil
	_, err = h.Execute(context.Background(), input)

	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 1, repo.commits)
}

func TestExecuteUnauthorized(t *testing.T) {
	repo := newRepo()
	h := NewHandler(LoadConfig(), repo, nil, logger.NewTestLogger(t))

	input := reviewerInput()
	input.Actor.Roles = []string{"applicant"}
	_, err := h.Execute(context.Background(), input)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, repo.commits)
}

func TestExecuteResolvesRolesWhenMissing(t *testing.T) {
	repo := newRepo()
	resolver := &fakeResolver{roles: map[string][]string{"user-7": {"institution-admin"}}}
	h := NewHandler(LoadConfig(), repo, resolver, logger.NewTestLogger(t))

	input := reviewerInput()
	input.Actor.Roles = nil
	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, output.Status)
}

func TestExecuteRoleResolutionFailureIsRetryable(t *testing.T) {
	repo := newRepo()
	resolver := &fakeResolver{err: errors.New("keycloak unavailable")}
	h := NewHandler(LoadConfig(), repo, resolver, logger.NewTestLogger(t))

	input := reviewerInput()
	input.Actor.Roles = nil
	_, err := h.Execute(context.Background(), input)

	assert.ErrorIs(t, err, ErrRoleResolutionFailed)
	assert.Equal(t, int32(3), h.getRetryCount(err))
}

func TestExecuteRejectsUnknownDecision(t *testing.T) {
	h := NewHandler(LoadConfig(), newRepo(), nil, logger.NewTestLogger(t))

	input := reviewerInput()
	input.Decision = "DEFERRED"
	_, err := h.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestExecuteApprovalRequiresAllocation(t *testing.T) {
	h := NewHandler(LoadConfig(), newRepo(), nil, logger.NewTestLogger(t))

	input := reviewerInput()
	input.AllocatedAmount = nil
	_, err := h.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidAllocation)
}

func TestExecuteRejectionNeedsNoAllocation(t *testing.T) {
	repo := newRepo()
	h := NewHandler(LoadConfig(), repo, nil, logger.NewTestLogger(t))

	input := reviewerInput()
	input.Decision = models.StatusRejected
	input.AllocatedAmount = nil
	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, output.Status)
	assert.Nil(t, output.Decision.AllocatedAmount)
}

func TestExecuteOutOfRangeNeedsAcknowledgement(t *testing.T) {
	repo := newRepo()
	h := NewHandler(LoadConfig(), repo, nil, logger.NewTestLogger(t))

	amount := int64(50000) // above the 45000 ceiling
	input := reviewerInput()
	input.AllocatedAmount = &amount

	_, err := h.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidAllocation)
	assert.Equal(t, 0, repo.commits)

	input.AcknowledgeOutOfRange = true
	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	// Honored as given, not clamped to the ceiling.
	assert.Equal(t, int64(50000), *output.Decision.AllocatedAmount)
}

func TestExecuteInvertedRangeBlocksCommit(t *testing.T) {
	repo := &fakeRepo{records: map[string]*models.ApplicationRecord{
		"app-001": pendingRecord(100000, 10000, 20),
	}}
	h := NewHandler(LoadConfig(), repo, nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), reviewerInput())
	assert.ErrorIs(t, err, decision.ErrInvalidRange)
	assert.Equal(t, 0, repo.commits)
	assert.Equal(t, models.StatusPending, repo.records["app-001"].Status)
}

func TestExecuteNotFound(t *testing.T) {
	h := NewHandler(LoadConfig(), newRepo(), nil, logger.NewTestLogger(t))

	input := reviewerInput()
	input.ApplicationID = "app-missing"
	_, err := h.Execute(context.Background(), input)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
