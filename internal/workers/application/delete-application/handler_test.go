// internal/workers/application/delete-application/handler_test.go
package deleteapplication

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/models"
	"agriloan-workers/internal/repository"
)

type fakeRepo struct {
	deleted []string
	err     error
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeIndexer struct {
	removed []string
	err     error
}

func (f *fakeIndexer) Remove(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, id)
	return nil
}

func reviewer() models.Actor {
	return models.Actor{UserID: "user-7", Roles: []string{"loan-reviewer"}}
}

func TestExecuteDeletesAndRemovesFromIndex(t *testing.T) {
	repo := &fakeRepo{}
	indexer := &fakeIndexer{}
	h := NewHandler(LoadConfig(), repo, indexer, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{ApplicationID: "app-001", Actor: reviewer()})
	require.NoError(t, err)

	assert.True(t, output.Deleted)
	assert.Equal(t, []string{"app-001"}, repo.deleted)
	assert.Equal(t, []string{"app-001"}, indexer.removed)
}

func TestExecuteUnauthorizedRoleNeverReachesRepository(t *testing.T) {
	repo := &fakeRepo{}
	h := NewHandler(LoadConfig(), repo, nil, logger.NewTestLogger(t))

	actor := models.Actor{UserID: "user-9", Roles: []string{"applicant"}}
	_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-001", Actor: actor})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, repo.deleted)
}

func TestExecuteNotFound(t *testing.T) {
	repo := &fakeRepo{err: fmt.Errorf("%w: application app-x", repository.ErrNotFound)}
	h := NewHandler(LoadConfig(), repo, nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-x", Actor: reviewer()})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestExecuteIndexRemovalFailureTolerated(t *testing.T) {
	repo := &fakeRepo{}
	indexer := &fakeIndexer{err: errors.New("es unavailable")}
	h := NewHandler(LoadConfig(), repo, indexer, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{ApplicationID: "app-001", Actor: reviewer()})
	require.NoError(t, err)
	assert.True(t, output.Deleted)
}
