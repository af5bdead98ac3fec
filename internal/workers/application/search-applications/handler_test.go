// internal/workers/application/search-applications/handler_test.go
package searchapplications

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/models"
	"agriloan-workers/internal/search"
)

type fakeSearcher struct {
	result     *search.Result
	err        error
	lastFilter search.Filter
}

func (f *fakeSearcher) Search(_ context.Context, filter search.Filter) (*search.Result, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestExecuteReturnsHits(t *testing.T) {
	searcher := &fakeSearcher{result: &search.Result{
		Applications: []models.ApplicationSummary{
			{ID: "app-2", Status: models.StatusPending, TotalScore: 80},
			{ID: "app-1", Status: models.StatusPending, TotalScore: 60},
		},
		TotalHits: 2,
		Took:      3,
	}}
	h := NewHandler(LoadConfig(), searcher, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Filter: search.Filter{Status: models.StatusPending}})
	require.NoError(t, err)

	assert.Equal(t, int64(2), output.TotalHits)
	assert.Len(t, output.Applications, 2)
	assert.Equal(t, models.StatusPending, searcher.lastFilter.Status)
}

func TestExecuteRejectsUnknownStatus(t *testing.T) {
	h := NewHandler(LoadConfig(), &fakeSearcher{}, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Filter: search.Filter{Status: "ARCHIVED"}})
	assert.ErrorIs(t, err, ErrInvalidSearchFilter)
}

func TestExecuteRejectsInvertedScoreWindow(t *testing.T) {
	h := NewHandler(LoadConfig(), &fakeSearcher{}, logger.NewTestLogger(t))

	lo, hi := 80.0, 20.0
	_, err := h.Execute(context.Background(), &Input{Filter: search.Filter{MinScore: &lo, MaxScore: &hi}})
	assert.ErrorIs(t, err, ErrInvalidSearchFilter)
}

func TestExecuteCapsPageSize(t *testing.T) {
	searcher := &fakeSearcher{result: &search.Result{}}
	h := NewHandler(LoadConfig(), searcher, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Filter: search.Filter{Size: 5000}})
	require.NoError(t, err)
	assert.Equal(t, LoadConfig().MaxSize, searcher.lastFilter.Size)
}

func TestExecuteSearchFailurePropagates(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("%w: boom", search.ErrSearchFailed)}
	h := NewHandler(LoadConfig(), searcher, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, search.ErrSearchFailed)
	assert.Equal(t, int32(3), h.getRetryCount(err))
}
