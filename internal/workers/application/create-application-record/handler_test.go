// internal/workers/application/create-application-record/handler_test.go
package createapplicationrecord

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/models"
	"agriloan-workers/internal/repository"
	"agriloan-workers/internal/scoring"
)

type fakeIndexer struct {
	indexed []*models.ApplicationRecord
	err     error
}

func (f *fakeIndexer) Index(_ context.Context, record *models.ApplicationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, record)
	return nil
}

func testInput() *Input {
	app := models.ApplicationInput{
		Applicant: models.ApplicantDetails{
			FullName: "Marie Kabila",
			Email:    "marie.kabila@example.com",
			Phone:    "+243811234567",
			Age:      42,
		},
		Financial: models.FinancialDetails{
			AnnualRevenue:   120000,
			MonthlyExpenses: 3000,
			CollateralValue: 45000,
			ExistingLoans:   15000,
			CreditScore:     710,
		},
		Farm: models.FarmDetails{FarmSizeHectares: 80, ExperienceYears: 12},
		Loan: models.LoanDetails{LoanAmount: 60000, LoanPurpose: "equipment", LoanTermMonths: 36},
	}
	return &Input{
		Application: app,
		Assessment:  scoring.Assess(app),
	}
}

func TestExecuteCreatesRecordAndIndexes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := repository.NewApplicationRepository(db, logger.NewNoOpLogger())
	indexer := &fakeIndexer{}
	h := NewHandler(LoadConfig(), repo, indexer, logger.NewTestLogger(t))

	input := testInput()
	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.NotEmpty(t, output.ApplicationID)
	assert.Equal(t, models.StatusPending, output.Status)
	assert.Equal(t, input.Assessment.TotalScore, output.TotalScore)
	assert.NotEmpty(t, output.ApplicationDate)

	require.Len(t, indexer.indexed, 1)
	assert.Equal(t, output.ApplicationID, indexer.indexed[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteIndexFailureDoesNotFailJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := repository.NewApplicationRepository(db, logger.NewNoOpLogger())
	indexer := &fakeIndexer{err: errors.New("es unavailable")}
	h := NewHandler(LoadConfig(), repo, indexer, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, output.Status)
}

func TestExecuteInsertFailureIsRetryable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(errors.New("connection reset"))

	repo := repository.NewApplicationRepository(db, logger.NewNoOpLogger())
	h := NewHandler(LoadConfig(), repo, nil, logger.NewTestLogger(t))

	_, err = h.Execute(context.Background(), testInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrQueryFailed)
}

func TestExecuteIndexingDisabled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := repository.NewApplicationRepository(db, logger.NewNoOpLogger())
	indexer := &fakeIndexer{}

	cfg := LoadConfig()
	cfg.IndexEnabled = false
	h := NewHandler(cfg, repo, indexer, logger.NewTestLogger(t))

	_, err = h.Execute(context.Background(), testInput())
	require.NoError(t, err)
	assert.Empty(t, indexer.indexed)
}
