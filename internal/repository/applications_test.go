// internal/repository/applications_test.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/models"
)

func testInput() models.ApplicationInput {
	return models.ApplicationInput{
		Applicant: models.ApplicantDetails{
			FullName: "Amina Kabila",
			Email:    "amina@example.com",
			Phone:    "+243-555-0101",
		},
		Financial: models.FinancialDetails{
			AnnualRevenue: 80000,
			CreditScore:   700,
		},
		Loan: models.LoanDetails{
			LoanAmount:     50000,
			LoanPurpose:    "equipment",
			LoanTermMonths: 36,
		},
	}
}

func testAssessment() models.AssessmentResult {
	return models.AssessmentResult{
		Scores: []models.CriteriaScore{
			{Category: models.CategoryFinancialHealth, Score: 7, MaxScore: 10},
			{Category: models.CategoryFarmAssessment, Score: 7, MaxScore: 10},
			{Category: models.CategorySustainability, Score: 7, MaxScore: 10},
			{Category: models.CategoryLoanFeasibility, Score: 7, MaxScore: 10},
		},
		TotalScore: 70,
	}
}

func recordRows(t *testing.T, id, status string, decision *models.InstitutionDecision) *sqlmock.Rows {
	t.Helper()

	payloadJSON, err := json.Marshal(models.ApplicationPayload{
		Input:      testInput(),
		Assessment: testAssessment(),
	})
	require.NoError(t, err)

	var decisionJSON interface{}
	if decision != nil {
		b, err := json.Marshal(decision)
		require.NoError(t, err)
		decisionJSON = b
	}

	return sqlmock.NewRows([]string{
		"id", "full_name", "email", "phone", "loan_amount",
		"application_date", "total_score", "status", "application_data", "institution_decision",
	}).AddRow(
		id, "Amina Kabila", "amina@example.com", "+243-555-0101", 50000.0,
		time.Now().UTC(), 70.0, status, payloadJSON, decisionJSON,
	)
}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(
			sqlmock.AnyArg(), // uuid
			"Amina Kabila",
			"amina@example.com",
			"+243-555-0101",
			50000.0,
			sqlmock.AnyArg(), // application_date
			70.0,
			"PENDING",
			sqlmock.AnyArg(), // payload JSON
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("application_created", "application", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	record, err := repo.Create(context.Background(), testInput(), testAssessment())

	assert.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.StatusPending, record.Status)
	assert.Nil(t, record.Decision)
	assert.Equal(t, 70.0, record.TotalScore)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_AuditFailureTolerated(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnError(errors.New("audit table unavailable"))

	repo := NewApplicationRepository(db, logger.NewNoOpLogger())

	record, err := repo.Create(context.Background(), testInput(), testAssessment())

	assert.NoError(t, err)
	assert.NotNil(t, record)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, full_name`).
		WithArgs("app-001").
		WillReturnRows(recordRows(t, "app-001", models.StatusPending, nil))

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	record, err := repo.Get(context.Background(), "app-001")

	assert.NoError(t, err)
	assert.Equal(t, "app-001", record.ID)
	assert.Equal(t, models.StatusPending, record.Status)
	assert.Equal(t, "equipment", record.Payload.Input.Loan.LoanPurpose)
	assert.Len(t, record.Payload.Assessment.Scores, 4)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, full_name`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "full_name", "email", "phone", "loan_amount",
			"application_date", "total_score", "status", "application_data", "institution_decision",
		}))

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	record, err := repo.Get(context.Background(), "missing")

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, record)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_StatusFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "full_name", "loan_amount", "application_date", "total_score", "status"}).
		AddRow("app-002", "Joseph Ilunga", 30000.0, time.Now().UTC(), 55.0, "PENDING").
		AddRow("app-001", "Amina Kabila", 50000.0, time.Now().UTC().Add(-time.Hour), 70.0, "PENDING")

	mock.ExpectQuery(`SELECT id, full_name, loan_amount`).
		WithArgs("PENDING").
		WillReturnRows(rows)

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	summaries, err := repo.List(context.Background(), ListFilter{Status: models.StatusPending})

	assert.NoError(t, err)
	assert.Len(t, summaries, 2)
	assert.Equal(t, "app-002", summaries[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, full_name, loan_amount`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "loan_amount", "application_date", "total_score", "status"}))

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	summaries, err := repo.List(context.Background(), ListFilter{})

	assert.NoError(t, err)
	assert.Empty(t, summaries)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func testDecision() models.InstitutionDecision {
	allocated := int64(40000)
	return models.InstitutionDecision{
		Decision:        models.StatusApproved,
		SuggestedRange:  models.SuggestedRange{Min: 25000, Max: 45000},
		AllocatedAmount: &allocated,
		Conditions:      []string{"Provide updated bank statements"},
		DecidedBy:       "reviewer-7",
		DecidedAt:       time.Now().UTC(),
	}
}

func TestRepository_CommitDecision(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	decision := testDecision()

	mock.ExpectExec(`UPDATE applications`).
		WithArgs("app-001", "APPROVED", sqlmock.AnyArg(), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("decision_committed", "application", "app-001", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery(`SELECT id, full_name`).
		WithArgs("app-001").
		WillReturnRows(recordRows(t, "app-001", models.StatusApproved, &decision))

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	record, err := repo.CommitDecision(context.Background(), "app-001", decision)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusApproved, record.Status)
	require.NotNil(t, record.Decision)
	assert.Equal(t, models.StatusApproved, record.Decision.Decision)
	assert.Equal(t, int64(40000), *record.Decision.AllocatedAmount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CommitDecision_Conflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	// Conditional update misses because the row already left PENDING.
	mock.ExpectExec(`UPDATE applications`).
		WithArgs("app-001", "REJECTED", sqlmock.AnyArg(), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	decision := testDecision()
	decision.Decision = models.StatusRejected
	decision.AllocatedAmount = nil

	record, err := repo.CommitDecision(context.Background(), "app-001", decision)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Nil(t, record)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CommitDecision_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE applications`).
		WithArgs("ghost", "APPROVED", sqlmock.AnyArg(), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	record, err := repo.CommitDecision(context.Background(), "ghost", testDecision())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, record)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM applications`).
		WithArgs("app-001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("application_deleted", "application", "app-001", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	assert.NoError(t, repo.Delete(context.Background(), "app-001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM applications`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewApplicationRepository(db, logger.NewTestLogger(t))

	err = repo.Delete(context.Background(), "ghost")

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}
