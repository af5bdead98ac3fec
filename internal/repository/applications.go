// internal/repository/applications.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/models"
)

var (
	ErrNotFound    = errors.New("APPLICATION_NOT_FOUND")
	ErrConflict    = errors.New("DECISION_CONFLICT")
	ErrQueryFailed = errors.New("QUERY_EXECUTION_FAILED")
)

// ListFilter narrows List results. Zero value lists everything.
type ListFilter struct {
	Status string
	Limit  int
}

// ApplicationRepository owns all reads and writes of application rows.
// Workers hold it instead of raw connections so the decision write-once
// guarantee lives in exactly one place.
type ApplicationRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicationRepository(db *sql.DB, log logger.Logger) *ApplicationRepository {
	return &ApplicationRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "application-repository"}),
	}
}

// Create persists a scored application as PENDING with no decision. The
// denormalized columns mirror the payload for listing without JSON parsing.
func (r *ApplicationRepository) Create(ctx context.Context, input models.ApplicationInput, assessment models.AssessmentResult) (*models.ApplicationRecord, error) {
	record := &models.ApplicationRecord{
		ID:              uuid.New().String(),
		FullName:        input.Applicant.FullName,
		Email:           input.Applicant.Email,
		Phone:           input.Applicant.Phone,
		LoanAmount:      input.Loan.LoanAmount,
		ApplicationDate: time.Now().UTC(),
		TotalScore:      assessment.TotalScore,
		Status:          models.StatusPending,
		Payload: models.ApplicationPayload{
			Input:      input,
			Assessment: assessment,
		},
	}

	payloadJSON, err := json.Marshal(record.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", ErrQueryFailed, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, full_name, email, phone, loan_amount,
			application_date, total_score, status, application_data, institution_decision
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL)`,
		record.ID,
		record.FullName,
		record.Email,
		record.Phone,
		record.LoanAmount,
		record.ApplicationDate,
		record.TotalScore,
		record.Status,
		payloadJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrQueryFailed, err)
	}

	r.auditLog(ctx, "application_created", record.ID, map[string]interface{}{
		"fullName":   record.FullName,
		"loanAmount": record.LoanAmount,
		"totalScore": record.TotalScore,
	})

	return record, nil
}

// Get returns the full record or ErrNotFound.
func (r *ApplicationRepository) Get(ctx context.Context, id string) (*models.ApplicationRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, phone, loan_amount,
		       application_date, total_score, status, application_data, institution_decision
		FROM applications
		WHERE id = $1`, id)

	return scanRecord(row, id)
}

// List returns summaries newest-first, optionally filtered by status.
func (r *ApplicationRepository) List(ctx context.Context, filter ListFilter) ([]models.ApplicationSummary, error) {
	query := `
		SELECT id, full_name, loan_amount, application_date, total_score, status
		FROM applications`
	args := []interface{}{}

	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY application_date DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list failed: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	summaries := []models.ApplicationSummary{}
	for rows.Next() {
		var s models.ApplicationSummary
		if err := rows.Scan(&s.ID, &s.FullName, &s.LoanAmount, &s.ApplicationDate, &s.TotalScore, &s.Status); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", ErrQueryFailed, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %v", ErrQueryFailed, err)
	}

	return summaries, nil
}

// CommitDecision moves a PENDING application to its terminal status and
// stores the decision in the same statement, so no reader can ever observe
// one without the other. The conditional WHERE makes the write race-safe:
// concurrent commits resolve to exactly one winner, the rest get
// ErrConflict. A committed decision is never overwritten.
func (r *ApplicationRepository) CommitDecision(ctx context.Context, id string, decision models.InstitutionDecision) (*models.ApplicationRecord, error) {
	decisionJSON, err := json.Marshal(decision)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal decision: %v", ErrQueryFailed, err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, institution_decision = $3
		WHERE id = $1 AND status = $4 AND institution_decision IS NULL`,
		id, decision.Decision, decisionJSON, models.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: commit decision: %v", ErrQueryFailed, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: rows affected: %v", ErrQueryFailed, err)
	}

	if affected == 0 {
		// Nothing matched: either the row is missing or it already left
		// PENDING. Disambiguate with an existence read.
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, id,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("%w: conflict check: %v", ErrQueryFailed, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: application %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: application %s already decided", ErrConflict, id)
	}

	r.auditLog(ctx, "decision_committed", id, map[string]interface{}{
		"decision":  decision.Decision,
		"decidedBy": decision.DecidedBy,
	})

	return r.Get(ctx, id)
}

// Delete removes an application unconditionally, decided or not.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete failed: %v", ErrQueryFailed, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", ErrQueryFailed, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: application %s", ErrNotFound, id)
	}

	r.auditLog(ctx, "application_deleted", id, nil)

	return nil
}

func scanRecord(row *sql.Row, id string) (*models.ApplicationRecord, error) {
	var record models.ApplicationRecord
	var payloadJSON []byte
	var decisionJSON []byte

	err := row.Scan(
		&record.ID, &record.FullName, &record.Email, &record.Phone, &record.LoanAmount,
		&record.ApplicationDate, &record.TotalScore, &record.Status, &payloadJSON, &decisionJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: application %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan record: %v", ErrQueryFailed, err)
	}

	if err := json.Unmarshal(payloadJSON, &record.Payload); err != nil {
		return nil, fmt.Errorf("%w: unmarshal payload: %v", ErrQueryFailed, err)
	}
	if len(decisionJSON) > 0 {
		var decision models.InstitutionDecision
		if err := json.Unmarshal(decisionJSON, &decision); err != nil {
			return nil, fmt.Errorf("%w: unmarshal decision: %v", ErrQueryFailed, err)
		}
		record.Decision = &decision
	}

	return &record, nil
}

// Audit writes are best-effort; a failed entry never fails the operation.
func (r *ApplicationRepository) auditLog(ctx context.Context, eventType, resourceID string, details map[string]interface{}) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		eventType, "application", resourceID, detailsJSON, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err,
			"eventType":     eventType,
			"applicationId": resourceID,
		})
	}
}
