// internal/common/errors/errors_test.go
package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		retries int
	}{
		{ErrCodeDatabaseInsertFailed, 3},
		{ErrCodeQueryExecutionFailed, 3},
		{ErrCodeSearchQueryFailed, 3},
		{ErrCodeNotificationSendFailed, 3},
		{ErrCodeQueryTimeout, 2},
		{ErrCodeSearchTimeout, 2},
		{ErrCodeValidationFailed, 0},
		{ErrCodeDecisionConflict, 0},
		{ErrCodeUnauthorized, 0},
		{ErrCodeInvalidRange, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.retries, GetRetryCount(tt.code))
			assert.Equal(t, tt.retries > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewDecisionConflictError("app-001")

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "DECISION_CONFLICT", bpmnErr.Code)
	assert.Equal(t, 0, bpmnErr.Retries)
	assert.False(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "DECISION_CONFLICT", vars["errorCode"])
	assert.Equal(t, "DECISION_CONFLICT", vars["originalErrorCode"])
}

func TestConvertToBPMNErrorClampsNonRetryable(t *testing.T) {
	// A code that would normally retry, marked non-retryable by the caller.
	stdErr := NewQueryExecutionFailedError("list", assert.AnError)
	stdErr.Retryable = false

	bpmnErr := ConvertToBPMNError(stdErr)
	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchTimeout))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidDecision))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeUnauthorized))
	assert.Equal(t, "LIFECYCLE", GetErrorCategory(ErrCodeDecisionConflict))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}
