// internal/workers/assessment/validate-application/handler.go
package validateapplication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/common/metrics"
	"agriloan-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-application"
)

var (
	ErrValidationFailed = errors.New("VALIDATION_FAILED")

	spaceRegex    = regexp.MustCompile(`\s+`)
	nonPhoneRegex = regexp.MustCompile(`[^\d\+]`)
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "VALIDATION_FAILED", err.Error())
		return
	}

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
		h.logger.Error("failed to complete job", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	app := input.Application

	var validationErrors []ValidationError
	validationErrors = append(validationErrors, h.validateApplicant(&app.Applicant)...)
	validationErrors = append(validationErrors, h.validateFinancial(&app.Financial)...)
	validationErrors = append(validationErrors, h.validateFarm(&app.Farm)...)
	validationErrors = append(validationErrors, h.validateLoan(&app.Loan)...)

	isValid := len(validationErrors) == 0
	h.logger.Info("validation completed", map[string]interface{}{
		"isValid":    isValid,
		"errorCount": len(validationErrors),
	})

	if !isValid {
		detail, _ := json.Marshal(validationErrors)
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, detail)
	}

	return &Output{
		IsValid:          true,
		Application:      &app,
		ValidationErrors: []ValidationError{},
	}, nil
}

// validateApplicant normalizes the identity fields in place so downstream
// workers see the sanitized values.
func (h *Handler) validateApplicant(a *models.ApplicantDetails) []ValidationError {
	errs := []ValidationError{}

	a.FullName = spaceRegex.ReplaceAllString(strings.TrimSpace(a.FullName), " ")
	if !nameRegex.MatchString(a.FullName) {
		errs = append(errs, ValidationError{
			Field:   "applicant.fullName",
			Code:    "INVALID_FORMAT",
			Message: "Full name must be 2-100 characters, letters, spaces, hyphens, or apostrophes",
		})
	}

	a.Email = strings.TrimSpace(a.Email)
	if !emailRegex.MatchString(a.Email) {
		errs = append(errs, ValidationError{
			Field:   "applicant.email",
			Code:    "INVALID_FORMAT",
			Message: "Invalid email format",
		})
	}

	a.Phone = nonPhoneRegex.ReplaceAllString(strings.TrimSpace(a.Phone), "")
	if a.Phone == "" || !phoneRegex.MatchString(a.Phone) {
		errs = append(errs, ValidationError{
			Field:   "applicant.phone",
			Code:    "INVALID_FORMAT",
			Message: "Invalid phone format (E.164 recommended)",
		})
	}

	if a.Age < 18 || a.Age > 100 {
		errs = append(errs, ValidationError{
			Field:   "applicant.age",
			Code:    "OUT_OF_RANGE",
			Message: "Age must be between 18 and 100",
		})
	}

	if strings.TrimSpace(a.AccountNumber) == "" {
		errs = append(errs, ValidationError{
			Field:   "applicant.accountNumber",
			Code:    "MISSING_REQUIRED",
			Message: "Account number is required",
		})
	}

	return errs
}

func (h *Handler) validateFinancial(f *models.FinancialDetails) []ValidationError {
	errs := []ValidationError{}

	if f.AnnualRevenue <= 0 {
		errs = append(errs, ValidationError{
			Field:   "financial.annualRevenue",
			Code:    "INVALID_VALUE",
			Message: "Annual revenue must be a positive number",
		})
	}
	if f.ExistingLoans < 0 {
		errs = append(errs, ValidationError{
			Field:   "financial.existingLoans",
			Code:    "INVALID_VALUE",
			Message: "Existing loans must be a non-negative number",
		})
	}
	if f.MonthlyExpenses < 0 {
		errs = append(errs, ValidationError{
			Field:   "financial.monthlyExpenses",
			Code:    "INVALID_VALUE",
			Message: "Monthly expenses must be a non-negative number",
		})
	}
	if f.CollateralValue < 0 {
		errs = append(errs, ValidationError{
			Field:   "financial.collateralValue",
			Code:    "INVALID_VALUE",
			Message: "Collateral value must be a non-negative number",
		})
	}
	if f.CreditScore < 300 || f.CreditScore > 850 {
		errs = append(errs, ValidationError{
			Field:   "financial.creditScore",
			Code:    "OUT_OF_RANGE",
			Message: "Credit score must be between 300 and 850",
		})
	}

	return errs
}

func (h *Handler) validateFarm(f *models.FarmDetails) []ValidationError {
	errs := []ValidationError{}

	if f.FarmSizeHectares <= 0 {
		errs = append(errs, ValidationError{
			Field:   "farm.farmSizeHectares",
			Code:    "INVALID_VALUE",
			Message: "Farm size must be a positive number of hectares",
		})
	}
	if f.ExperienceYears < 0 {
		errs = append(errs, ValidationError{
			Field:   "farm.experienceYears",
			Code:    "INVALID_VALUE",
			Message: "Experience years must be a non-negative number",
		})
	}
	if f.SeasonalWorkers < 0 {
		errs = append(errs, ValidationError{
			Field:   "farm.seasonalWorkers",
			Code:    "INVALID_VALUE",
			Message: "Seasonal workers must be a non-negative number",
		})
	}

	return errs
}

func (h *Handler) validateLoan(l *models.LoanDetails) []ValidationError {
	errs := []ValidationError{}

	if l.LoanAmount <= 0 {
		errs = append(errs, ValidationError{
			Field:   "loan.loanAmount",
			Code:    "INVALID_VALUE",
			Message: "Loan amount must be a positive number",
		})
	}
	if l.LoanTermMonths <= 0 {
		errs = append(errs, ValidationError{
			Field:   "loan.loanTermMonths",
			Code:    "INVALID_VALUE",
			Message: "Loan term must be a positive number of months",
		})
	}
	if strings.TrimSpace(l.LoanPurpose) == "" {
		errs = append(errs, ValidationError{
			Field:   "loan.loanPurpose",
			Code:    "MISSING_REQUIRED",
			Message: "Loan purpose is required",
		})
	}

	return errs
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, _ = client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
