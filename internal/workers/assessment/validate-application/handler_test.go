// internal/workers/assessment/validate-application/handler_test.go
package validateapplication

import (
	"context"
	"testing"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApplication() models.ApplicationInput {
	return models.ApplicationInput{
		Applicant: models.ApplicantDetails{
			AccountNumber: "ACC-2201",
			FullName:      "Marie Kabila",
			Email:         "marie.kabila@example.com",
			Phone:         "+243811234567",
			Address:       "12 Avenue des Palmiers, Lubumbashi",
			Age:           42,
			NationalID:    "CD-99-1234",
		},
		Company: models.CompanyDetails{
			CompanyName: "Ferme Kabila SARL",
			RCCM:        "CD/LSH/RCCM/22-B-01234",
		},
		Financial: models.FinancialDetails{
			AnnualRevenue:   120000,
			ExistingLoans:   15000,
			MonthlyExpenses: 3000,
			CollateralValue: 45000,
			CreditScore:     710,
		},
		Farm: models.FarmDetails{
			FarmSizeHectares: 80,
			CropTypes:        []string{"maize", "cassava"},
			LandOwnership:    "owned",
			IrrigationSystem: "modern",
			ExperienceYears:  12,
			SeasonalWorkers:  8,
		},
		Loan: models.LoanDetails{
			LoanAmount:      60000,
			LoanPurpose:     "equipment",
			LoanTermMonths:  36,
			RepaymentSource: "harvest revenue",
		},
	}
}

func TestExecuteValidApplication(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Application: validApplication()})
	require.NoError(t, err)

	assert.True(t, output.IsValid)
	assert.Empty(t, output.ValidationErrors)
	require.NotNil(t, output.Application)
	assert.Equal(t, "Marie Kabila", output.Application.Applicant.FullName)
}

func TestExecuteSanitizesApplicantFields(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	app := validApplication()
	app.Applicant.FullName = "  Marie   Kabila "
	app.Applicant.Email = " marie.kabila@example.com "
	app.Applicant.Phone = "+243 (81) 123-4567"

	output, err := h.Execute(context.Background(), &Input{Application: app})
	require.NoError(t, err)

	assert.Equal(t, "Marie Kabila", output.Application.Applicant.FullName)
	assert.Equal(t, "marie.kabila@example.com", output.Application.Applicant.Email)
	assert.Equal(t, "+243811234567", output.Application.Applicant.Phone)
}

func TestExecuteAccumulatesFieldErrors(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	app := validApplication()
	app.Applicant.FullName = "M"
	app.Applicant.Email = "not-an-email"
	app.Applicant.Age = 17
	app.Financial.AnnualRevenue = 0
	app.Financial.CreditScore = 200
	app.Loan.LoanTermMonths = 0

	_, err := h.Execute(context.Background(), &Input{Application: app})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	// Every bad field shows up in the error detail, not just the first.
	assert.Contains(t, err.Error(), "applicant.fullName")
	assert.Contains(t, err.Error(), "applicant.email")
	assert.Contains(t, err.Error(), "applicant.age")
	assert.Contains(t, err.Error(), "financial.annualRevenue")
	assert.Contains(t, err.Error(), "financial.creditScore")
	assert.Contains(t, err.Error(), "loan.loanTermMonths")
}

func TestValidateFinancialBounds(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name      string
		mutate    func(*models.FinancialDetails)
		wantField string
	}{
		{
			name:      "negative existing loans",
			mutate:    func(f *models.FinancialDetails) { f.ExistingLoans = -1 },
			wantField: "financial.existingLoans",
		},
		{
			name:      "negative monthly expenses",
			mutate:    func(f *models.FinancialDetails) { f.MonthlyExpenses = -50 },
			wantField: "financial.monthlyExpenses",
		},
		{
			name:      "negative collateral",
			mutate:    func(f *models.FinancialDetails) { f.CollateralValue = -1 },
			wantField: "financial.collateralValue",
		},
		{
			name:      "credit score above ceiling",
			mutate:    func(f *models.FinancialDetails) { f.CreditScore = 900 },
			wantField: "financial.creditScore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validApplication().Financial
			tt.mutate(&f)
			errs := h.validateFinancial(&f)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantField, errs[0].Field)
		})
	}
}

func TestValidateLoanRequiredFields(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	l := models.LoanDetails{LoanAmount: 0, LoanPurpose: "  ", LoanTermMonths: -6}
	errs := h.validateLoan(&l)

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"loan.loanAmount", "loan.loanTermMonths", "loan.loanPurpose"}, fields)
}

func TestValidateFarmRejectsZeroSize(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	f := validApplication().Farm
	f.FarmSizeHectares = 0
	errs := h.validateFarm(&f)
	require.Len(t, errs, 1)
	assert.Equal(t, "farm.farmSizeHectares", errs[0].Field)
	assert.Equal(t, "INVALID_VALUE", errs[0].Code)
}
