// internal/models/application.go
package models

// ApplicationInput is the full loan application as captured by the form layer.
// Scoring treats it as immutable; corrections arrive as whole new submissions.
type ApplicationInput struct {
	Applicant ApplicantDetails `json:"applicant"`
	Company   CompanyDetails   `json:"company"`
	Financial FinancialDetails `json:"financial"`
	Farm      FarmDetails      `json:"farm"`
	Loan      LoanDetails      `json:"loan"`
}

type ApplicantDetails struct {
	AccountNumber string `json:"accountNumber"`
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Age           int    `json:"age"`
	NationalID    string `json:"nationalId"`
	Gender        string `json:"gender"`
}

type CompanyDetails struct {
	CompanyName          string `json:"companyName"`
	RCCM                 string `json:"rccm"`
	IDNat                string `json:"idNat"`
	TaxNumber            string `json:"taxNumber"`
	CreationDate         string `json:"creationDate"`
	CompanyAccountNumber string `json:"companyAccountNumber"`
}

type FinancialDetails struct {
	AnnualRevenue   float64  `json:"annualRevenue"`
	ExistingLoans   float64  `json:"existingLoans"`
	MonthlyExpenses float64  `json:"monthlyExpenses"`
	CollateralValue float64  `json:"collateralValue"`
	CreditScore     int      `json:"creditScore"`
	BankStatements  []string `json:"bankStatements,omitempty"`
}

type FarmDetails struct {
	FarmSizeHectares float64  `json:"farmSizeHectares"`
	CropTypes        []string `json:"cropTypes,omitempty"`
	LandOwnership    string   `json:"landOwnership"`
	IrrigationSystem string   `json:"irrigationSystem"`
	ExperienceYears  int      `json:"experienceYears"`
	SeasonalWorkers  int      `json:"seasonalWorkers"`
	EquipmentOwned   []string `json:"equipmentOwned,omitempty"`
	Certifications   []string `json:"certifications,omitempty"`
	FarmAddress      string   `json:"farmAddress"`
}

type LoanDetails struct {
	LoanAmount              float64  `json:"loanAmount"`
	LoanPurpose             string   `json:"loanPurpose"`
	LoanTermMonths          int      `json:"loanTermMonths"`
	RepaymentSource         string   `json:"repaymentSource"`
	SustainabilityPractices []string `json:"sustainabilityPractices,omitempty"`
}

// Actor identifies the user performing a gated operation. Roles come from the
// identity layer and ride along in the job variables.
type Actor struct {
	UserID   string   `json:"userId"`
	FullName string   `json:"fullName,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}
