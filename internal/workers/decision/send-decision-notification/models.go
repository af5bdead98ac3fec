// internal/workers/decision/send-decision-notification/models.go
package senddecisionnotification

type Input struct {
	ApplicationID   string   `json:"applicationId"`
	FullName        string   `json:"fullName"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone,omitempty"`
	Decision        string   `json:"decision"`
	AllocatedAmount *int64   `json:"allocatedAmount,omitempty"`
	Conditions      []string `json:"conditions,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "disabled"
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)
