// internal/workers/decision/send-decision-notification/handler.go
package senddecisionnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	awsclients "agriloan-workers/internal/common/aws"
	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/common/metrics"
	"agriloan-workers/internal/models"
)

const (
	TaskType = "send-decision-notification"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrMissingRecipient       = errors.New("MISSING_RECIPIENT")
)

// Interfaces over the AWS clients so tests can swap them out.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	ctx := context.Background()

	sesClient, err := awsclients.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	snsClient, err := awsclients.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SNS client: %w", err)
	}

	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sesClient,
		snsClient: snsClient,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "NOTIFICATION_SEND_FAILED"
		retries := int32(0)
		// The decision is already committed; a failed delivery retries
		// without ever touching the application row.
		if errors.Is(err, ErrNotificationSendFailed) {
			retries = 3
		}
		if errors.Is(err, ErrMissingRecipient) {
			errorCode = "MISSING_RECIPIENT"
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Email == "" && input.Phone == "" {
		return nil, fmt.Errorf("%w: application %s has no contact details", ErrMissingRecipient, input.ApplicationID)
	}

	subject := buildSubject(input)
	body := buildBody(input)

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && input.Email != "" {
		if err := h.sendEmail(ctx, input.Email, subject, body); err != nil {
			return nil, fmt.Errorf("%w: email to %s: %v", ErrNotificationSendFailed, input.Email, err)
		}
		emailSent = true
	}

	if h.config.SMSEnabled && input.Phone != "" {
		if err := h.sendSMS(ctx, input.Phone, smsText(input)); err != nil {
			return nil, fmt.Errorf("%w: sms to %s: %v", ErrNotificationSendFailed, input.Phone, err)
		}
		smsSent = true
	}

	status := StatusDisabled
	if emailSent || smsSent {
		status = StatusSent
	}

	h.logger.Info("decision notification processed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"decision":      input.Decision,
		"status":        status,
		"emailSent":     emailSent,
		"smsSent":       smsSent,
	})

	return &Output{
		NotificationID: uuid.New().String(),
		Status:         status,
		EmailSent:      emailSent,
		SMSSent:        smsSent,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func buildSubject(input *Input) string {
	switch input.Decision {
	case models.StatusApproved:
		return "Your agricultural loan application has been approved"
	case models.StatusConditional:
		return "Your agricultural loan application has been conditionally approved"
	case models.StatusRejected:
		return "Update on your agricultural loan application"
	}
	return "Decision on your agricultural loan application"
}

func buildBody(input *Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", input.FullName)

	switch input.Decision {
	case models.StatusApproved:
		fmt.Fprintf(&b, "We are pleased to inform you that your loan application (ref %s) has been approved.\n", input.ApplicationID)
	case models.StatusConditional:
		fmt.Fprintf(&b, "Your loan application (ref %s) has been approved subject to the conditions below.\n", input.ApplicationID)
	case models.StatusRejected:
		fmt.Fprintf(&b, "After careful review, we are unable to approve your loan application (ref %s) at this time.\n", input.ApplicationID)
	}

	if input.AllocatedAmount != nil {
		fmt.Fprintf(&b, "\nAllocated amount: %d\n", *input.AllocatedAmount)
	}
	if len(input.Conditions) > 0 {
		b.WriteString("\nConditions:\n")
		for _, c := range input.Conditions {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}
	if input.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", input.Notes)
	}

	b.WriteString("\nYour financial institution\n")
	return b.String()
}

func smsText(input *Input) string {
	return fmt.Sprintf("Loan application %s: decision %s. Check your email for details.",
		input.ApplicationID, input.Decision)
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
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
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
