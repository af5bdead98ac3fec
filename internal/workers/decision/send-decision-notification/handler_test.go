// internal/workers/decision/send-decision-notification/handler_test.go
package senddecisionnotification

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/models"
)

type fakeSES struct {
	sent []*ses.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &ses.SendEmailOutput{}, nil
}

type fakeSNS struct {
	published []*sns.PublishInput
	err       error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, params)
	return &sns.PublishOutput{}, nil
}

func newTestHandler(t *testing.T, cfg *Config, sesClient SESService, snsClient SNSService) *Handler {
	return &Handler{
		config:    cfg,
		logger:    logger.NewTestLogger(t),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

func approvedInput() *Input {
	amount := int64(30000)
	return &Input{
		ApplicationID:   "app-001",
		FullName:        "Marie Kabila",
		Email:           "marie.kabila@example.com",
		Phone:           "+243811234567",
		Decision:        models.StatusApproved,
		AllocatedAmount: &amount,
	}
}

func TestExecuteSendsApprovalEmail(t *testing.T) {
	sesClient := &fakeSES{}
	h := newTestHandler(t, LoadConfig(), sesClient, &fakeSNS{})

	output, err := h.Execute(context.Background(), approvedInput())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, output.Status)
	assert.True(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	assert.NotEmpty(t, output.NotificationID)

	require.Len(t, sesClient.sent, 1)
	msg := sesClient.sent[0]
	assert.Equal(t, []string{"marie.kabila@example.com"}, msg.Destination.ToAddresses)
	assert.Contains(t, *msg.Message.Subject.Data, "approved")
	assert.Contains(t, *msg.Message.Body.Text.Data, "30000")
}

func TestExecuteConditionalListsConditions(t *testing.T) {
	sesClient := &fakeSES{}
	h := newTestHandler(t, LoadConfig(), sesClient, &fakeSNS{})

	input := approvedInput()
	input.Decision = models.StatusConditional
	input.Conditions = []string{"Improve Environmental Sustainability: Limited sustainability practices"}

	_, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	body := *sesClient.sent[0].Message.Body.Text.Data
	assert.Contains(t, body, "subject to the conditions")
	assert.Contains(t, body, "Limited sustainability practices")
}

func TestExecuteSMSWhenEnabled(t *testing.T) {
	snsClient := &fakeSNS{}
	cfg := LoadConfig()
	cfg.SMSEnabled = true
	h := newTestHandler(t, cfg, &fakeSES{}, snsClient)

	output, err := h.Execute(context.Background(), approvedInput())
	require.NoError(t, err)

	assert.True(t, output.SMSSent)
	require.Len(t, snsClient.published, 1)
	assert.Equal(t, "+243811234567", *snsClient.published[0].PhoneNumber)
}

func TestExecuteEmailFailureIsRetryable(t *testing.T) {
	h := newTestHandler(t, LoadConfig(), &fakeSES{err: errors.New("ses throttled")}, &fakeSNS{})

	_, err := h.Execute(context.Background(), approvedInput())
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
}

func TestExecuteNoRecipient(t *testing.T) {
	h := newTestHandler(t, LoadConfig(), &fakeSES{}, &fakeSNS{})

	input := approvedInput()
	input.Email = ""
	input.Phone = ""
	_, err := h.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrMissingRecipient)
}

func TestExecuteAllChannelsDisabled(t *testing.T) {
	cfg := LoadConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	h := newTestHandler(t, cfg, &fakeSES{}, &fakeSNS{})

	output, err := h.Execute(context.Background(), approvedInput())
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
}
