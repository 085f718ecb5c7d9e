// internal/notify/notifier.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	awsclients "loan-origination/internal/common/aws"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Delivery statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// Notifier delivers applicant notifications.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) (*models.NotificationResult, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
}

// AWSNotifier sends email through SES and SMS through SNS.
type AWSNotifier struct {
	config *Config
	ses    awsclients.SESService
	sns    awsclients.SNSService
	logger logger.Logger
}

func NewAWSNotifier(config *Config, sesClient awsclients.SESService, snsClient awsclients.SNSService, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		config: config,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// Notify attempts every enabled channel; a failed channel is reported in
// the result and, when nothing was delivered, as ErrNotificationSendFailed.
func (n *AWSNotifier) Notify(ctx context.Context, msg models.Notification) (*models.NotificationResult, error) {
	res := &models.NotificationResult{EmailStatus: StatusDisabled, SMSStatus: StatusDisabled}
	var errs []error

	if n.config.EmailEnabled && msg.Email != "" {
		out, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
			Destination: &types.Destination{ToAddresses: []string{msg.Email}},
			Message: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body)},
				},
			},
			Source: aws.String(n.config.FromEmail),
		})
		if err != nil {
			res.EmailStatus = StatusFailed
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			res.EmailStatus = StatusSent
			res.MessageID = aws.ToString(out.MessageId)
		}
	}

	if n.config.SMSEnabled && msg.Phone != "" {
		in := &sns.PublishInput{
			PhoneNumber: aws.String(e164(msg.Phone)),
			Message:     aws.String(msg.Body),
		}
		if n.config.SenderID != "" {
			in.MessageAttributes = map[string]snstypes.MessageAttributeValue{
				"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(n.config.SenderID)},
			}
		}
		out, err := n.sns.Publish(ctx, in)
		if err != nil {
			res.SMSStatus = StatusFailed
			errs = append(errs, fmt.Errorf("sms: %w", err))
		} else {
			res.SMSStatus = StatusSent
			if res.MessageID == "" {
				res.MessageID = aws.ToString(out.MessageId)
			}
		}
	}

	if len(errs) > 0 {
		n.logger.WithError(errors.Join(errs...)).Warn("notification delivery failed", map[string]interface{}{
			"applicationId": msg.ApplicationID,
			"status":        string(msg.Status),
		})
		if res.EmailStatus != StatusSent && res.SMSStatus != StatusSent {
			return res, fmt.Errorf("%w: %v", ErrNotificationSendFailed, errors.Join(errs...))
		}
	}
	return res, nil
}

// NoopNotifier drops every notification.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, models.Notification) (*models.NotificationResult, error) {
	return &models.NotificationResult{EmailStatus: StatusDisabled, SMSStatus: StatusDisabled}, nil
}

// Compose builds the notification for the latest outcome of stage, if that
// outcome is one the applicant is told about.
func Compose(app *models.Application, stage models.Stage) (models.Notification, bool) {
	result := app.Result(stage)
	kind := ""
	switch {
	case result.Status == models.StatusApproved && stage == models.StagePreQualification:
		kind = TypePrequalified
	case result.Status == models.StatusRejected || result.Status == models.StatusFail:
		kind = TypeRejected
	case result.Status == models.StatusManualReview:
		kind = TypeManualReview
	case result.Status == models.StatusFunded:
		kind = TypeFunded
	case result.Status.IsFundingFailure():
		kind = TypeFundingFailed
	default:
		return models.Notification{}, false
	}

	data := map[string]interface{}{
		"applicationId": app.ID,
		"stage":         stage.Label(),
		"reason":        result.Reason,
	}
	msg := models.Notification{ApplicationID: app.ID, Stage: stage, Status: result.Status}
	if a := app.Applicant; a != nil {
		msg.RecipientName = a.Name
		msg.Email = a.Email
		msg.Phone = a.Phone
		data["applicantName"] = a.Name
	}
	switch kind {
	case TypePrequalified:
		data["amount"] = result.Payload["estimatedLoanAmount"]
	case TypeFunded:
		if app.Terms != nil {
			data["amount"] = app.Terms.Amount
		}
		data["reference"] = app.FundingReference
	}

	t := templates[kind]
	msg.Subject = renderTemplate(t.Subject, data)
	msg.Body = renderTemplate(t.Body, data)
	return msg, true
}

func e164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+91" + phone
}
