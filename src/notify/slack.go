package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"pipeline-monitor/src/helpers"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

const (
	notifyRetries   = 3
	notifyBaseDelay = time.Second
)

// SlackNotifier posts one message per alert to the configured channel.
type SlackNotifier struct {
	Client  *slack.Client
	Channel string
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSlackNotifier(token, channel, logLevel string) *SlackNotifier {
	return &SlackNotifier{
		Client:  slack.New(token),
		Channel: channel,
		Logger:  logger.NewLogger(logLevel, "slack-notifier"),
	}
}

// -----------------------------------------------------------------------------

func (s *SlackNotifier) Name() string {
	return "slack"
}

// -----------------------------------------------------------------------------

func (s *SlackNotifier) Notify(ctx context.Context, alert models.MAlert) error {
	a := alert.Anomaly
	attachment := slack.Attachment{
		Color: severityColor(a.Severity),
		Title: fmt.Sprintf("[%s] %s", strings.ToUpper(a.Severity), a.Message),
		Fields: []slack.AttachmentField{
			{Title: "Domain", Value: a.Domain, Short: true},
			{Title: "Kind", Value: a.Kind, Short: true},
			{Title: "Value", Value: fmt.Sprintf("%.4g", a.Value), Short: true},
			{Title: "Threshold", Value: fmt.Sprintf("%.4g", a.Threshold), Short: true},
			{Title: "Observed", Value: a.ObservedAt.UTC().Format(time.RFC3339), Short: false},
		},
		Footer: "pipeline-monitor",
	}

	_, err := helpers.RetryWithBackoff(ctx, "slack notify", notifyRetries, notifyBaseDelay, func() (interface{}, error) {
		_, _, postErr := s.Client.PostMessageContext(ctx, s.Channel,
			slack.MsgOptionText(a.Message, false),
			slack.MsgOptionAttachments(attachment),
		)
		return nil, postErr
	})
	if err != nil {
		return &helpers.NotifyError{PipelineError: helpers.PipelineError{
			Message: fmt.Sprintf("slack delivery to %s failed", s.Channel),
			Cause:   err,
		}}
	}

	s.Logger.Debug("Delivered alert %s to %s", alert.ID, s.Channel)
	return nil
}

// -----------------------------------------------------------------------------

func severityColor(severity string) string {
	switch severity {
	case models.SeverityCritical:
		return "#8b0000"
	case models.SeverityHigh:
		return "#cc3300"
	case models.SeverityMedium:
		return "#daa038"
	default:
		return "#36a64f"
	}
}
