// internal/common/aws/notifier.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"artisan-workers/internal/common/config"
	"artisan-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier delivers completion fan-out over SNS and operator alerts over
// SES. Both paths are best effort: a delivery failure is logged and
// swallowed so that it can never fail the pipeline that triggered it.
type Notifier struct {
	config    *config.NotificationConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewNotifier(ctx context.Context, cfg *config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Notifier{
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient: NewSESClient(awsCfg),
		snsClient: NewSNSClient(awsCfg),
	}, nil
}

// NewNotifierWithClients wires explicit service clients. Used in tests.
func NewNotifierWithClients(cfg *config.NotificationConfig, log logger.Logger, sesClient SESService, snsClient SNSService) *Notifier {
	return &Notifier{
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

// PublishCompletion fans out a completion payload to the configured SNS
// topic. No-op when no topic ARN is configured.
func (n *Notifier) PublishCompletion(ctx context.Context, subject string, payload interface{}) {
	if n == nil || n.config.SNSTopicARN == "" {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("marshal completion payload failed", map[string]interface{}{
			"error": err,
		})
		return
	}

	_, err = n.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.SNSTopicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		n.logger.Error("SNS publish failed", map[string]interface{}{
			"error":   err,
			"subject": subject,
		})
		return
	}

	n.logger.Debug("completion published", map[string]interface{}{
		"subject": subject,
	})
}

// AlertOperator emails the on-call address about a fault that needs a
// human look, typically one the classifier could not categorize.
func (n *Notifier) AlertOperator(ctx context.Context, subject, detail string) {
	if n == nil || !n.config.AlertsEnabled || n.config.AlertTo == "" {
		return
	}

	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{n.config.AlertTo},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(detail)},
			},
		},
		Source: aws.String(n.config.AlertFrom),
	})
	if err != nil {
		n.logger.Error("operator alert failed", map[string]interface{}{
			"error":   err,
			"subject": subject,
		})
		return
	}

	n.logger.Info("operator alerted", map[string]interface{}{
		"subject": subject,
	})
}
