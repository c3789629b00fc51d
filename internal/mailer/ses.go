package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the part of the SESv2 client used by SESTransport.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESTransport sends mail through AWS SES.
type SESTransport struct {
	client SESAPI
	logger *slog.Logger
}

// NewSESTransport loads the default AWS credential chain for region and
// creates an SES transport.
func NewSESTransport(ctx context.Context, region string, logger *slog.Logger) (*SESTransport, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewSESTransportWithClient(sesv2.NewFromConfig(awsCfg), logger), nil
}

// NewSESTransportWithClient creates an SES transport around an existing client.
func NewSESTransportWithClient(client SESAPI, logger *slog.Logger) *SESTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &SESTransport{client: client, logger: logger.With("component", "ses_transport")}
}

// Name implements Transport.
func (t *SESTransport) Name() string { return "ses" }

// Send implements Transport.
func (t *SESTransport) Send(ctx context.Context, msg Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}

	t.logger.DebugContext(ctx, "Mail accepted by ses", "message_id", aws.ToString(out.MessageId), "to", msg.To)
	return nil
}
