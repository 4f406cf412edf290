// internal/sms/sns.go

package sms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

// SNSTransport implements Transport using AWS SNS direct-to-phone publishing
type SNSTransport struct {
	config AWSConfig
	region string

	mu  sync.Mutex
	api snsiface.SNSAPI
	// newAPI is deferred so missing credentials fail closed at send time
	newAPI func() (snsiface.SNSAPI, error)
}

// NewSNSTransport creates a new SNS transport
func NewSNSTransport(config AWSConfig, timeout time.Duration, region string) *SNSTransport {
	config = config.withDefaults()
	t := &SNSTransport{
		config: config,
		region: region,
	}
	t.newAPI = func() (snsiface.SNSAPI, error) {
		awsConfig := &aws.Config{
			Region:      aws.String(config.Region),
			Credentials: credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
			HTTPClient:  newHTTPClient(timeout, false),
		}
		if config.Endpoint != "" {
			awsConfig.Endpoint = aws.String(config.Endpoint)
		}
		sess, err := session.NewSession(awsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		return sns.New(sess), nil
	}
	return t
}

// newSNSTransportWithAPI wires a prepared SNS client, used by tests
func newSNSTransportWithAPI(config AWSConfig, region string, api snsiface.SNSAPI) *SNSTransport {
	return &SNSTransport{
		config: config.withDefaults(),
		region: region,
		api:    api,
	}
}

// Provider returns the SNS provider tag
func (t *SNSTransport) Provider() Provider {
	return ProviderAWSSNS
}

// Send publishes the message straight to the phone number
func (t *SNSTransport) Send(ctx context.Context, phone, message string) SendResult {
	if t.config.AccessKey == "" || t.config.SecretKey == "" {
		return failed(ProviderAWSSNS, phone, FailureConfiguration, "AWS credentials not configured")
	}

	api, err := t.snsAPI()
	if err != nil {
		return failed(ProviderAWSSNS, phone, FailureConfiguration, "%v", err)
	}

	attributes := map[string]*sns.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if t.config.SenderID != "" {
		attributes["AWS.SNS.SMS.SenderID"] = &sns.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(t.config.SenderID),
		}
	}

	out, err := api.PublishWithContext(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(toE164(phone, t.region)),
		Message:           aws.String(message),
		MessageAttributes: attributes,
	})
	if err != nil {
		return failed(ProviderAWSSNS, phone, FailureTransport, "%v", err)
	}

	return succeeded(ProviderAWSSNS, phone, fmt.Sprintf("MessageId: %s", aws.StringValue(out.MessageId)))
}

func (t *SNSTransport) snsAPI() (snsiface.SNSAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.api == nil {
		api, err := t.newAPI()
		if err != nil {
			return nil, err
		}
		t.api = api
	}
	return t.api, nil
}
