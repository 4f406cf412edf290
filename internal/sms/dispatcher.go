// internal/sms/dispatcher.go
// Dispatcher is the single entry point for outbound SMS.
// It owns the provider configuration and normalizes every outcome into a SendResult.

package sms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sender is the narrow interface other packages depend on
type Sender interface {
	Send(ctx context.Context, phone, message string) SendResult
}

// Dispatcher routes messages to the active transport
type Dispatcher struct {
	mu        sync.RWMutex
	config    Config
	transport Transport
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher for the configured provider.
// Unknown provider tags are rejected here rather than at send time.
func NewDispatcher(config Config, logger *zap.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config = config.withDefaults()

	transport, err := buildTransport(config)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		config:    config,
		transport: transport,
		logger:    logger,
	}, nil
}

func buildTransport(config Config) (Transport, error) {
	switch config.Provider {
	case ProviderGateway:
		return NewLocalGateway(config.Gateway, config.Timeout), nil
	case ProviderTwilio:
		return NewTwilioTransport(config.Twilio, config.Timeout, config.DefaultRegion), nil
	case ProviderNexmo:
		return NewNexmoTransport(config.Nexmo, config.Timeout, config.DefaultRegion), nil
	case ProviderAWSSNS:
		return NewSNSTransport(config.AWS, config.Timeout, config.DefaultRegion), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, config.Provider)
	}
}

// Send delivers one message. It never returns an error; failures are in the result.
func (d *Dispatcher) Send(ctx context.Context, phone, message string) SendResult {
	if phone == "" || message == "" {
		return failed("", phone, FailureValidation, "Phone number and message are required")
	}

	d.mu.RLock()
	provider := d.config.Provider
	transport := d.transport
	d.mu.RUnlock()

	return d.deliver(ctx, provider, transport, phone, message)
}

func (d *Dispatcher) deliver(ctx context.Context, provider Provider, transport Transport, phone, message string) SendResult {
	if transport == nil || transport.Provider() != provider {
		result := failed("", phone, FailureUnknownProvider, "Unknown SMS provider: %s", provider)
		d.logger.Error("SMS provider not recognized", zap.String("provider", string(provider)))
		return result
	}

	start := time.Now()
	result := transport.Send(ctx, phone, message)
	elapsed := time.Since(start)
	recordSend(provider, result, elapsed)

	fields := []zap.Field{
		zap.String("provider", string(provider)),
		zap.String("phone", MaskPhone(phone)),
		zap.Duration("duration", elapsed),
	}
	if result.Success {
		d.logger.Info("SMS sent", fields...)
	} else {
		fields = append(fields, zap.String("failure", string(result.Failure)), zap.String("error", result.Error))
		d.logger.Error("SMS send failed", fields...)
	}

	return result
}

// SendBulk sends the same message to every distinct phone.
// Results are keyed by phone; duplicates are delivered once.
// One recipient's failure never affects the others.
func (d *Dispatcher) SendBulk(ctx context.Context, phones []string, message string) map[string]SendResult {
	d.mu.RLock()
	provider := d.config.Provider
	transport := d.transport
	workers := d.config.BulkConcurrency
	d.mu.RUnlock()

	results := make(map[string]SendResult, len(phones))
	var resultsMu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(workers)

	seen := make(map[string]struct{}, len(phones))
	for _, phone := range phones {
		if _, dup := seen[phone]; dup {
			continue
		}
		seen[phone] = struct{}{}

		phone := phone
		g.Go(func() error {
			var result SendResult
			if phone == "" || message == "" {
				result = failed("", phone, FailureValidation, "Phone number and message are required")
			} else {
				result = d.deliver(ctx, provider, transport, phone, message)
			}

			resultsMu.Lock()
			results[phone] = result
			resultsMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Info("Bulk SMS processing completed",
		zap.String("provider", string(provider)),
		zap.Int("recipients", len(results)),
	)
	return results
}

// Provider returns the active provider
func (d *Dispatcher) Provider() Provider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config.Provider
}

// Config returns a copy of the active configuration
func (d *Dispatcher) Config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// SetProvider switches the active provider using the credentials already stored
func (d *Dispatcher) SetProvider(provider Provider) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.config
	next.Provider = provider
	return d.apply(next)
}

// SetGatewayCredentials stores gateway credentials and switches to the gateway.
// An empty URL or nil InsecureSkipVerify keeps the configured value.
func (d *Dispatcher) SetGatewayCredentials(creds GatewayCredentials) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.config
	next.Gateway.Username = creds.Username
	next.Gateway.Password = creds.Password
	if creds.URL != "" {
		next.Gateway.URL = creds.URL
	}
	if creds.InsecureSkipVerify != nil {
		next.Gateway.InsecureSkipVerify = *creds.InsecureSkipVerify
	}
	next.Provider = ProviderGateway
	return d.apply(next)
}

// SetTwilioCredentials stores Twilio credentials and switches to Twilio.
// The API host override is kept unless a new one is given.
func (d *Dispatcher) SetTwilioCredentials(twilio TwilioConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.config
	if twilio.APIHost == "" {
		twilio.APIHost = next.Twilio.APIHost
	}
	next.Twilio = twilio
	next.Provider = ProviderTwilio
	return d.apply(next)
}

// SetNexmoCredentials stores Vonage credentials and switches to Vonage.
// Endpoint and sender name are kept when left empty.
func (d *Dispatcher) SetNexmoCredentials(nexmo NexmoConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.config
	if nexmo.URL == "" {
		nexmo.URL = next.Nexmo.URL
	}
	if nexmo.FromName == "" {
		nexmo.FromName = next.Nexmo.FromName
	}
	next.Nexmo = nexmo.withDefaults()
	next.Provider = ProviderNexmo
	return d.apply(next)
}

// SetAWSCredentials stores AWS credentials and switches to SNS.
// Region, sender ID and endpoint are kept when left empty.
func (d *Dispatcher) SetAWSCredentials(aws AWSConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.config
	if aws.Region == "" {
		aws.Region = next.AWS.Region
	}
	if aws.SenderID == "" {
		aws.SenderID = next.AWS.SenderID
	}
	if aws.Endpoint == "" {
		aws.Endpoint = next.AWS.Endpoint
	}
	next.AWS = aws.withDefaults()
	next.Provider = ProviderAWSSNS
	return d.apply(next)
}

// apply swaps config and transport together; callers hold d.mu.
// On error nothing changes.
func (d *Dispatcher) apply(next Config) error {
	transport, err := buildTransport(next)
	if err != nil {
		return err
	}
	d.config = next
	d.transport = transport
	d.logger.Info("SMS provider configured", zap.String("provider", string(next.Provider)))
	return nil
}

// CarrierName returns the carrier for a phone number
func (d *Dispatcher) CarrierName(phone string) Carrier {
	return ClassifyCarrier(phone)
}

// CarrierLine returns the gateway line code for a phone number
func (d *Dispatcher) CarrierLine(phone string) int {
	return CarrierLine(phone)
}
