// internal/sms/models.go

package sms

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownProvider is returned when a provider name is not one of the supported transports
var ErrUnknownProvider = errors.New("unknown SMS provider")

// Provider selects the transport used for delivery
type Provider string

const (
	ProviderGateway Provider = "gateway"
	ProviderTwilio  Provider = "twilio"
	ProviderNexmo   Provider = "nexmo"
	ProviderAWSSNS  Provider = "aws_sns"
)

// Providers lists every supported provider tag
var Providers = []Provider{ProviderGateway, ProviderTwilio, ProviderNexmo, ProviderAWSSNS}

// ParseProvider converts a configuration value into a Provider.
// An empty value selects the local gateway.
func ParseProvider(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ProviderGateway, nil
	}
	for _, p := range Providers {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// DisplayName is the provider name reported in send results
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGateway:
		return "Local Gateway"
	case ProviderTwilio:
		return "Twilio"
	case ProviderNexmo:
		return "Nexmo"
	case ProviderAWSSNS:
		return "AWS SNS"
	default:
		return string(p)
	}
}

// FailureKind classifies why a send attempt failed
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailureConfiguration   FailureKind = "configuration"
	FailureTransport       FailureKind = "transport"
	FailureValidation      FailureKind = "validation"
	FailureUnknownProvider FailureKind = "unknown_provider"
)

// SendResult is the normalized outcome of a single send attempt
type SendResult struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message"`
	Phone    string      `json:"phone,omitempty"`
	Provider string      `json:"provider,omitempty"`
	Response string      `json:"response,omitempty"`
	Error    string      `json:"error,omitempty"`
	Failure  FailureKind `json:"failure,omitempty"`
}

func succeeded(p Provider, phone, response string) SendResult {
	return SendResult{
		Success:  true,
		Message:  fmt.Sprintf("SMS sent successfully via %s", p.DisplayName()),
		Phone:    phone,
		Provider: p.DisplayName(),
		Response: response,
	}
}

func failed(p Provider, phone string, kind FailureKind, format string, args ...interface{}) SendResult {
	detail := fmt.Sprintf(format, args...)
	result := SendResult{
		Success: false,
		Phone:   phone,
		Error:   detail,
		Failure: kind,
	}
	if p != "" {
		result.Provider = p.DisplayName()
	}
	switch kind {
	case FailureTransport:
		result.Message = fmt.Sprintf("Failed to send SMS via %s: %s", p.DisplayName(), detail)
	default:
		result.Message = detail
	}
	return result
}

// GatewayConfig holds the local LAN gateway credentials
type GatewayConfig struct {
	URL                string
	Username           string
	Password           string
	InsecureSkipVerify bool
}

// GatewayCredentials is a gateway login update
type GatewayCredentials struct {
	URL                string
	Username           string
	Password           string
	InsecureSkipVerify *bool
}

// TwilioConfig holds Twilio credentials
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	// APIHost overrides api.twilio.com, e.g. for a sandbox or egress proxy
	APIHost string
}

// NexmoConfig holds Vonage (Nexmo) credentials
type NexmoConfig struct {
	APIKey    string
	APISecret string
	FromName  string
	URL       string
}

// AWSConfig holds AWS SNS credentials
type AWSConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	SenderID  string
	Endpoint  string
}

// Config is the dispatcher configuration
type Config struct {
	Provider        Provider
	Timeout         time.Duration
	DefaultRegion   string
	BulkConcurrency int

	Gateway GatewayConfig
	Twilio  TwilioConfig
	Nexmo   NexmoConfig
	AWS     AWSConfig
}

const (
	DefaultTimeout         = 30 * time.Second
	DefaultRegion          = "PH"
	DefaultBulkConcurrency = 4
	DefaultNexmoURL        = "https://rest.nexmo.com/sms/json"
	DefaultNexmoFrom       = "Laundry"
	DefaultAWSRegion       = "us-east-1"
)

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderGateway
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.DefaultRegion == "" {
		c.DefaultRegion = DefaultRegion
	}
	if c.BulkConcurrency < 1 {
		c.BulkConcurrency = DefaultBulkConcurrency
	}
	c.Nexmo = c.Nexmo.withDefaults()
	c.AWS = c.AWS.withDefaults()
	return c
}

func (c NexmoConfig) withDefaults() NexmoConfig {
	if c.URL == "" {
		c.URL = DefaultNexmoURL
	}
	if c.FromName == "" {
		c.FromName = DefaultNexmoFrom
	}
	return c
}

func (c AWSConfig) withDefaults() AWSConfig {
	if c.Region == "" {
		c.Region = DefaultAWSRegion
	}
	return c
}
