// internal/sms/twilio.go

package sms

import (
	"context"
	"encoding/json"
	"time"

	"github.com/twilio/twilio-go"
	twilioClient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioTransport implements Transport using the Twilio Messages API
// (POST /2010-04-01/Accounts/{AccountSid}/Messages.json, basic auth SID:token)
type TwilioTransport struct {
	config  TwilioConfig
	region  string
	client  *twilio.RestClient
	initErr error
}

// NewTwilioTransport creates a new Twilio transport
func NewTwilioTransport(config TwilioConfig, timeout time.Duration, region string) *TwilioTransport {
	t := &TwilioTransport{
		config: config,
		region: region,
	}

	httpClient := newHTTPClient(timeout, false)
	if config.APIHost != "" {
		rewriter, err := newHostRewriter(config.APIHost, httpClient.Transport)
		if err != nil {
			t.initErr = err
		} else {
			httpClient.Transport = rewriter
		}
	}

	base := &twilioClient.Client{
		Credentials: twilioClient.NewCredentials(config.AccountSID, config.AuthToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(config.AccountSID)

	t.client = twilio.NewRestClientWithParams(twilio.ClientParams{
		Client: base,
	})
	return t
}

// Provider returns the Twilio provider tag
func (t *TwilioTransport) Provider() Provider {
	return ProviderTwilio
}

// Send sends an SMS using Twilio
func (t *TwilioTransport) Send(ctx context.Context, phone, message string) SendResult {
	if t.config.AccountSID == "" || t.config.AuthToken == "" || t.config.PhoneNumber == "" {
		return failed(ProviderTwilio, phone, FailureConfiguration, "Twilio credentials not configured")
	}
	if t.initErr != nil {
		return failed(ProviderTwilio, phone, FailureConfiguration, "Twilio client misconfigured: %v", t.initErr)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetPathAccountSid(t.config.AccountSID)
	params.SetTo(toE164(phone, t.region))
	params.SetFrom(t.config.PhoneNumber)
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return failed(ProviderTwilio, phone, FailureTransport, "%v", err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		raw = []byte("{}")
	}
	return succeeded(ProviderTwilio, phone, string(raw))
}
