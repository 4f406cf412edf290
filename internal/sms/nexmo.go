// internal/sms/nexmo.go

package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NexmoTransport implements Transport using the Vonage (Nexmo) SMS REST API
type NexmoTransport struct {
	config NexmoConfig
	region string
	client *http.Client
}

// nexmoResponse is the subset of the Vonage reply we inspect
type nexmoResponse struct {
	Messages []struct {
		Status    string `json:"status"`
		ErrorText string `json:"error-text"`
	} `json:"messages"`
}

// NewNexmoTransport creates a new Vonage transport
func NewNexmoTransport(config NexmoConfig, timeout time.Duration, region string) *NexmoTransport {
	return &NexmoTransport{
		config: config.withDefaults(),
		region: region,
		client: newHTTPClient(timeout, false),
	}
}

// Provider returns the Nexmo provider tag
func (n *NexmoTransport) Provider() Provider {
	return ProviderNexmo
}

// Send sends an SMS via Vonage
func (n *NexmoTransport) Send(ctx context.Context, phone, message string) SendResult {
	if n.config.APIKey == "" || n.config.APISecret == "" {
		return failed(ProviderNexmo, phone, FailureConfiguration, "Nexmo credentials not configured")
	}

	form := url.Values{}
	form.Set("api_key", n.config.APIKey)
	form.Set("api_secret", n.config.APISecret)
	// Vonage wants E.164 digits without the leading plus
	form.Set("to", strings.TrimPrefix(toE164(phone, n.region), "+"))
	form.Set("from", n.config.FromName)
	form.Set("text", message)

	resp, err := postForm(ctx, n.client, n.config.URL, form, "", "")
	if err != nil {
		return failed(ProviderNexmo, phone, FailureTransport, "%v", err)
	}
	if !isSuccessStatus(resp.StatusCode) {
		return failed(ProviderNexmo, phone, FailureTransport, "HTTP Error %d: %s", resp.StatusCode, resp.Body)
	}

	// Vonage answers 200 even for rejected messages; status "0" is the only success
	var parsed nexmoResponse
	if err := json.Unmarshal([]byte(resp.Body), &parsed); err == nil {
		for _, m := range parsed.Messages {
			if m.Status != "0" {
				return failed(ProviderNexmo, phone, FailureTransport, "status %s: %s", m.Status, m.ErrorText)
			}
		}
	}

	return succeeded(ProviderNexmo, phone, resp.Body)
}
