// internal/sms/gateway.go
// Legacy LAN SMS appliance. The appliance routes by carrier line, not by name.

package sms

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// LocalGateway implements Transport for the in-shop SMS gateway
type LocalGateway struct {
	config GatewayConfig
	client *http.Client
}

// NewLocalGateway creates a local gateway transport
func NewLocalGateway(config GatewayConfig, timeout time.Duration) *LocalGateway {
	return &LocalGateway{
		config: config,
		client: newHTTPClient(timeout, config.InsecureSkipVerify),
	}
}

// Provider returns the gateway provider tag
func (g *LocalGateway) Provider() Provider {
	return ProviderGateway
}

// Send posts the message to the gateway. Only HTTP 200 counts as delivered;
// the body is opaque and echoed back.
func (g *LocalGateway) Send(ctx context.Context, phone, message string) SendResult {
	if g.config.URL == "" || g.config.Username == "" || g.config.Password == "" {
		return failed(ProviderGateway, phone, FailureConfiguration, "Local gateway credentials not configured")
	}

	form := url.Values{}
	form.Set("username", g.config.Username)
	form.Set("password", g.config.Password)
	form.Set("line", strconv.Itoa(CarrierLine(phone)))
	form.Set("recipient", phone)
	form.Set("message", message)

	resp, err := postForm(ctx, g.client, g.config.URL, form, g.config.Username, g.config.Password)
	if err != nil {
		return failed(ProviderGateway, phone, FailureTransport, "%v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return failed(ProviderGateway, phone, FailureTransport, "HTTP Error %d: %s", resp.StatusCode, resp.Body)
	}

	return succeeded(ProviderGateway, phone, resp.Body)
}
