// internal/sms/transport.go

package sms

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// Transport delivers a single SMS through one provider.
// Implementations never return errors: every outcome is a SendResult.
type Transport interface {
	Provider() Provider
	Send(ctx context.Context, phone, message string) SendResult
}

// maxResponseBody caps how much of a provider response is echoed back
const maxResponseBody = 64 << 10

// newHTTPClient builds the client shared by the HTTP-based transports.
// Certificate verification stays on unless explicitly disabled.
func newHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for LAN appliances with self-signed certs
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// hostRewriter sends every request to a fixed scheme://host, keeping the path.
// Used to point SDK clients with hard-coded hosts at a sandbox or proxy.
type hostRewriter struct {
	target *url.URL
	next   http.RoundTripper
}

func newHostRewriter(rawURL string, next http.RoundTripper) (*hostRewriter, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse host override: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("host override must include scheme and host: %q", rawURL)
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &hostRewriter{target: target, next: next}, nil
}

func (h *hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = h.target.Scheme
	out.URL.Host = h.target.Host
	out.Host = h.target.Host
	return h.next.RoundTrip(out)
}

// formResponse is the outcome of a form POST
type formResponse struct {
	StatusCode int
	Body       string
}

// postForm performs a urlencoded POST; non-nil error means the request never completed
func postForm(ctx context.Context, client *http.Client, endpoint string, form url.Values, username, password string) (*formResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if username != "" || password != "" {
		req.SetBasicAuth(username, password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &formResponse{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

// toE164 formats a number for cloud providers. Numbers that don't parse
// are passed through untouched and left for the provider to reject.
func toE164(phone, region string) string {
	num, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// MaskPhone hides all but the last four digits
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "***-****-" + phone[len(phone)-4:]
}
