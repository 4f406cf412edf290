package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTwilioSend(t *testing.T) {
	var (
		path       string
		user, pass string
		form       map[string]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		user, pass, _ = r.BasicAuth()
		r.ParseForm()
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer server.Close()

	tw := NewTwilioTransport(TwilioConfig{
		AccountSID:  "AC123",
		AuthToken:   "token",
		PhoneNumber: "+15005550006",
		APIHost:     server.URL,
	}, time.Second, "PH")
	result := tw.Send(context.Background(), "09171234567", "Pickup tomorrow")

	assert.True(t, result.Success, result.Error)
	assert.Equal(t, "SMS sent successfully via Twilio", result.Message)
	assert.Contains(t, result.Response, "SM123")

	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", path)
	assert.Equal(t, "AC123", user)
	assert.Equal(t, "token", pass)
	assert.Equal(t, "+639171234567", form["To"])
	assert.Equal(t, "+15005550006", form["From"])
	assert.Equal(t, "Pickup tomorrow", form["Body"])
}

func TestTwilioAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))
	}))
	defer server.Close()

	tw := NewTwilioTransport(TwilioConfig{
		AccountSID:  "AC123",
		AuthToken:   "token",
		PhoneNumber: "+15005550006",
		APIHost:     server.URL,
	}, time.Second, "PH")
	result := tw.Send(context.Background(), "12", "hi")

	assert.False(t, result.Success)
	assert.Equal(t, FailureTransport, result.Failure)
	assert.Contains(t, result.Message, "Failed to send SMS via Twilio")
}

func TestTwilioMissingCredentials(t *testing.T) {
	tw := NewTwilioTransport(TwilioConfig{AccountSID: "AC123", AuthToken: "token"}, time.Second, "PH")
	result := tw.Send(context.Background(), "09171234567", "hi")

	assert.False(t, result.Success)
	assert.Equal(t, FailureConfiguration, result.Failure)
	assert.Equal(t, "Twilio credentials not configured", result.Message)
}

func TestTwilioBadHostOverride(t *testing.T) {
	tw := NewTwilioTransport(TwilioConfig{
		AccountSID:  "AC123",
		AuthToken:   "token",
		PhoneNumber: "+15005550006",
		APIHost:     "not a url",
	}, time.Second, "PH")
	result := tw.Send(context.Background(), "09171234567", "hi")

	assert.False(t, result.Success)
	assert.Equal(t, FailureConfiguration, result.Failure)
}
