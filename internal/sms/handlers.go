// internal/sms/handlers.go

package sms

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
)

// Handler handles SMS-related HTTP requests
type Handler struct {
	dispatcher *Dispatcher
	validator  *validator.Validate
}

// NewHandler creates a new SMS handler
func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		validator:  validator.New(),
	}
}

// SendRequest is the body of a single send
type SendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// BulkRequest is the body of a bulk send. Phones may be a JSON array
// or a string holding a JSON-encoded array, as HTML forms post it.
type BulkRequest struct {
	Phones  json.RawMessage `json:"phones"`
	Message string          `json:"message"`
}

// BulkResponse reports every per-recipient result
type BulkResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Total   int                   `json:"total"`
	Results map[string]SendResult `json:"results"`
}

// CarrierRequest is the body of a carrier lookup
type CarrierRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// CarrierResponse reports the detected carrier
type CarrierResponse struct {
	Success bool    `json:"success"`
	Phone   string  `json:"phone"`
	Carrier Carrier `json:"carrier"`
	Line    int     `json:"line"`
}

// CredentialsRequest carries the credentials of one provider
type CredentialsRequest struct {
	Provider string `json:"provider" validate:"required"`

	// gateway
	URL                string       `json:"url"`
	Username           string       `json:"username"`
	Password           string       `json:"password"`
	InsecureSkipVerify optionalBool `json:"insecure_skip_verify"`

	// twilio
	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"auth_token"`
	Phone      string `json:"phone"`

	// nexmo
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	FromName  string `json:"from_name"`

	// aws_sns
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
	SenderID  string `json:"sender_id"`
}

// optionalBool accepts a JSON boolean or the string a form posts.
// An absent or empty value stays unset.
type optionalBool struct {
	set   bool
	value bool
}

func (b *optionalBool) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		return nil
	case bool:
		b.set, b.value = true, v
	case string:
		v = strings.ToLower(strings.TrimSpace(v))
		switch v {
		case "":
			return nil
		case "on":
			b.set, b.value = true, true
		case "off":
			b.set, b.value = true, false
		default:
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", v)
			}
			b.set, b.value = true, parsed
		}
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

func (b optionalBool) ptr() *bool {
	if !b.set {
		return nil
	}
	v := b.value
	return &v
}

// Send handles POST /api/sms/send
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := utils.DecodeRequest(r, &req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := h.dispatcher.Send(r.Context(), strings.TrimSpace(req.Phone), req.Message)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	utils.RespondWithJSON(w, status, result)
}

// SendBulk handles POST /api/sms/send-bulk
func (h *Handler) SendBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := utils.DecodeRequest(r, &req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	phones, err := parsePhones(req.Phones)
	if err != nil || len(phones) == 0 || req.Message == "" {
		utils.ErrorResponse(w, "Phone numbers and message are required", http.StatusBadRequest)
		return
	}

	// a large batch can outlast the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	results := h.dispatcher.SendBulk(r.Context(), phones, req.Message)
	utils.RespondWithJSON(w, http.StatusOK, BulkResponse{
		Success: true,
		Message: "Bulk SMS processing completed",
		Total:   len(results),
		Results: results,
	})
}

// parsePhones accepts ["0917..."] or "[\"0917...\"]"
func parsePhones(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, errors.New("phones missing")
	}

	var phones []string
	if err := json.Unmarshal(raw, &phones); err == nil {
		return trimPhones(phones), nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("failed to parse phones: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), &phones); err != nil {
		return nil, fmt.Errorf("failed to parse phones: %w", err)
	}
	return trimPhones(phones), nil
}

func trimPhones(phones []string) []string {
	out := phones[:0]
	for _, p := range phones {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetCarrier handles POST /api/sms/carrier
func (h *Handler) GetCarrier(w http.ResponseWriter, r *http.Request) {
	var req CarrierRequest
	if err := utils.DecodeRequest(r, &req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.ErrorResponse(w, "Phone number is required", http.StatusBadRequest)
		return
	}

	phone := strings.TrimSpace(req.Phone)
	utils.RespondWithJSON(w, http.StatusOK, CarrierResponse{
		Success: true,
		Phone:   phone,
		Carrier: h.dispatcher.CarrierName(phone),
		Line:    h.dispatcher.CarrierLine(phone),
	})
}

// SetCredentials handles POST /api/sms/credentials
func (h *Handler) SetCredentials(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := utils.DecodeRequest(r, &req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	provider, err := ParseProvider(req.Provider)
	if err != nil || req.Provider == "" {
		utils.ErrorResponse(w, "Invalid provider. Use: gateway, twilio, nexmo, aws_sns", http.StatusBadRequest)
		return
	}

	switch provider {
	case ProviderGateway:
		err = h.dispatcher.SetGatewayCredentials(GatewayCredentials{
			URL:                req.URL,
			Username:           req.Username,
			Password:           req.Password,
			InsecureSkipVerify: req.InsecureSkipVerify.ptr(),
		})
	case ProviderTwilio:
		err = h.dispatcher.SetTwilioCredentials(TwilioConfig{
			AccountSID:  req.AccountSID,
			AuthToken:   req.AuthToken,
			PhoneNumber: req.Phone,
		})
	case ProviderNexmo:
		err = h.dispatcher.SetNexmoCredentials(NexmoConfig{
			APIKey:    req.APIKey,
			APISecret: req.APISecret,
			FromName:  req.FromName,
		})
	case ProviderAWSSNS:
		err = h.dispatcher.SetAWSCredentials(AWSConfig{
			AccessKey: req.AccessKey,
			SecretKey: req.SecretKey,
			Region:    req.Region,
			SenderID:  req.SenderID,
		})
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to set credentials", http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, fmt.Sprintf("Credentials set for provider: %s", provider), http.StatusOK)
}
