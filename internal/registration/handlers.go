// internal/registration/handlers.go

package registration

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imadgeboyega/laundry-backend/internal/auth"
	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
	"github.com/imadgeboyega/laundry-backend/internal/session"
	"go.uber.org/zap"
)

const (
	stateSessionKey = "registration"

	pathStart     = "/register"
	pathVerify    = "/register/verify"
	pathDashboard = "/customer/dashboard"
)

// Handler exposes the flow over HTTP. Responses carry a next path
// telling the client which screen to show.
type Handler struct {
	flow   *Flow
	logger *zap.Logger
}

// NewHandler creates a new registration handler
func NewHandler(flow *Flow, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{flow: flow, logger: logger}
}

// Start handles POST /register
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := h.loadState(w, r)
	if !ok {
		return
	}

	var req StartRequest
	if err := utils.DecodeRequest(r, &req); err != nil {
		utils.FlowResponse(w, false, "Invalid request body", pathStart, http.StatusBadRequest)
		return
	}

	issued, err := h.flow.Start(r.Context(), st, &req)
	switch {
	case err == nil:
		h.saveState(sess, st)
		utils.FlowResponse(w, true, "A verification code has been sent to "+issued.MaskedPhone, pathVerify, http.StatusOK)
	case errors.Is(err, ErrDeliveryFailed):
		h.saveState(sess, st)
		utils.FlowResponse(w, false, deliveryMessage(issued), pathVerify, http.StatusBadGateway)
	case errors.Is(err, ErrInvalidForm):
		utils.FlowResponse(w, false, err.Error(), pathStart, http.StatusBadRequest)
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken), errors.Is(err, ErrPhoneTaken):
		utils.FlowResponse(w, false, err.Error(), pathStart, http.StatusConflict)
	default:
		h.logger.Error("Registration start failed", zap.Error(err))
		utils.FlowResponse(w, false, "Registration failed. Please try again.", pathStart, http.StatusInternalServerError)
	}
}

// Verify handles POST /register/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := h.loadState(w, r)
	if !ok {
		return
	}

	var req VerifyRequest
	if err := utils.DecodeRequest(r, &req); err != nil {
		utils.FlowResponse(w, false, "Invalid request body", pathVerify, http.StatusBadRequest)
		return
	}

	user, err := h.flow.Verify(r.Context(), st, req.Code)
	h.saveState(sess, st)

	switch {
	case err == nil:
		if err := auth.StartSession(sess, user); err != nil {
			h.logger.Error("Failed to log in new user", zap.Int64("user_id", user.ID), zap.Error(err))
			utils.FlowResponse(w, true, "Registration successful! Please login.", "/login", http.StatusOK)
			return
		}
		utils.FlowResponse(w, true, "Registration successful! Your phone number has been verified.", pathDashboard, http.StatusOK)
	case errors.Is(err, ErrNoPending):
		utils.FlowResponse(w, false, "No pending registration. Please register again.", pathStart, http.StatusBadRequest)
	case errors.Is(err, ErrCodeRequired):
		utils.FlowResponse(w, false, "Please enter the verification code", pathVerify, http.StatusBadRequest)
	case errors.Is(err, ErrCodeMismatch):
		utils.FlowResponse(w, false, "Invalid verification code", pathVerify, http.StatusBadRequest)
	case errors.Is(err, ErrCodeExpired):
		utils.FlowResponse(w, false, "Verification code has expired. Please register again.", pathStart, http.StatusGone)
	case errors.Is(err, auth.ErrDuplicateUser):
		// taken since the code was sent; retrying the same details cannot succeed
		st.Clear()
		h.saveState(sess, st)
		utils.FlowResponse(w, false, "Username, email or phone is already registered. Please register again.", pathStart, http.StatusConflict)
	default:
		h.logger.Error("Registration verify failed", zap.Error(err))
		utils.FlowResponse(w, false, "Registration failed. Please try again.", pathVerify, http.StatusInternalServerError)
	}
}

// Resend handles POST /register/resend
func (h *Handler) Resend(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := h.loadState(w, r)
	if !ok {
		return
	}

	issued, err := h.flow.Resend(r.Context(), st)
	switch {
	case err == nil:
		h.saveState(sess, st)
		utils.FlowResponse(w, true, "A new verification code has been sent to "+issued.MaskedPhone, pathVerify, http.StatusOK)
	case errors.Is(err, ErrNoPending):
		utils.FlowResponse(w, false, "No pending registration. Please register again.", pathStart, http.StatusBadRequest)
	case errors.Is(err, ErrDeliveryFailed):
		h.saveState(sess, st)
		utils.FlowResponse(w, false, deliveryMessage(issued), pathVerify, http.StatusBadGateway)
	default:
		h.logger.Error("Verification resend failed", zap.Error(err))
		utils.FlowResponse(w, false, "Failed to resend code. Please try again.", pathVerify, http.StatusInternalServerError)
	}
}

func deliveryMessage(issued *Issued) string {
	if issued == nil || issued.Delivery.Message == "" {
		return "Failed to send verification code. Please try again."
	}
	return fmt.Sprintf("Failed to send verification code: %s", issued.Delivery.Message)
}

func (h *Handler) loadState(w http.ResponseWriter, r *http.Request) (*session.Session, *State, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Session unavailable", http.StatusInternalServerError)
		return nil, nil, false
	}

	st := &State{}
	if _, err := sess.Get(stateSessionKey, st); err != nil {
		// unreadable state is treated as no registration in progress
		h.logger.Warn("Discarding unreadable registration state", zap.Error(err))
		st = &State{}
	}
	return sess, st, true
}

func (h *Handler) saveState(sess *session.Session, st *State) {
	if st.Pending == nil {
		sess.Unset(stateSessionKey)
		return
	}
	if err := sess.Set(stateSessionKey, st); err != nil {
		h.logger.Error("Failed to store registration state", zap.Error(err))
	}
}
