// internal/auth/handlers.go

package auth

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
	"github.com/imadgeboyega/laundry-backend/internal/session"
)

// Handler handles login and logout
type Handler struct {
	service   Service
	validator *validator.Validate
}

// NewHandler creates a new auth handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers login and logout
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/login", h.Login).Methods("POST")
	router.HandleFunc("/logout", h.Logout).Methods("POST")
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Session unavailable", http.StatusInternalServerError)
		return
	}

	var req LoginRequest
	if err := utils.DecodeRequest(r, &req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.ErrorResponse(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.service.Login(r.Context(), sess, &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			utils.ErrorResponse(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		utils.ErrorResponse(w, "Login failed", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, user, http.StatusOK)
}

// Logout handles POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		h.service.Logout(sess)
	}
	utils.MessageResponse(w, "Logged out successfully", http.StatusOK)
}
