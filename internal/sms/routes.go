// internal/sms/routes.go
package sms

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
)

// RegisterRoutes registers all SMS routes.
// staff guards the send endpoints, admin guards credential changes.
func RegisterRoutes(router *mux.Router, handler *Handler, staff, admin mux.MiddlewareFunc) {
	api := router.PathPrefix("/api/sms").Subrouter()
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	post(api, "/send", guard(staff, handler.Send))
	post(api, "/send-bulk", guard(staff, handler.SendBulk))
	post(api, "/carrier", guard(staff, handler.GetCarrier))
	post(api, "/credentials", guard(admin, handler.SetCredentials))
}

// post registers a POST-only path; any other method gets a JSON 405
func post(router *mux.Router, path string, h http.Handler) {
	router.Handle(path, h).Methods("POST")
	router.HandleFunc(path, methodNotAllowed)
}

func guard(mw mux.MiddlewareFunc, h http.HandlerFunc) http.Handler {
	if mw == nil {
		return h
	}
	return mw(h)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	utils.ErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
}
