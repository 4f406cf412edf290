// internal/registration/routes.go
package registration

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers the public registration routes
func RegisterRoutes(router *mux.Router, handler *Handler) {
	router.HandleFunc("/register", handler.Start).Methods("POST")
	router.HandleFunc("/register/verify", handler.Verify).Methods("POST")
	router.HandleFunc("/register/resend", handler.Resend).Methods("POST")
}
