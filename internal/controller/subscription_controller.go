// internal/controller/subscription_controller.go
package controller

import (
	"errors"
	"net/http"
	"strings"

	appErrors "github.com/inkwelldev/newsletter-backend/internal/errors"
	"github.com/inkwelldev/newsletter-backend/internal/service"
)

type SubscriptionController struct {
	SubscriptionService *service.SubscriptionService
}

// Subscribe handles the public subscription form.
func (c *SubscriptionController) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostForm.Get("name"))
	email := strings.TrimSpace(r.PostForm.Get("email"))
	if name == "" || email == "" {
		http.Error(w, "name and email are required", http.StatusBadRequest)
		return
	}

	err := c.SubscriptionService.Subscribe(r.Context(), name, email)
	if err != nil {
		switch {
		case errors.Is(err, appErrors.ErrDuplicateSubscriber):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, appErrors.ErrInvalidEmail), errors.Is(err, appErrors.ErrInvalidName):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Write([]byte("Check your inbox to confirm your subscription."))
}

// Confirm handles the link sent in the confirmation email.
func (c *SubscriptionController) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	if err := c.SubscriptionService.Confirm(r.Context(), token); err != nil {
		if errors.Is(err, appErrors.ErrConfirmationTokenNotFound) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Write([]byte("Your subscription is confirmed!"))
}
