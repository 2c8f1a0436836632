// internal/controller/newsletter_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appErrors "github.com/inkwelldev/newsletter-backend/internal/errors"
	"github.com/inkwelldev/newsletter-backend/internal/middleware"
	"github.com/inkwelldev/newsletter-backend/internal/model"
	"github.com/inkwelldev/newsletter-backend/internal/repository"
	"github.com/inkwelldev/newsletter-backend/internal/service"
)

// DeliveryQueueStats is the slice of the queue the admin endpoints read.
type DeliveryQueueStats interface {
	PendingCount(ctx context.Context, issueID uuid.UUID) (int, error)
}

type NewsletterController struct {
	PublishService *service.PublishService
	IssueRepo      repository.IssueRepositoryInterface
	Queue          DeliveryQueueStats
}

// Publish handles the admin publish form. The response written here is the
// captured one, byte-identical whether computed or replayed.
func (c *NewsletterController) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	cmd := service.PublishCommand{
		Title:          r.PostForm.Get("title"),
		ContentHTML:    r.PostForm.Get("content_html"),
		ContentText:    r.PostForm.Get("content_text"),
		IdempotencyKey: r.PostForm.Get("idempotency_key"),
	}

	resp, err := c.PublishService.Publish(r.Context(), userID, cmd)
	if err != nil {
		var invalidKey *appErrors.ErrInvalidIdempotencyKey
		switch {
		case errors.As(err, &invalidKey):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, appErrors.ErrPublishInProgress):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeSavedResponse(w, resp)
}

// GetIssue returns a published issue plus its remaining delivery backlog.
func (c *NewsletterController) GetIssue(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "invalid issue id", http.StatusBadRequest)
		return
	}

	issue, err := c.IssueRepo.GetByID(r.Context(), id)
	if err != nil {
		var notFound *appErrors.ErrIssueNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pending, err := c.Queue.PendingCount(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"issue":              issue,
		"pending_deliveries": pending,
	})
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// writeSavedResponse replays a captured response exactly: header order,
// duplicate names and raw body bytes all survive.
func writeSavedResponse(w http.ResponseWriter, resp *model.SavedResponse) {
	for _, h := range resp.Headers {
		w.Header().Add(h.Name, string(h.Value))
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}
