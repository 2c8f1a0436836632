package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inkwelldev/newsletter-backend/internal/controller"
	appErrors "github.com/inkwelldev/newsletter-backend/internal/errors"
	"github.com/inkwelldev/newsletter-backend/internal/middleware"
	"github.com/inkwelldev/newsletter-backend/internal/model"
	"github.com/inkwelldev/newsletter-backend/internal/repository"
	"github.com/inkwelldev/newsletter-backend/internal/service"
)

// scriptedStore hands out one open claim, then replays whatever was
// completed on it, mimicking the real store across two requests.
type scriptedStore struct {
	saved      *model.SavedResponse
	inProgress bool
}

func (s *scriptedStore) TryClaim(context.Context, uuid.UUID, string) (*repository.PublishAttempt, error) {
	if s.inProgress {
		return nil, appErrors.ErrPublishInProgress
	}
	if s.saved != nil {
		return &repository.PublishAttempt{Saved: s.saved}, nil
	}
	return &repository.PublishAttempt{Claim: &scriptedClaim{store: s}}, nil
}

type scriptedClaim struct {
	store   *scriptedStore
	pending *model.SavedResponse
}

func (c *scriptedClaim) InsertIssue(context.Context, string, string, string) (uuid.UUID, error) {
	return uuid.New(), nil
}
func (c *scriptedClaim) EnqueueDeliveries(context.Context, uuid.UUID) error { return nil }
func (c *scriptedClaim) Complete(_ context.Context, resp *model.SavedResponse) error {
	c.pending = resp
	return nil
}
func (c *scriptedClaim) Commit() error {
	c.store.saved = c.pending
	return nil
}
func (c *scriptedClaim) Rollback() error { return nil }

func newRouter(store repository.IdempotencyRepositoryInterface) http.Handler {
	ctrl := &controller.NewsletterController{
		PublishService: &service.PublishService{Idempotency: store, Logger: zap.NewNop()},
	}
	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/newsletters", ctrl.Publish)
	})
	return r
}

func publishRequest(t *testing.T, key string) *http.Request {
	t.Helper()
	form := url.Values{
		"title":           {"Issue #1"},
		"content_html":    {"<p>hi</p>"},
		"content_text":    {"hi"},
		"idempotency_key": {key},
	}
	req := httptest.NewRequest("POST", "/admin/newsletters", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-User-Id", uuid.NewString())
	return req
}

type stubIssueRepo struct {
	issue *model.NewsletterIssue
	err   error
}

func (r *stubIssueRepo) GetByID(context.Context, uuid.UUID) (*model.NewsletterIssue, error) {
	return r.issue, r.err
}

type stubQueueStats struct {
	pending int
}

func (s *stubQueueStats) PendingCount(context.Context, uuid.UUID) (int, error) {
	return s.pending, nil
}

func TestGetIssueServesJSONWithPendingCount(t *testing.T) {
	issue := &model.NewsletterIssue{ID: uuid.New(), Title: "Issue #1"}
	ctrl := &controller.NewsletterController{
		IssueRepo: &stubIssueRepo{issue: issue},
		Queue:     &stubQueueStats{pending: 3},
	}
	r := chi.NewRouter()
	r.Get("/admin/newsletters/{id}", ctrl.GetIssue)

	req := httptest.NewRequest("GET", "/admin/newsletters/"+issue.ID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Equal(t, "application/json", w.Result().Header.Get("Content-Type"))

	var got struct {
		Issue struct {
			Title string `json:"title"`
		} `json:"issue"`
		PendingDeliveries int `json:"pending_deliveries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Issue #1", got.Issue.Title)
	assert.Equal(t, 3, got.PendingDeliveries)
}

func TestGetIssueUnknownIDIsNotFound(t *testing.T) {
	id := uuid.New()
	ctrl := &controller.NewsletterController{
		IssueRepo: &stubIssueRepo{err: appErrors.NewIssueNotFound(id)},
		Queue:     &stubQueueStats{},
	}
	r := chi.NewRouter()
	r.Get("/admin/newsletters/{id}", ctrl.GetIssue)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/newsletters/"+id.String(), nil))

	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestPublishRequiresAuthenticatedUser(t *testing.T) {
	router := newRouter(&scriptedStore{})

	req := publishRequest(t, "abc")
	req.Header.Del("X-User-Id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
}

func TestPublishRejectsMalformedIdempotencyKey(t *testing.T) {
	router := newRouter(&scriptedStore{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, publishRequest(t, ""))

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestPublishInProgressKeyIsConflict(t *testing.T) {
	router := newRouter(&scriptedStore{inProgress: true})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, publishRequest(t, "abc"))

	assert.Equal(t, http.StatusConflict, w.Result().StatusCode)
}

func TestPublishThenReplayServesByteIdenticalResponse(t *testing.T) {
	router := newRouter(&scriptedStore{})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, publishRequest(t, "abc"))
	require.Equal(t, http.StatusSeeOther, first.Result().StatusCode)
	assert.Equal(t, "/admin/newsletters", first.Result().Header.Get("Location"))
	assert.Equal(t, "The newsletter issue has been published!", first.Body.String())

	second := httptest.NewRecorder()
	router.ServeHTTP(second, publishRequest(t, "abc"))

	assert.Equal(t, first.Result().StatusCode, second.Result().StatusCode)
	assert.Equal(t, first.Result().Header.Get("Location"), second.Result().Header.Get("Location"))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}
