package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwelldev/newsletter-backend/internal/email"
)

func TestSendPostsExpectedRequest(t *testing.T) {
	var got struct {
		From     string `json:"from"`
		To       string `json:"to"`
		Subject  string `json:"subject"`
		HTMLBody string `json:"html_body"`
		TextBody string `json:"text_body"`
	}
	var gotToken, gotPath, gotMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Server-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := email.NewClient(server.URL, "newsletter@example.com", "secret-token", time.Second)
	err := client.Send(context.Background(), "alice@example.com", "Issue #1", "<p>hi</p>", "hi")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/email", gotPath)
	assert.Equal(t, "secret-token", gotToken)
	assert.Equal(t, "newsletter@example.com", got.From)
	assert.Equal(t, "alice@example.com", got.To)
	assert.Equal(t, "Issue #1", got.Subject)
	assert.Equal(t, "<p>hi</p>", got.HTMLBody)
	assert.Equal(t, "hi", got.TextBody)
}

func TestSendReportsNon2xxAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := email.NewClient(server.URL, "newsletter@example.com", "", time.Second)
	err := client.Send(context.Background(), "alice@example.com", "Issue #1", "", "")

	assert.Error(t, err)
}

func TestSendTimesOutAgainstSlowServer(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := email.NewClient(server.URL, "newsletter@example.com", "", 50*time.Millisecond)
	err := client.Send(context.Background(), "alice@example.com", "Issue #1", "", "")

	assert.Error(t, err)
}
