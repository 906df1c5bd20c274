package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSendPayload(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret-token", r.Header.Get("X-Auth"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := NewWebhookProvider(WebhookConfig{
		URL:     server.URL,
		Headers: map[string]string{"X-Auth": "secret-token"},
	})

	err := provider.Send(context.Background(), Event{
		CredentialName: "prod/db-password",
		CredentialType: "database-password",
		Status:         StatusFailure,
		Error:          "verification failed",
		Timestamp:      time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "prod/db-password", received["credentialName"])
	assert.Equal(t, "database-password", received["credentialType"])
	assert.Equal(t, "failure", received["status"])
	assert.Equal(t, "verification failed", received["error"])
	assert.NotEmpty(t, received["timestamp"])
}

func TestWebhookOmitsEmptyError(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	provider := NewWebhookProvider(WebhookConfig{URL: server.URL})
	require.NoError(t, provider.Send(context.Background(), Event{
		CredentialName: "c1",
		Status:         StatusSuccess,
		Timestamp:      time.Now(),
	}))

	_, hasError := received["error"]
	assert.False(t, hasError, "successful events should not carry an error field")
}

func TestWebhookNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewWebhookProvider(WebhookConfig{URL: server.URL})
	err := provider.Send(context.Background(), Event{CredentialName: "c1"})
	assert.Error(t, err)
}
