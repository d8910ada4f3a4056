package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/UNO-CSCI4830/project4-logbook/internal/config"
)

func TestWebhookSender_Send(t *testing.T) {
	var got WebhookPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(&config.WebhookConfig{URL: srv.URL, Token: "t0k", Timeout: time.Second}, zap.NewNop())
	require.NoError(t, s.Send(context.Background(), testOwner(), testAppliance()))

	assert.Equal(t, "Bearer t0k", auth)
	assert.Equal(t, "maintenance_alert", got.Event)
	assert.Equal(t, "owner-1", got.OwnerID)
	assert.Equal(t, "dana@example.com", got.Recipient)
	assert.Equal(t, "a-1", got.ApplianceID)
	require.NotNil(t, got.AlertDate)
	assert.Equal(t, "2024-03-10", got.AlertDate.String())
	assert.Equal(t, "Maintenance Alert: Furnace", got.Subject)
}

func TestWebhookSender_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSender(&config.WebhookConfig{URL: srv.URL, Timeout: time.Second, Retries: 2}, zap.NewNop())
	require.NoError(t, s.Send(context.Background(), testOwner(), testAppliance()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestWebhookSender_ClientError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewWebhookSender(&config.WebhookConfig{URL: srv.URL, Timeout: time.Second, Retries: 2}, zap.NewNop())
	err := s.Send(context.Background(), testOwner(), testAppliance())
	require.Error(t, err)

	var se *SendError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "webhook", se.Channel)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "4xx is not retried")
}
