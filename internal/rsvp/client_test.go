package rsvp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-admission/internal/models"
	"ms-admission/internal/rsvp"
)

func TestIsConfirmed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/v1/guests/gst-1/confirmation", r.URL.Path)
		// No Keycloak configured, so no bearer header is expected.
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"guest_id":  "gst-1",
			"confirmed": true,
		})
	}))
	defer server.Close()

	client := rsvp.NewClient(server.URL, server.Client(), nil, time.Minute, models.M2MConfig{})

	confirmed, err := client.IsConfirmed(context.Background(), "gst-1")
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestIsConfirmedDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"guest_id":  "gst-2",
			"confirmed": false,
		})
	}))
	defer server.Close()

	client := rsvp.NewClient(server.URL, server.Client(), nil, time.Minute, models.M2MConfig{})

	confirmed, err := client.IsConfirmed(context.Background(), "gst-2")
	require.NoError(t, err)
	assert.False(t, confirmed)
}

func TestIsConfirmedCancelledContext(t *testing.T) {
	keycloakCalled := false
	keycloak := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keycloakCalled = true
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok",
			"expires_in":   300,
		})
	}))
	defer keycloak.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"guest_id": "gst-1", "confirmed": true})
	}))
	defer server.Close()

	client := rsvp.NewClient(server.URL, server.Client(), nil, time.Minute, models.M2MConfig{
		KeycloakURL:   keycloak.URL,
		KeycloakRealm: "invited-events",
		ClientID:      "admission-service",
		ClientSecret:  "secret",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Cancellation must short-circuit the whole chain, Keycloak included.
	_, err := client.IsConfirmed(ctx, "gst-1")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, keycloakCalled)
}

func TestIsConfirmedServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := rsvp.NewClient(server.URL, server.Client(), nil, time.Minute, models.M2MConfig{})

	_, err := client.IsConfirmed(context.Background(), "gst-1")
	assert.Error(t, err)
}
