package calendar

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// newTestServer fakes the OAuth2 token endpoint and the Calendar v3 events API
func newTestServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()

	tokenExchanges := 0
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.Form.Get("grant_type"))
		assert.NotEmpty(t, r.Form.Get("assertion"))

		tokenExchanges++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	})

	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Reserva Casa do Vale", body["summary"])

		json.NewEncoder(w).Encode(map[string]string{"id": "evt-123"})
	})

	mux.HandleFunc("/calendars/primary/events/evt-123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodPut:
			json.NewEncoder(w).Encode(map[string]string{"id": "evt-123"})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/calendars/primary/events/evt-gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return httptest.NewServer(mux), &tokenExchanges
}

func newTestGateway(t *testing.T, serverURL string) *GoogleGateway {
	t.Helper()

	gateway, err := NewGoogleGateway(GoogleConfig{
		ClientEmail:   "svc@test.iam.gserviceaccount.com",
		PrivateKeyPEM: testPrivateKeyPEM(t),
		CalendarID:    "primary",
		TokenURL:      serverURL + "/token",
		APIBaseURL:    serverURL,
	})
	require.NoError(t, err)
	return gateway
}

func TestNewGoogleGatewayRejectsBadKey(t *testing.T) {
	_, err := NewGoogleGateway(GoogleConfig{
		ClientEmail:   "svc@test.iam.gserviceaccount.com",
		PrivateKeyPEM: "not a key",
	})
	assert.Error(t, err)
}

func TestCreateEvent(t *testing.T) {
	server, exchanges := newTestServer(t)
	defer server.Close()

	gateway := newTestGateway(t, server.URL)

	eventID, err := gateway.CreateEvent(context.Background(), Event{
		Summary:     "Reserva Casa do Vale",
		Description: "Estadia de Ana",
		Start:       time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-123", eventID)
	assert.Equal(t, 1, *exchanges)
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	server, exchanges := newTestServer(t)
	defer server.Close()

	gateway := newTestGateway(t, server.URL)
	event := Event{
		Summary: "Reserva Casa do Vale",
		Start:   time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC),
	}

	_, err := gateway.CreateEvent(context.Background(), event)
	require.NoError(t, err)
	err = gateway.UpdateEvent(context.Background(), "evt-123", event)
	require.NoError(t, err)

	// Second call reuses the cached token
	assert.Equal(t, 1, *exchanges)
}

func TestDeleteEvent(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	gateway := newTestGateway(t, server.URL)

	err := gateway.DeleteEvent(context.Background(), "evt-123")
	assert.NoError(t, err)
}

func TestDeleteMissingEventIsSoftSuccess(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	gateway := newTestGateway(t, server.URL)

	err := gateway.DeleteEvent(context.Background(), "evt-gone")
	assert.NoError(t, err)
}

func TestCreateEventSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "t", "expires_in": 3600})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	gateway := newTestGateway(t, server.URL)

	_, err := gateway.CreateEvent(context.Background(), Event{Summary: "x"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
