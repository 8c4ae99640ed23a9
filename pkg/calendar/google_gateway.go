package calendar

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const calendarScope = "https://www.googleapis.com/auth/calendar"

// Event is a calendar event to mirror a reservation
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Gateway is the calendar operations surface consumed by the sync service.
// All failures are soft from the caller's point of view.
type Gateway interface {
	CreateEvent(ctx context.Context, event Event) (string, error)
	UpdateEvent(ctx context.Context, eventID string, event Event) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// GoogleConfig holds configuration for the Google Calendar gateway
type GoogleConfig struct {
	ClientEmail   string // Service account email
	PrivateKeyPEM string // Service account RSA private key (PKCS#8 PEM)
	CalendarID    string
	TokenURL      string // Defaults to Google's OAuth2 token endpoint
	APIBaseURL    string // Defaults to the Calendar v3 REST base
}

// GoogleGateway implements Gateway against the Google Calendar v3 REST API
// using a service-account JWT assertion for authentication
type GoogleGateway struct {
	clientEmail string
	privateKey  *rsa.PrivateKey
	calendarID  string
	tokenURL    string
	apiBaseURL  string
	client      *http.Client

	// Token management
	token       string
	tokenMutex  sync.RWMutex
	tokenExpiry time.Time
}

// NewGoogleGateway creates a new Google Calendar gateway client
func NewGoogleGateway(config GoogleConfig) (*GoogleGateway, error) {
	key, err := parsePrivateKey(config.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}

	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = "https://oauth2.googleapis.com/token"
	}
	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = "https://www.googleapis.com/calendar/v3"
	}

	return &GoogleGateway{
		clientEmail: config.ClientEmail,
		privateKey:  key,
		calendarID:  config.CalendarID,
		tokenURL:    tokenURL,
		apiBaseURL:  apiBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func parsePrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA private key")
		}
		return rsaKey, nil
	}

	// Older service account exports use PKCS#1
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// tokenResponse is the OAuth2 token endpoint response
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// getAccessToken exchanges a signed JWT assertion for an access token
func (g *GoogleGateway) getAccessToken(ctx context.Context) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   g.clientEmail,
		"scope": calendarScope,
		"aud":   g.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(g.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign token assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}

	// Store token with expiry
	g.tokenMutex.Lock()
	g.token = tokenResp.AccessToken
	g.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	g.tokenMutex.Unlock()

	return nil
}

// isTokenValid checks if the current token is still valid
func (g *GoogleGateway) isTokenValid() bool {
	g.tokenMutex.RLock()
	defer g.tokenMutex.RUnlock()

	if g.token == "" {
		return false
	}

	// Consider token invalid 5 minutes before actual expiry
	return time.Now().Before(g.tokenExpiry.Add(-5 * time.Minute))
}

// ensureValidToken ensures we have a valid access token
func (g *GoogleGateway) ensureValidToken(ctx context.Context) error {
	if g.isTokenValid() {
		return nil
	}

	return g.getAccessToken(ctx)
}

// eventBody is the Calendar v3 event resource, restricted to the fields we set
type eventBody struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
}

type eventResponse struct {
	ID string `json:"id"`
}

func newEventBody(event Event) eventBody {
	return eventBody{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       eventDateTime{DateTime: event.Start.UTC().Format(time.RFC3339)},
		End:         eventDateTime{DateTime: event.End.UTC().Format(time.RFC3339)},
	}
}

// CreateEvent creates a calendar event and returns its external id
func (g *GoogleGateway) CreateEvent(ctx context.Context, event Event) (string, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/events", g.apiBaseURL, url.PathEscape(g.calendarID))

	body, err := g.doJSON(ctx, http.MethodPost, endpoint, newEventBody(event))
	if err != nil {
		return "", err
	}

	var created eventResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to parse event response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("event response carried no id")
	}

	return created.ID, nil
}

// UpdateEvent replaces the dates and texts of an existing event
func (g *GoogleGateway) UpdateEvent(ctx context.Context, eventID string, event Event) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		g.apiBaseURL, url.PathEscape(g.calendarID), url.PathEscape(eventID))

	_, err := g.doJSON(ctx, http.MethodPut, endpoint, newEventBody(event))
	return err
}

// DeleteEvent removes an event. A 404/410 from the API is treated as
// success: the mirror is already gone.
func (g *GoogleGateway) DeleteEvent(ctx context.Context, eventID string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		g.apiBaseURL, url.PathEscape(g.calendarID), url.PathEscape(eventID))

	if err := g.ensureValidToken(ctx); err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	g.setAuthHeader(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send delete request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound, http.StatusGone:
		return nil
	default:
		return fmt.Errorf("event delete failed with status %d", resp.StatusCode)
	}
}

// doJSON sends an authenticated JSON request and returns the response body
func (g *GoogleGateway) doJSON(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	if err := g.ensureValidToken(ctx); err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create event request: %w", err)
	}
	g.setAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send event request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read event response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("calendar API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func (g *GoogleGateway) setAuthHeader(req *http.Request) {
	g.tokenMutex.RLock()
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.token))
	g.tokenMutex.RUnlock()
}
