package router

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/adapter/api"
	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/adapter/repository"
	"foodshare/internal/infrastructure/firebase"
	"foodshare/internal/usecase"
)

// tokenVerifier accepts tokens of the form "<uid>" and rejects "bad".
type tokenVerifier struct{}

func (tokenVerifier) VerifyToken(_ context.Context, token string) (*firebase.Identity, error) {
	if token == "bad" {
		return nil, stderrors.New("token expired")
	}
	return &firebase.Identity{UID: token, Name: "Token " + token, Email: token + "@example.com"}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	listings := repository.NewMemoryListingRepository()
	users := repository.NewMemoryUserRepository()
	notify := usecase.NewNotificationUseCase(repository.NewMemoryNotificationRepository(), users, nil, 4)
	listingUC := usecase.NewListingUseCase(listings, notify, nil, nil, nil)
	messageUC := usecase.NewMessageUseCase(repository.NewMemoryMessageRepository(), users, notify, nil, nil)
	userUC := usecase.NewUserUseCase(users, listings, nil)

	handler.Setup(listingUC, messageUC, notify, userUC, 20)
	handler.SetupHealthHandler(map[string]handler.HealthCheck{
		"store": func(context.Context) error { return nil },
	})

	e := echo.New()
	e.Validator = api.NewValidator()
	Setup(e, middleware.NewAuthMiddleware(tokenVerifier{}, userUC), nil)

	return &testServer{e: e}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) && path != "/health" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *testServer) profile(t *testing.T, uid, name, userType string) {
	t.Helper()
	code, env := s.do(t, http.MethodPut, "/v1/users/me", uid, map[string]interface{}{
		"display_name": name,
		"user_type":    userType,
	})
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"ok"`)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/v1/my-listings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	code, _ = s.do(t, http.MethodGet, "/v1/my-listings", "bad", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestListingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.profile(t, "donor", "Dana", "donor")
	s.profile(t, "r1", "Rae", "recipient")
	s.profile(t, "r2", "Ravi", "recipient")

	code, env := s.do(t, http.MethodPost, "/v1/my-listings", "r1", map[string]interface{}{
		"title": "Bread", "description": "Sourdough", "category": "bakery", "quantity": 2,
		"expiry_date": time.Now().Add(24 * time.Hour), "latitude": 0.01, "longitude": 0,
	})
	assert.Equal(t, http.StatusForbidden, code, "recipients cannot donate")

	code, env = s.do(t, http.MethodPost, "/v1/my-listings", "donor", map[string]interface{}{
		"title": "Bread", "description": "Sourdough", "category": "bakery", "quantity": 2,
		"expiry_date": time.Now().Add(24 * time.Hour), "latitude": 0.01, "longitude": 0,
	})
	require.Equal(t, http.StatusCreated, code, "%+v", env.Error)
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "available", created.Status)

	code, env = s.do(t, http.MethodGet, "/v1/listings?lat=0&lng=0&radius_km=5", "", nil)
	require.Equal(t, http.StatusOK, code)
	var ranked []struct {
		ID            string  `json:"id"`
		DistanceKm    float64 `json:"distance_km"`
		DistanceLabel string  `json:"distance_label"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ranked))
	require.Len(t, ranked, 1)
	assert.Equal(t, created.ID, ranked[0].ID)
	assert.Equal(t, "1.1 km away", ranked[0].DistanceLabel)

	code, _ = s.do(t, http.MethodPost, "/v1/listings/"+created.ID+"/claim", "r1", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/v1/listings/"+created.ID+"/claim", "r2", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_CLAIMED", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/v1/my-claims", "r1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), created.ID)

	code, _ = s.do(t, http.MethodPost, "/v1/listings/"+created.ID+"/complete", "donor", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/v1/users/donor/ratings", "r1", map[string]interface{}{
		"listing_id": created.ID, "score": 5,
	})
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)
	assert.Contains(t, string(env.Data), `"average_rating":5`)

	code, env = s.do(t, http.MethodDelete, "/v1/my-listings/"+created.ID, "donor", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/v1/notifications/unread-count", "donor", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"unread":1}`, string(env.Data), "claim request")
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)
	s.profile(t, "donor", "Dana", "donor")

	code, env := s.do(t, http.MethodPost, "/v1/my-listings", "donor", map[string]interface{}{
		"description": "no title", "category": "bakery", "quantity": 1,
		"expiry_date": time.Now().Add(time.Hour), "latitude": 0, "longitude": 0,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "title is required", env.Error.Message)

	code, env = s.do(t, http.MethodGet, "/v1/listings?lat=abc&lng=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, env = s.do(t, http.MethodPut, "/v1/users/me", "donor", map[string]interface{}{
		"display_name": "Dana", "user_type": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "user_type must be one of: donor recipient both", env.Error.Message)
}

func TestMessagingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodPut, "/v1/users/me", "a", map[string]interface{}{
		"display_name": "Ann", "user_type": "both", "phone_number": "+1-555-0100",
		"address": "12 Home St", "latitude": 40, "longitude": -73,
	})
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)
	s.profile(t, "b", "Ben", "both")

	for i, step := range []struct{ from, to, text string }{
		{"a", "b", "hi"}, {"b", "a", "hey"}, {"a", "b", "there"},
	} {
		code, env := s.do(t, http.MethodPost, "/v1/messages", step.from, map[string]interface{}{
			"recipient_id": step.to, "content": step.text,
		})
		require.Equal(t, http.StatusCreated, code, "message %d: %+v", i, env.Error)
	}

	code, env = s.do(t, http.MethodGet, "/v1/conversations/b", "a", nil)
	require.Equal(t, http.StatusOK, code)
	var thread []struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &thread))
	require.Len(t, thread, 3)
	assert.Equal(t, "hi", thread[0].Content)
	assert.Equal(t, "there", thread[2].Content)

	code, env = s.do(t, http.MethodGet, "/v1/conversations", "b", nil)
	require.Equal(t, http.StatusOK, code)
	var convs []struct {
		PartnerID   string `json:"partner_id"`
		UnreadCount int    `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, "a", convs[0].PartnerID)
	assert.Equal(t, 2, convs[0].UnreadCount)
	assert.Contains(t, string(env.Data), `"display_name":"Ann"`)
	for _, private := range []string{"email", "phone_number", "address", "latitude", "longitude"} {
		assert.NotContains(t, string(env.Data), private)
	}

	code, env = s.do(t, http.MethodPost, "/v1/conversations/a/read", "b", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"marked":2}`, string(env.Data))

	code, env = s.do(t, http.MethodPost, "/v1/messages", "a", map[string]interface{}{
		"recipient_id": "a", "content": "me",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestNotificationsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.profile(t, "a", "Ann", "both")
	s.profile(t, "b", "Ben", "both")

	for i := 0; i < 3; i++ {
		code, _ := s.do(t, http.MethodPost, "/v1/messages", "a", map[string]interface{}{
			"recipient_id": "b", "content": fmt.Sprintf("msg %d", i),
		})
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := s.do(t, http.MethodGet, "/v1/notifications?page=1&limit=2", "b", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"items"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "message", page.Items[0].Type)

	code, env = s.do(t, http.MethodPatch, "/v1/notifications/"+page.Items[0].ID+"/read", "a", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPost, "/v1/notifications/read-all", "b", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"marked":3}`, string(env.Data))

	code, _ = s.do(t, http.MethodDelete, "/v1/notifications/"+page.Items[0].ID, "b", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPublicProfileHidesContactDetails(t *testing.T) {
	s := newTestServer(t)
	s.profile(t, "a", "Ann", "donor")

	code, env := s.do(t, http.MethodGet, "/v1/users/a", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "email")
	assert.Contains(t, string(env.Data), `"display_name":"Ann"`)

	code, env = s.do(t, http.MethodGet, "/v1/users/me", "a", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "a@example.com")
}
