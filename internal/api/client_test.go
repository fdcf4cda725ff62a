package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-dhiraj01/FeelInsight/internal/domain"
	apierrors "github.com/dev-dhiraj01/FeelInsight/internal/errors"
	"github.com/dev-dhiraj01/FeelInsight/internal/platform/correlation"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token() (string, bool) {
	return s.token, s.token != ""
}

func newTestClient(baseURL, token string) *Client {
	return NewClient(baseURL, staticTokens{token: token}, 10*time.Second, 10*time.Second)
}

func TestLogin_Success(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"), "login must not carry a token")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "secret1", body["password"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok123",
			"token_type":   "bearer",
			"user":         map[string]any{"user_id": "7b8a1b3e-4c1d-4f6a-9a2e-1c2d3e4f5a6b", "email": "a@b.com", "name": "A"},
		})
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "")
	resp, err := client.Login(context.Background(), "a@b.com", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "tok123", resp.AccessToken)
	assert.Equal(t, "A", resp.User.Name)
	assert.Equal(t, "a@b.com", resp.User.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "")
	_, err := client.Login(context.Background(), "a@b.com", "wrong")

	require.Error(t, err)
	assert.Equal(t, apierrors.KindInvalidCredentials, apierrors.KindOf(err))

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Incorrect email or password", apiErr.Message)
}

func TestRegister_DuplicateAccount(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"Email already registered"}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "")
	_, err := client.Register(context.Background(), "a@b.com", "secret1", "A")

	assert.Equal(t, apierrors.KindDuplicateAccount, apierrors.KindOf(err))
}

func TestAuthenticatedRequest_CarriesBearerToken(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":"7b8a1b3e-4c1d-4f6a-9a2e-1c2d3e4f5a6b","email":"a@b.com","name":"A"}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "tok123")
	user, err := client.Me(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
}

func TestAuthenticatedRequest_SessionExpired(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "stale")
	_, err := client.History(context.Background(), 10)

	assert.Equal(t, apierrors.KindSessionExpired, apierrors.KindOf(err))
}

func TestRequest_ForbiddenMapsToSessionExpired(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "tok123")
	_, err := client.Stats(context.Background())

	assert.Equal(t, apierrors.KindSessionExpired, apierrors.KindOf(err))
}

func TestRequest_ValidationErrorFromServer(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","text"],"msg":"field required"}]}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "tok123")
	_, err := client.Analyze(context.Background(), domain.AnalysisRequest{Text: "x", IncludeEmotions: true})

	require.Error(t, err)
	assert.Equal(t, apierrors.KindValidation, apierrors.KindOf(err))

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "field required", apiErr.Message)
}

func TestRequest_ServerError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Sentiment analysis failed"}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "tok123")
	_, err := client.Analyze(context.Background(), domain.AnalysisRequest{Text: "long enough text", IncludeEmotions: true})

	assert.Equal(t, apierrors.KindServer, apierrors.KindOf(err))
}

func TestRequest_UnknownStatus(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "tok123")
	_, err := client.Stats(context.Background())

	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindUnknown, apiErr.Kind)
	assert.Equal(t, http.StatusTeapot, apiErr.Status)
}

func TestRequest_NetworkUnavailable(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1/api", "tok123")

	_, err := client.Stats(context.Background())
	assert.Equal(t, apierrors.KindNetworkUnavailable, apierrors.KindOf(err))
}

func TestAuthCall_Timeout(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, staticTokens{}, 50*time.Millisecond, 10*time.Second)
	_, err := client.Login(context.Background(), "a@b.com", "secret1")

	assert.Equal(t, apierrors.KindTimeout, apierrors.KindOf(err))
}

func TestRequest_MalformedSuccessBody(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{invalid json`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "tok123")
	_, err := client.Stats(context.Background())

	assert.Equal(t, apierrors.KindServer, apierrors.KindOf(err))
}

func TestHistory_LimitPassedThrough(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "tok123")
	entries, err := client.History(context.Background(), 25)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyze_DecodesResultAndMessage(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body domain.AnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.IncludeEmotions)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"analysis": {
				"analysis_id": "3f2b8a1c-0d4e-4f6a-9a2e-1c2d3e4f5a6b",
				"text": "I feel great today",
				"sentiment_label": "positive",
				"sentiment_score": 0.82,
				"emotions": {"joy": 0.9},
				"keywords": ["sunrise", "smile"]
			},
			"message": "Sentiment analysis completed successfully"
		}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "tok123")
	resp, err := client.Analyze(context.Background(), domain.AnalysisRequest{Text: "I feel great today", IncludeEmotions: true})

	require.NoError(t, err)
	assert.Equal(t, "positive", resp.Analysis.SentimentLabel)
	assert.InDelta(t, 0.82, resp.Analysis.SentimentScore, 1e-9)
	assert.Equal(t, []string{"sunrise", "smile"}, resp.Analysis.Keywords)
	assert.InDelta(t, 0.9, resp.Analysis.Emotions["joy"], 1e-9)
	assert.Equal(t, "Sentiment analysis completed successfully", resp.Message)
}

func TestHealth_NoAuthRequired(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2025-06-01T12:00:00Z"}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "")
	status, err := client.Health(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
}

func TestRequest_CorrelationHeaderStamped(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "feedbeef", r.Header.Get(correlation.HeaderName))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_analyses":0,"sentiment_distribution":{}}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "tok123")
	ctx := correlation.WithID(context.Background(), "feedbeef")
	_, err := client.Stats(ctx)

	require.NoError(t, err)
}

func TestCircuitBreaker_OpensAfterRepeatedTransportFailures(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1/api", "tok123")

	for i := 0; i < 5; i++ {
		_, err := client.Stats(context.Background())
		require.Error(t, err)
	}

	assert.Equal(t, circuitbreaker.OpenState, client.BreakerState())

	_, err := client.Stats(context.Background())
	require.Error(t, err)
	assert.Equal(t, apierrors.KindNetworkUnavailable, apierrors.KindOf(err))
	assert.True(t, errors.Is(err, circuitbreaker.ErrOpen), "open circuit should fail fast")
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "stale")
	for i := 0; i < 10; i++ {
		_, err := client.Stats(context.Background())
		require.Error(t, err)
	}

	assert.Equal(t, circuitbreaker.ClosedState, client.BreakerState())
}
