package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/complaints/backend/internal/storage/models"
	"github.com/complaints/backend/pkg/circuitbreaker"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClassifySentiment_Success(t *testing.T) {
	var gotKey, gotText string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("apikey")

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotText = body["text"]

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sentiment":"negative","confidence":0.93}`))
	})

	c := NewClient(srv.URL, "secret", time.Second, nil)
	label, err := c.ClassifySentiment(context.Background(), "app crashes on login")

	assert.Equal(t, nil, err)
	assert.Equal(t, "negative", label)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "app crashes on login", gotText)
}

func TestClassifySentiment_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"sentiment":`))
			},
		},
		{
			name: "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"score":0.2}`))
			},
		},
		{
			name: "non-string field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"sentiment":3}`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				w.Write([]byte(`{"sentiment":"positive"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.handler)
			c := NewClient(srv.URL, "secret", 50*time.Millisecond, nil)

			label, err := c.ClassifySentiment(context.Background(), "text")

			assert.NotEqual(t, nil, err)
			assert.Equal(t, models.SentimentUnknown, label)
		})
	}
}

func TestClassifySentiment_StatusError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid key"))
	})

	c := NewClient(srv.URL, "secret", time.Second, nil)
	_, err := c.ClassifySentiment(context.Background(), "text")

	var statusErr *StatusError
	assert.Equal(t, true, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestClassifySentiment_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "secret", time.Second, nil)
	label, err := c.ClassifySentiment(context.Background(), "text")

	assert.NotEqual(t, nil, err)
	assert.Equal(t, models.SentimentUnknown, label)
}

func TestClassifySentiment_MissingKeySkipsCall(t *testing.T) {
	called := false
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	c := NewClient(srv.URL, "", time.Second, nil)
	label, err := c.ClassifySentiment(context.Background(), "text")

	assert.Equal(t, true, errors.Is(err, ErrMissingAPIKey))
	assert.Equal(t, models.SentimentUnknown, label)
	assert.Equal(t, false, called)
}

func TestClassifySentiment_OpenCircuitFallsBack(t *testing.T) {
	calls := 0
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	cb := circuitbreaker.NewCircuitBreaker("sentiment", circuitbreaker.Config{
		FailureThreshold: 2,
		Timeout:          time.Minute,
	})
	c := NewClient(srv.URL, "secret", time.Second, cb)

	for i := 0; i < 4; i++ {
		label, _ := c.ClassifySentiment(context.Background(), "text")
		assert.Equal(t, models.SentimentUnknown, label)
	}

	_, err := c.ClassifySentiment(context.Background(), "text")
	assert.Equal(t, true, errors.Is(err, circuitbreaker.ErrCircuitOpen))
	assert.Equal(t, 2, calls)
}
