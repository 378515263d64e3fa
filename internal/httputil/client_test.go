// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pdiddy/threadseeker/pkg/types"
)

type payload struct {
	Name string `json:"name"`
}

func TestGetJSON_Success(t *testing.T) {
	var gotUA, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"threadseeker"}`))
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{UserAgent: "ts-test/1.0"}, 0)
	var out payload
	err := c.GetJSON(context.Background(), ts.URL, map[string]string{"Authorization": "Bearer x"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "threadseeker", out.Name)
	assert.Equal(t, "ts-test/1.0", gotUA)
	assert.Equal(t, "Bearer x", gotAuth)
}

func TestGetJSON_RateLimitedIsNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{}, 0)
	err := c.GetJSON(context.Background(), ts.URL, nil, &payload{})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrRateLimited))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 30*time.Second, se.RetryAfter)
	assert.Equal(t, "slow down", se.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSON_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{}, 0)
	err := c.GetJSON(context.Background(), ts.URL, nil, &payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
	assert.False(t, errors.Is(err, ErrRateLimited))
}

func TestGetJSON_BadBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{}, 0)
	err := c.GetJSON(context.Background(), ts.URL, nil, &payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestGetJSON_ContextCancelledWhileLimited(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{}, 0)
	c.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	require.NoError(t, c.GetJSON(context.Background(), ts.URL, nil, &payload{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.GetJSON(ctx, ts.URL, nil, &payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		rpm         float64
		wantLimiter bool
		wantBurst   int
	}{
		{"disabled", 0, false, 0},
		{"low rate", 5, true, 1},
		{"default rate", 30, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(types.HTTPConfig{}, tt.rpm)
			assert.Equal(t, 15*time.Second, c.HTTP.Timeout)
			if !tt.wantLimiter {
				assert.Nil(t, c.Limiter)
				return
			}
			require.NotNil(t, c.Limiter)
			assert.Equal(t, tt.wantBurst, c.Limiter.Burst())
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
