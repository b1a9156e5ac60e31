package httpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewClient(0).Timeout)
	assert.Equal(t, 2*time.Second, NewClient(2*time.Second).Timeout)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": 7}`))
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, GetJSON(NewClient(time.Second), srv.URL, &out))
	assert.Equal(t, 7, out.Value)
}

func TestPostJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, PostJSON(NewClient(time.Second), srv.URL, map[string]int{"level": 100}))
	assert.Equal(t, 100.0, got["level"])
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such fixture", http.StatusNotFound)
	}))
	defer srv.Close()

	err := PostJSON(NewClient(time.Second), srv.URL, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "no such fixture", se.Body)

	err = GetJSON(NewClient(time.Second), srv.URL, &struct{}{})
	assert.ErrorContains(t, err, "status 404")
}
