package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSuccess(t *testing.T) {
	var gotUA, gotAccept, gotCookie string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotCookie = r.Header.Get("Cookie")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := Client{}
	resp := c.Send(Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Header: http.Header{"Cookie": []string{"session=abc"}},
		Body:   []byte(`{"q": 1}`),
	})

	require.True(t, resp.Success)
	require.NoError(t, resp.Err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte(`{"ok": true}`), resp.Data)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	assert.Contains(t, userAgents, gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "session=abc", gotCookie)
	assert.Equal(t, []byte(`{"q": 1}`), gotBody)
}

func TestSendNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := Client{}
	resp := c.Send(Request{Method: http.MethodGet, URL: srv.URL})

	assert.False(t, resp.Success)
	assert.Error(t, resp.Err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(resp.Data), "unavailable")
}

func TestSendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := Client{}
	resp := c.Send(Request{Method: http.MethodGet, URL: srv.URL, Timeout: 20 * time.Millisecond})

	assert.False(t, resp.Success)
	assert.Error(t, resp.Err)
}

func TestSendConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := Client{}
	resp := c.Send(Request{Method: http.MethodGet, URL: srv.URL})

	assert.False(t, resp.Success)
	assert.Error(t, resp.Err)
}

func TestSendInvalidRequest(t *testing.T) {
	c := Client{}
	resp := c.Send(Request{Method: "bad method", URL: "://not-a-url"})

	assert.False(t, resp.Success)
	assert.Error(t, resp.Err)
}
