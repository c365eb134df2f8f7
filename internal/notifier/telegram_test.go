package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Errorf(format string, v ...any) {}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func telegramClient(rt roundTripFunc) Telegram {
	return Telegram{
		Client: &http.Client{Transport: rt},
		Token:  "test-token",
		Logger: nopLogger{},
	}
}

func TestSend(t *testing.T) {
	var gotURL string
	var gotReq sendMessageRequest
	tg := telegramClient(func(r *http.Request) (*http.Response, error) {
		gotURL = r.URL.String()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Body:       io.NopCloser(strings.NewReader(`{"ok": true}`)),
		}, nil
	})

	err := tg.Send("1234", "*New Item Found!*")
	require.NoError(t, err)

	assert.Equal(t, "https://api.telegram.org/bottest-token/sendMessage", gotURL)
	assert.Equal(t, "1234", gotReq.ChatID)
	assert.Equal(t, "*New Item Found!*", gotReq.Text)
	assert.Equal(t, "Markdown", gotReq.ParseMode)
}

func TestSendRejected(t *testing.T) {
	tg := telegramClient(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Status:     "400 Bad Request",
			Body:       io.NopCloser(strings.NewReader(`{"ok": false, "description": "Bad Request: chat not found"}`)),
		}, nil
	})

	err := tg.Send("1234", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendTransportError(t *testing.T) {
	tg := telegramClient(func(r *http.Request) (*http.Response, error) {
		return nil, assert.AnError
	})

	assert.Error(t, tg.Send("1234", "hello"))
}

func TestSendMalformedResponse(t *testing.T) {
	tg := telegramClient(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Body:       io.NopCloser(strings.NewReader("<html>not json</html>")),
		}, nil
	})

	assert.Error(t, tg.Send("1234", "hello"))
}
