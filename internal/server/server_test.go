package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vintedwatch/internal/metrics"
	"vintedwatch/internal/monitor"
)

type nopLogger struct{}

func (nopLogger) Debug(v ...any)                 {}
func (nopLogger) Info(v ...any)                  {}
func (nopLogger) Warn(v ...any)                  {}
func (nopLogger) Error(v ...any)                 {}
func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Warnf(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}
func (nopLogger) Tracef(format string, v ...any) {}

func testAuthKey(t *testing.T) jwk.Key {
	t.Helper()
	key, err := jwk.FromRaw([]byte("secret-key-for-tests"))
	require.NoError(t, err)
	return key
}

func TestValidWatchURL(t *testing.T) {
	assert.True(t, validWatchURL("https://www.vinted.fr/catalog?search_text=jacket"))
	assert.True(t, validWatchURL("https://www.vinted.de/catalog?brand_ids[]=53"))
	assert.False(t, validWatchURL("https://www.example.com/catalog"))
	assert.False(t, validWatchURL("ftp://www.vinted.fr/catalog"))
	assert.False(t, validWatchURL("not a url"))
	assert.False(t, validWatchURL(""))
}

func TestCreateAccessToken(t *testing.T) {
	s := Server{AuthSecretKey: testAuthKey(t), Logger: nopLogger{}}

	at, err := s.createAccessToken("62a1111111111111111111aa")
	require.NoError(t, err)

	token, err := jwt.Parse([]byte(at), jwt.WithKey(jwa.HS256, s.AuthSecretKey), jwt.WithValidate(true))
	require.NoError(t, err)
	assert.Equal(t, "62a1111111111111111111aa", token.Subject())
	assert.False(t, token.Expiration().IsZero())
}

func TestIsAdminTelegramID(t *testing.T) {
	s := Server{AdminTelegramIDs: []string{"1111", "2222"}}
	assert.True(t, s.isAdminTelegramID("1111"))
	assert.False(t, s.isAdminTelegramID("3333"))
}

func TestHealthHandler(t *testing.T) {
	s := Server{
		Monitor: &monitor.Service{Logger: nopLogger{}},
		Metrics: metrics.NewAggregator(nopLogger{}),
		Logger:  nopLogger{},
	}

	w := httptest.NewRecorder()
	s.health()(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status            string `json:"status"`
		MonitoringRunning bool   `json:"monitoring_running"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.MonitoringRunning)
}

func TestAuthMwRejectsMissingOrBadToken(t *testing.T) {
	s := Server{AuthSecretKey: testAuthKey(t), Logger: nopLogger{}}
	handler := s.authMw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/watch/get", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/watch/get", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
