package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-wire/pkg/journal"
	"github.com/ZentaChain/zentalk-wire/pkg/wire"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func newTestServer(t *testing.T, withJournal bool) (*Server, *journal.Journal) {
	t.Helper()
	var j *journal.Journal
	if withJournal {
		var err error
		j, err = journal.Open(filepath.Join(t.TempDir(), "journal.db"), 0, nil)
		require.NoError(t, err)
		t.Cleanup(func() { j.Close() })
	}
	config := DefaultConfig()
	config.RateLimit = 0
	return NewServer(j, config, nil), j
}

func do(t *testing.T, s *Server, method, path string, body any, header ...string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"journal":true`)
}

func TestDecodeTarget(t *testing.T) {
	s, _ := newTestServer(t, false)

	t.Run("anon", func(t *testing.T) {
		code, env := do(t, s, http.MethodPost, "/api/v1/targets/decode", DecodeRequest{Hex: "0000000007"})
		require.Equal(t, http.StatusOK, code)

		var out DecodeResponse
		require.NoError(t, json.Unmarshal(env.Data, &out))
		assert.Equal(t, "target", out.As)
		assert.Equal(t, "anon/7", out.Display)
		assert.JSONEq(t, `{"anon":7}`, string(out.Text))
	})

	t.Run("targets", func(t *testing.T) {
		code, env := do(t, s, http.MethodPost, "/api/v1/targets/decode", DecodeRequest{Hex: "00", As: "targets"})
		require.Equal(t, http.StatusOK, code)

		var out DecodeResponse
		require.NoError(t, json.Unmarshal(env.Data, &out))
		assert.Equal(t, "all", out.Display)
		assert.JSONEq(t, `"all"`, string(out.Text))
	})

	t.Run("bad discriminant", func(t *testing.T) {
		code, env := do(t, s, http.MethodPost, "/api/v1/targets/decode", DecodeRequest{Hex: "0900000007"})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, "BAD_DISCRIMINANT", env.Code)
	})

	t.Run("bad hex", func(t *testing.T) {
		code, _ := do(t, s, http.MethodPost, "/api/v1/targets/decode", DecodeRequest{Hex: "zz"})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestEncodeTarget(t *testing.T) {
	s, _ := newTestServer(t, false)

	code, env := do(t, s, http.MethodPost, "/api/v1/targets/encode", map[string]any{"target": map[string]any{"bot": 1}})
	require.Equal(t, http.StatusOK, code)

	var out EncodeResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "020000000000000001", out.Hex)
	assert.Equal(t, "bot/1", out.Display)

	code, _ = do(t, s, http.MethodPost, "/api/v1/targets/encode", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, s, http.MethodPost, "/api/v1/targets/encode", map[string]any{"target": map[string]any{"robot": 1}})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "BAD_DISCRIMINANT", env.Code)
}

func TestJournalRoutes(t *testing.T) {
	ctx := context.Background()
	s, j := newTestServer(t, true)

	corrid := wire.CorrelationIDFromUint64(42)
	req := wire.NewReq(wire.NewAnon(7), "ping", corrid)
	_, err := journal.RecordReq(ctx, j, req, wire.StringCodec)
	require.NoError(t, err)

	code, env := do(t, s, http.MethodGet, "/api/v1/journal/pending", nil)
	require.Equal(t, http.StatusOK, code)
	var pending []EntryView
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "req", pending[0].Kind)
	assert.Equal(t, corrid.String(), pending[0].CorrID)
	assert.Equal(t, "anon/7", pending[0].Target)

	_, err = journal.RecordError(ctx, j, wire.ErrorFor(req, wire.ErrInvalidMessage), wire.NetworkErrorCodec)
	require.NoError(t, err)

	code, env = do(t, s, http.MethodGet, "/api/v1/journal/"+corrid.String(), nil)
	require.Equal(t, http.StatusOK, code)
	var entries []EntryView
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 2)
	assert.NotZero(t, entries[0].ResolvedAt)
	assert.Equal(t, "error", entries[1].Kind)

	code, _ = do(t, s, http.MethodGet, "/api/v1/journal/"+wire.CorrelationIDFromUint64(1).String(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, s, http.MethodGet, "/api/v1/journal/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, s, http.MethodGet, "/api/v1/journal/stats", nil)
	require.Equal(t, http.StatusOK, code)
	var stats journal.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 0, stats.Pending)
}

func TestJournalRoutesWithoutJournal(t *testing.T) {
	s, _ := newTestServer(t, false)

	code, env := do(t, s, http.MethodGet, "/api/v1/journal/pending", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "NO_JOURNAL", env.Code)
}

func TestLocalizeError(t *testing.T) {
	s, _ := newTestServer(t, false)

	tests := []struct {
		name    string
		path    string
		accept  string
		status  int
		message string
	}{
		{"english default", "/api/v1/errors/session/unauthenticated", "", http.StatusOK, "You need to sign in first."},
		{"german query", "/api/v1/errors/session/unauthenticated?lang=de", "", http.StatusOK, "Du musst dich zuerst anmelden."},
		{"german header", "/api/v1/errors/network/invalid_message", "de-CH, en;q=0.5", http.StatusOK, "Der Server konnte die Nachricht nicht verstehen."},
		{"socket detail", "/api/v1/errors/network/socket?detail=reset", "", http.StatusOK, "Connection problem: reset"},
		{"unsupported falls back", "/api/v1/errors/network/rate_limited?lang=ja", "", http.StatusOK, "You are sending messages too fast. Slow down."},
		{"unknown code", "/api/v1/errors/session/expired", "", http.StatusNotFound, ""},
		{"unknown kind", "/api/v1/errors/disk/full", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header []string
			if tt.accept != "" {
				header = []string{"Accept-Language", tt.accept}
			}
			code, env := do(t, s, http.MethodGet, tt.path, nil, header...)
			require.Equal(t, tt.status, code)
			if tt.message == "" {
				return
			}
			var out LocalizedError
			require.NoError(t, json.Unmarshal(env.Data, &out))
			assert.Equal(t, tt.message, out.Message)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/targets/decode", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}
