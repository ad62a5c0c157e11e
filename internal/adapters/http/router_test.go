package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/app/lifecycle"
	"github.com/dkeye/Babel/internal/app/orch"
	"github.com/dkeye/Babel/internal/app/translate"
	"github.com/dkeye/Babel/internal/config"
	"github.com/dkeye/Babel/internal/mocks"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Babel</h1>"), 0o644))
	return &config.Config{
		Mode:       "test",
		StaticPath: dir,
		Secret:     "test-secret",
		ICEServers: []config.ICEServer{
			{URLs: []string{"stun:stun.example.org:3478"}},
			{URLs: []string{"turn:turn.example.org:3478"}, Username: "u", Credential: "p"},
		},
	}
}

func newRouter(t *testing.T, backend translate.Backend) (*gin.Engine, *orch.Orchestrator) {
	o := orch.New(app.NewRegistry(), lifecycle.NewTracker(), translate.NewGateway(backend, time.Second), app.SimplePolicy{}, 4)
	return SetupRouter(context.Background(), testConfig(t), o), o
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRouter_IndexAndSessionCookie(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := do(r, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Babel")
	require.Contains(t, w.Header().Get("Set-Cookie"), sessionName+"=")
}

func TestRouter_Health(t *testing.T) {
	r, _ := newRouter(t, nil)
	w := do(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, false, body["translatorConfigured"])

	ctrl := gomock.NewController(t)
	r, _ = newRouter(t, mocks.NewMockBackend(ctrl))
	require.Equal(t, true, decode(t, do(r, http.MethodGet, "/health", nil))["translatorConfigured"])
}

func TestRouter_LanguagesAndICE(t *testing.T) {
	r, _ := newRouter(t, nil)

	langs := decode(t, do(r, http.MethodGet, "/api/languages", nil))["languages"].([]any)
	require.Len(t, langs, 12)

	ice := decode(t, do(r, http.MethodGet, "/api/ice-servers", nil))["iceServers"].([]any)
	require.Len(t, ice, 2)
	turn := ice[1].(map[string]any)
	require.Equal(t, "u", turn["username"])
	require.Equal(t, "p", turn["credential"])
}

func TestRouter_Rooms(t *testing.T) {
	req := require.New(t)
	r, o := newRouter(t, nil)

	w := do(r, http.MethodPost, "/api/rooms", nil)
	req.Equal(http.StatusCreated, w.Code)
	roomID := decode(t, w)["roomId"].(string)
	req.NotEmpty(roomID)

	// A created id has no room until someone joins
	req.Equal(http.StatusNotFound, do(r, http.MethodGet, "/api/rooms/"+roomID+"/participants", nil).Code)

	o.Join(orch.JoinRequest{Room: "lobby", Participant: "a", Language: "es", Session: "s1"})
	o.Join(orch.JoinRequest{Room: "lobby", Participant: "b", Language: "en", Session: "s2"})
	o.Connected("s2", "a")

	rooms := decode(t, do(r, http.MethodGet, "/api/rooms", nil))["rooms"].([]any)
	req.Len(rooms, 1)
	req.Equal(float64(2), rooms[0].(map[string]any)["participantCount"])

	w = do(r, http.MethodGet, "/api/rooms/lobby/participants", nil)
	req.Equal(http.StatusOK, w.Code)
	parts := decode(t, w)["participants"].([]any)
	req.Len(parts, 2)
	first := parts[0].(map[string]any)
	req.Equal("a", first["id"])
	req.Equal("es", first["language"])
	req.Equal("joined", first["state"])
	req.Equal("active", parts[1].(map[string]any)["state"])
}

func TestRouter_Translate(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	r, _ := newRouter(t, backend)

	t.Run("missing fields", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/translate", map[string]string{"text": "hi"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported languages fall back to English", func(t *testing.T) {
		backend.EXPECT().Translate(gomock.Any(), "hej", "English", "Spanish").Return("hola", nil)
		w := do(r, http.MethodPost, "/api/translate", map[string]string{"text": "hej", "sourceLanguage": "sv", "targetLanguage": "es"})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "en", decode(t, w)["sourceLanguage"])

		// Unknown target resolves to English too: same language, no backend call
		w = do(r, http.MethodPost, "/api/translate", map[string]string{"text": "hi", "sourceLanguage": "en", "targetLanguage": "xx"})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		require.Equal(t, "hi", body["translatedText"])
		require.Equal(t, "en", body["targetLanguage"])
	})

	t.Run("ok", func(t *testing.T) {
		backend.EXPECT().Translate(gomock.Any(), "Good morning", "English", "Spanish").Return("Buenos días", nil)
		w := do(r, http.MethodPost, "/api/translate", map[string]string{"text": "Good morning", "sourceLanguage": "en", "targetLanguage": "es-ES"})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		require.Equal(t, "Buenos días", body["translatedText"])
		require.Equal(t, "es", body["targetLanguage"])
	})

	t.Run("auto detection", func(t *testing.T) {
		text := "Bonjour tout le monde, comment allez-vous aujourd'hui? Il fait très beau ce matin."
		backend.EXPECT().Translate(gomock.Any(), text, "French", "English").Return("Hello everyone", nil)
		w := do(r, http.MethodPost, "/api/translate", map[string]string{"text": text, "sourceLanguage": "auto", "targetLanguage": "en"})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "fr", decode(t, w)["sourceLanguage"])
	})

	t.Run("backend failure", func(t *testing.T) {
		backend.EXPECT().Translate(gomock.Any(), "hi", "English", "German").Return("", errors.New("quota"))
		w := do(r, http.MethodPost, "/api/translate", map[string]string{"text": "hi", "sourceLanguage": "en", "targetLanguage": "de"})
		require.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestRouter_TranslateWithoutBackend(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := do(r, http.MethodPost, "/api/translate", map[string]string{"text": "hi", "sourceLanguage": "en", "targetLanguage": "de"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Same language needs no backend
	w = do(r, http.MethodPost, "/api/translate", map[string]string{"text": "hi", "sourceLanguage": "en", "targetLanguage": "en"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "hi", decode(t, w)["translatedText"])
}
