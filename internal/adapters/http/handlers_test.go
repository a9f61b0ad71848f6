package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Pi-Bouf/geckos.io/internal/app"
	"github.com/Pi-Bouf/geckos.io/internal/config"
	"github.com/Pi-Bouf/geckos.io/internal/core"
	"github.com/Pi-Bouf/geckos.io/internal/domain"
)

type stubConn struct {
	frames []core.Frame
}

func (s *stubConn) TrySend(f core.Frame) error {
	s.frames = append(s.frames, f)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *app.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Mode: "test", Secret: "test", Label: "geckos.io", StaticPath: "./web"}
	srv := app.NewServer(cfg)
	return SetupRouter(context.Background(), cfg, srv), srv
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndCloseConnection(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/.wrtc/v2/connections", map[string]string{"room": "lobby"})
	require.Equal(t, http.StatusOK, w.Code)

	var offer struct {
		ID               string `json:"id"`
		LocalDescription struct {
			SDP string `json:"sdp"`
		} `json:"localDescription"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &offer))
	require.NotEmpty(t, offer.ID)
	require.NotEmpty(t, offer.LocalDescription.SDP)

	w = doJSON(t, r, http.MethodGet, "/.wrtc/v2/connections/"+offer.ID+"/additional-candidates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/.wrtc/v2/connections/"+offer.ID+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/.wrtc/v2/connections/"+offer.ID+"/close", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoteDescriptionUnknownConnection(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/.wrtc/v2/connections/ghost/remote-description",
		map[string]string{"type": "answer", "sdp": "v=0"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomLifecycleOverREST(t *testing.T) {
	r, srv := newTestRouter(t)

	conn := &stubConn{}
	srv.Manager.Register(core.NewChannel("a", conn, nil, core.ChannelOptions{}))

	w := doJSON(t, r, http.MethodPost, "/api/connections/a/room", map[string]string{"room": "r1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rooms struct {
		Rooms []domain.RoomInfo `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Equal(t, []domain.RoomInfo{{ID: "r1", MemberCount: 1}}, rooms.Rooms)

	w = doJSON(t, r, http.MethodPost, "/api/rooms/r1/broadcast",
		map[string]any{"data": "hi", "reliable": true})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		SentTo  int `json:"sent_to"`
		Dropped int `json:"dropped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, 1, res.SentTo)
	require.Zero(t, res.Dropped)
	require.Len(t, conn.frames, 1)

	w = doJSON(t, r, http.MethodDelete, "/api/connections/a/room", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/rooms", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Empty(t, rooms.Rooms)
}

func TestJoinRoomValidation(t *testing.T) {
	r, srv := newTestRouter(t)
	srv.Manager.Register(core.NewChannel("a", &stubConn{}, nil, core.ChannelOptions{}))

	w := doJSON(t, r, http.MethodPost, "/api/connections/a/room", map[string]string{"room": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)

	long := make([]byte, domain.MaxRoomIDLen+1)
	for i := range long {
		long[i] = 'x'
	}
	w = doJSON(t, r, http.MethodPost, "/api/connections/a/room", map[string]string{"room": string(long)})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/connections/ghost/room", map[string]string{"room": "r1"})
	require.Equal(t, http.StatusNotFound, w.Code)
}
